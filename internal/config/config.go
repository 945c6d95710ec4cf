package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Server     ServerConfig
	Payment    PaymentConfig
	RuleEngine RuleEngineConfig
	EventBus   EventBusConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ShutdownTimeout time.Duration
}

type PaymentConfig struct {
	MaxAmount           decimal.Decimal
	SupportedCurrencies []string
}

type RuleEngineConfig struct {
	EvaluatorTimeout time.Duration
	WorkerPoolSize   int
	MaxRetries       int
}

type EventBusConfig struct {
	ChannelBufferSize int
}

type LoggingConfig struct {
	Level string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default values")
	}

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Payment: PaymentConfig{
			MaxAmount:           getDecimalEnv("PAYMENT_MAX_AMOUNT", decimal.NewFromInt(1_000_000)),
			SupportedCurrencies: getListEnv("SUPPORTED_CURRENCIES", []string{"USD", "EUR", "GBP", "JPY", "INR", "CAD", "AUD"}),
		},
		RuleEngine: RuleEngineConfig{
			EvaluatorTimeout: getDurationEnv("RULE_EVALUATOR_TIMEOUT", 5*time.Second),
			WorkerPoolSize:   getIntEnv("RULE_WORKER_POOL_SIZE", 10),
			MaxRetries:       getIntEnv("ALERT_PERSIST_MAX_RETRIES", 3),
		},
		EventBus: EventBusConfig{
			ChannelBufferSize: getIntEnv("EVENT_CHANNEL_BUFFER_SIZE", 1000),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid duration for %s: %s, using default: %s", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

func getDecimalEnv(key string, defaultValue decimal.Decimal) decimal.Decimal {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		log.Printf("Invalid decimal for %s: %s, using default: %s", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

func getListEnv(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, strings.ToUpper(trimmed))
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
