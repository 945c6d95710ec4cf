package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/moneymap/payments/internal/config"
	"github.com/moneymap/payments/internal/eventbus"
	"github.com/moneymap/payments/internal/handler"
	"github.com/moneymap/payments/internal/rules"
	"github.com/moneymap/payments/internal/server"
	"github.com/moneymap/payments/internal/service"
	"github.com/moneymap/payments/internal/storage"
	"github.com/moneymap/payments/pkg/logger"
	"github.com/moneymap/payments/pkg/metrics"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.Logging.Level)
	defer log.Sync()

	ctx := context.Background()
	log.Info(ctx, "Starting application")

	paymentStore := storage.NewPaymentStore()
	ruleStore := storage.NewRuleStore()
	alertStore := storage.NewAlertStore()
	log.Info(ctx, "Stores initialized")

	collector := metrics.NewCollector()

	evaluators := rules.NewSet(paymentStore, log)
	engine := service.NewRuleEngine(ruleStore, alertStore, paymentStore, evaluators, cfg.RuleEngine, log, collector)
	log.Info(ctx, "Rule engine initialized")

	eventBusCfg := &eventbus.Config{
		ChannelBuffer: cfg.EventBus.ChannelBufferSize,
		MaxRetries:    cfg.RuleEngine.MaxRetries,
	}
	bus := eventbus.New(log, eventBusCfg)

	evaluationConsumer := eventbus.NewEvaluationConsumer(engine, log, cfg.RuleEngine.WorkerPoolSize)
	err := bus.Subscribe(eventbus.EventTypePaymentCreated, evaluationConsumer)
	if err != nil {
		log.Fatal(ctx, "Failed to subscribe consumer",
			"error", err,
		)
	}

	err = bus.Start(ctx)
	if err != nil {
		log.Fatal(ctx, "Failed to start event bus",
			"error", err,
		)
	}
	log.Info(ctx, "Event bus started",
		"worker_count", cfg.RuleEngine.WorkerPoolSize,
	)

	trigger := eventbus.NewEvaluationPublisher(bus, log)

	paymentService := service.NewPaymentService(paymentStore, trigger, cfg.Payment, log, collector)
	ruleService := service.NewRuleService(ruleStore, log)
	alertService := service.NewAlertService(alertStore, log)
	log.Info(ctx, "Services initialized")

	paymentHandler := handler.NewPaymentHandler(paymentService, log)
	ruleHandler := handler.NewRuleHandler(ruleService, engine, log)
	alertHandler := handler.NewAlertHandler(alertService, log)
	healthHandler := handler.NewHealthHandler()
	log.Info(ctx, "Handlers initialized")

	srv := server.New(cfg, log, paymentHandler, ruleHandler, alertHandler, healthHandler, collector.Handler())

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal(ctx, "Failed to start HTTP server",
				"error", err,
			)
		}
	}()

	log.Info(ctx, "Application started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info(ctx, "Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop accepting new HTTP requests first, then drain evaluation workers.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "HTTP server shutdown error",
			"error", err,
		)
	}

	if err := bus.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "Event bus shutdown error",
			"error", err,
		)
	}

	log.Info(ctx, "Application stopped gracefully")
}
