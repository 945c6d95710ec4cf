package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RuleType string

const (
	RuleTypeAmountThreshold RuleType = "AMOUNT_THRESHOLD"
	RuleTypeVelocity        RuleType = "VELOCITY"
	RuleTypeNewPayee        RuleType = "NEW_PAYEE"
	RuleTypeDailyLimit      RuleType = "DAILY_LIMIT"
)

func RuleTypes() []RuleType {
	return []RuleType{
		RuleTypeAmountThreshold,
		RuleTypeVelocity,
		RuleTypeNewPayee,
		RuleTypeDailyLimit,
	}
}

func (t RuleType) Valid() bool {
	switch t {
	case RuleTypeAmountThreshold, RuleTypeVelocity, RuleTypeNewPayee, RuleTypeDailyLimit:
		return true
	}
	return false
}

type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "HIGH"
	SeverityMedium AlertSeverity = "MEDIUM"
	SeverityLow    AlertSeverity = "LOW"
)

// Priority returns the ordinal triage rank: HIGH sorts before MEDIUM
// before LOW.
func (s AlertSeverity) Priority() int {
	switch s {
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

func (s AlertSeverity) Valid() bool {
	return s == SeverityHigh || s == SeverityMedium || s == SeverityLow
}

// MonitoringRule defines one detection rule. Only the parameter subset
// matching RuleType is meaningful:
//
//	AMOUNT_THRESHOLD: ThresholdAmount (+ optional ThresholdCurrency)
//	VELOCITY:         MaxTransactions + TimeWindowMinutes
//	DAILY_LIMIT:      DailyLimitAmount
//	NEW_PAYEE:        LookbackDays
type MonitoringRule struct {
	ID          string        `json:"id"`
	RuleName    string        `json:"rule_name"`
	RuleType    RuleType      `json:"rule_type"`
	Severity    AlertSeverity `json:"severity"`
	Active      bool          `json:"active"`
	Description string        `json:"description,omitempty"`

	ThresholdAmount   *decimal.Decimal `json:"threshold_amount,omitempty"`
	ThresholdCurrency string           `json:"threshold_currency,omitempty"`
	MaxTransactions   *int             `json:"max_transactions,omitempty"`
	TimeWindowMinutes *int             `json:"time_window_minutes,omitempty"`
	DailyLimitAmount  *decimal.Decimal `json:"daily_limit_amount,omitempty"`
	LookbackDays      *int             `json:"lookback_days,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
