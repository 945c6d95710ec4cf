package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/moneymap/payments/internal/domain"
	"github.com/moneymap/payments/pkg/logger"
)

// Evaluator checks one payment against one rule. It returns a nil alert
// when the rule does not trigger. Evaluators are pure with respect to the
// stores: they only read through domain.PaymentQueries.
type Evaluator interface {
	Evaluate(ctx context.Context, payment *domain.Payment, rule *domain.MonitoringRule) (*domain.Alert, error)
}

// Set holds one evaluator per rule type and dispatches on the closed
// RuleType enum.
type Set struct {
	amountThreshold *AmountThresholdEvaluator
	velocity        *VelocityEvaluator
	dailyLimit      *DailyLimitEvaluator
	newPayee        *NewPayeeEvaluator
}

func NewSet(queries domain.PaymentQueries, log *logger.Logger) *Set {
	return &Set{
		amountThreshold: NewAmountThresholdEvaluator(log),
		velocity:        NewVelocityEvaluator(queries, log),
		dailyLimit:      NewDailyLimitEvaluator(queries, log),
		newPayee:        NewNewPayeeEvaluator(queries, log),
	}
}

func (s *Set) Evaluate(ctx context.Context, payment *domain.Payment, rule *domain.MonitoringRule) (*domain.Alert, error) {
	switch rule.RuleType {
	case domain.RuleTypeAmountThreshold:
		return s.amountThreshold.Evaluate(ctx, payment, rule)
	case domain.RuleTypeVelocity:
		return s.velocity.Evaluate(ctx, payment, rule)
	case domain.RuleTypeDailyLimit:
		return s.dailyLimit.Evaluate(ctx, payment, rule)
	case domain.RuleTypeNewPayee:
		return s.newPayee.Evaluate(ctx, payment, rule)
	default:
		return nil, fmt.Errorf("no evaluator for rule type %q", rule.RuleType)
	}
}

// newAlert builds an OPEN alert for a triggered rule. Severity is copied
// from the rule so later rule edits do not change the alert.
func newAlert(rule *domain.MonitoringRule, payment *domain.Payment, message string) *domain.Alert {
	now := time.Now()
	return &domain.Alert{
		ID:                   uuid.NewString(),
		AlertReference:       domain.NewAlertReference(),
		RuleID:               rule.ID,
		RuleName:             rule.RuleName,
		Severity:             rule.Severity,
		Status:               domain.AlertStatusOpen,
		Message:              message,
		AccountID:            payment.SourceAccount,
		TriggeringPaymentIDs: []string{payment.ID},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}
