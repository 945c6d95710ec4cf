package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/moneymap/payments/internal/domain"
	"github.com/moneymap/payments/pkg/logger"
)

// AmountThresholdEvaluator triggers when a single payment's amount strictly
// exceeds the configured threshold, optionally restricted to one currency.
type AmountThresholdEvaluator struct {
	logger *logger.Logger
}

func NewAmountThresholdEvaluator(log *logger.Logger) *AmountThresholdEvaluator {
	return &AmountThresholdEvaluator{logger: log}
}

func (e *AmountThresholdEvaluator) Evaluate(ctx context.Context, payment *domain.Payment, rule *domain.MonitoringRule) (*domain.Alert, error) {
	if rule.ThresholdAmount == nil {
		e.logger.Warn(ctx, "Amount threshold rule has no threshold configured",
			"rule_id", rule.ID,
		)
		return nil, nil
	}

	if rule.ThresholdCurrency != "" && !strings.EqualFold(rule.ThresholdCurrency, payment.Currency) {
		return nil, nil
	}

	if payment.Amount.Cmp(*rule.ThresholdAmount) <= 0 {
		return nil, nil
	}

	e.logger.Info(ctx, "Amount threshold rule triggered",
		"rule_id", rule.ID,
		"amount", payment.Amount.String(),
		"threshold", rule.ThresholdAmount.String(),
	)

	thresholdCurrency := rule.ThresholdCurrency
	if thresholdCurrency == "" {
		thresholdCurrency = payment.Currency
	}

	message := fmt.Sprintf("Transaction amount %s %s exceeds threshold of %s %s",
		payment.Amount.StringFixed(2), payment.Currency,
		rule.ThresholdAmount.StringFixed(2), thresholdCurrency)

	return newAlert(rule, payment, message), nil
}
