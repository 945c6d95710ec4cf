package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/moneymap/payments/internal/domain"
	"github.com/moneymap/payments/pkg/logger"
)

// DailyLimitEvaluator triggers when the source account's cumulative amount
// for the current local calendar day, including the payment under
// evaluation, strictly exceeds the configured limit.
//
// The store sum excludes the payment's own row; its contribution is added
// in-memory exactly once, so the result does not depend on whether the row
// was persisted before the query ran.
type DailyLimitEvaluator struct {
	queries domain.PaymentQueries
	logger  *logger.Logger
}

func NewDailyLimitEvaluator(queries domain.PaymentQueries, log *logger.Logger) *DailyLimitEvaluator {
	return &DailyLimitEvaluator{queries: queries, logger: log}
}

func (e *DailyLimitEvaluator) Evaluate(ctx context.Context, payment *domain.Payment, rule *domain.MonitoringRule) (*domain.Alert, error) {
	if rule.DailyLimitAmount == nil {
		e.logger.Warn(ctx, "Daily limit rule has no limit configured",
			"rule_id", rule.ID,
		)
		return nil, nil
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24*time.Hour - time.Nanosecond)

	dailyTotal, err := e.queries.SumAmountByAccountInRange(ctx, payment.SourceAccount, dayStart, dayEnd, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("summing daily amounts: %w", err)
	}
	dailyTotal = dailyTotal.Add(payment.Amount)

	if dailyTotal.Cmp(*rule.DailyLimitAmount) <= 0 {
		return nil, nil
	}

	e.logger.Info(ctx, "Daily limit rule triggered",
		"rule_id", rule.ID,
		"source_account", payment.SourceAccount,
		"daily_total", dailyTotal.String(),
		"limit", rule.DailyLimitAmount.String(),
	)

	message := fmt.Sprintf("Daily transaction limit exceeded: Account %s has transacted %s %s today (limit: %s)",
		payment.SourceAccount, dailyTotal.StringFixed(2), payment.Currency,
		rule.DailyLimitAmount.StringFixed(2))

	return newAlert(rule, payment, message), nil
}
