package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/moneymap/payments/internal/domain"
	"github.com/moneymap/payments/pkg/logger"
)

// VelocityEvaluator triggers when the source account has made at least
// MaxTransactions payments within the trailing time window, counting the
// payment under evaluation (already persisted when the engine runs).
type VelocityEvaluator struct {
	queries domain.PaymentQueries
	logger  *logger.Logger
}

func NewVelocityEvaluator(queries domain.PaymentQueries, log *logger.Logger) *VelocityEvaluator {
	return &VelocityEvaluator{queries: queries, logger: log}
}

func (e *VelocityEvaluator) Evaluate(ctx context.Context, payment *domain.Payment, rule *domain.MonitoringRule) (*domain.Alert, error) {
	if rule.MaxTransactions == nil || rule.TimeWindowMinutes == nil {
		e.logger.Warn(ctx, "Velocity rule has incomplete configuration",
			"rule_id", rule.ID,
		)
		return nil, nil
	}

	since := time.Now().Add(-time.Duration(*rule.TimeWindowMinutes) * time.Minute)
	recentCount, err := e.queries.CountByAccountSince(ctx, payment.SourceAccount, since)
	if err != nil {
		return nil, fmt.Errorf("counting recent payments: %w", err)
	}

	if recentCount < int64(*rule.MaxTransactions) {
		return nil, nil
	}

	e.logger.Info(ctx, "Velocity rule triggered",
		"rule_id", rule.ID,
		"source_account", payment.SourceAccount,
		"recent_count", recentCount,
		"window_minutes", *rule.TimeWindowMinutes,
	)

	message := fmt.Sprintf("High transaction velocity detected: %d transactions from account %s in %d minutes (threshold: %d)",
		recentCount, payment.SourceAccount, *rule.TimeWindowMinutes, *rule.MaxTransactions)

	return newAlert(rule, payment, message), nil
}
