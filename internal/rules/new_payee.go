package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/moneymap/payments/internal/domain"
	"github.com/moneymap/payments/pkg/logger"
)

// NewPayeeEvaluator triggers when no earlier payment exists on the exact
// (source, destination) account pair, i.e. this is the first-ever transfer
// between the two accounts.
type NewPayeeEvaluator struct {
	queries domain.PaymentQueries
	logger  *logger.Logger
}

func NewNewPayeeEvaluator(queries domain.PaymentQueries, log *logger.Logger) *NewPayeeEvaluator {
	return &NewPayeeEvaluator{queries: queries, logger: log}
}

func (e *NewPayeeEvaluator) Evaluate(ctx context.Context, payment *domain.Payment, rule *domain.MonitoringRule) (*domain.Alert, error) {
	cutoff := payment.CreatedAt
	if cutoff.IsZero() {
		cutoff = time.Now()
	}

	previousCount, err := e.queries.CountPriorPaymentsToPayee(ctx, payment.SourceAccount, payment.DestinationAccount, cutoff)
	if err != nil {
		return nil, fmt.Errorf("counting prior payments to payee: %w", err)
	}

	if previousCount > 0 {
		return nil, nil
	}

	e.logger.Info(ctx, "New payee rule triggered",
		"rule_id", rule.ID,
		"source_account", payment.SourceAccount,
		"destination_account", payment.DestinationAccount,
	)

	message := fmt.Sprintf("First transaction to new payee: Account %s sending to %s (amount: %s %s)",
		payment.SourceAccount, payment.DestinationAccount,
		payment.Amount.StringFixed(2), payment.Currency)

	return newAlert(rule, payment, message), nil
}
