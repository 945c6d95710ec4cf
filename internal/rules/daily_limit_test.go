package rules

import (
	"context"
	"testing"
	"time"

	"github.com/moneymap/payments/internal/domain"
	"github.com/moneymap/payments/internal/storage"
	"github.com/moneymap/payments/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailyLimitRule(limit string) *domain.MonitoringRule {
	amount := decimal.RequireFromString(limit)
	return &domain.MonitoringRule{
		ID:               "rule-daily-limit",
		RuleName:         "daily-cap",
		RuleType:         domain.RuleTypeDailyLimit,
		Severity:         domain.SeverityHigh,
		Active:           true,
		DailyLimitAmount: &amount,
	}
}

func TestDailyLimitEvaluator(t *testing.T) {
	ctx := context.Background()

	t.Run("cumulative total above limit triggers", func(t *testing.T) {
		store := storage.NewPaymentStore()
		seedPayment(t, store, paymentWith("3000.00", "USD"))
		seedPayment(t, store, paymentWith("2000.00", "USD"))
		current := paymentWith("0.01", "USD")
		seedPayment(t, store, current)

		eval := NewDailyLimitEvaluator(store, logger.NewNop())
		alert, err := eval.Evaluate(ctx, current, dailyLimitRule("5000"))
		require.NoError(t, err)
		require.NotNil(t, alert)
		assert.Contains(t, alert.Message, "has transacted 5000.01 USD today")
	})

	t.Run("cumulative total equal to limit does not trigger", func(t *testing.T) {
		store := storage.NewPaymentStore()
		seedPayment(t, store, paymentWith("4000.00", "USD"))
		current := paymentWith("1000.00", "USD")
		seedPayment(t, store, current)

		eval := NewDailyLimitEvaluator(store, logger.NewNop())
		alert, err := eval.Evaluate(ctx, current, dailyLimitRule("5000"))
		require.NoError(t, err)
		assert.Nil(t, alert)
	})

	t.Run("own amount is counted exactly once", func(t *testing.T) {
		// The persisted row for the payment under evaluation must not be
		// double counted with the in-memory addition.
		store := storage.NewPaymentStore()
		current := paymentWith("3000.00", "USD")
		seedPayment(t, store, current)

		eval := NewDailyLimitEvaluator(store, logger.NewNop())
		alert, err := eval.Evaluate(ctx, current, dailyLimitRule("5000"))
		require.NoError(t, err)
		assert.Nil(t, alert)
	})

	t.Run("previous day payments are excluded", func(t *testing.T) {
		store := storage.NewPaymentStore()
		yesterday := paymentWith("4999.00", "USD")
		yesterday.CreatedAt = time.Now().Add(-25 * time.Hour)
		seedPayment(t, store, yesterday)
		current := paymentWith("100.00", "USD")
		seedPayment(t, store, current)

		eval := NewDailyLimitEvaluator(store, logger.NewNop())
		alert, err := eval.Evaluate(ctx, current, dailyLimitRule("5000"))
		require.NoError(t, err)
		assert.Nil(t, alert)
	})

	t.Run("missing limit skips without error", func(t *testing.T) {
		store := storage.NewPaymentStore()
		rule := dailyLimitRule("5000")
		rule.DailyLimitAmount = nil

		eval := NewDailyLimitEvaluator(store, logger.NewNop())
		alert, err := eval.Evaluate(ctx, paymentWith("99999.00", "USD"), rule)
		require.NoError(t, err)
		assert.Nil(t, alert)
	})
}
