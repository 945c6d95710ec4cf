package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/moneymap/payments/internal/config"
	"github.com/moneymap/payments/internal/domain"
	"github.com/moneymap/payments/internal/rules"
	"github.com/moneymap/payments/internal/storage"
	"github.com/moneymap/payments/pkg/logger"
	"github.com/moneymap/payments/pkg/metrics"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineFixture struct {
	engine       RuleEngine
	ruleStore    *storage.RuleStore
	alertStore   *storage.AlertStore
	paymentStore *storage.PaymentStore
}

func testEngineConfig() config.RuleEngineConfig {
	return config.RuleEngineConfig{
		EvaluatorTimeout: 2 * time.Second,
		WorkerPoolSize:   4,
		MaxRetries:       2,
	}
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	return newEngineFixtureWithQueries(t, nil)
}

// newEngineFixtureWithQueries lets tests substitute the aggregate query
// surface the evaluators read through, e.g. to inject failures or delays.
func newEngineFixtureWithQueries(t *testing.T, queries domain.PaymentQueries) *engineFixture {
	t.Helper()

	paymentStore := storage.NewPaymentStore()
	ruleStore := storage.NewRuleStore()
	alertStore := storage.NewAlertStore()

	if queries == nil {
		queries = paymentStore
	}
	evaluators := rules.NewSet(queries, logger.NewNop())
	engine := NewRuleEngine(ruleStore, alertStore, paymentStore, evaluators,
		testEngineConfig(), logger.NewNop(), metrics.NewCollector())

	return &engineFixture{
		engine:       engine,
		ruleStore:    ruleStore,
		alertStore:   alertStore,
		paymentStore: paymentStore,
	}
}

func seedRule(t *testing.T, store *storage.RuleStore, rule *domain.MonitoringRule) *domain.MonitoringRule {
	t.Helper()
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	require.NoError(t, store.Create(context.Background(), rule))
	return rule
}

func thresholdRuleFixture(name, amount string) *domain.MonitoringRule {
	threshold := decimal.RequireFromString(amount)
	return &domain.MonitoringRule{
		RuleName:        name,
		RuleType:        domain.RuleTypeAmountThreshold,
		Severity:        domain.SeverityHigh,
		Active:          true,
		ThresholdAmount: &threshold,
	}
}

func newPayeeRuleFixture(name string) *domain.MonitoringRule {
	lookback := 90
	return &domain.MonitoringRule{
		RuleName:     name,
		RuleType:     domain.RuleTypeNewPayee,
		Severity:     domain.SeverityLow,
		Active:       true,
		LookbackDays: &lookback,
	}
}

func enginePayment(t *testing.T, store *storage.PaymentStore, amount string) *domain.Payment {
	t.Helper()
	now := time.Now()
	payment := &domain.Payment{
		ID:                 uuid.NewString(),
		PaymentReference:   domain.NewPaymentReference(),
		SourceAccount:      "ACC-1",
		DestinationAccount: "ACC-2",
		Amount:             decimal.RequireFromString(amount),
		Currency:           "USD",
		Status:             domain.PaymentStatusCreated,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	require.NoError(t, store.Create(context.Background(), payment))
	return payment
}

func TestRuleEngine_EvaluatePayment_MultipleRules(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	seedRule(t, f.ruleStore, thresholdRuleFixture("large-transfers", "10000"))
	seedRule(t, f.ruleStore, newPayeeRuleFixture("first-transfer"))

	payment := enginePayment(t, f.paymentStore, "10000.01")

	alerts, err := f.engine.EvaluatePayment(ctx, payment)
	require.NoError(t, err)
	assert.Len(t, alerts, 2, "both rules trigger independently")

	// All alerts are persisted in OPEN status.
	open := domain.AlertStatusOpen
	count, err := f.alertStore.Count(ctx, &open, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRuleEngine_EvaluatePayment_NoActiveRules(t *testing.T) {
	f := newEngineFixture(t)

	inactive := thresholdRuleFixture("disabled", "1")
	inactive.Active = false
	seedRule(t, f.ruleStore, inactive)

	payment := enginePayment(t, f.paymentStore, "10000.01")

	alerts, err := f.engine.EvaluatePayment(context.Background(), payment)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

// failingQueries returns an error from every aggregate call, simulating a
// broken read path behind a single evaluator.
type failingQueries struct{}

func (failingQueries) SumAmountByAccountInRange(ctx context.Context, sourceAccount string, from, to time.Time, excludePaymentID string) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("query backend unavailable")
}

func (failingQueries) CountByAccountSince(ctx context.Context, sourceAccount string, since time.Time) (int64, error) {
	return 0, errors.New("query backend unavailable")
}

func (failingQueries) CountPriorPaymentsToPayee(ctx context.Context, sourceAccount, destinationAccount string, before time.Time) (int64, error) {
	return 0, errors.New("query backend unavailable")
}

func TestRuleEngine_EvaluatePayment_FailureIsolation(t *testing.T) {
	f := newEngineFixtureWithQueries(t, failingQueries{})
	ctx := context.Background()

	// The threshold rule needs no queries; the payee rule's queries fail.
	seedRule(t, f.ruleStore, thresholdRuleFixture("large-transfers", "10000"))
	seedRule(t, f.ruleStore, newPayeeRuleFixture("first-transfer"))

	payment := enginePayment(t, f.paymentStore, "10000.01")

	alerts, err := f.engine.EvaluatePayment(ctx, payment)
	require.NoError(t, err, "a failing evaluator never surfaces an error")
	require.Len(t, alerts, 1)
	assert.Equal(t, "large-transfers", alerts[0].RuleName)
}

// slowQueries blocks until the context is cancelled, forcing the per-rule
// time budget to expire.
type slowQueries struct{}

func (slowQueries) SumAmountByAccountInRange(ctx context.Context, sourceAccount string, from, to time.Time, excludePaymentID string) (decimal.Decimal, error) {
	<-ctx.Done()
	return decimal.Zero, ctx.Err()
}

func (slowQueries) CountByAccountSince(ctx context.Context, sourceAccount string, since time.Time) (int64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func (slowQueries) CountPriorPaymentsToPayee(ctx context.Context, sourceAccount, destinationAccount string, before time.Time) (int64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestRuleEngine_EvaluatePayment_TimeoutIsolation(t *testing.T) {
	paymentStore := storage.NewPaymentStore()
	ruleStore := storage.NewRuleStore()
	alertStore := storage.NewAlertStore()

	evaluators := rules.NewSet(slowQueries{}, logger.NewNop())
	cfg := testEngineConfig()
	cfg.EvaluatorTimeout = 50 * time.Millisecond
	engine := NewRuleEngine(ruleStore, alertStore, paymentStore, evaluators,
		cfg, logger.NewNop(), metrics.NewCollector())

	seedRule(t, ruleStore, thresholdRuleFixture("large-transfers", "10000"))
	seedRule(t, ruleStore, newPayeeRuleFixture("first-transfer"))

	payment := enginePayment(t, paymentStore, "10000.01")

	start := time.Now()
	alerts, err := engine.EvaluatePayment(context.Background(), payment)
	require.NoError(t, err)
	require.Len(t, alerts, 1, "the stalled rule is skipped, the fast one completes")
	assert.Equal(t, "large-transfers", alerts[0].RuleName)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRuleEngine_EvaluateRule(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	rule := seedRule(t, f.ruleStore, thresholdRuleFixture("large-transfers", "10000"))
	payment := enginePayment(t, f.paymentStore, "10000.01")

	alert, err := f.engine.EvaluateRule(ctx, rule.ID, payment)
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, rule.ID, alert.RuleID)

	persisted, err := f.alertStore.GetByID(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AlertStatusOpen, persisted.Status)

	// A non-triggering payment returns no alert and persists nothing.
	small := enginePayment(t, f.paymentStore, "5.00")
	alert, err = f.engine.EvaluateRule(ctx, rule.ID, small)
	require.NoError(t, err)
	assert.Nil(t, alert)

	_, err = f.engine.EvaluateRule(ctx, "missing-rule", payment)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRuleEngine_ReEvaluateRecentPayments(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	stale := &domain.Payment{
		ID:                 uuid.NewString(),
		PaymentReference:   domain.NewPaymentReference(),
		SourceAccount:      "ACC-1",
		DestinationAccount: "ACC-2",
		Amount:             decimal.RequireFromString("20000.00"),
		Currency:           "USD",
		Status:             domain.PaymentStatusCreated,
		Version:            1,
		CreatedAt:          time.Now().Add(-48 * time.Hour),
		UpdatedAt:          time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, f.paymentStore.Create(ctx, stale))
	recent := enginePayment(t, f.paymentStore, "15000.00")
	enginePayment(t, f.paymentStore, "5.00")

	rule := seedRule(t, f.ruleStore, thresholdRuleFixture("large-transfers", "10000"))

	alerts, err := f.engine.ReEvaluateRecentPayments(ctx, rule.ID, 24)
	require.NoError(t, err)
	require.Len(t, alerts, 1, "only the recent triggering payment is replayed")
	assert.Equal(t, []string{recent.ID}, alerts[0].TriggeringPaymentIDs)
}
