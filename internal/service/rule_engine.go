package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/moneymap/payments/internal/config"
	"github.com/moneymap/payments/internal/domain"
	"github.com/moneymap/payments/internal/rules"
	"github.com/moneymap/payments/pkg/logger"
	"github.com/moneymap/payments/pkg/metrics"
	"github.com/moneymap/payments/pkg/retry"
)

type RuleEngine interface {
	// EvaluatePayment checks the payment against every active rule and
	// persists any triggered alerts in OPEN status. A failing, panicking,
	// or timed-out evaluator is logged and skipped: it never affects the
	// other rules or the payment itself.
	EvaluatePayment(ctx context.Context, payment *domain.Payment) ([]*domain.Alert, error)

	// EvaluateRule runs a single rule against a payment, persisting the
	// alert when triggered. Used for targeted manual checks.
	EvaluateRule(ctx context.Context, ruleID string, payment *domain.Payment) (*domain.Alert, error)

	// ReEvaluateRecentPayments replays a rule against every payment
	// created within the trailing window, surfacing triggers missed while
	// the rule was inactive.
	ReEvaluateRecentPayments(ctx context.Context, ruleID string, hoursBack int) ([]*domain.Alert, error)
}

type ruleEngine struct {
	ruleRepo    domain.RuleRepository
	alertRepo   domain.AlertRepository
	paymentRepo domain.PaymentRepository
	evaluators  *rules.Set
	cfg         config.RuleEngineConfig
	logger      *logger.Logger
	collector   *metrics.Collector
}

func NewRuleEngine(
	ruleRepo domain.RuleRepository,
	alertRepo domain.AlertRepository,
	paymentRepo domain.PaymentRepository,
	evaluators *rules.Set,
	cfg config.RuleEngineConfig,
	log *logger.Logger,
	collector *metrics.Collector,
) RuleEngine {
	return &ruleEngine{
		ruleRepo:    ruleRepo,
		alertRepo:   alertRepo,
		paymentRepo: paymentRepo,
		evaluators:  evaluators,
		cfg:         cfg,
		logger:      log,
		collector:   collector,
	}
}

func (e *ruleEngine) EvaluatePayment(ctx context.Context, payment *domain.Payment) ([]*domain.Alert, error) {
	ctx = logger.WithPaymentID(ctx, payment.ID)
	e.logger.Debug(ctx, "Evaluating payment against all active rules")

	activeRules, err := e.ruleRepo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading active rules: %w", err)
	}

	// Rules are independent and share no mutable state, so they run
	// concurrently for one payment.
	var (
		mu     sync.Mutex
		alerts []*domain.Alert
		wg     sync.WaitGroup
	)
	for _, rule := range activeRules {
		wg.Add(1)
		go func(rule *domain.MonitoringRule) {
			defer wg.Done()

			alert := e.evaluateContained(ctx, payment, rule)
			if alert == nil {
				return
			}
			if err := e.persistAlert(ctx, alert, rule.RuleType); err != nil {
				e.logger.Error(ctx, "Failed to persist alert",
					"rule_id", rule.ID,
					"error", err,
				)
				return
			}

			mu.Lock()
			alerts = append(alerts, alert)
			mu.Unlock()
		}(rule)
	}
	wg.Wait()

	e.logger.Info(ctx, "Payment evaluation complete",
		"rules_evaluated", len(activeRules),
		"alerts_generated", len(alerts),
	)

	return alerts, nil
}

// evaluateContained runs one rule under the per-rule time budget and
// absorbs errors, timeouts, and panics.
func (e *ruleEngine) evaluateContained(ctx context.Context, payment *domain.Payment, rule *domain.MonitoringRule) *domain.Alert {
	budgetCtx, cancel := context.WithTimeout(ctx, e.cfg.EvaluatorTimeout)
	defer cancel()

	type result struct {
		alert *domain.Alert
		err   error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("evaluator panic: %v", r)}
			}
		}()
		alert, err := e.evaluators.Evaluate(budgetCtx, payment, rule)
		done <- result{alert: alert, err: err}
	}()

	select {
	case <-budgetCtx.Done():
		e.collector.EvaluatorTimeout(string(rule.RuleType))
		e.logger.Warn(ctx, "Rule evaluation timed out, skipping rule",
			"rule_id", rule.ID,
			"rule_type", rule.RuleType,
			"budget", e.cfg.EvaluatorTimeout.String(),
		)
		return nil
	case r := <-done:
		if r.err != nil {
			e.collector.EvaluatorFailure(string(rule.RuleType))
			e.logger.Error(ctx, "Rule evaluation failed, skipping rule",
				"rule_id", rule.ID,
				"rule_type", rule.RuleType,
				"error", r.err,
			)
			return nil
		}
		return r.alert
	}
}

func (e *ruleEngine) persistAlert(ctx context.Context, alert *domain.Alert, ruleType domain.RuleType) error {
	err := retry.Do(ctx, func() error {
		return e.alertRepo.Create(ctx, alert)
	}, retry.WithMaxAttempts(e.cfg.MaxRetries), retry.WithBaseDelay(100*time.Millisecond))
	if err != nil {
		return err
	}

	e.collector.AlertGenerated(string(ruleType), string(alert.Severity))
	e.logger.Info(ctx, "Alert generated",
		"alert_id", alert.ID,
		"alert_reference", alert.AlertReference,
		"rule_id", alert.RuleID,
		"severity", alert.Severity,
	)
	return nil
}

func (e *ruleEngine) EvaluateRule(ctx context.Context, ruleID string, payment *domain.Payment) (*domain.Alert, error) {
	rule, err := e.ruleRepo.GetByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}

	alert, err := e.evaluators.Evaluate(ctx, payment, rule)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, nil
	}

	if err := e.persistAlert(ctx, alert, rule.RuleType); err != nil {
		return nil, err
	}
	return alert, nil
}

func (e *ruleEngine) ReEvaluateRecentPayments(ctx context.Context, ruleID string, hoursBack int) ([]*domain.Alert, error) {
	rule, err := e.ruleRepo.GetByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}

	since := time.Now().Add(-time.Duration(hoursBack) * time.Hour)
	recentPayments, err := e.paymentRepo.FindCreatedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("loading recent payments: %w", err)
	}

	var alerts []*domain.Alert
	for _, payment := range recentPayments {
		alert := e.evaluateContained(ctx, payment, rule)
		if alert == nil {
			continue
		}
		if err := e.persistAlert(ctx, alert, rule.RuleType); err != nil {
			e.logger.Error(ctx, "Failed to persist alert during re-evaluation",
				"rule_id", rule.ID,
				"payment_id", payment.ID,
				"error", err,
			)
			continue
		}
		alerts = append(alerts, alert)
	}

	e.logger.Info(ctx, "Re-evaluation complete",
		"rule_id", ruleID,
		"payments_checked", len(recentPayments),
		"alerts_generated", len(alerts),
	)

	return alerts, nil
}
