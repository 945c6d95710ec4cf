package eventbus

import (
	"context"
	"fmt"

	"github.com/moneymap/payments/internal/domain"
	"github.com/moneymap/payments/pkg/logger"
)

// PaymentEvaluator is the part of the rule engine the consumer drives.
type PaymentEvaluator interface {
	EvaluatePayment(ctx context.Context, payment *domain.Payment) ([]*domain.Alert, error)
}

// EvaluationConsumer feeds created payments to the rule engine off the
// request path. Engine failures end here: they are logged and never reach
// the payment creation caller.
type EvaluationConsumer struct {
	engine      PaymentEvaluator
	logger      *logger.Logger
	workerCount int
}

func NewEvaluationConsumer(engine PaymentEvaluator, log *logger.Logger, workerCount int) *EvaluationConsumer {
	return &EvaluationConsumer{
		engine:      engine,
		logger:      log,
		workerCount: workerCount,
	}
}

func (c *EvaluationConsumer) Consume(ctx context.Context, event Event) error {
	payload, ok := event.Payload.(PaymentCreatedEvent)
	if !ok {
		c.logger.Error(ctx, "Invalid payload type for payment created event",
			"event_id", event.ID,
		)
		return fmt.Errorf("invalid payload type")
	}

	ctx = logger.WithPaymentID(ctx, payload.Payment.ID)

	alerts, err := c.engine.EvaluatePayment(ctx, payload.Payment)
	if err != nil {
		c.logger.Error(ctx, "Rule evaluation failed",
			"event_id", event.ID,
			"error", err,
		)
		return err
	}

	c.logger.Debug(ctx, "Payment evaluated",
		"event_id", event.ID,
		"alerts_generated", len(alerts),
	)

	return nil
}

func (c *EvaluationConsumer) GetWorkerCount() int {
	return c.workerCount
}
