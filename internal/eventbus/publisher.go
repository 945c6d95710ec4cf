package eventbus

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/moneymap/payments/internal/domain"
	"github.com/moneymap/payments/pkg/logger"
)

// EvaluationPublisher submits created payments to the bus. Publishing is
// non-blocking; a full channel drops the event with a warning, and the
// rule re-evaluation endpoint is the recovery path.
type EvaluationPublisher struct {
	bus    EventBus
	logger *logger.Logger
}

func NewEvaluationPublisher(bus EventBus, log *logger.Logger) *EvaluationPublisher {
	return &EvaluationPublisher{bus: bus, logger: log}
}

func (p *EvaluationPublisher) SubmitForEvaluation(ctx context.Context, payment *domain.Payment) {
	event := Event{
		ID:        uuid.New().String(),
		Type:      EventTypePaymentCreated,
		Payload:   PaymentCreatedEvent{Payment: payment},
		Timestamp: time.Now(),
	}

	if err := p.bus.Publish(ctx, event); err != nil {
		p.logger.Error(ctx, "Failed to publish payment created event",
			"payment_id", payment.ID,
			"error", err,
		)
	}
}
