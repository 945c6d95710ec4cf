package eventbus

import (
	"time"

	"github.com/moneymap/payments/internal/domain"
)

type EventType string

const (
	EventTypePaymentCreated EventType = "payment.created"
)

type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
	Retries   int         `json:"retries"`
}

type PaymentCreatedEvent struct {
	Payment *domain.Payment `json:"payment"`
}
