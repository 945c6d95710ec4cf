package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusCreated   PaymentStatus = "CREATED"
	PaymentStatusValidated PaymentStatus = "VALIDATED"
	PaymentStatusSent      PaymentStatus = "SENT"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// CanTransitionTo reports whether a transition from s to target is legal.
// The lifecycle is the strict chain CREATED → VALIDATED → SENT → COMPLETED,
// with FAILED reachable from any non-terminal state.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	if target == PaymentStatusFailed {
		return !s.IsTerminal()
	}

	switch s {
	case PaymentStatusCreated:
		return target == PaymentStatusValidated
	case PaymentStatusValidated:
		return target == PaymentStatusSent
	case PaymentStatusSent:
		return target == PaymentStatusCompleted
	default:
		return false
	}
}

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusCreated, PaymentStatusValidated, PaymentStatusSent,
		PaymentStatusCompleted, PaymentStatusFailed:
		return true
	}
	return false
}

type PaymentErrorCode string

const (
	ErrCodeValidationFailed        PaymentErrorCode = "VALIDATION_FAILED"
	ErrCodeInsufficientFunds       PaymentErrorCode = "INSUFFICIENT_FUNDS"
	ErrCodeInvalidAccount          PaymentErrorCode = "INVALID_ACCOUNT"
	ErrCodeInvalidCurrency         PaymentErrorCode = "INVALID_CURRENCY"
	ErrCodeInvalidAmount           PaymentErrorCode = "INVALID_AMOUNT"
	ErrCodeDuplicatePayment        PaymentErrorCode = "DUPLICATE_PAYMENT"
	ErrCodeInvalidStatusTransition PaymentErrorCode = "INVALID_STATUS_TRANSITION"
	ErrCodePaymentNotFound         PaymentErrorCode = "PAYMENT_NOT_FOUND"
	ErrCodeProcessingError         PaymentErrorCode = "PROCESSING_ERROR"
	ErrCodeNetworkError            PaymentErrorCode = "NETWORK_ERROR"
	ErrCodeSameAccount             PaymentErrorCode = "SAME_ACCOUNT"
	ErrCodeAmountExceedsLimit      PaymentErrorCode = "AMOUNT_EXCEEDS_LIMIT"
)

// PaymentStatusHistory is one entry in a payment's append-only audit trail.
// The first entry of every payment has a nil PreviousStatus and status CREATED.
type PaymentStatusHistory struct {
	PreviousStatus *PaymentStatus `json:"previous_status"`
	Status         PaymentStatus  `json:"status"`
	Notes          string         `json:"notes,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}

type Payment struct {
	ID                 string           `json:"id"`
	PaymentReference   string           `json:"payment_reference"`
	IdempotencyKey     string           `json:"idempotency_key,omitempty"`
	SourceAccount      string           `json:"source_account"`
	DestinationAccount string           `json:"destination_account"`
	Amount             decimal.Decimal  `json:"amount"`
	Currency           string           `json:"currency"`
	Status             PaymentStatus    `json:"status"`
	ErrorCode          PaymentErrorCode `json:"error_code,omitempty"`
	ErrorMessage       string           `json:"error_message,omitempty"`
	Reference          string           `json:"reference,omitempty"`
	Description        string           `json:"description,omitempty"`
	Version            int64            `json:"version"`

	// Chronological, oldest first. Status always mirrors the last entry.
	StatusHistory []PaymentStatusHistory `json:"status_history,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewPaymentReference generates a unique external payment identifier.
func NewPaymentReference() string {
	return "PAY-" + strings.ToUpper(uuid.NewString()[:18])
}
