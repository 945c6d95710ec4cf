package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentStatus_CanTransitionTo(t *testing.T) {
	statuses := []PaymentStatus{
		PaymentStatusCreated,
		PaymentStatusValidated,
		PaymentStatusSent,
		PaymentStatusCompleted,
		PaymentStatusFailed,
	}

	allowed := map[PaymentStatus]map[PaymentStatus]bool{
		PaymentStatusCreated:   {PaymentStatusValidated: true, PaymentStatusFailed: true},
		PaymentStatusValidated: {PaymentStatusSent: true, PaymentStatusFailed: true},
		PaymentStatusSent:      {PaymentStatusCompleted: true, PaymentStatusFailed: true},
		PaymentStatusCompleted: {},
		PaymentStatusFailed:    {},
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[from][to]
			got := from.CanTransitionTo(to)
			assert.Equal(t, want, got, "transition %s -> %s", from, to)
		}
	}
}

func TestPaymentStatus_IsTerminal(t *testing.T) {
	assert.True(t, PaymentStatusCompleted.IsTerminal())
	assert.True(t, PaymentStatusFailed.IsTerminal())
	assert.False(t, PaymentStatusCreated.IsTerminal())
	assert.False(t, PaymentStatusValidated.IsTerminal())
	assert.False(t, PaymentStatusSent.IsTerminal())
}

func TestPaymentStatus_Valid(t *testing.T) {
	assert.True(t, PaymentStatusCreated.Valid())
	assert.False(t, PaymentStatus("UNKNOWN").Valid())
	assert.False(t, PaymentStatus("").Valid())
}

func TestNewPaymentReference(t *testing.T) {
	ref := NewPaymentReference()
	assert.Contains(t, ref, "PAY-")
	assert.NotEqual(t, ref, NewPaymentReference())
}
