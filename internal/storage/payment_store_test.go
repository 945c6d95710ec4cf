package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/moneymap/payments/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayment(source, destination string, amount string) *domain.Payment {
	now := time.Now()
	return &domain.Payment{
		ID:                 uuid.NewString(),
		PaymentReference:   domain.NewPaymentReference(),
		SourceAccount:      source,
		DestinationAccount: destination,
		Amount:             decimal.RequireFromString(amount),
		Currency:           "USD",
		Status:             domain.PaymentStatusCreated,
		Version:            1,
		StatusHistory: []domain.PaymentStatusHistory{
			{Status: domain.PaymentStatusCreated, Notes: "Payment created", Timestamp: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPaymentStore_CreateAndGet(t *testing.T) {
	store := NewPaymentStore()
	ctx := context.Background()

	payment := newTestPayment("ACC-1", "ACC-2", "100.00")
	payment.IdempotencyKey = "idem-1"
	require.NoError(t, store.Create(ctx, payment))

	got, err := store.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.ID, got.ID)
	assert.Equal(t, domain.PaymentStatusCreated, got.Status)
	assert.Len(t, got.StatusHistory, 1)
	assert.Nil(t, got.StatusHistory[0].PreviousStatus)

	byKey, err := store.GetByIdempotencyKey(ctx, "idem-1")
	require.NoError(t, err)
	assert.Equal(t, payment.ID, byKey.ID)

	byRef, err := store.GetByReference(ctx, payment.PaymentReference)
	require.NoError(t, err)
	assert.Equal(t, payment.ID, byRef.ID)
}

func TestPaymentStore_GetByID_NotFound(t *testing.T) {
	store := NewPaymentStore()

	_, err := store.GetByID(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPaymentStore_Create_DuplicateIdempotencyKey(t *testing.T) {
	store := NewPaymentStore()
	ctx := context.Background()

	first := newTestPayment("ACC-1", "ACC-2", "100.00")
	first.IdempotencyKey = "idem-1"
	require.NoError(t, store.Create(ctx, first))

	second := newTestPayment("ACC-1", "ACC-2", "100.00")
	second.IdempotencyKey = "idem-1"
	err := store.Create(ctx, second)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestPaymentStore_ApplyStatusUpdate(t *testing.T) {
	store := NewPaymentStore()
	ctx := context.Background()

	payment := newTestPayment("ACC-1", "ACC-2", "100.00")
	require.NoError(t, store.Create(ctx, payment))

	updated, err := store.ApplyStatusUpdate(ctx, payment.ID, 1, domain.StatusUpdate{
		Status: domain.PaymentStatusValidated,
		Notes:  "checks passed",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusValidated, updated.Status)
	assert.Equal(t, int64(2), updated.Version)
	require.Len(t, updated.StatusHistory, 2)

	last := updated.StatusHistory[len(updated.StatusHistory)-1]
	assert.Equal(t, updated.Status, last.Status)
	require.NotNil(t, last.PreviousStatus)
	assert.Equal(t, domain.PaymentStatusCreated, *last.PreviousStatus)
	assert.Equal(t, "checks passed", last.Notes)
}

func TestPaymentStore_ApplyStatusUpdate_VersionConflict(t *testing.T) {
	store := NewPaymentStore()
	ctx := context.Background()

	payment := newTestPayment("ACC-1", "ACC-2", "100.00")
	require.NoError(t, store.Create(ctx, payment))

	_, err := store.ApplyStatusUpdate(ctx, payment.ID, 1, domain.StatusUpdate{
		Status: domain.PaymentStatusValidated,
	})
	require.NoError(t, err)

	// Stale version after the first update.
	_, err = store.ApplyStatusUpdate(ctx, payment.ID, 1, domain.StatusUpdate{
		Status: domain.PaymentStatusSent,
	})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
}

func TestPaymentStore_ApplyStatusUpdate_FailedSetsErrorFields(t *testing.T) {
	store := NewPaymentStore()
	ctx := context.Background()

	payment := newTestPayment("ACC-1", "ACC-2", "100.00")
	require.NoError(t, store.Create(ctx, payment))

	updated, err := store.ApplyStatusUpdate(ctx, payment.ID, 1, domain.StatusUpdate{
		Status:       domain.PaymentStatusFailed,
		Notes:        "network down",
		ErrorCode:    domain.ErrCodeNetworkError,
		ErrorMessage: "destination unreachable",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ErrCodeNetworkError, updated.ErrorCode)
	assert.Equal(t, "destination unreachable", updated.ErrorMessage)
}

func TestPaymentStore_SumAmountByAccountInRange(t *testing.T) {
	store := NewPaymentStore()
	ctx := context.Background()

	p1 := newTestPayment("ACC-1", "ACC-2", "100.00")
	p2 := newTestPayment("ACC-1", "ACC-3", "250.50")
	other := newTestPayment("ACC-9", "ACC-2", "999.00")
	require.NoError(t, store.Create(ctx, p1))
	require.NoError(t, store.Create(ctx, p2))
	require.NoError(t, store.Create(ctx, other))

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)

	sum, err := store.SumAmountByAccountInRange(ctx, "ACC-1", from, to, "")
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.RequireFromString("350.50")), "got %s", sum)

	// Excludes the payment under evaluation.
	sum, err = store.SumAmountByAccountInRange(ctx, "ACC-1", from, to, p2.ID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.RequireFromString("100.00")), "got %s", sum)
}

func TestPaymentStore_CountByAccountSince(t *testing.T) {
	store := NewPaymentStore()
	ctx := context.Background()

	old := newTestPayment("ACC-1", "ACC-2", "10.00")
	old.CreatedAt = time.Now().Add(-time.Hour)
	recent := newTestPayment("ACC-1", "ACC-2", "10.00")
	require.NoError(t, store.Create(ctx, old))
	require.NoError(t, store.Create(ctx, recent))

	count, err := store.CountByAccountSince(ctx, "ACC-1", time.Now().Add(-10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = store.CountByAccountSince(ctx, "ACC-1", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestPaymentStore_CountPriorPaymentsToPayee(t *testing.T) {
	store := NewPaymentStore()
	ctx := context.Background()

	earlier := newTestPayment("ACC-1", "ACC-2", "10.00")
	earlier.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.Create(ctx, earlier))

	count, err := store.CountPriorPaymentsToPayee(ctx, "ACC-1", "ACC-2", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Strictly before the cutoff.
	count, err = store.CountPriorPaymentsToPayee(ctx, "ACC-1", "ACC-2", earlier.CreatedAt)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	count, err = store.CountPriorPaymentsToPayee(ctx, "ACC-1", "ACC-3", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestPaymentStore_List(t *testing.T) {
	store := NewPaymentStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Create(ctx, newTestPayment("ACC-1", "ACC-2", "10.00")))
	}
	failed := newTestPayment("ACC-1", "ACC-2", "10.00")
	failed.Status = domain.PaymentStatusFailed
	require.NoError(t, store.Create(ctx, failed))

	status := domain.PaymentStatusFailed
	payments, total, err := store.List(ctx, domain.PaymentFilter{Status: &status, Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, payments, 1)

	payments, total, err = store.List(ctx, domain.PaymentFilter{Page: 2, PerPage: 4})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.Len(t, payments, 2)
}
