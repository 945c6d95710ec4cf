package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/moneymap/payments/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAlert(severity domain.AlertSeverity, createdAt time.Time) *domain.Alert {
	return &domain.Alert{
		ID:             uuid.NewString(),
		AlertReference: domain.NewAlertReference(),
		RuleID:         uuid.NewString(),
		RuleName:       "test-rule",
		Severity:       severity,
		Status:         domain.AlertStatusOpen,
		Message:        "test alert",
		AccountID:      "ACC-1",
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
}

func TestAlertStore_FindOpenPrioritized(t *testing.T) {
	store := NewAlertStore()
	ctx := context.Background()

	base := time.Now()
	oldLow := newTestAlert(domain.SeverityLow, base.Add(-3*time.Hour))
	oldHigh := newTestAlert(domain.SeverityHigh, base.Add(-2*time.Hour))
	newHigh := newTestAlert(domain.SeverityHigh, base.Add(-1*time.Hour))
	medium := newTestAlert(domain.SeverityMedium, base.Add(-4*time.Hour))
	closed := newTestAlert(domain.SeverityHigh, base.Add(-5*time.Hour))
	closed.Status = domain.AlertStatusClosed

	for _, a := range []*domain.Alert{oldLow, oldHigh, newHigh, medium, closed} {
		require.NoError(t, store.Create(ctx, a))
	}

	alerts, err := store.FindOpenPrioritized(ctx, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 4)

	// HIGH before MEDIUM before LOW, oldest first within a severity.
	assert.Equal(t, oldHigh.ID, alerts[0].ID)
	assert.Equal(t, newHigh.ID, alerts[1].ID)
	assert.Equal(t, medium.ID, alerts[2].ID)
	assert.Equal(t, oldLow.ID, alerts[3].ID)

	limited, err := store.FindOpenPrioritized(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, oldHigh.ID, limited[0].ID)
}

func TestAlertStore_Count(t *testing.T) {
	store := NewAlertStore()
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, store.Create(ctx, newTestAlert(domain.SeverityHigh, now)))
	require.NoError(t, store.Create(ctx, newTestAlert(domain.SeverityHigh, now)))
	require.NoError(t, store.Create(ctx, newTestAlert(domain.SeverityLow, now)))
	dismissed := newTestAlert(domain.SeverityHigh, now)
	dismissed.Status = domain.AlertStatusDismissed
	require.NoError(t, store.Create(ctx, dismissed))

	total, err := store.Count(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	open := domain.AlertStatusOpen
	count, err := store.Count(ctx, &open, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	high := domain.SeverityHigh
	count, err = store.Count(ctx, &open, &high)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestAlertStore_ListFilters(t *testing.T) {
	store := NewAlertStore()
	ctx := context.Background()

	now := time.Now()
	a1 := newTestAlert(domain.SeverityHigh, now)
	a2 := newTestAlert(domain.SeverityLow, now)
	a2.AccountID = "ACC-2"
	require.NoError(t, store.Create(ctx, a1))
	require.NoError(t, store.Create(ctx, a2))

	alerts, total, err := store.List(ctx, domain.AlertFilter{AccountID: "ACC-2", Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, alerts, 1)
	assert.Equal(t, a2.ID, alerts[0].ID)

	alerts, total, err = store.List(ctx, domain.AlertFilter{RuleID: a1.RuleID, Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, alerts, 1)
	assert.Equal(t, a1.ID, alerts[0].ID)
}

func TestAlertStore_Update(t *testing.T) {
	store := NewAlertStore()
	ctx := context.Background()

	alert := newTestAlert(domain.SeverityMedium, time.Now())
	require.NoError(t, store.Create(ctx, alert))

	alert.Status = domain.AlertStatusAcknowledged
	alert.AcknowledgedBy = "dana"
	require.NoError(t, store.Update(ctx, alert))

	got, err := store.GetByID(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AlertStatusAcknowledged, got.Status)
	assert.Equal(t, "dana", got.AcknowledgedBy)

	missing := newTestAlert(domain.SeverityLow, time.Now())
	assert.ErrorIs(t, store.Update(ctx, missing), domain.ErrNotFound)
}
