package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StatusUpdate carries a payment status transition. The repository applies
// the mutation and the matching history entry atomically: no reader ever
// observes one without the other.
type StatusUpdate struct {
	Status       PaymentStatus
	Notes        string
	ErrorCode    PaymentErrorCode
	ErrorMessage string
}

type PaymentFilter struct {
	Status        *PaymentStatus
	SourceAccount string
	Page          int
	PerPage       int
}

type AlertFilter struct {
	Status    *AlertStatus
	Severity  *AlertSeverity
	RuleID    string
	AccountID string
	Page      int
	PerPage   int
}

// PaymentQueries is the read-only aggregate surface the rule evaluators
// need. Results are approximately consistent at the moment of evaluation;
// serializable isolation across concurrent payments is not provided.
type PaymentQueries interface {
	// SumAmountByAccountInRange sums amounts of the account's payments
	// created within [from, to], excluding the payment identified by
	// excludePaymentID (the row under evaluation adds its own amount
	// in-memory).
	SumAmountByAccountInRange(ctx context.Context, sourceAccount string, from, to time.Time, excludePaymentID string) (decimal.Decimal, error)
	// CountByAccountSince counts the account's payments created at or
	// after since, including any already-persisted row under evaluation.
	CountByAccountSince(ctx context.Context, sourceAccount string, since time.Time) (int64, error)
	// CountPriorPaymentsToPayee counts payments on the exact
	// (source, destination) pair created strictly before the cutoff.
	CountPriorPaymentsToPayee(ctx context.Context, sourceAccount, destinationAccount string, before time.Time) (int64, error)
}

type PaymentRepository interface {
	PaymentQueries

	Create(ctx context.Context, payment *Payment) error
	GetByID(ctx context.Context, id string) (*Payment, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Payment, error)
	GetByReference(ctx context.Context, reference string) (*Payment, error)

	// ApplyStatusUpdate mutates the payment and appends the history entry
	// in one step, guarded by optimistic versioning: when expectedVersion
	// no longer matches the stored row it returns a ConflictError.
	ApplyStatusUpdate(ctx context.Context, id string, expectedVersion int64, update StatusUpdate) (*Payment, error)

	List(ctx context.Context, filter PaymentFilter) ([]*Payment, int, error)
	FindCreatedSince(ctx context.Context, since time.Time) ([]*Payment, error)
}

type RuleRepository interface {
	Create(ctx context.Context, rule *MonitoringRule) error
	GetByID(ctx context.Context, id string) (*MonitoringRule, error)
	Update(ctx context.Context, rule *MonitoringRule) error
	Delete(ctx context.Context, id string) error
	FindActive(ctx context.Context) ([]*MonitoringRule, error)
	List(ctx context.Context, page, perPage int) ([]*MonitoringRule, int, error)
	// ExistsByName reports whether another rule (id != excludeID) already
	// uses the name. Pass an empty excludeID for creation checks.
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
}

type AlertRepository interface {
	Create(ctx context.Context, alert *Alert) error
	GetByID(ctx context.Context, id string) (*Alert, error)
	Update(ctx context.Context, alert *Alert) error
	List(ctx context.Context, filter AlertFilter) ([]*Alert, int, error)
	// FindOpenPrioritized returns up to limit OPEN alerts ordered by
	// severity (HIGH first), oldest first within a severity.
	FindOpenPrioritized(ctx context.Context, limit int) ([]*Alert, error)
	Count(ctx context.Context, status *AlertStatus, severity *AlertSeverity) (int64, error)
}
