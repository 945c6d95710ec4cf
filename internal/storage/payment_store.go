package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/moneymap/payments/internal/domain"
	"github.com/shopspring/decimal"
)

type PaymentStore struct {
	payments      map[string]*domain.Payment
	byIdemKey     map[string]string
	byReference   map[string]string
	creationOrder []string
	mu            sync.RWMutex
}

func NewPaymentStore() *PaymentStore {
	return &PaymentStore{
		payments:    make(map[string]*domain.Payment),
		byIdemKey:   make(map[string]string),
		byReference: make(map[string]string),
	}
}

func (s *PaymentStore) Create(ctx context.Context, payment *domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if payment.IdempotencyKey != "" {
		if existingID, ok := s.byIdemKey[payment.IdempotencyKey]; ok {
			return &domain.DuplicateError{
				Resource: "payment",
				Field:    "idempotency_key",
				Value:    s.payments[existingID].IdempotencyKey,
			}
		}
	}

	stored := clonePayment(payment)
	s.payments[stored.ID] = stored
	s.creationOrder = append(s.creationOrder, stored.ID)
	if stored.IdempotencyKey != "" {
		s.byIdemKey[stored.IdempotencyKey] = stored.ID
	}
	if stored.PaymentReference != "" {
		s.byReference[stored.PaymentReference] = stored.ID
	}

	return nil
}

func (s *PaymentStore) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payment, exists := s.payments[id]
	if !exists {
		return nil, &domain.NotFoundError{Resource: "payment", ID: id}
	}

	return clonePayment(payment), nil
}

func (s *PaymentStore) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byIdemKey[key]
	if !exists {
		return nil, &domain.NotFoundError{Resource: "payment", ID: key}
	}

	return clonePayment(s.payments[id]), nil
}

func (s *PaymentStore) GetByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byReference[reference]
	if !exists {
		return nil, &domain.NotFoundError{Resource: "payment", ID: reference}
	}

	return clonePayment(s.payments[id]), nil
}

// ApplyStatusUpdate performs the status mutation and the history append
// under a single lock acquisition so no reader observes one without the
// other.
func (s *PaymentStore) ApplyStatusUpdate(ctx context.Context, id string, expectedVersion int64, update domain.StatusUpdate) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, exists := s.payments[id]
	if !exists {
		return nil, &domain.NotFoundError{Resource: "payment", ID: id}
	}

	if payment.Version != expectedVersion {
		return nil, &domain.ConflictError{Resource: "payment", ID: id}
	}

	previous := payment.Status
	now := time.Now()

	payment.Status = update.Status
	if update.Status == domain.PaymentStatusFailed {
		payment.ErrorCode = update.ErrorCode
		payment.ErrorMessage = update.ErrorMessage
	}
	payment.StatusHistory = append(payment.StatusHistory, domain.PaymentStatusHistory{
		PreviousStatus: &previous,
		Status:         update.Status,
		Notes:          update.Notes,
		Timestamp:      now,
	})
	payment.Version++
	payment.UpdatedAt = now

	return clonePayment(payment), nil
}

func (s *PaymentStore) List(ctx context.Context, filter domain.PaymentFilter) ([]*domain.Payment, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []*domain.Payment
	for _, id := range s.creationOrder {
		payment := s.payments[id]
		if filter.Status != nil && payment.Status != *filter.Status {
			continue
		}
		if filter.SourceAccount != "" && payment.SourceAccount != filter.SourceAccount {
			continue
		}
		filtered = append(filtered, clonePayment(payment))
	}

	total := len(filtered)
	start, end := pageBounds(filter.Page, filter.PerPage, total)

	return filtered[start:end], total, nil
}

func (s *PaymentStore) FindCreatedSince(ctx context.Context, since time.Time) ([]*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Payment
	for _, id := range s.creationOrder {
		payment := s.payments[id]
		if !payment.CreatedAt.Before(since) {
			result = append(result, clonePayment(payment))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

func (s *PaymentStore) SumAmountByAccountInRange(ctx context.Context, sourceAccount string, from, to time.Time, excludePaymentID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := decimal.Zero
	for _, payment := range s.payments {
		if payment.ID == excludePaymentID {
			continue
		}
		if payment.SourceAccount != sourceAccount {
			continue
		}
		if payment.CreatedAt.Before(from) || payment.CreatedAt.After(to) {
			continue
		}
		sum = sum.Add(payment.Amount)
	}

	return sum, nil
}

func (s *PaymentStore) CountByAccountSince(ctx context.Context, sourceAccount string, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, payment := range s.payments {
		if payment.SourceAccount != sourceAccount {
			continue
		}
		if payment.CreatedAt.Before(since) {
			continue
		}
		count++
	}

	return count, nil
}

func (s *PaymentStore) CountPriorPaymentsToPayee(ctx context.Context, sourceAccount, destinationAccount string, before time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, payment := range s.payments {
		if payment.SourceAccount != sourceAccount || payment.DestinationAccount != destinationAccount {
			continue
		}
		if !payment.CreatedAt.Before(before) {
			continue
		}
		count++
	}

	return count, nil
}

func clonePayment(p *domain.Payment) *domain.Payment {
	c := *p
	c.StatusHistory = make([]domain.PaymentStatusHistory, len(p.StatusHistory))
	for i, h := range p.StatusHistory {
		c.StatusHistory[i] = h
		if h.PreviousStatus != nil {
			prev := *h.PreviousStatus
			c.StatusHistory[i].PreviousStatus = &prev
		}
	}
	return &c
}

func pageBounds(page, perPage, total int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	start := (page - 1) * perPage
	if start >= total {
		return 0, 0
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return start, end
}
