package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/moneymap/payments/internal/domain"
)

type AlertStore struct {
	alerts        map[string]*domain.Alert
	creationOrder []string
	mu            sync.RWMutex
}

func NewAlertStore() *AlertStore {
	return &AlertStore{
		alerts: make(map[string]*domain.Alert),
	}
}

func (s *AlertStore) Create(ctx context.Context, alert *domain.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneAlert(alert)
	s.alerts[stored.ID] = stored
	s.creationOrder = append(s.creationOrder, stored.ID)

	return nil
}

func (s *AlertStore) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alert, exists := s.alerts[id]
	if !exists {
		return nil, &domain.NotFoundError{Resource: "alert", ID: id}
	}

	return cloneAlert(alert), nil
}

func (s *AlertStore) Update(ctx context.Context, alert *domain.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.alerts[alert.ID]; !exists {
		return &domain.NotFoundError{Resource: "alert", ID: alert.ID}
	}

	stored := cloneAlert(alert)
	stored.UpdatedAt = time.Now()
	s.alerts[alert.ID] = stored

	return nil
}

func (s *AlertStore) List(ctx context.Context, filter domain.AlertFilter) ([]*domain.Alert, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []*domain.Alert
	for _, id := range s.creationOrder {
		alert := s.alerts[id]
		if filter.Status != nil && alert.Status != *filter.Status {
			continue
		}
		if filter.Severity != nil && alert.Severity != *filter.Severity {
			continue
		}
		if filter.RuleID != "" && alert.RuleID != filter.RuleID {
			continue
		}
		if filter.AccountID != "" && alert.AccountID != filter.AccountID {
			continue
		}
		filtered = append(filtered, cloneAlert(alert))
	}

	total := len(filtered)
	start, end := pageBounds(filter.Page, filter.PerPage, total)

	return filtered[start:end], total, nil
}

func (s *AlertStore) FindOpenPrioritized(ctx context.Context, limit int) ([]*domain.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var open []*domain.Alert
	for _, id := range s.creationOrder {
		alert := s.alerts[id]
		if alert.Status == domain.AlertStatusOpen {
			open = append(open, cloneAlert(alert))
		}
	}

	sort.SliceStable(open, func(i, j int) bool {
		if open[i].Severity.Priority() != open[j].Severity.Priority() {
			return open[i].Severity.Priority() < open[j].Severity.Priority()
		}
		return open[i].CreatedAt.Before(open[j].CreatedAt)
	})

	if limit > 0 && len(open) > limit {
		open = open[:limit]
	}

	return open, nil
}

func (s *AlertStore) Count(ctx context.Context, status *domain.AlertStatus, severity *domain.AlertSeverity) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, alert := range s.alerts {
		if status != nil && alert.Status != *status {
			continue
		}
		if severity != nil && alert.Severity != *severity {
			continue
		}
		count++
	}

	return count, nil
}

func cloneAlert(a *domain.Alert) *domain.Alert {
	c := *a
	c.TriggeringPaymentIDs = append([]string(nil), a.TriggeringPaymentIDs...)
	if a.AcknowledgedAt != nil {
		v := *a.AcknowledgedAt
		c.AcknowledgedAt = &v
	}
	if a.ClosedAt != nil {
		v := *a.ClosedAt
		c.ClosedAt = &v
	}
	return &c
}
