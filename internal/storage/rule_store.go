package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/moneymap/payments/internal/domain"
)

type RuleStore struct {
	rules         map[string]*domain.MonitoringRule
	creationOrder []string
	mu            sync.RWMutex
}

func NewRuleStore() *RuleStore {
	return &RuleStore{
		rules: make(map[string]*domain.MonitoringRule),
	}
}

func (s *RuleStore) Create(ctx context.Context, rule *domain.MonitoringRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneRule(rule)
	s.rules[stored.ID] = stored
	s.creationOrder = append(s.creationOrder, stored.ID)

	return nil
}

func (s *RuleStore) GetByID(ctx context.Context, id string) (*domain.MonitoringRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, exists := s.rules[id]
	if !exists {
		return nil, &domain.NotFoundError{Resource: "rule", ID: id}
	}

	return cloneRule(rule), nil
}

func (s *RuleStore) Update(ctx context.Context, rule *domain.MonitoringRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[rule.ID]; !exists {
		return &domain.NotFoundError{Resource: "rule", ID: rule.ID}
	}

	stored := cloneRule(rule)
	stored.UpdatedAt = time.Now()
	s.rules[rule.ID] = stored

	return nil
}

func (s *RuleStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[id]; !exists {
		return &domain.NotFoundError{Resource: "rule", ID: id}
	}

	delete(s.rules, id)
	for i, ruleID := range s.creationOrder {
		if ruleID == id {
			s.creationOrder = append(s.creationOrder[:i], s.creationOrder[i+1:]...)
			break
		}
	}

	return nil
}

func (s *RuleStore) FindActive(ctx context.Context) ([]*domain.MonitoringRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []*domain.MonitoringRule
	for _, id := range s.creationOrder {
		rule := s.rules[id]
		if rule.Active {
			active = append(active, cloneRule(rule))
		}
	}

	return active, nil
}

func (s *RuleStore) List(ctx context.Context, page, perPage int) ([]*domain.MonitoringRule, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*domain.MonitoringRule, 0, len(s.creationOrder))
	for _, id := range s.creationOrder {
		all = append(all, cloneRule(s.rules[id]))
	}

	total := len(all)
	start, end := pageBounds(page, perPage, total)

	return all[start:end], total, nil
}

func (s *RuleStore) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rule := range s.rules {
		if rule.ID == excludeID {
			continue
		}
		if strings.EqualFold(rule.RuleName, name) {
			return true, nil
		}
	}

	return false, nil
}

func cloneRule(r *domain.MonitoringRule) *domain.MonitoringRule {
	c := *r
	if r.ThresholdAmount != nil {
		v := *r.ThresholdAmount
		c.ThresholdAmount = &v
	}
	if r.MaxTransactions != nil {
		v := *r.MaxTransactions
		c.MaxTransactions = &v
	}
	if r.TimeWindowMinutes != nil {
		v := *r.TimeWindowMinutes
		c.TimeWindowMinutes = &v
	}
	if r.DailyLimitAmount != nil {
		v := *r.DailyLimitAmount
		c.DailyLimitAmount = &v
	}
	if r.LookbackDays != nil {
		v := *r.LookbackDays
		c.LookbackDays = &v
	}
	return &c
}
