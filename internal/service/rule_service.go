package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/moneymap/payments/internal/domain"
	"github.com/moneymap/payments/pkg/logger"
	"github.com/shopspring/decimal"
)

type RuleInput struct {
	RuleName    string
	RuleType    domain.RuleType
	Severity    domain.AlertSeverity
	Active      *bool
	Description string

	ThresholdAmount   *decimal.Decimal
	ThresholdCurrency string
	MaxTransactions   *int
	TimeWindowMinutes *int
	DailyLimitAmount  *decimal.Decimal
	LookbackDays      *int
}

type RuleService interface {
	Create(ctx context.Context, input RuleInput) (*domain.MonitoringRule, error)
	Update(ctx context.Context, id string, input RuleInput) (*domain.MonitoringRule, error)
	Activate(ctx context.Context, id string) (*domain.MonitoringRule, error)
	Deactivate(ctx context.Context, id string) (*domain.MonitoringRule, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.MonitoringRule, error)
	List(ctx context.Context, page, perPage int) ([]*domain.MonitoringRule, int, error)
	Types() []domain.RuleType
}

type ruleService struct {
	repo   domain.RuleRepository
	logger *logger.Logger
}

func NewRuleService(repo domain.RuleRepository, log *logger.Logger) RuleService {
	return &ruleService{
		repo:   repo,
		logger: log,
	}
}

func (s *ruleService) Create(ctx context.Context, input RuleInput) (*domain.MonitoringRule, error) {
	s.logger.Info(ctx, "Creating monitoring rule",
		"rule_name", input.RuleName,
		"rule_type", input.RuleType,
	)

	if err := validateRuleInput(input); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByName(ctx, input.RuleName, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &domain.DuplicateError{Resource: "rule", Field: "rule_name", Value: input.RuleName}
	}

	now := time.Now()
	rule := &domain.MonitoringRule{
		ID:          uuid.NewString(),
		RuleName:    input.RuleName,
		RuleType:    input.RuleType,
		Severity:    input.Severity,
		Active:      true,
		Description: input.Description,

		ThresholdAmount:   input.ThresholdAmount,
		ThresholdCurrency: input.ThresholdCurrency,
		MaxTransactions:   input.MaxTransactions,
		TimeWindowMinutes: input.TimeWindowMinutes,
		DailyLimitAmount:  input.DailyLimitAmount,
		LookbackDays:      input.LookbackDays,

		CreatedAt: now,
		UpdatedAt: now,
	}
	if rule.Severity == "" {
		rule.Severity = domain.SeverityMedium
	}
	if input.Active != nil {
		rule.Active = *input.Active
	}

	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Monitoring rule created",
		"rule_id", rule.ID,
		"rule_name", rule.RuleName,
	)

	return rule, nil
}

func (s *ruleService) Update(ctx context.Context, id string, input RuleInput) (*domain.MonitoringRule, error) {
	s.logger.Info(ctx, "Updating monitoring rule", "rule_id", id)

	if err := validateRuleInput(input); err != nil {
		return nil, err
	}

	rule, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByName(ctx, input.RuleName, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &domain.DuplicateError{Resource: "rule", Field: "rule_name", Value: input.RuleName}
	}

	rule.RuleName = input.RuleName
	rule.RuleType = input.RuleType
	if input.Severity != "" {
		rule.Severity = input.Severity
	}
	if input.Active != nil {
		rule.Active = *input.Active
	}
	rule.Description = input.Description
	rule.ThresholdAmount = input.ThresholdAmount
	rule.ThresholdCurrency = input.ThresholdCurrency
	rule.MaxTransactions = input.MaxTransactions
	rule.TimeWindowMinutes = input.TimeWindowMinutes
	rule.DailyLimitAmount = input.DailyLimitAmount
	rule.LookbackDays = input.LookbackDays

	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, err
	}

	return rule, nil
}

func (s *ruleService) Activate(ctx context.Context, id string) (*domain.MonitoringRule, error) {
	return s.setActive(ctx, id, true)
}

func (s *ruleService) Deactivate(ctx context.Context, id string) (*domain.MonitoringRule, error) {
	return s.setActive(ctx, id, false)
}

func (s *ruleService) setActive(ctx context.Context, id string, active bool) (*domain.MonitoringRule, error) {
	rule, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rule.Active = active
	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Monitoring rule active flag changed",
		"rule_id", id,
		"active", active,
	)

	return rule, nil
}

func (s *ruleService) Delete(ctx context.Context, id string) error {
	s.logger.Info(ctx, "Deleting monitoring rule", "rule_id", id)
	return s.repo.Delete(ctx, id)
}

func (s *ruleService) GetByID(ctx context.Context, id string) (*domain.MonitoringRule, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ruleService) List(ctx context.Context, page, perPage int) ([]*domain.MonitoringRule, int, error) {
	return s.repo.List(ctx, page, perPage)
}

func (s *ruleService) Types() []domain.RuleType {
	return domain.RuleTypes()
}

// validateRuleInput checks that the parameter subset required by the rule
// type is present.
func validateRuleInput(input RuleInput) error {
	if input.RuleName == "" {
		return domain.NewValidationError(domain.ErrCodeValidationFailed, "rule name is required")
	}
	if !input.RuleType.Valid() {
		return domain.NewValidationError(domain.ErrCodeValidationFailed,
			"unknown rule type %q", input.RuleType)
	}
	if input.Severity != "" && !input.Severity.Valid() {
		return domain.NewValidationError(domain.ErrCodeValidationFailed,
			"unknown severity %q", input.Severity)
	}

	switch input.RuleType {
	case domain.RuleTypeAmountThreshold:
		if input.ThresholdAmount == nil {
			return domain.NewValidationError(domain.ErrCodeValidationFailed,
				"AMOUNT_THRESHOLD rule requires thresholdAmount")
		}
	case domain.RuleTypeVelocity:
		if input.MaxTransactions == nil || input.TimeWindowMinutes == nil {
			return domain.NewValidationError(domain.ErrCodeValidationFailed,
				"VELOCITY rule requires maxTransactions and timeWindowMinutes")
		}
	case domain.RuleTypeDailyLimit:
		if input.DailyLimitAmount == nil {
			return domain.NewValidationError(domain.ErrCodeValidationFailed,
				"DAILY_LIMIT rule requires dailyLimitAmount")
		}
	}

	return nil
}
