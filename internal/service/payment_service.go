package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moneymap/payments/internal/config"
	"github.com/moneymap/payments/internal/domain"
	"github.com/moneymap/payments/pkg/logger"
	"github.com/moneymap/payments/pkg/metrics"
	"github.com/shopspring/decimal"
)

// EvaluationTrigger hands a freshly created payment to the monitoring
// pipeline. Implementations must not block and must not surface failures
// into the creation path.
type EvaluationTrigger interface {
	SubmitForEvaluation(ctx context.Context, payment *domain.Payment)
}

type CreatePaymentInput struct {
	SourceAccount      string
	DestinationAccount string
	Amount             decimal.Decimal
	Currency           string
	IdempotencyKey     string
	Reference          string
	Description        string
}

type PaymentService interface {
	// Create validates and persists a new payment in CREATED status and
	// submits it for rule evaluation. When the idempotency key was seen
	// before it returns the original payment with replayed=true.
	Create(ctx context.Context, input CreatePaymentInput) (payment *domain.Payment, replayed bool, err error)

	UpdateStatus(ctx context.Context, id string, update domain.StatusUpdate) (*domain.Payment, error)
	Validate(ctx context.Context, id string) (*domain.Payment, error)
	Send(ctx context.Context, id string) (*domain.Payment, error)
	Complete(ctx context.Context, id string) (*domain.Payment, error)
	Fail(ctx context.Context, id string, errorCode domain.PaymentErrorCode, errorMessage string) (*domain.Payment, error)

	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	GetByReference(ctx context.Context, reference string) (*domain.Payment, error)
	GetHistory(ctx context.Context, id string) ([]domain.PaymentStatusHistory, error)
	List(ctx context.Context, filter domain.PaymentFilter) ([]*domain.Payment, int, error)
}

type paymentService struct {
	repo      domain.PaymentRepository
	trigger   EvaluationTrigger
	cfg       config.PaymentConfig
	logger    *logger.Logger
	collector *metrics.Collector
}

func NewPaymentService(
	repo domain.PaymentRepository,
	trigger EvaluationTrigger,
	cfg config.PaymentConfig,
	log *logger.Logger,
	collector *metrics.Collector,
) PaymentService {
	return &paymentService{
		repo:      repo,
		trigger:   trigger,
		cfg:       cfg,
		logger:    log,
		collector: collector,
	}
}

func (s *paymentService) Create(ctx context.Context, input CreatePaymentInput) (*domain.Payment, bool, error) {
	s.logger.Info(ctx, "Creating payment",
		"source_account", input.SourceAccount,
		"destination_account", input.DestinationAccount,
	)

	if input.IdempotencyKey != "" {
		existing, err := s.repo.GetByIdempotencyKey(ctx, input.IdempotencyKey)
		if err == nil {
			s.logger.Info(ctx, "Idempotent replay of payment creation",
				"payment_id", existing.ID,
				"idempotency_key", input.IdempotencyKey,
			)
			return existing, true, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, false, err
		}
	}

	if err := s.validateCreate(input); err != nil {
		return nil, false, err
	}

	now := time.Now()
	initial := domain.PaymentStatusHistory{
		Status:    domain.PaymentStatusCreated,
		Notes:     "Payment created",
		Timestamp: now,
	}
	payment := &domain.Payment{
		ID:                 uuid.NewString(),
		PaymentReference:   domain.NewPaymentReference(),
		IdempotencyKey:     input.IdempotencyKey,
		SourceAccount:      input.SourceAccount,
		DestinationAccount: input.DestinationAccount,
		Amount:             input.Amount,
		Currency:           strings.ToUpper(input.Currency),
		Status:             domain.PaymentStatusCreated,
		Reference:          input.Reference,
		Description:        input.Description,
		Version:            1,
		StatusHistory:      []domain.PaymentStatusHistory{initial},
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Create(ctx, payment); err != nil {
		// Lost a creation race on the idempotency key: the earlier row wins.
		if errors.Is(err, domain.ErrDuplicate) && input.IdempotencyKey != "" {
			existing, lookupErr := s.repo.GetByIdempotencyKey(ctx, input.IdempotencyKey)
			if lookupErr == nil {
				return existing, true, nil
			}
		}
		return nil, false, err
	}

	s.collector.PaymentCreated()

	ctx = logger.WithPaymentID(ctx, payment.ID)
	s.logger.Info(ctx, "Payment created",
		"payment_reference", payment.PaymentReference,
		"amount", payment.Amount.String(),
		"currency", payment.Currency,
	)

	s.trigger.SubmitForEvaluation(ctx, payment)

	return payment, false, nil
}

func (s *paymentService) validateCreate(input CreatePaymentInput) error {
	if input.SourceAccount == input.DestinationAccount {
		return domain.NewValidationError(domain.ErrCodeSameAccount,
			"source and destination accounts cannot be the same")
	}

	currency := strings.ToUpper(input.Currency)
	supported := false
	for _, c := range s.cfg.SupportedCurrencies {
		if c == currency {
			supported = true
			break
		}
	}
	if !supported {
		return domain.NewValidationError(domain.ErrCodeInvalidCurrency,
			"currency %s is not supported (supported: %s)",
			input.Currency, strings.Join(s.cfg.SupportedCurrencies, ", "))
	}

	if input.Amount.Cmp(decimal.Zero) <= 0 {
		return domain.NewValidationError(domain.ErrCodeInvalidAmount,
			"amount must be positive, got %s", input.Amount.String())
	}
	if input.Amount.Cmp(s.cfg.MaxAmount) > 0 {
		return domain.NewValidationError(domain.ErrCodeAmountExceedsLimit,
			"amount %s exceeds maximum allowed %s",
			input.Amount.String(), s.cfg.MaxAmount.String())
	}
	if !input.Amount.Equal(input.Amount.Truncate(2)) {
		return domain.NewValidationError(domain.ErrCodeInvalidAmount,
			"amount %s has more than 2 fractional digits", input.Amount.String())
	}

	return nil
}

func (s *paymentService) UpdateStatus(ctx context.Context, id string, update domain.StatusUpdate) (*domain.Payment, error) {
	ctx = logger.WithPaymentID(ctx, id)
	s.logger.Info(ctx, "Updating payment status",
		"target_status", update.Status,
	)

	if !update.Status.Valid() {
		return nil, domain.NewValidationError(domain.ErrCodeInvalidStatusTransition,
			"unknown payment status %q", update.Status)
	}

	payment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !payment.Status.CanTransitionTo(update.Status) {
		return nil, &domain.IllegalTransitionError{
			Entity:  "payment",
			Current: string(payment.Status),
			Target:  string(update.Status),
		}
	}

	updated, err := s.repo.ApplyStatusUpdate(ctx, id, payment.Version, update)
	if err != nil {
		return nil, err
	}

	s.collector.PaymentTransition(string(update.Status))
	s.logger.Info(ctx, "Payment status updated",
		"previous_status", payment.Status,
		"status", updated.Status,
	)

	return updated, nil
}

func (s *paymentService) Validate(ctx context.Context, id string) (*domain.Payment, error) {
	return s.UpdateStatus(ctx, id, domain.StatusUpdate{
		Status: domain.PaymentStatusValidated,
		Notes:  "All validation checks passed",
	})
}

func (s *paymentService) Send(ctx context.Context, id string) (*domain.Payment, error) {
	return s.UpdateStatus(ctx, id, domain.StatusUpdate{
		Status: domain.PaymentStatusSent,
		Notes:  "Payment transmitted to destination",
	})
}

func (s *paymentService) Complete(ctx context.Context, id string) (*domain.Payment, error) {
	return s.UpdateStatus(ctx, id, domain.StatusUpdate{
		Status: domain.PaymentStatusCompleted,
		Notes:  "Payment successfully processed",
	})
}

func (s *paymentService) Fail(ctx context.Context, id string, errorCode domain.PaymentErrorCode, errorMessage string) (*domain.Payment, error) {
	return s.UpdateStatus(ctx, id, domain.StatusUpdate{
		Status:       domain.PaymentStatusFailed,
		Notes:        "Payment failed: " + errorMessage,
		ErrorCode:    errorCode,
		ErrorMessage: errorMessage,
	})
}

func (s *paymentService) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *paymentService) GetByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	return s.repo.GetByReference(ctx, reference)
}

func (s *paymentService) GetHistory(ctx context.Context, id string) ([]domain.PaymentStatusHistory, error) {
	payment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return payment.StatusHistory, nil
}

func (s *paymentService) List(ctx context.Context, filter domain.PaymentFilter) ([]*domain.Payment, int, error) {
	return s.repo.List(ctx, filter)
}
