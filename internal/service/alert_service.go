package service

import (
	"context"
	"time"

	"github.com/moneymap/payments/internal/domain"
	"github.com/moneymap/payments/pkg/logger"
)

// AlertStatistics summarizes the alert backlog for dashboards.
type AlertStatistics struct {
	ByStatus       map[domain.AlertStatus]int64   `json:"by_status"`
	BySeverity     map[domain.AlertSeverity]int64 `json:"by_severity"`
	OpenBySeverity map[domain.AlertSeverity]int64 `json:"open_by_severity"`
}

type AlertService interface {
	// Acknowledge moves an OPEN alert to ACKNOWLEDGED, recording the
	// operator and timestamp.
	Acknowledge(ctx context.Context, id, operatorName string) (*domain.Alert, error)

	// UpdateStatus applies an operator-driven transition. CLOSED and
	// DISMISSED record the operator and resolution notes. Alerts are
	// never deleted.
	UpdateStatus(ctx context.Context, id string, target domain.AlertStatus, operatorName, resolutionNotes string) (*domain.Alert, error)

	GetByID(ctx context.Context, id string) (*domain.Alert, error)
	List(ctx context.Context, filter domain.AlertFilter) ([]*domain.Alert, int, error)
	OpenPrioritized(ctx context.Context, limit int) ([]*domain.Alert, error)
	Statistics(ctx context.Context) (*AlertStatistics, error)
}

type alertService struct {
	repo   domain.AlertRepository
	logger *logger.Logger
}

func NewAlertService(repo domain.AlertRepository, log *logger.Logger) AlertService {
	return &alertService{
		repo:   repo,
		logger: log,
	}
}

func (s *alertService) Acknowledge(ctx context.Context, id, operatorName string) (*domain.Alert, error) {
	return s.UpdateStatus(ctx, id, domain.AlertStatusAcknowledged, operatorName, "")
}

func (s *alertService) UpdateStatus(ctx context.Context, id string, target domain.AlertStatus, operatorName, resolutionNotes string) (*domain.Alert, error) {
	s.logger.Info(ctx, "Updating alert status",
		"alert_id", id,
		"target_status", target,
		"operator", operatorName,
	)

	if !target.Valid() {
		return nil, domain.NewValidationError(domain.ErrCodeValidationFailed,
			"unknown alert status %q", target)
	}

	alert, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !alert.Status.CanTransitionTo(target) {
		return nil, &domain.IllegalTransitionError{
			Entity:  "alert",
			Current: string(alert.Status),
			Target:  string(target),
		}
	}

	now := time.Now()
	switch target {
	case domain.AlertStatusAcknowledged:
		alert.AcknowledgedAt = &now
		alert.AcknowledgedBy = operatorName
	case domain.AlertStatusClosed, domain.AlertStatusDismissed:
		alert.ClosedAt = &now
		alert.ClosedBy = operatorName
		alert.ResolutionNotes = resolutionNotes
	}
	alert.Status = target
	alert.UpdatedAt = now

	if err := s.repo.Update(ctx, alert); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Alert status updated",
		"alert_id", id,
		"status", target,
	)

	return alert, nil
}

func (s *alertService) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *alertService) List(ctx context.Context, filter domain.AlertFilter) ([]*domain.Alert, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *alertService) OpenPrioritized(ctx context.Context, limit int) ([]*domain.Alert, error) {
	return s.repo.FindOpenPrioritized(ctx, limit)
}

func (s *alertService) Statistics(ctx context.Context) (*AlertStatistics, error) {
	stats := &AlertStatistics{
		ByStatus:       make(map[domain.AlertStatus]int64),
		BySeverity:     make(map[domain.AlertSeverity]int64),
		OpenBySeverity: make(map[domain.AlertSeverity]int64),
	}

	statuses := []domain.AlertStatus{
		domain.AlertStatusOpen, domain.AlertStatusAcknowledged,
		domain.AlertStatusInvestigating, domain.AlertStatusClosed,
		domain.AlertStatusDismissed,
	}
	for _, status := range statuses {
		count, err := s.repo.Count(ctx, &status, nil)
		if err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
	}

	open := domain.AlertStatusOpen
	severities := []domain.AlertSeverity{domain.SeverityHigh, domain.SeverityMedium, domain.SeverityLow}
	for _, severity := range severities {
		count, err := s.repo.Count(ctx, nil, &severity)
		if err != nil {
			return nil, err
		}
		stats.BySeverity[severity] = count

		openCount, err := s.repo.Count(ctx, &open, &severity)
		if err != nil {
			return nil, err
		}
		stats.OpenBySeverity[severity] = openCount
	}

	return stats, nil
}
