package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type AlertStatus string

const (
	AlertStatusOpen          AlertStatus = "OPEN"
	AlertStatusAcknowledged  AlertStatus = "ACKNOWLEDGED"
	AlertStatusInvestigating AlertStatus = "INVESTIGATING"
	AlertStatusClosed        AlertStatus = "CLOSED"
	AlertStatusDismissed     AlertStatus = "DISMISSED"
)

// CanTransitionTo reports whether the operator workflow permits moving
// from s to target. DISMISSED is reachable from every non-terminal state;
// CLOSED only via INVESTIGATING.
func (s AlertStatus) CanTransitionTo(target AlertStatus) bool {
	switch s {
	case AlertStatusOpen:
		return target == AlertStatusAcknowledged || target == AlertStatusDismissed
	case AlertStatusAcknowledged:
		return target == AlertStatusInvestigating || target == AlertStatusDismissed
	case AlertStatusInvestigating:
		return target == AlertStatusClosed || target == AlertStatusDismissed
	default:
		return false
	}
}

func (s AlertStatus) IsTerminal() bool {
	return s == AlertStatusClosed || s == AlertStatusDismissed
}

func (s AlertStatus) Valid() bool {
	switch s {
	case AlertStatusOpen, AlertStatusAcknowledged, AlertStatusInvestigating,
		AlertStatusClosed, AlertStatusDismissed:
		return true
	}
	return false
}

// Alert is created only by the rule engine and never deleted. Severity is
// copied from the rule at trigger time so later rule edits do not rewrite
// alert history. TriggeringPaymentIDs is a reference set: payments outlive
// alerts.
type Alert struct {
	ID                   string        `json:"id"`
	AlertReference       string        `json:"alert_reference"`
	RuleID               string        `json:"rule_id"`
	RuleName             string        `json:"rule_name"`
	Severity             AlertSeverity `json:"severity"`
	Status               AlertStatus   `json:"status"`
	Message              string        `json:"message"`
	AccountID            string        `json:"account_id"`
	TriggeringPaymentIDs []string      `json:"triggering_payment_ids"`

	AcknowledgedAt  *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy  string     `json:"acknowledged_by,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	ClosedBy        string     `json:"closed_by,omitempty"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAlertReference generates a unique external alert identifier.
func NewAlertReference() string {
	return "ALT-" + strings.ToUpper(uuid.NewString()[:18])
}
