package domain

import (
	"errors"
	"fmt"
)

// Error categories. Concrete error values below report membership via
// errors.Is against these sentinels.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicate         = errors.New("duplicate resource")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrVersionConflict   = errors.New("version conflict")
)

// ValidationError rejects a malformed payment request or rule definition.
type ValidationError struct {
	Code    PaymentErrorCode
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func NewValidationError(code PaymentErrorCode, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError identifies an unknown payment, rule, or alert.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// DuplicateError identifies a uniqueness violation, e.g. a rule name that
// already exists. Idempotency-key reuse is handled as replay, not as an
// error.
type DuplicateError struct {
	Resource string
	Field    string
	Value    string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Resource, e.Field, e.Value)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// IllegalTransitionError names the current and requested status of a
// rejected payment or alert transition.
type IllegalTransitionError struct {
	Entity  string
	Current string
	Target  string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("%s cannot transition from %s to %s", e.Entity, e.Current, e.Target)
}

func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

// ConflictError rejects a concurrent payment mutation whose loaded version
// no longer matches the stored row.
type ConflictError struct {
	Resource string
	ID       string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s was modified concurrently", e.Resource, e.ID)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}
