package entity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidSelection = errors.New("invalid seat selection")
	ErrSeatsUnavailable = errors.New("seats unavailable")
	ErrBookingExpired   = errors.New("booking expired")
	ErrAlreadyReleased  = errors.New("seat lock already released")
	ErrPaymentRejected  = errors.New("payment rejected")
	ErrPaymentExists    = errors.New("another payment is already open for this booking")
	ErrInvalidState     = errors.New("invalid state transition")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")

	ErrBookingNotFound  = fmt.Errorf("booking %w", ErrNotFound)
	ErrPaymentNotFound  = fmt.Errorf("payment %w", ErrNotFound)
	ErrLockNotFound     = fmt.Errorf("seat lock %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("seat category %w", ErrNotFound)
)

// SeatsUnavailableError names the seats that blocked a lock attempt.
type SeatsUnavailableError struct {
	Seats []string
}

func (e *SeatsUnavailableError) Error() string {
	return fmt.Sprintf("seats unavailable: %s", strings.Join(e.Seats, ", "))
}

func (e *SeatsUnavailableError) Is(target error) bool {
	return target == ErrSeatsUnavailable
}

// NewSelectionError wraps ErrInvalidSelection with a user-facing reason.
func NewSelectionError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSelection, fmt.Sprintf(format, args...))
}

// ValidationError carries per-field messages for a malformed request.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
