package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrEntityNotFound  = fmt.Errorf("%w: entity", ErrNotFound)
	ErrStageNotFound   = fmt.Errorf("%w: stage", ErrNotFound)
	ErrRecordNotFound  = fmt.Errorf("%w: history record", ErrNotFound)
	ErrCatalogNotFound = fmt.Errorf("%w: stage catalog", ErrNotFound)

	// Commit gating errors
	ErrCommitBlocked   = errors.New("transition blocked by validation errors")
	ErrAckRequired     = errors.New("transition requires acknowledgment")
	ErrNoteRequired    = errors.New("transition requires a note")
	ErrNothingToCommit = errors.New("no changes detected")

	// Integrity errors
	ErrRecordVoided  = errors.New("history record already voided")
	ErrStaleSnapshot = errors.New("entity state changed since it was read")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsGateError(err error) bool {
	return errors.Is(err, ErrCommitBlocked) ||
		errors.Is(err, ErrAckRequired) ||
		errors.Is(err, ErrNoteRequired)
}
