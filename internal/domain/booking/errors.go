package booking

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/amenio/amenio-api/internal/pkg/timeslot"
)

// Sentinel errors for decision outcomes without payload.
var (
	ErrUnknownAmenity   = errors.New("unknown amenity")
	ErrNotFound         = errors.New("booking not found")
	ErrForbidden        = errors.New("booking does not belong to this user")
	ErrAlreadyCancelled = errors.New("booking already cancelled")

	// ErrStorageUnavailable marks transient store failures. It is never
	// retried internally; callers retry with backoff after re-validating.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError reports a malformed intent, detected before any storage
// access.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid intent: %s: %s", e.Field, e.Reason)
}

// RuleViolationError names the first rule the requested interval failed,
// in rule creation order. Expected and frequent; not an engine failure.
type RuleViolationError struct {
	RuleID uuid.UUID
	Reason string
}

func (e *RuleViolationError) Error() string {
	return fmt.Sprintf("rule %s violated: %s", e.RuleID, e.Reason)
}

// SlotConflictError reports the confirmed booking whose interval overlaps
// the requested one.
type SlotConflictError struct {
	BookingID uuid.UUID
	Conflict  timeslot.Interval
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("slot conflict with booking %s at %s", e.BookingID, e.Conflict)
}

// storageErr tags an underlying store failure as retryable for callers
// while preserving the cause.
func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
