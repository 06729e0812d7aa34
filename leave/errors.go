/*
errors.go - Centralized error types for the booking engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match sentinels with errors.Is and recover structured detail
  with errors.As.

ERROR CATEGORIES:
  1. Validation errors - malformed intervals, bad adjustments; rejected
     before any side effect
  2. Booking errors - overlap and allowance violations, with the detail
     needed for user-facing messages (conflicting requests, shortfall)
  3. Lifecycle errors - transitions outside the state machine table
  4. Integrity errors - impossible data shapes detected defensively

All failures here are local and synchronous; nothing in this package
retries. Shortfall amounts keep half-day precision.
*/
package leave

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all pre-side-effect input rejections.
	ErrValidation = errors.New("validation failed")

	// ErrOverlap is returned when a candidate interval shares at least one
	// (date, half) slot with an existing live request.
	ErrOverlap = errors.New("overlapping booking")

	// ErrAllowanceExceeded is returned when a request would push usage past
	// the remaining allowance or a leave type's annual limit.
	ErrAllowanceExceeded = errors.New("allowance exceeded")

	// ErrInvalidTransition is returned for state changes outside the
	// lifecycle table.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotPermitted is returned when the caller-supplied permission fact
	// denies the actor.
	ErrNotPermitted = errors.New("actor not permitted")

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDataIntegrity is returned for data shapes that should never occur,
	// such as three schedule rows resolving for one user.
	ErrDataIntegrity = errors.New("data integrity violation")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports a malformed input, rejected before any side effect.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// OverlapError identifies the specific conflicting request(s) so the caller
// can render a precise message, not just a boolean.
type OverlapError struct {
	UserID    UserID
	Candidate Interval
	Conflicts []Request
}

func (e *OverlapError) Error() string {
	if len(e.Conflicts) == 1 {
		return fmt.Sprintf("booking %s overlaps existing request %s (%s)",
			e.Candidate, e.Conflicts[0].ID, e.Conflicts[0].Interval)
	}
	return fmt.Sprintf("booking %s overlaps %d existing requests", e.Candidate, len(e.Conflicts))
}

func (e *OverlapError) Unwrap() error { return ErrOverlap }

// AllowanceExceededError carries the shortfall so messages can say exactly
// by how much the request overshoots. Shortfall keeps half-day precision.
type AllowanceExceededError struct {
	UserID      UserID
	LeaveTypeID LeaveTypeID
	Requested   decimal.Decimal
	Remaining   decimal.Decimal
	Shortfall   decimal.Decimal
	LimitKind   LimitKind
}

// LimitKind says which bound was hit.
type LimitKind string

const (
	LimitAllowance LimitKind = "allowance"  // general annual allowance
	LimitTypeCap   LimitKind = "annual_cap" // per-leave-type annual limit
)

func (e *AllowanceExceededError) Error() string {
	return fmt.Sprintf("request for %s days exceeds %s by %s (remaining %s)",
		e.Requested, e.LimitKind, e.Shortfall, e.Remaining)
}

func (e *AllowanceExceededError) Unwrap() error { return ErrAllowanceExceeded }

// InvalidTransitionError reports an attempted state change not in the
// lifecycle table.
type InvalidTransitionError struct {
	RequestID RequestID
	From      RequestStatus
	To        RequestStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("request %s: cannot transition %s -> %s", e.RequestID, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// DataIntegrityError reports an impossible schedule row count. Defensive;
// should never occur, but must be detected rather than silently resolved.
type DataIntegrityError struct {
	UserID        UserID
	ScheduleCount int
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("user %s resolves %d schedules, expected at most 2", e.UserID, e.ScheduleCount)
}

func (e *DataIntegrityError) Unwrap() error { return ErrDataIntegrity }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to invalid or conflicting
// client input rather than a system failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrOverlap) ||
		errors.Is(err, ErrAllowanceExceeded) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrNotPermitted)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
