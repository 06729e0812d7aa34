/*
repository.go - Persistence collaborator contracts

PURPOSE:
  Defines the interfaces between the engine and storage. The engine holds
  no long-lived state of its own; every operation reads what it needs
  through these contracts and writes results back through them.

THE CRITICAL CONTRACT:
  RequestStore.CreateRequest must be an atomic check-then-write: the
  overlap check and the insertion of a new live request happen in one
  transaction (or behind a unique constraint on (user, date, half) slots
  checked at commit). Two concurrent submissions for the same user must
  not both pass the overlap check and both commit. Cross-user concurrency
  never conflicts, so the discipline is scoped per user.

IMPLEMENTATIONS:
  - leave/store: In-memory, for tests and development
  - store/sqlite: SQLite with a unique partial index over live slots

SEE ALSO:
  - lifecycle.go: The only writer of request state
  - carryover.go: The only writer of carried-over balances
*/
package leave

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REQUEST STORE
// =============================================================================

type RequestStore interface {
	// CreateRequest persists a new request in a live status together with
	// its (date, half) slots, atomically with respect to concurrent
	// creations for the same user. Returns an error wrapping ErrOverlap
	// when a live slot is already occupied.
	CreateRequest(ctx context.Context, r Request) error

	// UpdateRequest persists a status change. When the new status is
	// terminal the request's slots stop blocking future bookings.
	UpdateRequest(ctx context.Context, r Request) error

	// RequestByID loads a single request. Returns ErrNotFound if absent.
	RequestByID(ctx context.Context, id RequestID) (Request, error)

	// LiveRequests returns the user's requests in a live status
	// (pending, approved, pending_revoke), ordered by start date.
	LiveRequests(ctx context.Context, userID UserID) ([]Request, error)

	// RequestsByUser returns all of a user's requests regardless of status.
	RequestsByUser(ctx context.Context, userID UserID) ([]Request, error)
}

// =============================================================================
// SCHEDULE STORE
// =============================================================================

type ScheduleStore interface {
	// FindSchedules returns the candidate rows for a (user, company) pair:
	// the user-specific override and/or the company-wide schedule.
	FindSchedules(ctx context.Context, userID UserID, companyID CompanyID) ([]WorkSchedule, error)

	// SaveSchedule creates or replaces a schedule row keyed by its scope
	// and owner.
	SaveSchedule(ctx context.Context, s WorkSchedule) error

	// DeleteUserSchedule removes the user-specific override, if any.
	DeleteUserSchedule(ctx context.Context, userID UserID) error
}

// =============================================================================
// ALLOWANCE STORE
// =============================================================================

type AllowanceStore interface {
	// Nominal returns the user's precomputed annual entitlement for the
	// year. Pro-ration for mid-year hires is the caller's business rule;
	// the engine treats this value as opaque.
	Nominal(ctx context.Context, userID UserID, year int) (decimal.Decimal, error)

	// Adjustment returns the manual allowance adjustment for the year.
	// Zero when none is recorded.
	Adjustment(ctx context.Context, userID UserID, year int) (decimal.Decimal, error)

	// SaveAdjustment records a manual adjustment for the year.
	SaveAdjustment(ctx context.Context, userID UserID, year int, amount decimal.Decimal) error

	// CarryOver returns the carried-over balance recorded for the year.
	// Zero when none is recorded.
	CarryOver(ctx context.Context, userID UserID, year int) (decimal.Decimal, error)

	// SaveCarryOver records the carried-over balance for the year,
	// replacing any previous value (idempotent re-runs overwrite).
	SaveCarryOver(ctx context.Context, userID UserID, year int, amount decimal.Decimal) error
}

// =============================================================================
// DIRECTORY STORE - Users, leave types, holidays, tenant config
// =============================================================================

type DirectoryStore interface {
	UserByID(ctx context.Context, id UserID) (User, error)
	ActiveUsers(ctx context.Context, companyID CompanyID) ([]User, error)

	LeaveTypeByID(ctx context.Context, id LeaveTypeID) (LeaveType, error)
	LeaveTypes(ctx context.Context, companyID CompanyID) ([]LeaveType, error)

	// Holidays returns the company's designated non-working dates.
	Holidays(ctx context.Context, companyID CompanyID) (HolidaySet, error)

	// SaveHoliday designates a date non-working for the company, replacing
	// any existing entry for that date.
	SaveHoliday(ctx context.Context, companyID CompanyID, date Date, name string) error

	// DeleteHoliday removes a designated holiday. Removing an absent date
	// is not an error.
	DeleteHoliday(ctx context.Context, companyID CompanyID, date Date) error

	CompanyConfig(ctx context.Context, companyID CompanyID) (CompanyConfig, error)
}

// Repository aggregates every collaborator contract the engine consumes.
// Stores implement the whole thing; engine components depend only on the
// slices they need.
type Repository interface {
	RequestStore
	ScheduleStore
	AllowanceStore
	DirectoryStore
}
