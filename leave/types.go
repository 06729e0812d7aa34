/*
types.go - Identifiers and records shared across the engine

KEY CONCEPTS:
  - LeaveType: A category of absence (Holiday, Sick, ...) with its own
    allowance-usage and cap policy
  - Request: A leave request with its interval and lifecycle status
  - User / CompanyConfig: The directory facts the engine consumes

DESIGN PRINCIPLES:
  1. Type Safety: Strong typing for IDs prevents mixing user/company/request IDs
  2. Precision: decimal.Decimal for all day quantities
  3. Statuses carry their own liveness/terminality predicates so every
     component agrees on which requests still occupy calendar slots
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type CompanyID string
type RequestID string
type LeaveTypeID string

// =============================================================================
// LEAVE TYPE - Absence category with cap policy
// =============================================================================

// LeaveType categorises an absence. UsesAllowance controls whether bookings
// of this type deduct from the general annual allowance. AnnualLimit, when
// non-nil, caps the days bookable per year for this type independently of
// whether the type uses the general allowance.
type LeaveType struct {
	ID            LeaveTypeID
	CompanyID     CompanyID
	Name          string
	UsesAllowance bool
	AnnualLimit   *decimal.Decimal
	DisplayOrder  int
}

// =============================================================================
// REQUEST - A leave request and its lifecycle status
// =============================================================================

type RequestStatus string

const (
	StatusPending       RequestStatus = "pending"
	StatusApproved      RequestStatus = "approved"
	StatusRejected      RequestStatus = "rejected"
	StatusCancelled     RequestStatus = "cancelled"
	StatusPendingRevoke RequestStatus = "pending_revoke"
	StatusRevoked       RequestStatus = "revoked"
)

// IsLive reports whether a request in this status still occupies its
// calendar slots: it blocks overlapping bookings and counts toward usage.
// A pending revoke is still live; the slots are freed only when the
// revoke is confirmed.
func (s RequestStatus) IsLive() bool {
	return s == StatusPending || s == StatusApproved || s == StatusPendingRevoke
}

// IsTerminal reports whether no further transitions exist from this status.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusCancelled || s == StatusRevoked
}

type Request struct {
	ID          RequestID
	UserID      UserID
	ApproverID  UserID
	LeaveTypeID LeaveTypeID
	Interval    Interval
	Status      RequestStatus
	Reason      string
	CreatedAt   time.Time
	DecidedAt   *time.Time
}

// =============================================================================
// DIRECTORY FACTS - Supplied by the surrounding application
// =============================================================================

// User carries the employee facts the engine needs. Nominal entitlement is
// precomputed by the caller's business rules (pro-ration for new hires
// included) and read through the repository, not derived here.
type User struct {
	ID          UserID
	CompanyID   CompanyID
	Name        string
	StartDate   Date
	AutoApprove bool
	Active      bool
}

// CarryOverCap bounds how many days roll into the next year.
// Zero means no carry-over; Unlimited disables the cap.
type CarryOverCap struct {
	Unlimited bool
	Days      decimal.Decimal
}

func CarryOverNone() CarryOverCap      { return CarryOverCap{} }
func CarryOverUnlimited() CarryOverCap { return CarryOverCap{Unlimited: true} }
func CarryOverUpTo(days int) CarryOverCap {
	return CarryOverCap{Days: decimal.NewFromInt(int64(days))}
}

// CompanyConfig is the per-tenant configuration the engine consumes.
type CompanyConfig struct {
	CompanyID   CompanyID
	CarryOver   CarryOverCap
	DefaultWeek WeekPattern
}
