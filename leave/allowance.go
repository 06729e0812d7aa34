/*
allowance.go - Annual entitlement and remaining balance

PURPOSE:
  Computes a user's total annual entitlement and how much of it remains:

    entitlement = nominal + adjustment + carried-over
    remaining   = entitlement - sum(usage of live allowance-using requests)

  Nominal arrives precomputed (pro-ration for mid-year hires is the
  surrounding application's business rule). Adjustments are manual, may
  be negative, and must land on a whole or half day. Remaining may go
  negative through negative adjustments; that is surfaced, not hidden,
  and the carry-over batch floors it at zero before rolling anything
  forward.

CATEGORY CAPS:
  A leave type with UsesAllowance=false never deducts from the general
  allowance, but its own AnnualLimit is still enforced independently.

SEE ALSO:
  - usage.go: The per-interval deduction this engine sums
  - carryover.go: Year-end recompute built on Balance()
*/
package leave

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// =============================================================================
// ALLOWANCE ENGINE
// =============================================================================

type AllowanceEngine struct {
	Requests  RequestStore
	Allowance AllowanceStore
	Directory DirectoryStore
	Schedules *ScheduleResolver
}

func NewAllowanceEngine(repo Repository) *AllowanceEngine {
	return &AllowanceEngine{
		Requests:  repo,
		Allowance: repo,
		Directory: repo,
		Schedules: NewScheduleResolver(repo),
	}
}

// Balance is the user-facing breakdown for one user-year.
type Balance struct {
	UserID      UserID
	Year        int
	Nominal     decimal.Decimal
	Adjustment  decimal.Decimal
	CarriedOver decimal.Decimal
	Entitlement decimal.Decimal
	Used        decimal.Decimal
	Remaining   decimal.Decimal
}

// ValidateAdjustment rejects adjustments that are not a whole number or an
// exact half. Sign is unrestricted.
func ValidateAdjustment(amount decimal.Decimal) error {
	if !amount.Mul(two).IsInteger() {
		return &ValidationError{
			Field:  "adjustment",
			Reason: fmt.Sprintf("%s is not a whole or half number of days", amount),
		}
	}
	return nil
}

// Balance computes the full entitlement breakdown for a user-year.
// Everything is recomputed from source on every call; nothing is cached
// across operations.
func (e *AllowanceEngine) Balance(ctx context.Context, userID UserID, year int) (*Balance, error) {
	user, err := e.Directory.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	nominal, err := e.Allowance.Nominal(ctx, userID, year)
	if err != nil {
		return nil, err
	}
	adjustment, err := e.Allowance.Adjustment(ctx, userID, year)
	if err != nil {
		return nil, err
	}
	carried, err := e.Allowance.CarryOver(ctx, userID, year)
	if err != nil {
		return nil, err
	}

	used, err := e.usedDays(ctx, user, year, nil)
	if err != nil {
		return nil, err
	}

	entitlement := nominal.Add(adjustment).Add(carried)
	return &Balance{
		UserID:      userID,
		Year:        year,
		Nominal:     nominal,
		Adjustment:  adjustment,
		CarriedOver: carried,
		Entitlement: entitlement,
		Used:        used,
		Remaining:   entitlement.Sub(used),
	}, nil
}

// Remaining returns entitlement minus live usage for the year.
func (e *AllowanceEngine) Remaining(ctx context.Context, userID UserID, year int) (decimal.Decimal, error) {
	b, err := e.Balance(ctx, userID, year)
	if err != nil {
		return decimal.Zero, err
	}
	return b.Remaining, nil
}

// TypeUsed returns the live usage for one leave type in the year,
// regardless of whether the type deducts from the general allowance.
func (e *AllowanceEngine) TypeUsed(ctx context.Context, userID UserID, leaveTypeID LeaveTypeID, year int) (decimal.Decimal, error) {
	user, err := e.Directory.UserByID(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return e.usedDays(ctx, user, year, &leaveTypeID)
}

// usedDays sums UsageInYear over the user's live requests. With a nil
// type filter, only allowance-using leave types count; with a filter,
// exactly that type counts.
func (e *AllowanceEngine) usedDays(ctx context.Context, user User, year int, typeFilter *LeaveTypeID) (decimal.Decimal, error) {
	requests, err := e.Requests.LiveRequests(ctx, user.ID)
	if err != nil {
		return decimal.Zero, err
	}
	if len(requests) == 0 {
		return decimal.Zero, nil
	}

	schedule, err := e.Schedules.Resolve(ctx, user.ID, user.CompanyID)
	if err != nil {
		return decimal.Zero, err
	}
	holidays, err := e.Directory.Holidays(ctx, user.CompanyID)
	if err != nil {
		return decimal.Zero, err
	}

	types := map[LeaveTypeID]LeaveType{}
	total := decimal.Zero
	for _, r := range requests {
		if typeFilter != nil {
			if r.LeaveTypeID != *typeFilter {
				continue
			}
		} else {
			lt, ok := types[r.LeaveTypeID]
			if !ok {
				lt, err = e.Directory.LeaveTypeByID(ctx, r.LeaveTypeID)
				if err != nil {
					return decimal.Zero, err
				}
				types[r.LeaveTypeID] = lt
			}
			if !lt.UsesAllowance {
				continue
			}
		}
		total = total.Add(UsageInYear(r.Interval, year, schedule, holidays))
	}
	return total, nil
}

// =============================================================================
// REQUEST ADMISSION
// =============================================================================

// CheckRequest decides whether a proposed interval fits the user's
// remaining allowance and the leave type's annual limit. Intervals
// spanning a year boundary are checked against each touched year
// separately. Returns nil when the request fits, an
// *AllowanceExceededError otherwise.
func (e *AllowanceEngine) CheckRequest(ctx context.Context, user User, leaveType LeaveType, iv Interval) error {
	schedule, err := e.Schedules.Resolve(ctx, user.ID, user.CompanyID)
	if err != nil {
		return err
	}
	holidays, err := e.Directory.Holidays(ctx, user.CompanyID)
	if err != nil {
		return err
	}

	for year := iv.Start.Year(); year <= iv.End.Year(); year++ {
		candidate := UsageInYear(iv, year, schedule, holidays)
		if candidate.IsZero() {
			continue
		}

		if leaveType.UsesAllowance {
			remaining, err := e.Remaining(ctx, user.ID, year)
			if err != nil {
				return err
			}
			if candidate.GreaterThan(remaining) {
				return &AllowanceExceededError{
					UserID:      user.ID,
					LeaveTypeID: leaveType.ID,
					Requested:   candidate,
					Remaining:   remaining,
					Shortfall:   candidate.Sub(remaining),
					LimitKind:   LimitAllowance,
				}
			}
		}

		if leaveType.AnnualLimit != nil {
			used, err := e.TypeUsed(ctx, user.ID, leaveType.ID, year)
			if err != nil {
				return err
			}
			limit := *leaveType.AnnualLimit
			if used.Add(candidate).GreaterThan(limit) {
				left := limit.Sub(used)
				return &AllowanceExceededError{
					UserID:      user.ID,
					LeaveTypeID: leaveType.ID,
					Requested:   candidate,
					Remaining:   left,
					Shortfall:   used.Add(candidate).Sub(limit),
					LimitKind:   LimitTypeCap,
				}
			}
		}
	}
	return nil
}
