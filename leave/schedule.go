/*
schedule.go - Work schedules and user/company precedence resolution

PURPOSE:
  A WorkSchedule says which weekdays are working days. At most two
  schedule rows can exist for a given employee: one user-specific
  override and one company-wide default. Resolution precedence:

    user-specific  >  company-wide  >  tenant default week  >  built-in Mon-Fri

RESOLUTION IS STATELESS:
  The resolver reads candidate rows on every call and never caches a
  resolved schedule on a user record. Which schedule wins depends on
  current data, so a memoized schedule would go stale the moment an
  override is created or revoked mid-session.

INTEGRITY:
  More than two rows resolving for one user is a data corruption the
  resolver reports as DataIntegrityError instead of silently picking one.

SEE ALSO:
  - calendar.go: Day classification using the resolved schedule
  - repository.go: ScheduleStore collaborator contract
*/
package leave

import (
	"context"
	"time"
)

// =============================================================================
// WEEK PATTERN - Weekday working-day map
// =============================================================================

// WeekPattern marks which weekdays are working days.
type WeekPattern map[time.Weekday]bool

// DefaultWeek is the built-in Mon-Fri pattern, the last fallback when
// no schedule row exists and the tenant config carries no default week.
func DefaultWeek() WeekPattern {
	return WeekPattern{
		time.Monday:    true,
		time.Tuesday:   true,
		time.Wednesday: true,
		time.Thursday:  true,
		time.Friday:    true,
		time.Saturday:  false,
		time.Sunday:    false,
	}
}

// Clone returns an independent copy of the pattern.
func (wp WeekPattern) Clone() WeekPattern {
	out := make(WeekPattern, len(wp))
	for d, w := range wp {
		out[d] = w
	}
	return out
}

// WorkingDaysPerWeek counts the working weekdays in the pattern.
func (wp WeekPattern) WorkingDaysPerWeek() int {
	n := 0
	for _, working := range wp {
		if working {
			n++
		}
	}
	return n
}

// =============================================================================
// WORK SCHEDULE - A persisted pattern with its owner scope
// =============================================================================

type ScheduleScope string

const (
	ScopeCompany ScheduleScope = "company"
	ScopeUser    ScheduleScope = "user"
)

type WorkSchedule struct {
	Scope     ScheduleScope
	CompanyID CompanyID
	UserID    UserID // set only for ScopeUser
	Pattern   WeekPattern
}

// IsWorking reports whether the given date's weekday is a working day
// under this schedule. Holidays are layered on top in calendar.go.
func (ws WorkSchedule) IsWorking(d Date) bool {
	return ws.Pattern[d.Weekday()]
}

// =============================================================================
// SCHEDULE RESOLVER
// =============================================================================

// ScheduleSource is what the resolver reads: the schedule rows plus the
// tenant config carrying the company's default week.
type ScheduleSource interface {
	ScheduleStore
	CompanyConfig(ctx context.Context, companyID CompanyID) (CompanyConfig, error)
}

// ScheduleResolver resolves the schedule governing a (user, company) pair.
// It is a stateless lookup over the ScheduleSource; construct once and call
// per operation.
type ScheduleResolver struct {
	Store ScheduleSource
}

func NewScheduleResolver(store ScheduleSource) *ScheduleResolver {
	return &ScheduleResolver{Store: store}
}

// Resolve returns the schedule in effect for the user. Candidate rows are
// read fresh on every call; exactly 0, 1 or 2 rows may exist and any other
// count is reported as a DataIntegrityError.
func (r *ScheduleResolver) Resolve(ctx context.Context, userID UserID, companyID CompanyID) (WorkSchedule, error) {
	candidates, err := r.Store.FindSchedules(ctx, userID, companyID)
	if err != nil {
		return WorkSchedule{}, err
	}

	switch len(candidates) {
	case 0:
		return r.defaultSchedule(ctx, companyID)
	case 1:
		return candidates[0], nil
	case 2:
		for _, c := range candidates {
			if c.Scope == ScopeUser {
				return c, nil
			}
		}
		// Two company-wide rows is as corrupt as three rows.
		return WorkSchedule{}, &DataIntegrityError{UserID: userID, ScheduleCount: len(candidates)}
	default:
		return WorkSchedule{}, &DataIntegrityError{UserID: userID, ScheduleCount: len(candidates)}
	}
}

// defaultSchedule is the no-rows fallback: the tenant's configured
// default week when one is set, the built-in Mon-Fri otherwise.
func (r *ScheduleResolver) defaultSchedule(ctx context.Context, companyID CompanyID) (WorkSchedule, error) {
	cfg, err := r.Store.CompanyConfig(ctx, companyID)
	if err != nil {
		if IsNotFound(err) {
			return WorkSchedule{Scope: ScopeCompany, CompanyID: companyID, Pattern: DefaultWeek()}, nil
		}
		return WorkSchedule{}, err
	}
	if len(cfg.DefaultWeek) == 0 {
		return WorkSchedule{Scope: ScopeCompany, CompanyID: companyID, Pattern: DefaultWeek()}, nil
	}
	return WorkSchedule{Scope: ScopeCompany, CompanyID: companyID, Pattern: cfg.DefaultWeek.Clone()}, nil
}

// Override creates or replaces the user-specific schedule.
func (r *ScheduleResolver) Override(ctx context.Context, userID UserID, companyID CompanyID, pattern WeekPattern) error {
	return r.Store.SaveSchedule(ctx, WorkSchedule{
		Scope:     ScopeUser,
		CompanyID: companyID,
		UserID:    userID,
		Pattern:   pattern.Clone(),
	})
}

// RevokeOverride deletes the user-specific schedule so resolution falls
// back to the company-wide one (or the built-in default).
func (r *ScheduleResolver) RevokeOverride(ctx context.Context, userID UserID) error {
	return r.Store.DeleteUserSchedule(ctx, userID)
}

// SetCompanySchedule creates or replaces the company-wide schedule.
func (r *ScheduleResolver) SetCompanySchedule(ctx context.Context, companyID CompanyID, pattern WeekPattern) error {
	return r.Store.SaveSchedule(ctx, WorkSchedule{
		Scope:     ScopeCompany,
		CompanyID: companyID,
		Pattern:   pattern.Clone(),
	})
}
