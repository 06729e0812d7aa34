package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func date(y int, m time.Month, d int) leave.Date {
	return leave.NewDate(y, m, d)
}

func liveRequest(id, user string, iv leave.Interval, status leave.RequestStatus) leave.Request {
	return leave.Request{
		ID:          leave.RequestID(id),
		UserID:      leave.UserID(user),
		ApproverID:  "boss",
		LeaveTypeID: "holiday",
		Interval:    iv,
		Status:      status,
		Reason:      "trip",
		CreatedAt:   time.Date(2026, time.January, 10, 9, 0, 0, 0, time.UTC),
	}
}

// =============================================================================
// REQUESTS AND THE SLOT INVARIANT
// =============================================================================

func TestCreateRequest_Roundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	iv := leave.MustInterval(date(2026, time.March, 2), leave.PartMorning, date(2026, time.March, 4), leave.PartAll)
	original := liveRequest("r-1", "u-1", iv, leave.StatusPending)
	require.NoError(t, store.CreateRequest(ctx, original))

	loaded, err := store.RequestByID(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, original.UserID, loaded.UserID)
	assert.Equal(t, original.Status, loaded.Status)
	assert.True(t, loaded.Interval.Start.Equal(iv.Start))
	assert.Equal(t, leave.PartMorning, loaded.Interval.StartPart)
	assert.Equal(t, original.Reason, loaded.Reason)
	assert.Nil(t, loaded.DecidedAt)
}

func TestCreateRequest_OverlapRejectedByUniqueIndex(t *testing.T) {
	// GIVEN: a live booking for March 2-4
	store := newTestStore(t)
	ctx := context.Background()

	first := liveRequest("r-1", "u-1",
		leave.MustInterval(date(2026, time.March, 2), leave.PartAll, date(2026, time.March, 4), leave.PartAll),
		leave.StatusApproved)
	require.NoError(t, store.CreateRequest(ctx, first))

	// WHEN: a second booking touches March 4
	second := liveRequest("r-2", "u-1",
		leave.MustInterval(date(2026, time.March, 4), leave.PartAll, date(2026, time.March, 5), leave.PartAll),
		leave.StatusPending)
	err := store.CreateRequest(ctx, second)

	// THEN: the slot index refuses and names the conflict
	require.Error(t, err)
	assert.ErrorIs(t, err, leave.ErrOverlap)
	var overlap *leave.OverlapError
	require.ErrorAs(t, err, &overlap)
	require.Len(t, overlap.Conflicts, 1)
	assert.Equal(t, leave.RequestID("r-1"), overlap.Conflicts[0].ID)

	// Nothing of the failed transaction survives.
	_, err = store.RequestByID(ctx, "r-2")
	assert.ErrorIs(t, err, leave.ErrNotFound)
}

func TestCreateRequest_ComplementaryHalvesCoexist(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	morning := liveRequest("r-1", "u-1",
		leave.MustInterval(date(2026, time.March, 2), leave.PartMorning, date(2026, time.March, 2), leave.PartMorning),
		leave.StatusApproved)
	afternoon := liveRequest("r-2", "u-1",
		leave.MustInterval(date(2026, time.March, 2), leave.PartAfternoon, date(2026, time.March, 2), leave.PartAfternoon),
		leave.StatusApproved)

	require.NoError(t, store.CreateRequest(ctx, morning))
	assert.NoError(t, store.CreateRequest(ctx, afternoon), "AM and PM of one day are separate cells")
}

func TestCreateRequest_DifferentUsersShareDates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	iv := leave.MustInterval(date(2026, time.March, 2), leave.PartAll, date(2026, time.March, 3), leave.PartAll)
	require.NoError(t, store.CreateRequest(ctx, liveRequest("r-1", "u-1", iv, leave.StatusApproved)))
	assert.NoError(t, store.CreateRequest(ctx, liveRequest("r-2", "u-2", iv, leave.StatusApproved)))
}

func TestUpdateRequest_TerminalStatusFreesSlots(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	iv := leave.MustInterval(date(2026, time.March, 2), leave.PartAll, date(2026, time.March, 4), leave.PartAll)
	request := liveRequest("r-1", "u-1", iv, leave.StatusApproved)
	require.NoError(t, store.CreateRequest(ctx, request))

	// Revoke it.
	decided := time.Now()
	request.Status = leave.StatusRevoked
	request.DecidedAt = &decided
	require.NoError(t, store.UpdateRequest(ctx, request))

	// The same dates can be booked again.
	assert.NoError(t, store.CreateRequest(ctx, liveRequest("r-2", "u-1", iv, leave.StatusPending)))
}

func TestUpdateRequest_PendingRevokeKeepsSlots(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	iv := leave.MustInterval(date(2026, time.March, 2), leave.PartAll, date(2026, time.March, 4), leave.PartAll)
	request := liveRequest("r-1", "u-1", iv, leave.StatusApproved)
	require.NoError(t, store.CreateRequest(ctx, request))

	request.Status = leave.StatusPendingRevoke
	require.NoError(t, store.UpdateRequest(ctx, request))

	err := store.CreateRequest(ctx, liveRequest("r-2", "u-1", iv, leave.StatusPending))
	assert.ErrorIs(t, err, leave.ErrOverlap, "pending-revoke keeps its cells occupied")
}

func TestUpdateRequest_UnknownID(t *testing.T) {
	store := newTestStore(t)
	err := store.UpdateRequest(context.Background(), liveRequest("ghost", "u-1",
		leave.MustInterval(date(2026, time.March, 2), leave.PartAll, date(2026, time.March, 2), leave.PartAll),
		leave.StatusRejected))
	assert.ErrorIs(t, err, leave.ErrNotFound)
}

func TestLiveRequests_FiltersAndOrders(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	later := liveRequest("r-later", "u-1",
		leave.MustInterval(date(2026, time.June, 1), leave.PartAll, date(2026, time.June, 2), leave.PartAll),
		leave.StatusApproved)
	earlier := liveRequest("r-earlier", "u-1",
		leave.MustInterval(date(2026, time.March, 2), leave.PartAll, date(2026, time.March, 3), leave.PartAll),
		leave.StatusPending)
	terminal := liveRequest("r-done", "u-1",
		leave.MustInterval(date(2026, time.April, 1), leave.PartAll, date(2026, time.April, 2), leave.PartAll),
		leave.StatusRejected)

	require.NoError(t, store.CreateRequest(ctx, later))
	require.NoError(t, store.CreateRequest(ctx, earlier))
	require.NoError(t, store.CreateRequest(ctx, terminal))

	live, err := store.LiveRequests(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, live, 2, "terminal requests are not live")
	assert.Equal(t, leave.RequestID("r-earlier"), live[0].ID, "ordered by start date")
	assert.Equal(t, leave.RequestID("r-later"), live[1].ID)

	all, err := store.RequestsByUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// =============================================================================
// SCHEDULES
// =============================================================================

func TestSchedules_SaveResolveDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	companyPattern := leave.DefaultWeek()
	companyPattern[time.Friday] = false
	require.NoError(t, store.SaveSchedule(ctx, leave.WorkSchedule{
		Scope: leave.ScopeCompany, CompanyID: "acme", Pattern: companyPattern,
	}))

	userPattern := leave.DefaultWeek()
	userPattern[time.Wednesday] = false
	require.NoError(t, store.SaveSchedule(ctx, leave.WorkSchedule{
		Scope: leave.ScopeUser, CompanyID: "acme", UserID: "u-1", Pattern: userPattern,
	}))

	schedules, err := store.FindSchedules(ctx, "u-1", "acme")
	require.NoError(t, err)
	require.Len(t, schedules, 2)

	// Saving again replaces, not duplicates.
	require.NoError(t, store.SaveSchedule(ctx, leave.WorkSchedule{
		Scope: leave.ScopeUser, CompanyID: "acme", UserID: "u-1", Pattern: leave.DefaultWeek(),
	}))
	schedules, err = store.FindSchedules(ctx, "u-1", "acme")
	require.NoError(t, err)
	assert.Len(t, schedules, 2)

	require.NoError(t, store.DeleteUserSchedule(ctx, "u-1"))
	schedules, err = store.FindSchedules(ctx, "u-1", "acme")
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, leave.ScopeCompany, schedules[0].Scope)
	assert.False(t, schedules[0].Pattern[time.Friday], "pattern survives the roundtrip")
}

// =============================================================================
// ALLOWANCE FIGURES
// =============================================================================

func TestAmounts_RoundtripAndOverwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Unset rows read as zero.
	amount, err := store.Nominal(ctx, "u-1", 2026)
	require.NoError(t, err)
	assert.True(t, amount.IsZero())

	require.NoError(t, store.SaveNominal(ctx, "u-1", 2026, decimal.NewFromInt(25)))
	require.NoError(t, store.SaveAdjustment(ctx, "u-1", 2026, decimal.NewFromFloat(-1.5)))
	require.NoError(t, store.SaveCarryOver(ctx, "u-1", 2026, decimal.NewFromInt(3)))

	nominal, err := store.Nominal(ctx, "u-1", 2026)
	require.NoError(t, err)
	assert.True(t, nominal.Equal(decimal.NewFromInt(25)))

	adjustment, err := store.Adjustment(ctx, "u-1", 2026)
	require.NoError(t, err)
	assert.True(t, adjustment.Equal(decimal.NewFromFloat(-1.5)), "fractions survive as decimal strings")

	// Writing again overwrites the row for the same user-year.
	require.NoError(t, store.SaveCarryOver(ctx, "u-1", 2026, decimal.NewFromInt(5)))
	carried, err := store.CarryOver(ctx, "u-1", 2026)
	require.NoError(t, err)
	assert.True(t, carried.Equal(decimal.NewFromInt(5)))
}

// =============================================================================
// DIRECTORY
// =============================================================================

func TestDirectory_UsersAndLeaveTypes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUser(ctx, leave.User{
		ID: "u-1", CompanyID: "acme", Name: "Avery",
		StartDate: date(2020, time.February, 1), AutoApprove: true, Active: true,
	}))
	require.NoError(t, store.SaveUser(ctx, leave.User{
		ID: "u-gone", CompanyID: "acme", Name: "Former",
		StartDate: date(2018, time.June, 1), Active: false,
	}))

	user, err := store.UserByID(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, user.AutoApprove)
	assert.True(t, user.StartDate.Equal(date(2020, time.February, 1)))

	active, err := store.ActiveUsers(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, active, 1, "inactive users are excluded")
	assert.Equal(t, leave.UserID("u-1"), active[0].ID)

	_, err = store.UserByID(ctx, "nobody")
	assert.ErrorIs(t, err, leave.ErrNotFound)

	limit := decimal.NewFromInt(3)
	require.NoError(t, store.SaveLeaveType(ctx, leave.LeaveType{
		ID: "training", CompanyID: "acme", Name: "Training",
		UsesAllowance: true, AnnualLimit: &limit, DisplayOrder: 2,
	}))
	require.NoError(t, store.SaveLeaveType(ctx, leave.LeaveType{
		ID: "holiday", CompanyID: "acme", Name: "Holiday",
		UsesAllowance: true, DisplayOrder: 1,
	}))

	types, err := store.LeaveTypes(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, leave.LeaveTypeID("holiday"), types[0].ID, "ordered by display_order")
	require.NotNil(t, types[1].AnnualLimit)
	assert.True(t, types[1].AnnualLimit.Equal(limit))
	assert.Nil(t, types[0].AnnualLimit)
}

func TestDirectory_HolidaysAndCompanyConfig(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	christmas := date(2026, time.December, 25)
	require.NoError(t, store.SaveHoliday(ctx, "acme", christmas, "Christmas"))
	require.NoError(t, store.SaveHoliday(ctx, "acme", christmas, "Christmas Day")) // upsert

	holidays, err := store.Holidays(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, holidays, 1)
	assert.True(t, holidays.Contains(christmas))

	require.NoError(t, store.DeleteHoliday(ctx, "acme", christmas))
	holidays, err = store.Holidays(ctx, "acme")
	require.NoError(t, err)
	assert.Empty(t, holidays)

	// Carry-over encoding: N days, -1 unlimited.
	week := leave.DefaultWeek()
	require.NoError(t, store.SaveCompany(ctx, "acme", "Acme", 5, week))
	cfg, err := store.CompanyConfig(ctx, "acme")
	require.NoError(t, err)
	assert.False(t, cfg.CarryOver.Unlimited)
	assert.True(t, cfg.CarryOver.Days.Equal(decimal.NewFromInt(5)))
	assert.True(t, cfg.DefaultWeek[time.Monday])
	assert.False(t, cfg.DefaultWeek[time.Sunday])

	require.NoError(t, store.SaveCompany(ctx, "globex", "Globex", -1, week))
	cfg, err = store.CompanyConfig(ctx, "globex")
	require.NoError(t, err)
	assert.True(t, cfg.CarryOver.Unlimited)

	_, err = store.CompanyConfig(ctx, "nowhere")
	assert.ErrorIs(t, err, leave.ErrNotFound)
}
