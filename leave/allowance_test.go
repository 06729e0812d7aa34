package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/leave/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newAllowanceFixture(t *testing.T) (*leave.AllowanceEngine, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	mem.AddUser(leave.User{
		ID:        "u-1",
		CompanyID: "acme",
		Name:      "Avery",
		StartDate: date(2020, time.February, 1),
		Active:    true,
	})
	mem.AddLeaveType(leave.LeaveType{
		ID:            "holiday",
		CompanyID:     "acme",
		Name:          "Holiday",
		UsesAllowance: true,
	})
	return leave.NewAllowanceEngine(mem), mem
}

func approvedBooking(t *testing.T, mem *store.Memory, id string, iv leave.Interval, leaveType leave.LeaveTypeID) {
	t.Helper()
	err := mem.CreateRequest(context.Background(), leave.Request{
		ID:          leave.RequestID(id),
		UserID:      "u-1",
		ApproverID:  "boss",
		LeaveTypeID: leaveType,
		Interval:    iv,
		Status:      leave.StatusApproved,
		CreatedAt:   time.Now(),
	})
	require.NoError(t, err)
}

// =============================================================================
// ADJUSTMENT VALIDATION
// =============================================================================

func TestValidateAdjustment_HalfStepsOnly(t *testing.T) {
	assert.NoError(t, leave.ValidateAdjustment(decimal.NewFromInt(2)))
	assert.NoError(t, leave.ValidateAdjustment(decimal.NewFromFloat(-1.5)))
	assert.NoError(t, leave.ValidateAdjustment(decimal.Zero))

	err := leave.ValidateAdjustment(decimal.NewFromFloat(0.3))
	assert.ErrorIs(t, err, leave.ErrValidation)
	err = leave.ValidateAdjustment(decimal.NewFromFloat(1.25))
	assert.ErrorIs(t, err, leave.ErrValidation)
}

// =============================================================================
// BALANCE
// =============================================================================

func TestBalance_SumsAllComponents(t *testing.T) {
	// GIVEN: nominal 25, adjustment +1.5, carried over 2
	engine, mem := newAllowanceFixture(t)
	ctx := context.Background()

	mem.SetNominal("u-1", 2026, decimal.NewFromInt(25))
	require.NoError(t, mem.SaveAdjustment(ctx, "u-1", 2026, decimal.NewFromFloat(1.5)))
	require.NoError(t, mem.SaveCarryOver(ctx, "u-1", 2026, decimal.NewFromInt(2)))

	// AND: an approved Mon-Fri booking (5 working days)
	approvedBooking(t, mem, "r-1",
		leave.MustInterval(date(2026, time.March, 2), leave.PartAll, date(2026, time.March, 6), leave.PartAll),
		"holiday")

	// WHEN: the balance is computed
	balance, err := engine.Balance(ctx, "u-1", 2026)
	require.NoError(t, err)

	// THEN: entitlement = 25 + 1.5 + 2, remaining = entitlement - 5
	assert.True(t, balance.Entitlement.Equal(days(28.5)), "entitlement: %s", balance.Entitlement)
	assert.True(t, balance.Used.Equal(days(5)), "used: %s", balance.Used)
	assert.True(t, balance.Remaining.Equal(days(23.5)), "remaining: %s", balance.Remaining)
}

func TestBalance_PendingAndPendingRevokeCount(t *testing.T) {
	engine, mem := newAllowanceFixture(t)
	ctx := context.Background()
	mem.SetNominal("u-1", 2026, decimal.NewFromInt(10))

	pending := leave.Request{
		ID: "r-1", UserID: "u-1", LeaveTypeID: "holiday",
		Interval: leave.MustInterval(date(2026, time.March, 2), leave.PartAll, date(2026, time.March, 2), leave.PartAll),
		Status:   leave.StatusPending, CreatedAt: time.Now(),
	}
	require.NoError(t, mem.CreateRequest(ctx, pending))

	revoking := leave.Request{
		ID: "r-2", UserID: "u-1", LeaveTypeID: "holiday",
		Interval: leave.MustInterval(date(2026, time.March, 3), leave.PartAll, date(2026, time.March, 3), leave.PartAll),
		Status:   leave.StatusPendingRevoke, CreatedAt: time.Now(),
	}
	require.NoError(t, mem.CreateRequest(ctx, revoking))

	balance, err := engine.Balance(ctx, "u-1", 2026)
	require.NoError(t, err)
	assert.True(t, balance.Used.Equal(days(2)), "pending and pending-revoke both count, got %s", balance.Used)
}

func TestBalance_NonAllowanceTypeDoesNotConsume(t *testing.T) {
	engine, mem := newAllowanceFixture(t)
	ctx := context.Background()
	mem.SetNominal("u-1", 2026, decimal.NewFromInt(10))
	mem.AddLeaveType(leave.LeaveType{
		ID: "sick", CompanyID: "acme", Name: "Sick", UsesAllowance: false,
	})

	approvedBooking(t, mem, "r-1",
		leave.MustInterval(date(2026, time.March, 2), leave.PartAll, date(2026, time.March, 4), leave.PartAll),
		"sick")

	balance, err := engine.Balance(ctx, "u-1", 2026)
	require.NoError(t, err)
	assert.True(t, balance.Used.IsZero(), "sick days must not draw from the allowance, got %s", balance.Used)

	// The per-type counter still sees it.
	used, err := engine.TypeUsed(ctx, "u-1", "sick", 2026)
	require.NoError(t, err)
	assert.True(t, used.Equal(days(3)))
}

// =============================================================================
// REQUEST ADMISSION
// =============================================================================

func TestCheckRequest_ReportsExactShortfall(t *testing.T) {
	// GIVEN: 2 days remaining
	engine, mem := newAllowanceFixture(t)
	ctx := context.Background()
	mem.SetNominal("u-1", 2026, decimal.NewFromInt(2))

	user, err := mem.UserByID(ctx, "u-1")
	require.NoError(t, err)
	holiday, err := mem.LeaveTypeByID(ctx, "holiday")
	require.NoError(t, err)

	// WHEN: asking for 3 working days
	iv := leave.MustInterval(date(2026, time.March, 2), leave.PartAll, date(2026, time.March, 4), leave.PartAll)
	err = engine.CheckRequest(ctx, user, holiday, iv)

	// THEN: refused with a shortfall of exactly 1
	require.Error(t, err)
	var exceeded *leave.AllowanceExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, leave.LimitAllowance, exceeded.LimitKind)
	assert.True(t, exceeded.Shortfall.Equal(days(1)), "shortfall: %s", exceeded.Shortfall)
	assert.True(t, exceeded.Remaining.Equal(days(2)))

	// A 2-day request fits exactly.
	fits := leave.MustInterval(date(2026, time.March, 2), leave.PartAll, date(2026, time.March, 3), leave.PartAll)
	assert.NoError(t, engine.CheckRequest(ctx, user, holiday, fits))
}

func TestCheckRequest_AnnualTypeCap(t *testing.T) {
	// GIVEN: a capped type (3 days/year) with 1 day already live
	engine, mem := newAllowanceFixture(t)
	ctx := context.Background()
	mem.SetNominal("u-1", 2026, decimal.NewFromInt(25))

	limit := decimal.NewFromInt(3)
	mem.AddLeaveType(leave.LeaveType{
		ID: "training", CompanyID: "acme", Name: "Training",
		UsesAllowance: true, AnnualLimit: &limit,
	})
	approvedBooking(t, mem, "r-1",
		leave.MustInterval(date(2026, time.February, 2), leave.PartAll, date(2026, time.February, 2), leave.PartAll),
		"training")

	user, err := mem.UserByID(ctx, "u-1")
	require.NoError(t, err)
	training, err := mem.LeaveTypeByID(ctx, "training")
	require.NoError(t, err)

	// WHEN: asking for 3 more days
	iv := leave.MustInterval(date(2026, time.March, 2), leave.PartAll, date(2026, time.March, 4), leave.PartAll)
	err = engine.CheckRequest(ctx, user, training, iv)

	// THEN: the cap refuses with shortfall 1, even though the general
	// allowance would fit
	var exceeded *leave.AllowanceExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, leave.LimitTypeCap, exceeded.LimitKind)
	assert.True(t, exceeded.Shortfall.Equal(days(1)), "shortfall: %s", exceeded.Shortfall)

	// 2 more days hit the cap exactly.
	fits := leave.MustInterval(date(2026, time.March, 2), leave.PartAll, date(2026, time.March, 3), leave.PartAll)
	assert.NoError(t, engine.CheckRequest(ctx, user, training, fits))
}

func TestCheckRequest_YearSpanChecksEachYear(t *testing.T) {
	// GIVEN: plenty left in 2026, nothing in 2027
	engine, mem := newAllowanceFixture(t)
	ctx := context.Background()
	mem.SetNominal("u-1", 2026, decimal.NewFromInt(20))
	mem.SetNominal("u-1", 2027, decimal.Zero)

	user, err := mem.UserByID(ctx, "u-1")
	require.NoError(t, err)
	holiday, err := mem.LeaveTypeByID(ctx, "holiday")
	require.NoError(t, err)

	// WHEN: booking across New Year
	iv := leave.MustInterval(date(2026, time.December, 28), leave.PartAll, date(2027, time.January, 5), leave.PartAll)
	err = engine.CheckRequest(ctx, user, holiday, iv)

	// THEN: the 2027 portion refuses
	var exceeded *leave.AllowanceExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.True(t, exceeded.Requested.Equal(days(3)), "2027 portion is 3 working days, got %s", exceeded.Requested)
}
