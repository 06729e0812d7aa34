/*
carryover.go - Year-end carry-over recompute for a whole tenant

PURPOSE:
  For every active user in a company, recomputes the unused balance at
  the end of fromYear and persists it as the carried-over amount of
  fromYear+1. The rules, in order:

    1. remaining = entitlement(fromYear) - live usage(fromYear)
    2. floor at zero (a negative balance is never carried forward)
    3. clamp to the company's carry-over cap (none / unlimited / N days)
    4. users whose start date falls inside fromYear carry exactly 0 -
       their partial-year nominal already reflects the short tenure

IDEMPOTENCE:
  Each run recomputes from source intervals and overwrites the stored
  value; running twice with no intervening bookings persists the same
  amount as running once. Nothing accumulates onto a previous carry-over.

FAILURE ISOLATION:
  Users are processed independently; one failing computation never
  aborts the rest of the tenant. Each outcome lands in the batch report.

CONCURRENCY:
  User computations share no mutable state and may run concurrently.
  Workers bounds the fan-out; each user's recompute-and-persist is a
  single repository write.
*/
package leave

import (
	"context"
	"log"
	"sync"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CARRY-OVER BATCH
// =============================================================================

type CarryOverBatch struct {
	Engine    *AllowanceEngine
	Allowance AllowanceStore
	Directory DirectoryStore

	// Workers bounds concurrent per-user computations. Defaults to 4.
	Workers int
}

func NewCarryOverBatch(repo Repository) *CarryOverBatch {
	return &CarryOverBatch{
		Engine:    NewAllowanceEngine(repo),
		Allowance: repo,
		Directory: repo,
	}
}

// UserOutcome is one user's result in a batch run.
type UserOutcome struct {
	UserID  UserID
	Amount  decimal.Decimal
	Skipped bool // started within fromYear, forced to zero
	Err     error
}

// BatchReport collects every user's outcome for one run.
type BatchReport struct {
	CompanyID CompanyID
	FromYear  int
	Outcomes  []UserOutcome
}

// Failed returns the outcomes that errored.
func (r *BatchReport) Failed() []UserOutcome {
	var failed []UserOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Run recomputes and persists carry-over into fromYear+1 for every active
// user of the company. The returned error covers only the inability to
// start the batch (company or user listing unavailable); per-user
// failures are reported, not raised.
func (b *CarryOverBatch) Run(ctx context.Context, companyID CompanyID, fromYear int) (*BatchReport, error) {
	cfg, err := b.Directory.CompanyConfig(ctx, companyID)
	if err != nil {
		return nil, err
	}
	users, err := b.Directory.ActiveUsers(ctx, companyID)
	if err != nil {
		return nil, err
	}

	workers := b.Workers
	if workers <= 0 {
		workers = 4
	}

	report := &BatchReport{CompanyID: companyID, FromYear: fromYear}
	report.Outcomes = make([]UserOutcome, len(users))

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i, user := range users {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, user User) {
			defer wg.Done()
			defer func() { <-sem }()
			report.Outcomes[i] = b.runUser(ctx, user, fromYear, cfg.CarryOver)
		}(i, user)
	}
	wg.Wait()

	for _, o := range report.Outcomes {
		if o.Err != nil {
			log.Printf("[CarryOver] company=%s year=%d user=%s failed: %v", companyID, fromYear, o.UserID, o.Err)
		}
	}
	return report, nil
}

func (b *CarryOverBatch) runUser(ctx context.Context, user User, fromYear int, coCap CarryOverCap) UserOutcome {
	outcome := UserOutcome{UserID: user.ID}

	// A hire within fromYear carries nothing: their pro-rated nominal
	// already accounts for the short tenure.
	if user.StartDate.After(StartOfYear(fromYear)) && user.StartDate.Year() == fromYear {
		outcome.Skipped = true
		outcome.Amount = decimal.Zero
		outcome.Err = b.Allowance.SaveCarryOver(ctx, user.ID, fromYear+1, decimal.Zero)
		return outcome
	}

	remaining, err := b.Engine.Remaining(ctx, user.ID, fromYear)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	amount := remaining
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	// Cap clamp applies after the zero floor.
	if !coCap.Unlimited && amount.GreaterThan(coCap.Days) {
		amount = coCap.Days
	}

	outcome.Amount = amount
	outcome.Err = b.Allowance.SaveCarryOver(ctx, user.ID, fromYear+1, amount)
	return outcome
}
