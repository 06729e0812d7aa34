/*
scheduler.go - Automated carry-over scheduler

PURPOSE:
  Periodically checks whether a year boundary has passed and runs the
  carry-over batch for each configured company. The batch itself is
  idempotent, so a re-run after a crash or restart is harmless.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Once the current year is past a company's last processed year,
    carries the previous year's remainders forward
  - Per-user failures inside the batch never abort the run

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewCarryOverScheduler(batch, companies)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerCarryOver endpoint (manual runs)
  - leave/carryover.go: The batch itself
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/leave-engine/leave"
)

// CarryOverScheduler runs the year-boundary batch automatically.
type CarryOverScheduler struct {
	Batch         *leave.CarryOverBatch
	Companies     []leave.CompanyID
	CheckInterval time.Duration
	Enabled       bool

	// last fromYear processed per company
	processed map[leave.CompanyID]int

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewCarryOverScheduler creates a new scheduler for the given companies.
func NewCarryOverScheduler(batch *leave.CarryOverBatch, companies []leave.CompanyID) *CarryOverScheduler {
	return &CarryOverScheduler{
		Batch:         batch,
		Companies:     companies,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		processed:     make(map[leave.CompanyID]int),
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (cs *CarryOverScheduler) Start() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !cs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	cs.ticker = time.NewTicker(cs.CheckInterval)
	cs.wg.Add(1)

	go cs.run()

	log.Printf("[Scheduler] Started with check interval: %v", cs.CheckInterval)
}

// Stop stops the scheduler and waits for an in-flight check to finish.
func (cs *CarryOverScheduler) Stop() {
	// Signal under the lock, wait outside it: checkAndProcess takes
	// cs.mu for the processed map, so holding it across Wait deadlocks.
	cs.mu.Lock()
	ticker := cs.ticker
	cs.ticker = nil
	if ticker != nil {
		ticker.Stop()
		close(cs.stop)
	}
	cs.mu.Unlock()

	if ticker == nil {
		return
	}
	cs.wg.Wait()
	log.Println("[Scheduler] Stopped")
}

func (cs *CarryOverScheduler) run() {
	defer cs.wg.Done()

	tick := cs.ticker.C

	// Run immediately on start
	cs.checkAndProcess()

	for {
		select {
		case <-tick:
			cs.checkAndProcess()
		case <-cs.stop:
			return
		}
	}
}

func (cs *CarryOverScheduler) checkAndProcess() {
	ctx := context.Background()
	fromYear := time.Now().UTC().Year() - 1

	for _, companyID := range cs.Companies {
		cs.mu.Lock()
		done := cs.processed[companyID] >= fromYear
		cs.mu.Unlock()
		if done {
			continue
		}

		report, err := cs.Batch.Run(ctx, companyID, fromYear)
		if err != nil {
			log.Printf("[Scheduler] Carry-over for %s from %d failed: %v", companyID, fromYear, err)
			continue
		}

		log.Printf("[Scheduler] Carry-over for %s from %d: %d users, %d failures",
			companyID, fromYear, len(report.Outcomes), len(report.Failed()))

		// Failed users can be retried via the admin endpoint; the year
		// still counts as processed so we do not loop on hard failures.
		cs.mu.Lock()
		cs.processed[companyID] = fromYear
		cs.mu.Unlock()
	}
}

// RunNow triggers an immediate check (for testing/admin).
func (cs *CarryOverScheduler) RunNow() {
	cs.checkAndProcess()
}

// NextRunTime returns when the next scheduled check will occur.
func (cs *CarryOverScheduler) NextRunTime() time.Time {
	return time.Now().Add(cs.CheckInterval)
}
