/*
scheduler_test.go - Carry-over scheduler lifecycle tests
*/
package api_test

import (
	"context"
	"testing"
	"time"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/leave/store"
)

// gatedRepo holds a carry-over run inside CompanyConfig until released,
// so tests can observe the scheduler with a check in flight.
type gatedRepo struct {
	*store.Memory
	entered chan struct{}
	release chan struct{}
}

func (g *gatedRepo) CompanyConfig(ctx context.Context, id leave.CompanyID) (leave.CompanyConfig, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.Memory.CompanyConfig(ctx, id)
}

func TestSchedulerStop_WaitsForInFlightCheck(t *testing.T) {
	repo := &gatedRepo{
		Memory:  store.NewMemory(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	sched := api.NewCarryOverScheduler(leave.NewCarryOverBatch(repo), []leave.CompanyID{"acme"})
	sched.CheckInterval = time.Hour

	sched.Start()
	// The immediate check on start is now blocked inside Batch.Run.
	<-repo.entered

	done := make(chan struct{})
	go func() {
		sched.Stop()
		close(done)
	}()

	// Stop waits for the check, but must not wedge against it.
	select {
	case <-done:
		t.Fatal("Stop returned while a check was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(repo.release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the in-flight check finished")
	}
}

func TestSchedulerStop_BeforeStartIsNoop(t *testing.T) {
	sched := api.NewCarryOverScheduler(leave.NewCarryOverBatch(store.NewMemory()), nil)
	sched.Stop()
	sched.Stop()
}
