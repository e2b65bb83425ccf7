/*
scheduler.go - Retention scheduler for the run archive

PURPOSE:
  Periodically deletes archived runs and cached stage outputs older than
  the retention window, so the SQLite file does not grow without bound.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Prunes runs and stage cache entries independently
  - A failed prune is logged and retried on the next tick

CONFIGURATION:
  - Retention: How long runs are kept (default: 30 days)
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewRetentionScheduler(store, store, 30*24*time.Hour)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - generic/store.go: RunStore and StageCache pruning contracts
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/attendance-engine/generic"
)

// DefaultRetention is how long runs are kept when nothing is configured.
const DefaultRetention = 30 * 24 * time.Hour

// RetentionScheduler prunes expired runs and cache entries.
type RetentionScheduler struct {
	Runs          generic.RunStore
	Stages        generic.StageCache
	Retention     time.Duration
	CheckInterval time.Duration
	Enabled       bool

	now    func() time.Time
	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRetentionScheduler creates a new scheduler.
func NewRetentionScheduler(runs generic.RunStore, stages generic.StageCache, retention time.Duration) *RetentionScheduler {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &RetentionScheduler{
		Runs:          runs,
		Stages:        stages,
		Retention:     retention,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		now:           time.Now,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (rs *RetentionScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run()

	log.Printf("[Scheduler] Started: retention %v, check interval %v", rs.Retention, rs.CheckInterval)
}

// Stop stops the scheduler.
func (rs *RetentionScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		log.Println("[Scheduler] Stopped")
	}
}

func (rs *RetentionScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.prune()

	for {
		select {
		case <-rs.ticker.C:
			rs.prune()
		case <-rs.stop:
			return
		}
	}
}

// prune returns how many runs and stage entries were deleted.
func (rs *RetentionScheduler) prune() (runs, stages int) {
	ctx := context.Background()
	cutoff := rs.now().Add(-rs.Retention)

	if rs.Runs != nil {
		n, err := rs.Runs.PruneRuns(ctx, cutoff)
		if err != nil {
			log.Printf("[Scheduler] Error pruning runs: %v", err)
		}
		runs = n
	}
	if rs.Stages != nil {
		n, err := rs.Stages.PruneStages(ctx, cutoff)
		if err != nil {
			log.Printf("[Scheduler] Error pruning stage cache: %v", err)
		}
		stages = n
	}

	if runs > 0 || stages > 0 {
		log.Printf("[Scheduler] Pruned %d runs and %d cache entries older than %s", runs, stages, cutoff.Format(time.RFC3339))
	}
	return runs, stages
}

// RunNow triggers an immediate prune (for testing/admin).
func (rs *RetentionScheduler) RunNow() (runs, stages int) {
	return rs.prune()
}

// GetNextRunTime returns when the next scheduled check will occur.
func (rs *RetentionScheduler) GetNextRunTime() time.Time {
	return rs.now().Add(rs.CheckInterval)
}
