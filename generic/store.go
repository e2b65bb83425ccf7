/*
store.go - Persistence interfaces for the run archive and stage cache

PURPOSE:
  The reconciliation core keeps no state between runs. The HTTP service
  archives each run's output so the dashboard can page through it, and
  caches stage outputs by input content so repeated uploads of the same
  three files skip recomputation. Both are optional; the pipeline is
  correct without them.

KEY INTERFACES:
  RunStore:   Archived pipeline results (save, get, list, delete, prune)
  StageCache: Content-addressed stage outputs keyed by (content key, stage)

CONTENT ADDRESSING:
  The content key is a sha256 over the three input files plus the rules
  in effect (see pipeline/cache.go). Identical inputs always map to the
  same key, so a cached entry can never be stale.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite, used by cmd/server
  - generic/store/memory.go: In-memory for tests and the CLI

SEE ALSO:
  - pipeline/cache.go: Content key computation
  - api/scheduler.go: Retention pruning
*/
package generic

import (
	"context"
	"time"
)

// =============================================================================
// RUN ARCHIVE
// =============================================================================

type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunRecord is one archived pipeline invocation. Payload is the serialized
// result; the store never interprets it.
type RunRecord struct {
	ID          RunID
	ContentKey  string
	Period      Period
	Status      RunStatus
	Error       string
	Employees   int
	Diagnostics int
	Payload     []byte
	CreatedAt   time.Time
}

// RunStore persists run records.
type RunStore interface {
	// SaveRun inserts or replaces a run.
	SaveRun(ctx context.Context, run RunRecord) error

	// GetRun returns ErrRunNotFound when the id is unknown.
	GetRun(ctx context.Context, id RunID) (*RunRecord, error)

	// ListRuns returns runs newest first, without payloads.
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)

	// DeleteRun returns ErrRunNotFound when the id is unknown.
	DeleteRun(ctx context.Context, id RunID) error

	// PruneRuns deletes runs created before cutoff and returns how many.
	PruneRuns(ctx context.Context, cutoff time.Time) (int, error)
}

// =============================================================================
// STAGE CACHE
// =============================================================================

// CacheKey addresses one stage output.
type CacheKey struct {
	ContentKey string
	Stage      Stage
}

// StageCache stores opaque stage outputs by content key.
type StageCache interface {
	// GetStage returns ErrCacheMiss when nothing is stored under key.
	GetStage(ctx context.Context, key CacheKey) ([]byte, error)

	PutStage(ctx context.Context, key CacheKey, payload []byte) error

	// PruneStages deletes entries written before cutoff.
	PruneStages(ctx context.Context, cutoff time.Time) (int, error)
}
