// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	runs   map[generic.RunID]generic.RunRecord
	stages map[generic.CacheKey]stageEntry

	// now is swapped in tests to control pruning.
	now func() time.Time
}

type stageEntry struct {
	payload   []byte
	createdAt time.Time
}

func NewMemory() *Memory {
	return &Memory{
		runs:   make(map[generic.RunID]generic.RunRecord),
		stages: make(map[generic.CacheKey]stageEntry),
		now:    time.Now,
	}
}

// Compile-time interface checks
var (
	_ generic.RunStore   = (*Memory)(nil)
	_ generic.StageCache = (*Memory)(nil)
)

func (m *Memory) SaveRun(_ context.Context, run generic.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = m.now()
	}
	run.Payload = append([]byte(nil), run.Payload...)
	m.runs[run.ID] = run
	return nil
}

func (m *Memory) GetRun(_ context.Context, id generic.RunID) (*generic.RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, generic.ErrRunNotFound
	}
	run.Payload = append([]byte(nil), run.Payload...)
	return &run, nil
}

func (m *Memory) ListRuns(_ context.Context, limit int) ([]generic.RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]generic.RunRecord, 0, len(m.runs))
	for _, run := range m.runs {
		run.Payload = nil
		result = append(result, run)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *Memory) DeleteRun(_ context.Context, id generic.RunID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[id]; !ok {
		return generic.ErrRunNotFound
	}
	delete(m.runs, id)
	return nil
}

func (m *Memory) PruneRuns(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, run := range m.runs {
		if run.CreatedAt.Before(cutoff) {
			delete(m.runs, id)
			n++
		}
	}
	return n, nil
}

// =============================================================================
// STAGE CACHE
// =============================================================================

func (m *Memory) GetStage(_ context.Context, key generic.CacheKey) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.stages[key]
	if !ok {
		return nil, generic.ErrCacheMiss
	}
	return append([]byte(nil), e.payload...), nil
}

func (m *Memory) PutStage(_ context.Context, key generic.CacheKey, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages[key] = stageEntry{payload: append([]byte(nil), payload...), createdAt: m.now()}
	return nil
}

func (m *Memory) PruneStages(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.stages {
		if e.createdAt.Before(cutoff) {
			delete(m.stages, k)
			n++
		}
	}
	return n, nil
}
