// Package store provides EventStore implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/workforce-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	events []generic.Event
	ids    map[generic.EventID]bool
	byRun  map[generic.RunID][]int
	runs   map[generic.RunID]generic.Run
}

func NewMemory() *Memory {
	return &Memory{
		ids:   make(map[generic.EventID]bool),
		byRun: make(map[generic.RunID][]int),
		runs:  make(map[generic.RunID]generic.Run),
	}
}

// Append adds a single event. Append-only.
func (m *Memory) Append(_ context.Context, ev generic.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ids[ev.ID] {
		return generic.ErrDuplicateEvent
	}
	m.ids[ev.ID] = true
	m.events = append(m.events, ev)
	m.byRun[ev.RunID] = append(m.byRun[ev.RunID], len(m.events)-1)
	return nil
}

// Query returns a copy of the matching events in append order.
func (m *Memory) Query(_ context.Context, filter generic.EventFilter) ([]generic.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []generic.Event
	if filter.RunID != "" {
		for _, i := range m.byRun[filter.RunID] {
			if filter.Matches(m.events[i]) {
				result = append(result, m.events[i])
			}
		}
		return result, nil
	}
	for _, ev := range m.events {
		if filter.Matches(ev) {
			result = append(result, ev)
		}
	}
	return result, nil
}

// Len returns the number of stored events across all runs.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

// =============================================================================
// RUN REGISTRY (generic.RunStore interface)
// =============================================================================

func (m *Memory) SaveRun(_ context.Context, run generic.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run.Created.IsZero() {
		if existing, ok := m.runs[run.ID]; ok {
			run.Created = existing.Created
		} else {
			run.Created = time.Now().UTC()
		}
	}
	m.runs[run.ID] = run
	return nil
}

func (m *Memory) GetRun(_ context.Context, id generic.RunID) (*generic.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, generic.ErrRunNotFound
	}
	return &run, nil
}

func (m *Memory) ListRuns(_ context.Context) ([]generic.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]generic.Run, 0, len(m.runs))
	for _, r := range m.runs {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Created.Before(result[j].Created)
	})
	return result, nil
}
