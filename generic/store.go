/*
store.go - Persistence interface for simulation events

PURPOSE:
  Defines the interface between the event log and its storage. The store
  keeps append-only semantics; implementations differ only in where the
  rows end up.

APPEND-ONLY CONTRACT:
  - Append(): Single event write, persisted before it returns
  - NO Update() or Delete() methods exist

INCREMENTAL DURABILITY:
  A run can take thousands of months x cohorts. Every Append is written
  through (an INSERT, a flushed CSV row) so a crash mid-run keeps every
  month that completed.

IMPLEMENTATIONS:
  - generic/store/memory.go: In-memory for testing
  - store/sqlite/sqlite.go:  SQLite, many runs in one database
  - store/csvlog/csvlog.go:  One CSV file per run

SEE ALSO:
  - ledger.go: Higher-level EventLog using EventStore
*/
package generic

import (
	"context"
	"time"
)

// =============================================================================
// EVENT STORE - Interface for event persistence (append-only)
// =============================================================================

// EventStore handles persistence of events.
// IMPORTANT: EventStore is APPEND-ONLY. No Update, No Delete. Ever.
type EventStore interface {
	// Append persists an event. Returns ErrDuplicateEvent if the ID exists.
	Append(ctx context.Context, ev Event) error

	// Query returns matching events in append order.
	Query(ctx context.Context, filter EventFilter) ([]Event, error)
}

// =============================================================================
// RUN REGISTRY - Metadata about simulation runs
// =============================================================================

// Run describes one simulation run.
type Run struct {
	ID       RunID
	Name     string
	Seed     int64
	Period   Period
	Offices  int
	Status   string
	Error    string
	Created  time.Time
	Finished time.Time
}

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RunStore stores run metadata next to the events.
type RunStore interface {
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id RunID) (*Run, error)
	ListRuns(ctx context.Context) ([]Run, error)
}
