/*
ledger.go - Append-only event log of a simulation run

PURPOSE:
  The EventLog is the audit trail of a run. Every initial hire, recruitment,
  promotion, churn and graduation is recorded here with the person's tenure
  and cohort at that moment. The log observes the workforce model; it never
  alters it.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete. EVER.
  2. IMMUTABLE: Once written, events cannot be modified
  3. ORDERED: Sequence numbers increase by one per event within a run
  4. WRITE-THROUGH: Record returns only after the store persisted the event

SUMMARY QUERIES:
  The log answers "how many of what, where, when":
    summary, _ := log.Summary(ctx)
    summary.ByKind[generic.EventChurn]   // all churn events
    summary.ByOffice["Stockholm"]        // all events in one office
    summary.ByMonth["2025-07"]           // all events in July 2025
  and "what happened to this person":
    history, _ := log.PersonHistory(ctx, personID)

SEE ALSO:
  - store.go: Low-level persistence interface
  - workforce/manager.go: Main producer of events
*/
package generic

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// RECORDER - What producers depend on
// =============================================================================

// Recorder is the write side of the event log.
type Recorder interface {
	Record(ctx context.Context, ev Event) (Event, error)
}

// =============================================================================
// EVENT LOG - Implementation using EventStore
// =============================================================================

type EventLog struct {
	Store EventStore
	RunID RunID

	mu  sync.Mutex
	seq int64
	now func() time.Time
}

func NewEventLog(store EventStore, runID RunID) *EventLog {
	if runID == "" {
		runID = RunID(uuid.NewString())
	}
	return &EventLog{Store: store, RunID: runID, now: time.Now}
}

// Record stamps the event with an ID, the run ID and the next sequence
// number, then persists it. The stamped event is returned.
func (l *EventLog) Record(ctx context.Context, ev Event) (Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ev.ID == "" {
		ev.ID = EventID(uuid.NewString())
	}
	ev.RunID = l.RunID
	ev.Sequence = l.seq + 1
	if ev.RecordedAt.IsZero() {
		ev.RecordedAt = l.now().UTC()
	}

	if err := l.Store.Append(ctx, ev); err != nil {
		return Event{}, fmt.Errorf("record %s event for %s: %w", ev.Kind, ev.PersonID, err)
	}
	l.seq = ev.Sequence
	return ev, nil
}

// Events returns the run's events matching filter. The run ID is forced.
func (l *EventLog) Events(ctx context.Context, filter EventFilter) ([]Event, error) {
	filter.RunID = l.RunID
	return l.Store.Query(ctx, filter)
}

// PersonHistory returns every event for one person, in the order recorded.
func (l *EventLog) PersonHistory(ctx context.Context, id PersonID) ([]Event, error) {
	events, err := l.Events(ctx, EventFilter{PersonID: id})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrPersonNotFound
	}
	return events, nil
}

// Len returns the number of events recorded through this log.
func (l *EventLog) Len() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary holds event counts along each reporting dimension.
type Summary struct {
	RunID    RunID             `json:"run_id"`
	Total    int               `json:"total"`
	ByKind   map[EventKind]int `json:"by_kind"`
	ByOffice map[string]int    `json:"by_office"`
	ByRole   map[string]int    `json:"by_role"`
	ByLevel  map[string]int    `json:"by_level"`
	ByMonth  map[string]int    `json:"by_month"`
}

// Summary counts the run's events by kind, office, role, level and month.
func (l *EventLog) Summary(ctx context.Context) (*Summary, error) {
	events, err := l.Events(ctx, EventFilter{})
	if err != nil {
		return nil, err
	}
	s := Summarize(events)
	s.RunID = l.RunID
	return s, nil
}

// Summarize counts events without going through a store.
func Summarize(events []Event) *Summary {
	s := &Summary{
		ByKind:   make(map[EventKind]int),
		ByOffice: make(map[string]int),
		ByRole:   make(map[string]int),
		ByLevel:  make(map[string]int),
		ByMonth:  make(map[string]int),
	}
	for _, ev := range events {
		s.Total++
		s.ByKind[ev.Kind]++
		s.ByOffice[ev.Office]++
		s.ByRole[ev.Role]++
		s.ByLevel[ev.Level]++
		s.ByMonth[ev.Month.String()]++
	}
	return s
}

// SortedMonths returns the months present in ByMonth in calendar order.
func (s *Summary) SortedMonths() []string {
	months := make([]string, 0, len(s.ByMonth))
	for m := range s.ByMonth {
		months = append(months, m)
	}
	sort.Strings(months)
	return months
}
