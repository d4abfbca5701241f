/*
Package generic provides the domain-agnostic plumbing of the simulation engine.

PURPOSE:
  This package contains the calendar (Month, Period), the immutable event
  record and the append-only event log that every workforce transition is
  written to. The workforce package mutates people and cohorts; this package
  only observes and records.

KEY CONCEPTS IN THIS FILE (types.go):
  - Event: An immutable record of one person-affecting action
  - EventKind: recruitment, promotion, churn, graduation
  - Method: How a recruitment/churn count was resolved (absolute, rate, ...)
  - Type-safe identifiers for persons, events and runs

DESIGN PRINCIPLES:
  1. Immutability: Events are never modified or deleted
  2. Auditability: Every event carries the tenure and cohort at the moment
     it happened, plus the rate or probability used
  3. Incremental durability: Events are persisted as they are produced

USAGE:
  ev := generic.Event{
      PersonID: "5b0c...",
      Kind:     generic.EventChurn,
      Month:    generic.NewMonth(2025, time.March),
      Office:   "Stockholm",
      Role:     "Consultant",
      Level:    "AC",
      Method:   generic.MethodRate,
      Value:    generic.Float(0.02),
  }

SEE ALSO:
  - ledger.go: EventLog, the append-only log and its summary queries
  - store.go: EventStore persistence interface
*/
package generic

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PersonID string
type EventID string
type RunID string

// =============================================================================
// EVENT KIND
// =============================================================================

type EventKind string

const (
	EventRecruitment EventKind = "recruitment" // Hire or initial population creation
	EventPromotion   EventKind = "promotion"   // Moved to the next level
	EventChurn       EventKind = "churn"       // Left the company
	EventGraduation  EventKind = "graduation"  // Promoted out of a terminal level
)

// EventKinds lists every kind in a stable order (used for summaries).
var EventKinds = []EventKind{EventRecruitment, EventPromotion, EventChurn, EventGraduation}

// Class groups kinds for headcount accounting. Graduation removes a person
// from the simulation, so it counts as a churn-class exit.
func (k EventKind) Class() EventKind {
	if k == EventGraduation {
		return EventChurn
	}
	return k
}

// =============================================================================
// RESOLUTION METHOD
// =============================================================================

// Method records where a recruitment or churn count came from.
type Method string

const (
	MethodAbsolute Method = "absolute" // Fixed headcount delta for the month
	MethodRate     Method = "rate"     // Fraction of current headcount
	MethodNone     Method = "none"     // Nothing configured for the month
	MethodInitial  Method = "initial"  // Population initialization, no policy
	MethodCAT      Method = "cat"      // Promotion drawn from a CAT curve
)

// =============================================================================
// EVENT - Immutable record of a person-affecting action
// =============================================================================

type Event struct {
	ID       EventID
	RunID    RunID
	Sequence int64
	PersonID PersonID
	Kind     EventKind
	Month    Month

	// Tenure at the moment of the event, in whole months.
	CareerTenure int
	LevelTenure  int

	Office string
	Role   string
	Level  string

	// Promotion and graduation only.
	FromLevel   string
	ToLevel     string
	Bucket      string
	Probability *float64

	// Recruitment and churn: the resolved rate or absolute value.
	Value  *float64
	Method Method

	RecordedAt time.Time
}

// Float returns a pointer to v, for the optional numeric event fields.
func Float(v float64) *float64 { return &v }

// EventFilter selects events for queries. Zero fields match everything.
type EventFilter struct {
	RunID    RunID
	PersonID PersonID
	Kinds    []EventKind
	Office   string
	Role     string
	Level    string
	From     *Month
	To       *Month
}

// Matches reports whether ev satisfies the filter.
func (f EventFilter) Matches(ev Event) bool {
	if f.RunID != "" && ev.RunID != f.RunID {
		return false
	}
	if f.PersonID != "" && ev.PersonID != f.PersonID {
		return false
	}
	if len(f.Kinds) > 0 {
		found := false
		for _, k := range f.Kinds {
			if k == ev.Kind {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Office != "" && ev.Office != f.Office {
		return false
	}
	if f.Role != "" && ev.Role != f.Role {
		return false
	}
	if f.Level != "" && ev.Level != f.Level {
		return false
	}
	if f.From != nil && ev.Month.Before(*f.From) {
		return false
	}
	if f.To != nil && ev.Month.After(*f.To) {
		return false
	}
	return true
}
