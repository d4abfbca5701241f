/*
Package workforce implements the population simulation engine.

PURPOSE:
  People sit in cohorts (one office, one role, one level or flat role). Each
  simulated month they may be promoted to the next level, leave, or be joined
  by new recruits. This package owns that model and the rules that mutate it;
  generic.EventLog records every individual transition.

KEY TYPES:
  Person:      One individual, identified by ID, with career/level start months
  Cohort:      People plus the 12-month plan (price, salary, recruitment, churn)
  Role:        Ordered levels (leveled) or a single flat cohort
  Office:      Named container of roles
  Engine:      CAT-curve driven promotion trials
  Manager:     One simulated month across all offices
  Simulator:   Initialization plus every month of a period

MONTHLY FLOW:
  1. Progression: evaluate every level, then move promoted people up
  2. Churn then recruitment, per cohort
  3. Office headcount recomputed

RANDOMNESS:
  Every random draw comes from the *rand.Rand handed to the Simulator, which
  is seeded once per run. Offices are processed in declaration order so the
  draw sequence, and therefore the outcome, is reproducible.

SEE ALSO:
  - generic/ledger.go: Event log
  - factory/config.go: Builds offices from YAML/JSON
*/
package workforce

import (
	"github.com/google/uuid"
	"github.com/warp/workforce-engine/generic"
)

// =============================================================================
// PERSON
// =============================================================================

// Person is an individual in the simulation. Tenures are derived from the
// start months relative to a simulation month and never stored.
type Person struct {
	ID          generic.PersonID
	CareerStart generic.Month
	LevelStart  generic.Month
	Level       string
	Role        string
	Office      string
}

// NewRecruit creates a person hired in month at, with no prior tenure.
func NewRecruit(office, role, level string, at generic.Month) Person {
	return Person{
		ID:          generic.PersonID(uuid.NewString()),
		CareerStart: at,
		LevelStart:  at,
		Level:       level,
		Role:        role,
		Office:      office,
	}
}

// CareerTenure returns whole months since the person first joined.
func (p Person) CareerTenure(at generic.Month) int {
	return nonNegative(generic.MonthsBetween(p.CareerStart, at))
}

// LevelTenure returns whole months since the person entered the current level.
func (p Person) LevelTenure(at generic.Month) int {
	return nonNegative(generic.MonthsBetween(p.LevelStart, at))
}

// Promote returns the person moved to level, entering it in month at.
// Identity, role, office and career start are preserved.
func (p Person) Promote(level string, at generic.Month) Person {
	p.Level = level
	p.LevelStart = at
	if p.LevelStart.Before(p.CareerStart) {
		p.LevelStart = p.CareerStart
	}
	return p
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
