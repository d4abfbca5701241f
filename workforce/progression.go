/*
progression.go - CAT-curve driven promotion trials

PURPOSE:
  Decides, for one cohort in one month, who is promoted out of the level.
  The engine only removes people; the Manager puts them into the next level.

STATE PER PERSON (per month):
  not evaluated -> evaluated, not promoted
                -> promoted (removed from the cohort)

STEPS:
  1. Month gate:   only in the level's progression months
  2. Eligibility:  level tenure >= MinTenure
  3. Bucket:       CAT0 below 6 months, else 6*floor(t/6) capped at the curve max
  4. Trial:        one uniform draw per eligible person, promote if draw < p
  5. Removal:      promoted people leave the source cohort

  Trials are independent, so a cohort of N eligible people at probability p
  promotes Binomial(N, p) people. There is no quota.

DETERMINISM:
  A cohort with nobody eligible performs no random draws, so adding or
  removing an ineligible cohort does not shift the random stream.

EXAMPLE:
  engine, err := NewEngine(curves, logger)
  promoted := engine.Evaluate(cohort, generic.NewMonth(2025, time.July), rng)
*/
package workforce

import (
	"io"
	"math/rand"

	"github.com/sirupsen/logrus"
	"github.com/warp/workforce-engine/generic"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine runs promotion trials against a CAT table.
type Engine struct {
	Curves CATTable
	Logger logrus.FieldLogger

	warned map[string]bool
}

// NewEngine requires an explicit CAT table; a nil table is a configuration
// error, not "nobody is ever promoted".
func NewEngine(curves CATTable, logger logrus.FieldLogger) (*Engine, error) {
	if curves == nil {
		return nil, generic.ErrProgressionConfigRequired
	}
	return &Engine{Curves: curves, Logger: orDiscard(logger), warned: make(map[string]bool)}, nil
}

// Promotion is one promoted person with the trial details used for the log.
type Promotion struct {
	Person       Person
	CareerTenure int
	LevelTenure  int
	Bucket       int
	Probability  float64
}

// Eligible reports whether p may be evaluated in month at. It does not draw.
func (e *Engine) Eligible(c *Cohort, p Person, at generic.Month) bool {
	if !c.Progression.IsProgressionMonth(at.Month) {
		return false
	}
	return p.LevelTenure(at) >= c.Progression.MinTenure
}

// Evaluate runs the trials for cohort c in month at and removes the promoted
// people from c. Flat cohorts and levels without rules never promote.
func (e *Engine) Evaluate(c *Cohort, at generic.Month, rng *rand.Rand) []Promotion {
	if c.IsFlat() {
		return nil
	}
	if c.Progression == nil {
		e.warnMissingRule(c)
		return nil
	}
	if !c.Progression.IsProgressionMonth(at.Month) {
		return nil
	}

	curve := e.Curves.Curve(c.Level)

	var promotions []Promotion
	c.removeWhere(func(_ int, p Person) bool {
		if !e.Eligible(c, p, at) {
			return false
		}
		lt := p.LevelTenure(at)
		bucket, prob := curve.Probability(lt)
		if rng.Float64() >= prob {
			return false
		}
		promotions = append(promotions, Promotion{
			Person:       p,
			CareerTenure: p.CareerTenure(at),
			LevelTenure:  lt,
			Bucket:       bucket,
			Probability:  prob,
		})
		return true
	})
	return promotions
}

// PromoteByRate is the legacy percentage-only entry point. It is kept so old
// callers fail loudly instead of silently falling back to defaults.
func (e *Engine) PromoteByRate(c *Cohort, rate float64, at generic.Month) ([]Promotion, error) {
	return nil, generic.ErrProgressionConfigRequired
}

func (e *Engine) warnMissingRule(c *Cohort) {
	if e.warned == nil {
		e.warned = make(map[string]bool)
	}
	if e.warned[c.Key()] {
		return
	}
	e.warned[c.Key()] = true
	orDiscard(e.Logger).WithFields(logrus.Fields{
		"office": c.Office,
		"role":   c.Role,
		"level":  c.Level,
	}).Warn("no progression rule for level, nobody will be promoted")
}

func orDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l != nil {
		return l
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	return discard
}
