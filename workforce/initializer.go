/*
initializer.go - Realistic starting population

PURPOSE:
  A simulation that starts with everyone hired "today" spends its first years
  unwinding an artificial wave: nobody is eligible for promotion, then
  everyone is at once. The Initializer instead creates people whose tenures
  look like a steady-state workforce.

LEVELED COHORTS:
  1. Career tenure T ~ uniform over the level's tenure range
     [TimeToReach, TimeToReach + TimeOnLevel]
  2. Level tenure t <= T - TimeToReach, chosen among the values whose level
     start falls in a progression month (people only enter a level through
     a promotion, and promotions only happen in those months). Entry levels
     (TimeToReach 0) may also have t = T: hired straight into the level.
  3. Career start = start - T, level start = start - t, clamped so the
     level start is never before the career start.

FLAT COHORTS:
  T ~ uniform over FlatTenure (months to years), level tenure = T.

Every created person is logged as a recruitment event with method
"initial" and no value.
*/
package workforce

import (
	"context"
	"math/rand"

	"github.com/sirupsen/logrus"
	"github.com/warp/workforce-engine/generic"
)

// TenureRange is an inclusive range of months.
type TenureRange struct {
	Min int
	Max int
}

// DefaultFlatTenure is the experience range of people in flat roles.
var DefaultFlatTenure = TenureRange{Min: 6, Max: 60}

func (r TenureRange) draw(rng *rand.Rand) int {
	lo, hi := nonNegative(r.Min), nonNegative(r.Max)
	if hi < lo {
		hi = lo
	}
	return lo + rng.Intn(hi-lo+1)
}

// Initializer creates the starting population of cohorts.
type Initializer struct {
	Recorder   generic.Recorder
	Rand       *rand.Rand
	FlatTenure TenureRange
	Logger     logrus.FieldLogger
}

// Populate adds target people to c as of month start. A target of zero or
// less is a no-op.
//
// Tenures are whole calendar months: a career tenure of T places the career
// start exactly T months before start (start.AddMonths(-T)), not T*30 days.
func (in *Initializer) Populate(ctx context.Context, c *Cohort, target int, start generic.Month) ([]Person, error) {
	if target <= 0 {
		return nil, nil
	}

	rule := c.Progression
	if !c.IsFlat() && rule == nil {
		orDiscard(in.Logger).WithFields(logrus.Fields{
			"office": c.Office, "role": c.Role, "level": c.Level,
		}).Warn("no progression rule for level, drawing tenure from flat range")
	}

	created := make([]Person, 0, target)
	for i := 0; i < target; i++ {
		var careerTenure, levelTenure int
		if rule != nil && !c.IsFlat() {
			careerTenure, levelTenure = in.drawLeveled(rule, start)
		} else {
			careerTenure = in.flatRange().draw(in.Rand)
			levelTenure = careerTenure
		}

		p := NewRecruit(c.Office, c.Role, c.Level, start)
		p.CareerStart = start.AddMonths(-careerTenure)
		p.LevelStart = start.AddMonths(-levelTenure)
		if p.LevelStart.Before(p.CareerStart) {
			p.LevelStart = p.CareerStart
		}
		created = append(created, p)

		if in.Recorder != nil {
			_, err := in.Recorder.Record(ctx, generic.Event{
				PersonID:     p.ID,
				Kind:         generic.EventRecruitment,
				Month:        start,
				CareerTenure: p.CareerTenure(start),
				LevelTenure:  p.LevelTenure(start),
				Office:       c.Office,
				Role:         c.Role,
				Level:        c.Name(),
				Method:       generic.MethodInitial,
			})
			if err != nil {
				c.Add(created...)
				return created, err
			}
		}
	}

	c.Add(created...)
	return created, nil
}

func (in *Initializer) drawLeveled(rule *ProgressionRule, start generic.Month) (careerTenure, levelTenure int) {
	lo, hi := rule.TenureRange()
	careerTenure = TenureRange{Min: lo, Max: hi}.draw(in.Rand)

	maxLevelTenure := nonNegative(careerTenure - nonNegative(rule.TimeToReach))

	var candidates []int
	for t := 0; t <= maxLevelTenure; t++ {
		entered := start.AddMonths(-t)
		if rule.IsProgressionMonth(entered.Month) {
			candidates = append(candidates, t)
		}
	}
	if rule.TimeToReach <= 0 && !containsInt(candidates, careerTenure) {
		candidates = append(candidates, careerTenure)
	}

	if len(candidates) == 0 {
		return careerTenure, in.Rand.Intn(maxLevelTenure + 1)
	}
	return careerTenure, candidates[in.Rand.Intn(len(candidates))]
}

func (in *Initializer) flatRange() TenureRange {
	if in.FlatTenure == (TenureRange{}) {
		return DefaultFlatTenure
	}
	return in.FlatTenure
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
