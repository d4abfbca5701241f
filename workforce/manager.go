/*
manager.go - One simulated month across every office

PURPOSE:
  The Manager is the monthly orchestrator. It runs the progression engine,
  moves promoted people into their next level, applies churn and
  recruitment, and records what happened to every cohort.

ORDER WITHIN A MONTH (per office, offices in declaration order):
  1. Progression phase
     - Evaluate every level of every leveled role first
     - Then transfer each level's promotions to the next level, resetting
       level start; a terminal level "graduates" its promotions out of the
       simulation (logged as graduation events)
  2. Churn then recruitment, per cohort
     - Churn is resolved on the headcount after progression
     - Recruitment is resolved on the headcount after churn
  3. Office headcount recomputed

  Someone promoted this month is therefore exposed to churn in their new
  level in the same month. This is a monthly snapshot model, not an
  event-ordered one.

CONSERVATION:
  For every cohort and month:
    headcount = opening - churned - progressed_out + recruited + progressed_in
  where progressed_out includes graduations.

SEE ALSO:
  - progression.go: Who is promoted
  - movement.go:    How many are hired and leave
  - simulation.go:  Runs Step for every month of a period
*/
package workforce

import (
	"context"
	"math/rand"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/warp/workforce-engine/generic"
)

// =============================================================================
// MONTH RECORD - Per-cohort movement metrics
// =============================================================================

// MonthRecord is what happened to one cohort in one month.
type MonthRecord struct {
	Month   generic.Month `json:"month"`
	Office  string        `json:"office"`
	Role    string        `json:"role"`
	Level   string        `json:"level"`
	Journey string        `json:"journey,omitempty"`

	OpeningHeadcount int `json:"opening_headcount"`
	Headcount        int `json:"headcount"`
	Recruited        int `json:"recruited"`
	Churned          int `json:"churned"`
	ProgressedIn     int `json:"progressed_in"`
	ProgressedOut    int `json:"progressed_out"`
	Graduated        int `json:"graduated"`

	RecruitmentMethod generic.Method `json:"recruitment_method"`
	RecruitmentValue  *float64       `json:"recruitment_value,omitempty"`
	ChurnMethod       generic.Method `json:"churn_method"`
	ChurnValue        *float64       `json:"churn_value,omitempty"`

	Price       decimal.Decimal `json:"price"`
	Salary      decimal.Decimal `json:"salary"`
	Utilization float64         `json:"utilization"`
}

// Balanced reports whether the record satisfies headcount conservation.
func (r MonthRecord) Balanced() bool {
	return r.Headcount == r.OpeningHeadcount-r.Churned-r.ProgressedOut+r.Recruited+r.ProgressedIn
}

// MonthReport collects every cohort record for one month.
type MonthReport struct {
	Month     generic.Month
	Records   []MonthRecord
	Headcount map[string]int // per office, after the month
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager applies one month of progression, churn and recruitment.
type Manager struct {
	Engine   *Engine
	Recorder generic.Recorder
	Rand     *rand.Rand
	Logger   logrus.FieldLogger
}

// Step simulates month at for all offices, mutating them in place. Any error
// aborts the month; the offices must then be considered invalid.
func (m *Manager) Step(ctx context.Context, offices []*Office, at generic.Month) (*MonthReport, error) {
	report := &MonthReport{Month: at, Headcount: make(map[string]int, len(offices))}

	for _, office := range offices {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := m.stepOffice(ctx, office, at)
		if err != nil {
			return nil, err
		}
		report.Records = append(report.Records, records...)
		report.Headcount[office.Name] = office.Recount()

		orDiscard(m.Logger).WithFields(logrus.Fields{
			"office":    office.Name,
			"month":     at.String(),
			"headcount": office.Headcount,
		}).Debug("office month simulated")
	}
	return report, nil
}

func (m *Manager) stepOffice(ctx context.Context, office *Office, at generic.Month) ([]MonthRecord, error) {
	cohorts := office.Cohorts()
	records := make(map[*Cohort]*MonthRecord, len(cohorts))
	for _, c := range cohorts {
		plan := c.Plan.For(at.Month)
		rec := &MonthRecord{
			Month:            at,
			Office:           office.Name,
			Role:             c.Role,
			Level:            c.Name(),
			OpeningHeadcount: c.Headcount(),
			Price:            plan.Price,
			Salary:           plan.Salary,
			Utilization:      plan.Utilization,
		}
		if c.Progression != nil {
			rec.Journey = c.Progression.Journey
		}
		records[c] = rec
	}

	// 1. Progression phase
	for _, role := range office.Roles {
		if !role.IsLeveled() {
			continue
		}
		if err := m.progressRole(ctx, role, at, records); err != nil {
			return nil, err
		}
	}

	// 2. Churn & recruitment phase
	for _, c := range cohorts {
		if err := m.churnAndRecruit(ctx, c, at, records[c]); err != nil {
			return nil, err
		}
	}

	out := make([]MonthRecord, 0, len(cohorts))
	for _, c := range cohorts {
		rec := records[c]
		rec.Headcount = c.Headcount()
		out = append(out, *rec)
	}
	return out, nil
}

func (m *Manager) progressRole(ctx context.Context, role *Role, at generic.Month, records map[*Cohort]*MonthRecord) error {
	// Evaluate every level before moving anyone, so a person promoted into
	// level N+1 is not evaluated again for N+2 in the same month.
	promoted := make([][]Promotion, len(role.Levels))
	for i, c := range role.Levels {
		promoted[i] = m.Engine.Evaluate(c, at, m.Rand)
		records[c].ProgressedOut += len(promoted[i])
	}

	for i, c := range role.Levels {
		promotions := promoted[i]
		if len(promotions) == 0 {
			continue
		}

		next := role.Next(c.Level)
		if next == nil {
			if !role.IsTerminal(c.Level) {
				return &generic.DestinationError{
					Office: c.Office, Role: c.Role, Level: c.Level, Promoted: len(promotions),
				}
			}
			records[c].Graduated += len(promotions)
			for _, pr := range promotions {
				if err := m.record(ctx, promotionEvent(generic.EventGraduation, c, "", pr, at)); err != nil {
					return err
				}
			}
			continue
		}

		people := make([]Person, len(promotions))
		for j, pr := range promotions {
			people[j] = pr.Person
		}
		Transfer(next, people, at)
		records[next].ProgressedIn += len(people)

		for _, pr := range promotions {
			if err := m.record(ctx, promotionEvent(generic.EventPromotion, c, next.Level, pr, at)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Manager) churnAndRecruit(ctx context.Context, c *Cohort, at generic.Month, rec *MonthRecord) error {
	plan := c.Plan.For(at.Month)

	churn := plan.Churn.Resolve(c.Headcount())
	leavers := c.Churn(churn.Count, m.Rand)
	rec.Churned = len(leavers)
	rec.ChurnMethod = churn.Method
	rec.ChurnValue = churn.Value
	for _, p := range leavers {
		ev := personEvent(generic.EventChurn, c, p, at)
		ev.Method = churn.Method
		ev.Value = churn.Value
		if err := m.record(ctx, ev); err != nil {
			return err
		}
	}

	recruitment := plan.Recruitment.Resolve(c.Headcount())
	hires := c.Recruit(recruitment.Count, at)
	rec.Recruited = len(hires)
	rec.RecruitmentMethod = recruitment.Method
	rec.RecruitmentValue = recruitment.Value
	for _, p := range hires {
		ev := personEvent(generic.EventRecruitment, c, p, at)
		ev.Method = recruitment.Method
		ev.Value = recruitment.Value
		if err := m.record(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) record(ctx context.Context, ev generic.Event) error {
	if m.Recorder == nil {
		return nil
	}
	_, err := m.Recorder.Record(ctx, ev)
	return err
}

func personEvent(kind generic.EventKind, c *Cohort, p Person, at generic.Month) generic.Event {
	return generic.Event{
		PersonID:     p.ID,
		Kind:         kind,
		Month:        at,
		CareerTenure: p.CareerTenure(at),
		LevelTenure:  p.LevelTenure(at),
		Office:       c.Office,
		Role:         c.Role,
		Level:        c.Name(),
	}
}

func promotionEvent(kind generic.EventKind, from *Cohort, to string, pr Promotion, at generic.Month) generic.Event {
	return generic.Event{
		PersonID:     pr.Person.ID,
		Kind:         kind,
		Month:        at,
		CareerTenure: pr.CareerTenure,
		LevelTenure:  pr.LevelTenure,
		Office:       from.Office,
		Role:         from.Role,
		Level:        from.Level,
		FromLevel:    from.Level,
		ToLevel:      to,
		Bucket:       BucketLabel(pr.Bucket),
		Probability:  generic.Float(pr.Probability),
		Method:       generic.MethodCAT,
	}
}
