/*
simulation.go - A full run: initialize, then simulate every month

PURPOSE:
  The Simulator owns the run-level concerns: the single seeded random
  stream, the starting population and the month loop. Months are processed
  strictly in calendar order; each month starts from the previous month's
  outcome.

RESULT SHAPE:
  result.Years[2025]["Stockholm"]["Consultant"]["AC"] -> []MonthRecord
  Flat roles use the role name as the level key.

REPRODUCIBILITY:
  The random stream is created once from Seed. The same seed, input and
  code produce the same headcounts and the same event sequence (event and
  person IDs aside).

EXAMPLE:
  sim := &workforce.Simulator{Curves: curves, Recorder: log, Seed: 42}
  result, err := sim.Run(ctx, workforce.Input{Period: period, Offices: offices})
*/
package workforce

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/workforce-engine/generic"
)

// Input is everything a run needs besides the CAT table.
type Input struct {
	Name    string
	Period  generic.Period
	Offices []*Office
}

// Simulator runs a simulation over a period.
type Simulator struct {
	Curves     CATTable
	Recorder   generic.Recorder
	Seed       int64
	FlatTenure TenureRange
	Logger     logrus.FieldLogger

	// OnMonth, when set, is called after every simulated month.
	OnMonth func(report *MonthReport)
}

// Result is the nested output of a run.
type Result struct {
	Name   string         `json:"name,omitempty"`
	Seed   int64          `json:"seed"`
	Period generic.Period `json:"-"`
	Start  generic.Month  `json:"start"`
	End    generic.Month  `json:"end"`

	// Years is keyed year -> office -> role -> level.
	Years map[int]map[string]map[string]map[string][]MonthRecord `json:"years"`

	// Offices is keyed month -> office -> headcount after the month.
	Offices map[string]map[string]int `json:"offices"`

	// Journeys is keyed month -> journey -> headcount after the month.
	Journeys map[string]map[string]int `json:"journeys"`

	// Initial is keyed office -> headcount after initialization.
	Initial map[string]int `json:"initial"`
}

// Records returns the month records of one cohort across the whole run.
func (r *Result) Records(office, role, level string) []MonthRecord {
	var out []MonthRecord
	for _, year := range r.Period.Years() {
		out = append(out, r.Years[year][office][role][level]...)
	}
	return out
}

// Run initializes empty cohorts and simulates each month of the period.
// An error aborts the whole run.
func (s *Simulator) Run(ctx context.Context, in Input) (*Result, error) {
	if err := in.Period.Validate(); err != nil {
		return nil, err
	}
	logger := orDiscard(s.Logger).WithFields(logrus.Fields{
		"run":   in.Name,
		"seed":  s.Seed,
		"start": in.Period.Start.String(),
		"end":   in.Period.End.String(),
	})

	engine, err := NewEngine(s.Curves, logger)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(s.Seed))

	result := &Result{
		Name:     in.Name,
		Seed:     s.Seed,
		Period:   in.Period,
		Start:    in.Period.Start,
		End:      in.Period.End,
		Years:    make(map[int]map[string]map[string]map[string][]MonthRecord),
		Offices:  make(map[string]map[string]int),
		Journeys: make(map[string]map[string]int),
		Initial:  make(map[string]int),
	}

	initializer := &Initializer{Recorder: s.Recorder, Rand: rng, FlatTenure: s.FlatTenure, Logger: logger}
	for _, office := range in.Offices {
		for _, c := range office.Cohorts() {
			if c.Headcount() > 0 {
				continue
			}
			if _, err := initializer.Populate(ctx, c, c.StartingHeadcount, in.Period.Start); err != nil {
				return nil, fmt.Errorf("initialize %s: %w", c.Key(), err)
			}
		}
		result.Initial[office.Name] = office.Recount()
	}

	manager := &Manager{Engine: engine, Recorder: s.Recorder, Rand: rng, Logger: logger}
	started := time.Now()
	for _, month := range in.Period.Months() {
		report, err := manager.Step(ctx, in.Offices, month)
		if err != nil {
			return nil, fmt.Errorf("simulate %s: %w", month, err)
		}
		result.add(report)
		if s.OnMonth != nil {
			s.OnMonth(report)
		}
	}

	logger.WithFields(logrus.Fields{
		"months":   in.Period.Len(),
		"offices":  len(in.Offices),
		"duration": time.Since(started).String(),
	}).Info("simulation completed")
	return result, nil
}

func (r *Result) add(report *MonthReport) {
	key := report.Month.String()
	r.Offices[key] = report.Headcount

	journeys := make(map[string]int)
	for _, rec := range report.Records {
		offices, ok := r.Years[rec.Month.Year]
		if !ok {
			offices = make(map[string]map[string]map[string][]MonthRecord)
			r.Years[rec.Month.Year] = offices
		}
		roles, ok := offices[rec.Office]
		if !ok {
			roles = make(map[string]map[string][]MonthRecord)
			offices[rec.Office] = roles
		}
		levels, ok := roles[rec.Role]
		if !ok {
			levels = make(map[string][]MonthRecord)
			roles[rec.Role] = levels
		}
		levels[rec.Level] = append(levels[rec.Level], rec)

		if rec.Journey != "" {
			journeys[rec.Journey] += rec.Headcount
		}
	}
	r.Journeys[key] = journeys
}
