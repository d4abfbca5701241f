package workforce_test

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/workforce-engine/generic"
	"github.com/warp/workforce-engine/workforce"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func month(s string) generic.Month { return generic.MustParseMonth(s) }

func rng(seed int64) *rand.Rand { return rand.New(rand.NewSource(seed)) }

func rate(v float64) *float64 { return &v }

// everyMonth applies fn to all twelve plan slots.
func everyMonth(c *workforce.Cohort, fn func(p *workforce.MonthPlan)) {
	for i := range c.Plan {
		fn(&c.Plan[i])
	}
}

// people creates n people on c's level who entered the level in levelStart.
func people(c *workforce.Cohort, n int, levelStart generic.Month) {
	for i := 0; i < n; i++ {
		p := workforce.NewRecruit(c.Office, c.Role, c.Level, levelStart)
		p.CareerStart = levelStart.AddMonths(-12)
		c.Add(p)
	}
}

func rule(minTenure int, months ...time.Month) *workforce.ProgressionRule {
	return &workforce.ProgressionRule{Months: months, MinTenure: minTenure, TimeToReach: 0, TimeOnLevel: 24}
}

// ladder builds an office with one leveled role A -> B -> C and a flat
// Operations role. Every level promotes in January and July after six months.
func ladder(name string) *workforce.Office {
	office := workforce.NewOffice(name, 0)
	role := &workforce.Role{Name: "Consultant"}
	for _, level := range []string{"A", "B", "C"} {
		c := &workforce.Cohort{
			Office:      name,
			Role:        "Consultant",
			Level:       level,
			Progression: rule(6, time.January, time.July),
		}
		everyMonth(c, func(p *workforce.MonthPlan) {
			p.Price = decimal.NewFromInt(1000)
			p.Salary = decimal.NewFromInt(40000)
			p.Utilization = 0.8
		})
		role.Levels = append(role.Levels, c)
	}
	office.AddRole(role)
	office.AddRole(&workforce.Role{
		Name: "Operations",
		Flat: &workforce.Cohort{Office: name, Role: "Operations"},
	})
	return office
}

func curves() workforce.CATTable {
	return workforce.CATTable{
		"A": {6: 0.3, 12: 0.6},
		"B": {6: 0.2, 12: 0.4},
		"C": {6: 0.1, 12: 0.2},
	}
}

// recorder collects events in memory.
type recorder struct {
	mu     sync.Mutex
	events []generic.Event
}

func (r *recorder) Record(_ context.Context, ev generic.Event) (generic.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev.Sequence = int64(len(r.events) + 1)
	r.events = append(r.events, ev)
	return ev, nil
}

func (r *recorder) count(kind generic.EventKind) int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}
