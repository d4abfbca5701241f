package workforce

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/workforce-engine/generic"
)

// =============================================================================
// MONTHLY PLAN - What a cohort looks like in each calendar month
// =============================================================================

// Movement is a recruitment or churn setting for one calendar month: either a
// fraction of current headcount or an absolute headcount delta. Absolute wins
// when both are set.
type Movement struct {
	Rate     *float64
	Absolute *float64
}

// MonthPlan carries the economics and movement settings for one calendar month.
type MonthPlan struct {
	Price       decimal.Decimal // hourly price
	Salary      decimal.Decimal // monthly salary
	Utilization float64
	Recruitment Movement
	Churn       Movement
}

// Plan holds one MonthPlan per calendar month, indexed by month-1.
type Plan [12]MonthPlan

// For returns the plan slot for a calendar month.
func (p *Plan) For(m time.Month) *MonthPlan { return &p[int(m)-1] }

// =============================================================================
// PROGRESSION RULE
// =============================================================================

// ProgressionRule describes when and how quickly people move through a level.
type ProgressionRule struct {
	// Months are the calendar months in which promotion is evaluated.
	Months []time.Month
	// MinTenure is the level tenure (months) required to be eligible.
	MinTenure int
	// TimeToReach is the typical company tenure (months) on arrival at the level.
	TimeToReach int
	// TimeOnLevel is the typical time (months) spent on the level.
	TimeOnLevel int
	// Journey is a reporting group for the level; it does not affect progression.
	Journey string
}

// IsProgressionMonth reports whether promotion is evaluated in month m.
func (r *ProgressionRule) IsProgressionMonth(m time.Month) bool {
	if r == nil {
		return false
	}
	for _, pm := range r.Months {
		if pm == m {
			return true
		}
	}
	return false
}

// TenureRange returns the plausible company tenure, in months, of someone
// currently sitting in the level.
func (r *ProgressionRule) TenureRange() (min, max int) {
	min = nonNegative(r.TimeToReach)
	max = min + nonNegative(r.TimeOnLevel)
	return min, max
}

// =============================================================================
// COHORT
// =============================================================================

// Cohort is the set of people sharing an office, role and level (or flat role).
// Headcount is always len(People).
type Cohort struct {
	Office string
	Role   string
	Level  string // empty for flat roles

	People []Person
	Plan   Plan

	// StartingHeadcount is the population created by the Initializer when
	// a run starts with an empty cohort.
	StartingHeadcount int

	// Progression is nil for flat roles, and for levels whose rules are missing.
	Progression *ProgressionRule
}

// Key returns "office/role/level" (or "office/role" for flat cohorts).
func (c *Cohort) Key() string {
	if c.Level == "" {
		return c.Office + "/" + c.Role
	}
	return c.Office + "/" + c.Role + "/" + c.Level
}

// Name is the level name, or the role name for flat cohorts.
func (c *Cohort) Name() string {
	if c.Level == "" {
		return c.Role
	}
	return c.Level
}

func (c *Cohort) Headcount() int { return len(c.People) }

func (c *Cohort) IsFlat() bool { return c.Level == "" }

// Add appends people to the cohort.
func (c *Cohort) Add(people ...Person) {
	c.People = append(c.People, people...)
}

// removeWhere removes the people for which drop returns true and returns them,
// preserving the order of those who stay.
func (c *Cohort) removeWhere(drop func(i int, p Person) bool) []Person {
	var removed []Person
	kept := c.People[:0]
	for i, p := range c.People {
		if drop(i, p) {
			removed = append(removed, p)
			continue
		}
		kept = append(kept, p)
	}
	// Clear the tail so dropped values are not retained by the backing array.
	for i := len(kept); i < len(c.People); i++ {
		c.People[i] = Person{}
	}
	c.People = kept
	return removed
}

// Transfer inserts people already removed from their source cohort into dst,
// resetting their level start to month at. Callers pair it with the removal
// in the same step so nobody is ever in two cohorts.
func Transfer(dst *Cohort, promoted []Person, at generic.Month) []Person {
	moved := make([]Person, len(promoted))
	for i, p := range promoted {
		moved[i] = p.Promote(dst.Level, at)
	}
	dst.Add(moved...)
	return moved
}

// =============================================================================
// ROLE
// =============================================================================

// Role is either leveled (ordered cohorts, lowest first) or flat.
//
// Order is the declared level ordering. When empty, the order of Levels is
// used. A declared level with no cohort in this office makes promotions into
// it unresolvable.
type Role struct {
	Name   string
	Order  []string
	Levels []*Cohort
	Flat   *Cohort
}

func (r *Role) IsLeveled() bool { return r.Flat == nil }

// Cohorts returns every cohort of the role.
func (r *Role) Cohorts() []*Cohort {
	if r.Flat != nil {
		return []*Cohort{r.Flat}
	}
	return r.Levels
}

// Level returns the cohort for a level name.
func (r *Role) Level(name string) *Cohort {
	for _, c := range r.Levels {
		if c.Level == name {
			return c
		}
	}
	return nil
}

func (r *Role) order() []string {
	if len(r.Order) > 0 {
		return r.Order
	}
	names := make([]string, len(r.Levels))
	for i, c := range r.Levels {
		names[i] = c.Level
	}
	return names
}

// Next returns the cohort of the level following name in the role's
// ordering. It returns nil when name is terminal, or when the following
// level has no cohort (see IsTerminal to tell the two apart).
func (r *Role) Next(name string) *Cohort {
	order := r.order()
	for i, n := range order {
		if n == name {
			if i+1 < len(order) {
				return r.Level(order[i+1])
			}
			return nil
		}
	}
	return nil
}

// IsTerminal reports whether name is the last level of the role.
func (r *Role) IsTerminal(name string) bool {
	order := r.order()
	return len(order) > 0 && order[len(order)-1] == name
}
