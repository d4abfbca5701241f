package workforce

import (
	"math"
	"math/rand"

	"github.com/shopspring/decimal"
	"github.com/warp/workforce-engine/generic"
)

// =============================================================================
// VALUE RESOLUTION - absolute beats rate
// =============================================================================

// Resolution is a resolved recruitment or churn count for one cohort-month.
type Resolution struct {
	Count  int
	Method generic.Method
	// Value is the configured rate or absolute value that produced Count.
	Value *float64
}

// MaxHeadcount bounds the number of people one cohort-month can gain or lose,
// and the starting population of one cohort.
const MaxHeadcount = 1_000_000

// Resolve turns a Movement into a headcount delta given the cohort's current
// headcount. An absolute value is rounded and used as is; otherwise the rate
// is applied as floor(rate * headcount). Negative and non-finite values
// resolve to zero and counts are capped at MaxHeadcount.
//
// The multiplication is done in decimal: 0.29 * 100 must floor to 29, not 28.
func (m Movement) Resolve(headcount int) Resolution {
	if m.Absolute != nil {
		if !finite(*m.Absolute) {
			return Resolution{Count: 0, Method: generic.MethodAbsolute}
		}
		n := math.Round(*m.Absolute)
		if n < 0 {
			n = 0
		}
		if n > MaxHeadcount {
			n = MaxHeadcount
		}
		return Resolution{Count: int(n), Method: generic.MethodAbsolute, Value: generic.Float(*m.Absolute)}
	}
	if m.Rate != nil {
		if !finite(*m.Rate) {
			return Resolution{Count: 0, Method: generic.MethodRate}
		}
		if headcount <= 0 || *m.Rate <= 0 {
			return Resolution{Count: 0, Method: generic.MethodRate, Value: generic.Float(*m.Rate)}
		}
		n := decimal.NewFromFloat(*m.Rate).Mul(decimal.NewFromInt(int64(headcount))).Floor()
		if n.GreaterThan(decimal.NewFromInt(MaxHeadcount)) {
			n = decimal.NewFromInt(MaxHeadcount)
		}
		return Resolution{Count: int(n.IntPart()), Method: generic.MethodRate, Value: generic.Float(*m.Rate)}
	}
	return Resolution{Count: 0, Method: generic.MethodNone}
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// =============================================================================
// CHURN & RECRUITMENT
// =============================================================================

// Churn removes up to n people chosen uniformly at random without replacement
// and returns them. It never removes more people than the cohort has.
func (c *Cohort) Churn(n int, rng *rand.Rand) []Person {
	size := len(c.People)
	if n > size {
		n = size
	}
	if n <= 0 {
		return nil
	}

	// Partial Fisher-Yates over indices picks n distinct positions.
	idx := make([]int, size)
	for i := range idx {
		idx[i] = i
	}
	victims := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		j := i + rng.Intn(size-i)
		idx[i], idx[j] = idx[j], idx[i]
		victims[idx[i]] = true
	}

	return c.removeWhere(func(i int, _ Person) bool { return victims[i] })
}

// Recruit adds n brand-new people hired in month at and returns them.
func (c *Cohort) Recruit(n int, at generic.Month) []Person {
	if n <= 0 {
		return nil
	}
	hires := make([]Person, n)
	for i := range hires {
		hires[i] = NewRecruit(c.Office, c.Role, c.Level, at)
	}
	c.Add(hires...)
	return hires
}
