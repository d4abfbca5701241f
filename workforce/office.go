package workforce

// =============================================================================
// OFFICE
// =============================================================================

// Maturity is a coarse classification of an office, derived once from its
// declared FTE when the office is created.
type Maturity string

const (
	MaturityNew         Maturity = "new"
	MaturityEmerging    Maturity = "emerging"
	MaturityEstablished Maturity = "established"
	MaturityMature      Maturity = "mature"
)

// Maturity thresholds (declared FTE).
const (
	emergingFTE    = 25
	establishedFTE = 100
	matureFTE      = 500
)

// ClassifyMaturity maps a declared FTE to a maturity band.
func ClassifyMaturity(fte int) Maturity {
	switch {
	case fte < emergingFTE:
		return MaturityNew
	case fte < establishedFTE:
		return MaturityEmerging
	case fte < matureFTE:
		return MaturityEstablished
	default:
		return MaturityMature
	}
}

// Office is a named container of roles. Offices never interact within a month.
type Office struct {
	Name        string
	DeclaredFTE int
	Maturity    Maturity
	Roles       []*Role

	// Headcount is the sum of all cohort headcounts, recomputed each month.
	Headcount int
}

// NewOffice creates an office and classifies its maturity.
func NewOffice(name string, declaredFTE int) *Office {
	return &Office{
		Name:        name,
		DeclaredFTE: declaredFTE,
		Maturity:    ClassifyMaturity(declaredFTE),
	}
}

// AddRole appends a role; levels keep the order they are given in.
func (o *Office) AddRole(r *Role) { o.Roles = append(o.Roles, r) }

// Role returns the named role or nil.
func (o *Office) Role(name string) *Role {
	for _, r := range o.Roles {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// Cohorts returns every cohort in the office, roles in order, levels in order.
func (o *Office) Cohorts() []*Cohort {
	var all []*Cohort
	for _, r := range o.Roles {
		all = append(all, r.Cohorts()...)
	}
	return all
}

// Recount recomputes Headcount from the cohorts and returns it.
func (o *Office) Recount() int {
	total := 0
	for _, c := range o.Cohorts() {
		total += c.Headcount()
	}
	o.Headcount = total
	return total
}
