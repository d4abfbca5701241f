package generic

// =============================================================================
// PERIOD - The simulated window
// =============================================================================

// Period is an inclusive range of months [Start, End].
//
// Examples:
//   - Calendar year 2025: 2025-01 .. 2025-12
//   - Three-year plan:    2025-01 .. 2027-12
type Period struct {
	Start Month
	End   Month
}

// NewPeriod validates and returns the period.
func NewPeriod(start, end Month) (Period, error) {
	p := Period{Start: start, End: end}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// Validate rejects periods whose end precedes their start.
func (p Period) Validate() error {
	if p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

// Contains returns true if the month is within the period [Start, End]
func (p Period) Contains(m Month) bool {
	return m.AfterOrEqual(p.Start) && m.BeforeOrEqual(p.End)
}

// Len returns the number of months in the period.
func (p Period) Len() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return MonthsBetween(p.Start, p.End) + 1
}

// Months returns all months in the period in calendar order.
func (p Period) Months() []Month {
	months := make([]Month, 0, p.Len())
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddMonths(1) {
		months = append(months, current)
	}
	return months
}

// Years returns the distinct calendar years the period touches.
func (p Period) Years() []int {
	var years []int
	for y := p.Start.Year; y <= p.End.Year && p.Len() > 0; y++ {
		years = append(years, y)
	}
	return years
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// NextPeriod returns the period of equal length following this one
func (p Period) NextPeriod() Period {
	n := p.Len()
	start := p.End.AddMonths(1)
	return Period{Start: start, End: start.AddMonths(n - 1)}
}
