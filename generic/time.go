package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// MONTH - Concrete time abstraction (the simulation ticks once per month)
// =============================================================================

// Month is a calendar year-month. It is the only time granularity the
// simulation knows about: hires, promotions and exits all happen "in a month".
type Month struct {
	Year  int
	Month time.Month
}

// Constructors
func NewMonth(year int, month time.Month) Month {
	return Month{Year: year, Month: month}.normalize()
}

func MonthOf(t time.Time) Month { return Month{Year: t.Year(), Month: t.Month()} }

// ParseMonth parses "2006-01" (or a full "2006-01-02" date, whose day is dropped).
func ParseMonth(s string) (Month, error) {
	if t, err := time.Parse("2006-01", s); err == nil {
		return MonthOf(t), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q (use YYYY-MM)", s)
	}
	return MonthOf(t), nil
}

func MustParseMonth(s string) Month {
	m, err := ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Month) normalize() Month {
	t := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	return MonthOf(t)
}

// index counts months since year 0; used for ordering and differences.
func (m Month) index() int { return m.Year*12 + int(m.Month) - 1 }

// Comparison
func (m Month) Before(other Month) bool        { return m.index() < other.index() }
func (m Month) Equal(other Month) bool         { return m.index() == other.index() }
func (m Month) After(other Month) bool         { return m.index() > other.index() }
func (m Month) BeforeOrEqual(other Month) bool { return !m.After(other) }
func (m Month) AfterOrEqual(other Month) bool  { return !m.Before(other) }

// Arithmetic
func (m Month) AddMonths(n int) Month {
	idx := m.index() + n
	year := idx / 12
	month := idx % 12
	if month < 0 {
		month += 12
		year--
	}
	return Month{Year: year, Month: time.Month(month + 1)}
}

func (m Month) AddYears(n int) Month { return Month{Year: m.Year + n, Month: m.Month} }

// Properties
func (m Month) IsZero() bool     { return m.Year == 0 && m.Month == 0 }
func (m Month) Time() time.Time  { return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC) }
func (m Month) String() string   { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }
func (m Month) Slot() int        { return int(m.Month) - 1 }

// MarshalText lets Month be used directly in JSON and YAML documents.
func (m Month) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// =============================================================================
// TIME UTILITIES
// =============================================================================
// Note: Period type is defined in period.go to avoid duplication

// MonthsBetween returns the whole-month difference to - from. Negative when
// to is before from.
func MonthsBetween(from, to Month) int { return to.index() - from.index() }

func StartOfYear(year int) Month { return Month{Year: year, Month: time.January} }
func EndOfYear(year int) Month   { return Month{Year: year, Month: time.December} }
