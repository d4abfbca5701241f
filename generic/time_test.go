package generic_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/workforce-engine/generic"
)

// =============================================================================
// MONTH
// =============================================================================

func TestParseMonth(t *testing.T) {
	m, err := generic.ParseMonth("2025-07")
	require.NoError(t, err)
	assert.Equal(t, generic.NewMonth(2025, time.July), m)

	m, err = generic.ParseMonth("2025-07-19")
	require.NoError(t, err)
	assert.Equal(t, "2025-07", m.String())

	for _, bad := range []string{"", "2025", "2025-13", "July 2025"} {
		_, err := generic.ParseMonth(bad)
		assert.Error(t, err, bad)
	}
}

func TestMonthArithmetic(t *testing.T) {
	// Calendar-month subtraction across year boundaries
	tests := []struct {
		from, to string
		months   int
	}{
		{"2025-01", "2025-01", 0},
		{"2024-08", "2025-01", 5},
		{"2023-08", "2025-01", 17},
		{"2025-07", "2025-01", -6},
	}
	for _, tt := range tests {
		from, to := generic.MustParseMonth(tt.from), generic.MustParseMonth(tt.to)
		assert.Equal(t, tt.months, generic.MonthsBetween(from, to), "%s -> %s", tt.from, tt.to)
		assert.Equal(t, to, from.AddMonths(tt.months))
	}

	jan := generic.MustParseMonth("2025-01")
	assert.Equal(t, "2024-12", jan.AddMonths(-1).String())
	assert.Equal(t, "2023-01", jan.AddMonths(-24).String())
	assert.Equal(t, "2026-03", jan.AddMonths(14).String())
	assert.True(t, jan.Before(jan.AddMonths(1)))
	assert.Equal(t, generic.NewMonth(2025, time.January), generic.NewMonth(2024, 13))
}

func TestMonthJSON(t *testing.T) {
	var v struct {
		At generic.Month `json:"at"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"at":"2026-02"}`), &v))
	assert.Equal(t, generic.NewMonth(2026, time.February), v.At)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"2026-02"}`, string(out))
}

// =============================================================================
// PERIOD
// =============================================================================

func TestPeriod(t *testing.T) {
	p, err := generic.NewPeriod(generic.MustParseMonth("2025-11"), generic.MustParseMonth("2027-02"))
	require.NoError(t, err)

	assert.Equal(t, 16, p.Len())
	months := p.Months()
	require.Len(t, months, 16)
	assert.Equal(t, "2025-11", months[0].String())
	assert.Equal(t, "2026-01", months[2].String())
	assert.Equal(t, "2027-02", months[15].String())
	assert.Equal(t, []int{2025, 2026, 2027}, p.Years())
	assert.True(t, p.Contains(generic.MustParseMonth("2026-06")))
	assert.False(t, p.Contains(generic.MustParseMonth("2025-10")))

	single, err := generic.NewPeriod(p.Start, p.Start)
	require.NoError(t, err)
	assert.Equal(t, 1, single.Len())

	_, err = generic.NewPeriod(p.End, p.Start)
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)
	assert.True(t, generic.IsClientError(err))
}
