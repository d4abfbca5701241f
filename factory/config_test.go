package factory_test

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/workforce-engine/factory"
	"github.com/warp/workforce-engine/generic"
	"github.com/warp/workforce-engine/workforce"
)

const sampleYAML = `
name: sample
seed: 7
start: 2025-01
end: 2025-12
cat_curves:
  A:  {CAT0: 0, CAT6: 0.9, CAT12: 0.95}
  AC: {CAT0: 0, CAT6: 0.05, CAT12: 0.6, CAT15: 0.7}
progression_rules:
  A:  {months: [1, 7], min_tenure: 6, time_to_reach: 0, time_on_level: 12, journey: Journey 1}
  AC: {months: [1, 7], min_tenure: 12, time_to_reach: 12, time_on_level: 18, journey: Journey 1}
offices:
  - name: Oslo
    total_fte: 45
    roles:
      - name: Consultant
        levels:
          - name: A
            fte: 20
            defaults: {price: 1100, salary: 40000, utr: 0.85, recruitment_rate: 0.05, churn_rate: 0.02}
            months:
              1: {recruitment_abs: 5}
              8: {price: 1200}
          - name: AC
            fte: 15
            progression: {months: [1], min_tenure: 6, time_to_reach: 12, time_on_level: 24}
            defaults: {price: 1300, salary: 48000, utr: 0.8}
      - name: Operations
        fte: 10
        defaults: {price: 0, salary: 35000, utr: 0, churn_abs: 1}
overrides:
  - {path: Oslo.Consultant.A.churn_rate.7, value: 0.1}
  - {path: Oslo.Operations.fte, value: 12}
  - {path: Oslo.Consultant, value: 1}
`

func newFactory() (*factory.ConfigFactory, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return factory.NewConfigFactory(logger), hook
}

func TestParse_YAMLDocument(t *testing.T) {
	// GIVEN: A YAML document with defaults, month overrides and lever overrides
	f, hook := newFactory()

	// WHEN: Parsing
	sim, err := f.Parse([]byte(sampleYAML), factory.FormatYAML)
	require.NoError(t, err)

	// THEN: Run-level settings are converted
	assert.Equal(t, "sample", sim.Name)
	assert.Equal(t, int64(7), sim.Seed)
	assert.Equal(t, generic.MustParseMonth("2025-01"), sim.Period.Start)
	assert.Equal(t, 12, sim.Period.Len())
	assert.InDelta(t, 0.95, sim.Curves["A"][12], 1e-9)

	require.Len(t, sim.Offices, 1)
	oslo := sim.Offices[0]
	assert.Equal(t, 45, oslo.DeclaredFTE)

	consultant := oslo.Role("Consultant")
	require.NotNil(t, consultant)
	require.True(t, consultant.IsLeveled())

	a := consultant.Level("A")
	require.NotNil(t, a)
	assert.Equal(t, 20, a.StartingHeadcount)

	// Month 1: absolute recruitment from the month entry, rate from defaults
	jan := a.Plan.For(time.January)
	require.NotNil(t, jan.Recruitment.Absolute)
	assert.InDelta(t, 5, *jan.Recruitment.Absolute, 1e-9)
	require.NotNil(t, jan.Recruitment.Rate)
	assert.InDelta(t, 0.05, *jan.Recruitment.Rate, 1e-9)

	// Month 8 overrides only the price
	aug := a.Plan.For(time.August)
	assert.True(t, aug.Price.Equal(decimal.NewFromInt(1200)))
	assert.True(t, aug.Salary.Equal(decimal.NewFromInt(40000)))
	assert.Nil(t, aug.Recruitment.Absolute)

	// Lever override on July churn
	jul := a.Plan.For(time.July)
	require.NotNil(t, jul.Churn.Rate)
	assert.InDelta(t, 0.1, *jul.Churn.Rate, 1e-9)
	assert.InDelta(t, 0.02, *a.Plan.For(time.June).Churn.Rate, 1e-9)

	// Rules: A from the table, AC from its own progression block
	require.NotNil(t, a.Progression)
	assert.Equal(t, []time.Month{time.January, time.July}, a.Progression.Months)
	assert.Equal(t, "Journey 1", a.Progression.Journey)
	ac := consultant.Level("AC")
	require.NotNil(t, ac.Progression)
	assert.Equal(t, []time.Month{time.January}, ac.Progression.Months)
	assert.Equal(t, 6, ac.Progression.MinTenure)

	// Flat role, with its starting headcount overridden
	ops := oslo.Role("Operations")
	require.NotNil(t, ops)
	require.NotNil(t, ops.Flat)
	assert.Equal(t, 12, ops.Flat.StartingHeadcount)
	assert.Equal(t, "", ops.Flat.Level)
	require.NotNil(t, ops.Flat.Plan.For(time.March).Churn.Absolute)

	// Recovered problems: unknown CAT label and malformed override path
	assert.Len(t, sim.Warnings, 2)
	for _, e := range hook.AllEntries() {
		assert.Equal(t, logrus.WarnLevel, e.Level)
	}
	assert.Len(t, hook.AllEntries(), 2)
}

func TestParse_JSONDocument(t *testing.T) {
	// GIVEN: The baseline preset serialized as JSON
	data, err := json.Marshal(factory.BaselineJSON())
	require.NoError(t, err)

	// WHEN: Parsing it back
	f, _ := newFactory()
	sim, err := f.Parse(data, factory.FormatJSON)
	require.NoError(t, err)

	// THEN: Both offices and every consultant level are present, without warnings
	require.Len(t, sim.Offices, 2)
	consultant := sim.Offices[0].Role("Consultant")
	require.NotNil(t, consultant)
	assert.Len(t, consultant.Levels, len(factory.ConsultantLevels))
	assert.Empty(t, sim.Warnings)
}

func TestParseFile_PicksFormatFromExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sim.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	f, _ := newFactory()
	sim, err := f.ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sample", sim.Name)

	assert.Equal(t, factory.FormatJSON, factory.FormatFor("x.JSON"))
	assert.Equal(t, factory.FormatYAML, factory.FormatFor("x.yaml"))
}

func TestFromJSON_MissingMonthlyFieldsAreWarnings(t *testing.T) {
	tests := []struct {
		name     string
		cohort   factory.CohortJSON
		warnings int
		check    func(t *testing.T, c *workforce.Cohort)
	}{
		{
			// One warning per missing field and month
			name:     "missing price salary utr",
			cohort:   factory.CohortJSON{FTE: 3},
			warnings: 12 * 3,
			check: func(t *testing.T, c *workforce.Cohort) {
				assert.True(t, c.Plan.For(time.May).Price.IsZero())
			},
		},
		{
			// NaN and infinities are unset; huge absolutes are clamped
			name: "non-finite and oversized values",
			cohort: factory.CohortJSON{FTE: 3, Defaults: &factory.MonthJSON{
				Price:          generic.Float(math.NaN()),
				Salary:         generic.Float(1),
				Utilization:    generic.Float(1),
				ChurnRate:      generic.Float(math.Inf(1)),
				RecruitmentAbs: generic.Float(1e12),
			}},
			warnings: 12 * 3,
			check: func(t *testing.T, c *workforce.Cohort) {
				plan := c.Plan.For(time.May)
				assert.True(t, plan.Price.IsZero())
				assert.Nil(t, plan.Churn.Rate)
				assert.Equal(t, 0, plan.Churn.Resolve(3).Count)
				assert.Equal(t, workforce.MaxHeadcount, plan.Recruitment.Resolve(3).Count)
			},
		},
		{
			name: "infinite utilization and rates",
			cohort: factory.CohortJSON{FTE: 3, Defaults: &factory.MonthJSON{
				Price:           generic.Float(1),
				Salary:          generic.Float(1),
				Utilization:     generic.Float(math.Inf(-1)),
				RecruitmentRate: generic.Float(math.NaN()),
				ChurnAbs:        generic.Float(math.Inf(1)),
			}},
			// utr is reported as not finite and then as missing
			warnings: 12 * 4,
			check: func(t *testing.T, c *workforce.Cohort) {
				plan := c.Plan.For(time.January)
				assert.Zero(t, plan.Utilization)
				assert.Nil(t, plan.Recruitment.Rate)
				assert.Nil(t, plan.Churn.Absolute)
			},
		},
		{
			name: "starting headcount above ceiling",
			cohort: factory.CohortJSON{FTE: workforce.MaxHeadcount + 1, Defaults: &factory.MonthJSON{
				Price: generic.Float(1), Salary: generic.Float(1), Utilization: generic.Float(1),
			}},
			warnings: 1,
			check: func(t *testing.T, c *workforce.Cohort) {
				assert.Equal(t, workforce.MaxHeadcount, c.StartingHeadcount)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN: A level with the cohort fields under test and no progression rule
			sj := factory.SimulationJSON{
				Start: "2025-01", End: "2025-03",
				CATCurves: map[string]map[string]float64{"A": {"CAT6": 0.5}},
				Offices: []factory.OfficeJSON{{
					Name: "Oslo",
					Roles: []factory.RoleJSON{{
						Name:   "Consultant",
						Levels: []factory.LevelJSON{{Name: "A", CohortJSON: tt.cohort}},
					}},
				}},
			}

			// WHEN: Building the simulation
			f, hook := newFactory()
			sim, err := f.FromJSON(sj)

			// THEN: Parsing succeeds with safe values and every recovery is
			// logged, plus the missing progression rule
			require.NoError(t, err)
			a := sim.Offices[0].Role("Consultant").Level("A")
			assert.Nil(t, a.Progression)
			assert.Len(t, sim.Warnings, tt.warnings+1)
			assert.Len(t, hook.AllEntries(), tt.warnings+1)
			tt.check(t, a)
		})
	}
}

func TestParse_NonFiniteYAMLStillSimulates(t *testing.T) {
	// GIVEN: A YAML document using .nan and .inf, which JSON cannot express
	doc := `
start: 2025-01
end: 2025-06
cat_curves:
  A: {CAT0: 0, CAT6: .nan}
offices:
  - name: Oslo
    total_fte: 10
    roles:
      - name: Consultant
        levels:
          - name: A
            fte: 10
            progression: {months: [1, 7], min_tenure: 6, time_to_reach: 0, time_on_level: 12}
            defaults: {price: .nan, salary: 100, utr: .inf, churn_rate: .inf, recruitment_abs: -.inf}
`
	f, _ := newFactory()
	sim, err := f.Parse([]byte(doc), factory.FormatYAML)
	require.NoError(t, err)

	// WHEN: Running the parsed simulation
	result, err := (&workforce.Simulator{Curves: sim.Curves, Seed: 1}).Run(context.Background(), workforce.Input{
		Period: sim.Period, Offices: sim.Offices,
	})

	// THEN: The run completes and nobody joins, leaves or is promoted
	require.NoError(t, err)
	assert.Equal(t, 10, result.Offices["2025-06"]["Oslo"])
	assert.NotEmpty(t, sim.Warnings)
}

func TestFromJSON_ProgressionMonthsOutOfRangeAreSkipped(t *testing.T) {
	// GIVEN: A progression rule with months 0 and 13
	sj := factory.SimulationJSON{
		Start: "2025-01", End: "2025-03",
		CATCurves: map[string]map[string]float64{"A": {"CAT6": 0.5}},
		Offices: []factory.OfficeJSON{{
			Name: "Oslo",
			Roles: []factory.RoleJSON{{
				Name: "Consultant",
				Levels: []factory.LevelJSON{{
					Name:        "A",
					Progression: &factory.ProgressionJSON{Months: []int{0, 1, 13}, MinTenure: 6},
					CohortJSON: factory.CohortJSON{FTE: 3, Defaults: &factory.MonthJSON{
						Price: generic.Float(1), Salary: generic.Float(1), Utilization: generic.Float(1),
					}},
				}},
			}},
		}},
	}

	// WHEN: Building the simulation
	f, hook := newFactory()
	sim, err := f.FromJSON(sj)

	// THEN: The bad months are warned about and dropped, the valid one kept
	require.NoError(t, err)
	rule := sim.Offices[0].Role("Consultant").Level("A").Progression
	require.NotNil(t, rule)
	assert.Equal(t, []time.Month{time.January}, rule.Months)
	assert.Len(t, sim.Warnings, 2)
	for _, entry := range hook.AllEntries() {
		assert.Equal(t, "Oslo.Consultant.A.progression.months", entry.Data["key"])
	}
}

func TestFromJSON_StructuralErrorsAreFatal(t *testing.T) {
	tests := []struct {
		name string
		sj   factory.SimulationJSON
	}{
		{"no offices", factory.SimulationJSON{Start: "2025-01", End: "2025-12"}},
		{"bad start", factory.SimulationJSON{Start: "January", End: "2025-12", Offices: []factory.OfficeJSON{{Name: "Oslo"}}}},
		{"end before start", factory.SimulationJSON{Start: "2025-06", End: "2025-01", Offices: []factory.OfficeJSON{{Name: "Oslo"}}}},
		{"negative fte", factory.SimulationJSON{Start: "2025-01", End: "2025-12", Offices: []factory.OfficeJSON{{Name: "Oslo", TotalFTE: -1}}}},
		{"unnamed office", factory.SimulationJSON{Start: "2025-01", End: "2025-12", Offices: []factory.OfficeJSON{{}}}},
	}

	f, _ := newFactory()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.FromJSON(tt.sj)
			require.Error(t, err)

			var cfgErr *generic.ConfigError
			assert.ErrorAs(t, err, &cfgErr)
			assert.True(t, generic.IsClientError(err))
		})
	}
}

func TestFromJSON_LegacyProgressionRate(t *testing.T) {
	rate := 0.1
	base := factory.SimulationJSON{
		Start: "2025-01", End: "2025-12",
		ProgressionRate: &rate,
		Offices:         []factory.OfficeJSON{{Name: "Oslo"}},
	}
	f, _ := newFactory()

	t.Run("without CAT curves is fatal", func(t *testing.T) {
		_, err := f.FromJSON(base)
		assert.ErrorIs(t, err, generic.ErrProgressionConfigRequired)
	})

	t.Run("with CAT curves is ignored", func(t *testing.T) {
		sj := base
		sj.CATCurves = factory.ConsultancyCATCurves()
		sim, err := f.FromJSON(sj)
		require.NoError(t, err)
		assert.Len(t, sim.Warnings, 1)
	})

	t.Run("per-level rate is detected", func(t *testing.T) {
		sj := factory.SimulationJSON{
			Start: "2025-01", End: "2025-12",
			Offices: []factory.OfficeJSON{{Name: "Oslo", Roles: []factory.RoleJSON{{
				Name:   "Consultant",
				Levels: []factory.LevelJSON{{Name: "A", CohortJSON: factory.CohortJSON{ProgressionRate: &rate}}},
			}}}},
		}
		_, err := f.FromJSON(sj)
		assert.ErrorIs(t, err, generic.ErrProgressionConfigRequired)
	})
}

func TestOverrides_MalformedPathsWarn(t *testing.T) {
	paths := []string{
		"Oslo",                           // too short
		"Oslo.Consultant.A.bonus.1",      // unknown field
		"Oslo.Consultant.A.price.13",     // bad month
		"Oslo.Consultant.A.fte.1",        // fte takes no month
		"Bergen.Consultant.A.price.1",    // unknown office
		"Oslo.Consultant.Z.price.1",      // unknown level
		"Oslo.Consultant.A.price.1.2017", // trailing segment
	}

	sj := factory.BaselineJSON()
	sj.Offices = sj.Offices[:1]
	sj.Offices[0].Name = "Oslo"
	for _, p := range paths {
		sj.Overrides = append(sj.Overrides, factory.OverrideJSON{Path: p, Value: 1})
	}

	f, _ := newFactory()
	sim, err := f.FromJSON(sj)
	require.NoError(t, err)
	assert.Len(t, sim.Warnings, len(paths))
}

func TestOverrides_WithoutMonthApplyToAllMonths(t *testing.T) {
	sj := factory.BaselineJSON()
	sj.Overrides = []factory.OverrideJSON{{Path: "Stockholm.Consultant.C.recruitment_abs", Value: 3}}

	f, _ := newFactory()
	sim, err := f.FromJSON(sj)
	require.NoError(t, err)

	c := sim.Offices[0].Role("Consultant").Level("C")
	for m := time.January; m <= time.December; m++ {
		mv := c.Plan.For(m).Recruitment
		require.NotNil(t, mv.Absolute, m.String())
		assert.Equal(t, 3, mv.Resolve(100).Count)
	}
}

func TestOverrides_NonFiniteSkippedAndHugeClamped(t *testing.T) {
	// GIVEN: Overrides with NaN, infinite and oversized values
	sj := factory.BaselineJSON()
	sj.Overrides = []factory.OverrideJSON{
		{Path: "Stockholm.Consultant.C.price.1", Value: math.NaN()},
		{Path: "Stockholm.Consultant.C.churn_rate", Value: math.Inf(1)},
		{Path: "Stockholm.Consultant.C.recruitment_abs.2", Value: 1e15},
		{Path: "Stockholm.Consultant.C.fte", Value: 1e15},
	}
	f, _ := newFactory()
	base, err := f.FromJSON(factory.BaselineJSON())
	require.NoError(t, err)

	// WHEN: Building the simulation
	sim, err := f.FromJSON(sj)
	require.NoError(t, err)

	// THEN: Non-finite overrides leave the baseline untouched and the rest
	// are clamped, each with a warning
	c := sim.Offices[0].Role("Consultant").Level("C")
	want := base.Offices[0].Role("Consultant").Level("C")
	assert.True(t, want.Plan.For(time.January).Price.Equal(c.Plan.For(time.January).Price))
	assert.Equal(t, want.Plan.For(time.June).Churn.Rate, c.Plan.For(time.June).Churn.Rate)
	assert.Equal(t, workforce.MaxHeadcount, c.Plan.For(time.February).Recruitment.Resolve(0).Count)
	assert.Equal(t, workforce.MaxHeadcount, c.StartingHeadcount)
	assert.Len(t, sim.Warnings, len(base.Warnings)+4)
}

func TestPresets_AllParse(t *testing.T) {
	f, _ := newFactory()
	for _, p := range factory.Presets {
		t.Run(p.ID, func(t *testing.T) {
			sim, err := f.FromJSON(p.Document())
			require.NoError(t, err)
			assert.NotEmpty(t, sim.Offices)
			assert.Empty(t, sim.Warnings)

			var total int
			for _, o := range sim.Offices {
				for _, c := range o.Cohorts() {
					total += c.StartingHeadcount
				}
			}
			assert.Positive(t, total)
		})
	}

	_, ok := factory.PresetByID("missing")
	assert.False(t, ok)
}

func TestFromJSON_BuildsFreshOfficesEachTime(t *testing.T) {
	f, _ := newFactory()
	sj := factory.BaselineJSON()

	first, err := f.FromJSON(sj)
	require.NoError(t, err)
	second, err := f.FromJSON(sj)
	require.NoError(t, err)

	first.Offices[0].Role("Consultant").Level("A").Add(workforce.Person{ID: "p-1"})
	assert.Equal(t, 0, second.Offices[0].Role("Consultant").Level("A").Headcount())
}
