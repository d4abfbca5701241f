package workforce_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/workforce-engine/generic"
	"github.com/warp/workforce-engine/workforce"
)

func TestPopulate_LeveledTenures(t *testing.T) {
	// GIVEN: A level reached after 24 months, held for 18, promoting in Jan and Jul
	c := &workforce.Cohort{
		Office: "Oslo", Role: "Consultant", Level: "C",
		Progression: &workforce.ProgressionRule{
			Months: []time.Month{time.January, time.July}, MinTenure: 12, TimeToReach: 24, TimeOnLevel: 18,
		},
	}
	rec := &recorder{}
	in := &workforce.Initializer{Recorder: rec, Rand: rng(9)}
	start := month("2025-01")

	// WHEN: Creating 300 people
	created, err := in.Populate(context.Background(), c, 300, start)
	require.NoError(t, err)

	// THEN: Tenures are within the level's range and level entries fall in
	// progression months
	require.Len(t, created, 300)
	assert.Equal(t, 300, c.Headcount())
	for _, p := range created {
		career := p.CareerTenure(start)
		level := p.LevelTenure(start)
		assert.GreaterOrEqual(t, career, 24)
		assert.LessOrEqual(t, career, 42)
		assert.LessOrEqual(t, level, career-24)
		assert.False(t, p.LevelStart.Before(p.CareerStart))
		assert.Contains(t, []time.Month{time.January, time.July}, p.LevelStart.Month)
	}

	// AND: Every person is logged as an initial recruitment without a value
	require.Len(t, rec.events, 300)
	for _, ev := range rec.events {
		assert.Equal(t, generic.EventRecruitment, ev.Kind)
		assert.Equal(t, generic.MethodInitial, ev.Method)
		assert.Nil(t, ev.Value)
		assert.Equal(t, start, ev.Month)
	}
}

func TestPopulate_EntryLevelMayBeHiredDirectly(t *testing.T) {
	c := &workforce.Cohort{
		Office: "Oslo", Role: "Consultant", Level: "A",
		Progression: &workforce.ProgressionRule{Months: []time.Month{time.January}, TimeToReach: 0, TimeOnLevel: 12},
	}
	in := &workforce.Initializer{Rand: rng(3)}
	start := month("2025-03")

	created, err := in.Populate(context.Background(), c, 200, start)
	require.NoError(t, err)

	for _, p := range created {
		level := p.LevelTenure(start)
		assert.LessOrEqual(t, p.CareerTenure(start), 12)
		if level != p.CareerTenure(start) {
			assert.Equal(t, time.January, p.LevelStart.Month)
		}
	}
}

func TestPopulate_FlatTenure(t *testing.T) {
	flat := &workforce.Cohort{Office: "Oslo", Role: "Operations"}
	in := &workforce.Initializer{Rand: rng(5)}
	start := month("2025-01")

	created, err := in.Populate(context.Background(), flat, 100, start)
	require.NoError(t, err)

	for _, p := range created {
		tenure := p.CareerTenure(start)
		assert.GreaterOrEqual(t, tenure, workforce.DefaultFlatTenure.Min)
		assert.LessOrEqual(t, tenure, workforce.DefaultFlatTenure.Max)
		assert.Equal(t, tenure, p.LevelTenure(start))
	}

	in.FlatTenure = workforce.TenureRange{Min: 2, Max: 2}
	created, err = in.Populate(context.Background(), flat, 3, start)
	require.NoError(t, err)
	for _, p := range created {
		assert.Equal(t, 2, p.CareerTenure(start))
	}
}

func TestPopulate_TenureIsCalendarMonths(t *testing.T) {
	// GIVEN: A flat tenure of exactly ten years
	flat := &workforce.Cohort{Office: "Oslo", Role: "Operations"}
	in := &workforce.Initializer{Rand: rng(3), FlatTenure: workforce.TenureRange{Min: 120, Max: 120}}

	// WHEN: Populating in March 2025
	created, err := in.Populate(context.Background(), flat, 1, month("2025-03"))
	require.NoError(t, err)

	// THEN: The career started in March 2015; 120 thirty-day months would land in May
	require.Len(t, created, 1)
	assert.Equal(t, month("2015-03"), created[0].CareerStart)
	assert.Equal(t, month("2015-03"), created[0].LevelStart)
}

func TestPopulate_ZeroTarget(t *testing.T) {
	c := &workforce.Cohort{Office: "Oslo", Role: "Operations"}
	created, err := (&workforce.Initializer{Rand: rng(1)}).Populate(context.Background(), c, 0, month("2025-01"))
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Zero(t, c.Headcount())
}
