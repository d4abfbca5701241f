package report_test

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/workforce-engine/generic"
	"github.com/warp/workforce-engine/report"
	"github.com/warp/workforce-engine/workforce"
	"github.com/xuri/excelize/v2"
)

func sampleResult() *workforce.Result {
	jan := generic.MustParseMonth("2025-01")
	rec := workforce.MonthRecord{
		Month: jan, Office: "Oslo", Role: "Consultant", Level: "A", Journey: "Journey 1",
		OpeningHeadcount: 10, Recruited: 2, Churned: 1, Headcount: 11,
		RecruitmentMethod: generic.MethodAbsolute, RecruitmentValue: generic.Float(2),
		ChurnMethod: generic.MethodRate, ChurnValue: generic.Float(0.1),
		Price: decimal.NewFromInt(1200), Salary: decimal.NewFromInt(45000), Utilization: 0.85,
	}
	return &workforce.Result{
		Start: jan, End: jan,
		Years: map[int]map[string]map[string]map[string][]workforce.MonthRecord{
			2025: {"Oslo": {"Consultant": {"A": {rec}}}},
		},
		Offices:  map[string]map[string]int{"2025-01": {"Oslo": 11}},
		Journeys: map[string]map[string]int{"2025-01": {"Journey 1": 11}},
		Initial:  map[string]int{"Oslo": 10},
	}
}

func TestWrite_ProducesAllSheets(t *testing.T) {
	// GIVEN: A one-month result and an event summary
	summary := generic.Summarize([]generic.Event{
		{Kind: generic.EventChurn, Month: generic.MustParseMonth("2025-01"), Office: "Oslo", Role: "Consultant", Level: "A"},
	})

	// WHEN: Exporting
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, sampleResult(), summary))

	// THEN: The workbook reads back with the expected sheets and rows
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t,
		[]string{report.SheetHeadcount, report.SheetCohorts, report.SheetJourneys, report.SheetEvents},
		f.GetSheetList())

	headcount, err := f.GetRows(report.SheetHeadcount)
	require.NoError(t, err)
	require.Len(t, headcount, 3)
	assert.Equal(t, []string{"Month", "Oslo"}, headcount[0])
	assert.Equal(t, []string{"initial", "10"}, headcount[1])
	assert.Equal(t, []string{"2025-01", "11"}, headcount[2])

	cohorts, err := f.GetRows(report.SheetCohorts)
	require.NoError(t, err)
	require.Len(t, cohorts, 2)
	assert.Equal(t, "Month", cohorts[0][0])
	assert.Equal(t, []string{"2025-01", "Oslo", "Consultant", "A", "Journey 1"}, cohorts[1][:5])

	events, err := f.GetRows(report.SheetEvents)
	require.NoError(t, err)
	assert.Equal(t, []string{"total", "", "1"}, events[1])
	assert.Equal(t, []string{"kind", "churn", "1"}, events[2])
}

func TestWorkbook_WithoutSummary(t *testing.T) {
	f, err := report.Workbook(sampleResult(), nil)
	require.NoError(t, err)
	defer f.Close()

	assert.NotContains(t, f.GetSheetList(), report.SheetEvents)
	assert.NotContains(t, f.GetSheetList(), "Sheet1")
}
