/*
Package report exports simulation results as an Excel workbook.

SHEETS:
  Headcount: one row per month, one column per office
  Cohorts:   one row per cohort-month with every movement counter
  Journeys:  one row per month, one column per journey
  Events:    event counts by kind, office, role, level and month
             (only when a summary is given)
*/
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/warp/workforce-engine/generic"
	"github.com/warp/workforce-engine/workforce"
	"github.com/xuri/excelize/v2"
)

const (
	SheetHeadcount = "Headcount"
	SheetCohorts   = "Cohorts"
	SheetJourneys  = "Journeys"
	SheetEvents    = "Events"
)

// CohortColumns is the header row of the Cohorts sheet.
var CohortColumns = []any{
	"Month", "Office", "Role", "Level", "Journey",
	"Opening", "Recruited", "Churned", "Progressed In", "Progressed Out", "Graduated", "Headcount",
	"Recruitment Method", "Recruitment Value", "Churn Method", "Churn Value",
	"Price", "Salary", "Utilization",
}

// Workbook builds the workbook. summary may be nil.
func Workbook(result *workforce.Result, summary *generic.Summary) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := headcountSheet(f, result); err != nil {
		f.Close()
		return nil, err
	}
	if err := cohortSheet(f, result); err != nil {
		f.Close()
		return nil, err
	}
	if err := journeySheet(f, result); err != nil {
		f.Close()
		return nil, err
	}
	if summary != nil {
		if err := eventSheet(f, summary); err != nil {
			f.Close()
			return nil, err
		}
	}

	// NewFile starts with a default sheet we never use.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, err
	}
	if idx, err := f.GetSheetIndex(SheetHeadcount); err == nil {
		f.SetActiveSheet(idx)
	}
	return f, nil
}

// Write streams the workbook to w.
func Write(w io.Writer, result *workforce.Result, summary *generic.Summary) error {
	f, err := Workbook(result, summary)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// Save writes the workbook to path.
func Save(path string, result *workforce.Result, summary *generic.Summary) error {
	f, err := Workbook(result, summary)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// =============================================================================
// SHEETS
// =============================================================================

func headcountSheet(f *excelize.File, result *workforce.Result) error {
	months := sortedKeys(result.Offices)
	offices := sortedKeys(result.Initial)

	rows := [][]any{header("Month", offices)}
	initial := []any{"initial"}
	for _, o := range offices {
		initial = append(initial, result.Initial[o])
	}
	rows = append(rows, initial)
	for _, m := range months {
		row := []any{m}
		for _, o := range offices {
			row = append(row, result.Offices[m][o])
		}
		rows = append(rows, row)
	}
	return writeSheet(f, SheetHeadcount, rows)
}

func cohortSheet(f *excelize.File, result *workforce.Result) error {
	rows := [][]any{CohortColumns}

	years := make([]int, 0, len(result.Years))
	for y := range result.Years {
		years = append(years, y)
	}
	sort.Ints(years)

	for _, y := range years {
		for _, office := range sortedKeys(result.Years[y]) {
			for _, role := range sortedKeys(result.Years[y][office]) {
				for _, level := range sortedKeys(result.Years[y][office][role]) {
					for _, rec := range result.Years[y][office][role][level] {
						rows = append(rows, cohortRow(rec))
					}
				}
			}
		}
	}
	return writeSheet(f, SheetCohorts, rows)
}

func cohortRow(rec workforce.MonthRecord) []any {
	price, _ := rec.Price.Float64()
	salary, _ := rec.Salary.Float64()
	return []any{
		rec.Month.String(), rec.Office, rec.Role, rec.Level, rec.Journey,
		rec.OpeningHeadcount, rec.Recruited, rec.Churned, rec.ProgressedIn, rec.ProgressedOut, rec.Graduated, rec.Headcount,
		string(rec.RecruitmentMethod), optional(rec.RecruitmentValue), string(rec.ChurnMethod), optional(rec.ChurnValue),
		price, salary, rec.Utilization,
	}
}

func journeySheet(f *excelize.File, result *workforce.Result) error {
	seen := map[string]bool{}
	for _, byJourney := range result.Journeys {
		for j := range byJourney {
			seen[j] = true
		}
	}
	journeys := sortedKeys(seen)

	rows := [][]any{header("Month", journeys)}
	for _, m := range sortedKeys(result.Journeys) {
		row := []any{m}
		for _, j := range journeys {
			row = append(row, result.Journeys[m][j])
		}
		rows = append(rows, row)
	}
	return writeSheet(f, SheetJourneys, rows)
}

func eventSheet(f *excelize.File, s *generic.Summary) error {
	rows := [][]any{{"Dimension", "Key", "Events"}, {"total", "", s.Total}}

	for _, k := range generic.EventKinds {
		if n, ok := s.ByKind[k]; ok {
			rows = append(rows, []any{"kind", string(k), n})
		}
	}
	for _, dim := range []struct {
		name   string
		counts map[string]int
	}{
		{"office", s.ByOffice},
		{"role", s.ByRole},
		{"level", s.ByLevel},
		{"month", s.ByMonth},
	} {
		for _, k := range sortedKeys(dim.counts) {
			rows = append(rows, []any{dim.name, k, dim.counts[k]})
		}
	}
	return writeSheet(f, SheetEvents, rows)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeSheet(f *excelize.File, name string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(name, cell, &r); err != nil {
			return fmt.Errorf("write %s row %d: %w", name, i+1, err)
		}
	}
	return nil
}

func header(first string, rest []string) []any {
	row := make([]any, 0, len(rest)+1)
	row = append(row, first)
	for _, r := range rest {
		row = append(row, r)
	}
	return row
}

func optional(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
