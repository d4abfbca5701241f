/*
Package factory converts simulation documents (YAML or JSON) into the
workforce model.

PURPOSE:
  The engine consumes typed offices, cohorts and CAT curves. Planners write
  documents. The factory is the bridge: it validates the document, merges
  per-month settings, resolves progression rules and builds fresh offices
  for every run.

DOCUMENT SHAPE (YAML):
  name: baseline
  seed: 42
  start: 2025-01
  end: 2027-12
  cat_curves:
    A:  {CAT0: 0, CAT6: 0.92, CAT12: 0.95}
    AC: {CAT0: 0, CAT6: 0.05, CAT12: 0.55, CAT18: 0.80}
  progression_rules:
    A:  {months: [1, 7], min_tenure: 6,  time_to_reach: 0,  time_on_level: 12, journey: "Journey 1"}
    AC: {months: [1, 7], min_tenure: 12, time_to_reach: 12, time_on_level: 18, journey: "Journey 1"}
  offices:
    - name: Stockholm
      total_fte: 850
      roles:
        - name: Consultant
          levels:
            - name: A
              fte: 60
              defaults: {price: 1200, salary: 45000, utr: 0.85, recruitment_rate: 0.03, churn_rate: 0.015}
              months:
                1: {recruitment_abs: 5}
        - name: Operations
          fte: 40
          defaults: {price: 0, salary: 38000, utr: 0, churn_rate: 0.01}
  overrides:
    - {path: Stockholm.Consultant.A.churn_rate.7, value: 0.03}

RECOVERY POLICY:
  Structural problems (no offices, bad dates, negative FTE) fail the parse.
  Field-level problems (missing price, unknown month key, malformed override
  path, unknown CAT label, progression month outside 1..12) are logged as
  warnings and replaced by a safe default. NaN and infinite numbers are
  treated as unset. Starting FTE and absolute movements above
  workforce.MaxHeadcount are clamped with a warning. A legacy progression_rate without cat_curves fails with
  generic.ErrProgressionConfigRequired.

SEE ALSO:
  - workforce/cohort.go: Plan, Movement, ProgressionRule
  - workforce/catcurve.go: CATTable
*/
package factory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/warp/workforce-engine/generic"
	"github.com/warp/workforce-engine/workforce"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// SimulationJSON is the document representation of a simulation.
type SimulationJSON struct {
	Name             string                        `json:"name" yaml:"name"`
	Seed             int64                         `json:"seed" yaml:"seed"`
	Start            string                        `json:"start" yaml:"start" validate:"required"`
	End              string                        `json:"end" yaml:"end" validate:"required"`
	CATCurves        map[string]map[string]float64 `json:"cat_curves,omitempty" yaml:"cat_curves,omitempty"`
	ProgressionRules map[string]ProgressionJSON    `json:"progression_rules,omitempty" yaml:"progression_rules,omitempty" validate:"dive"`
	ProgressionRate  *float64                      `json:"progression_rate,omitempty" yaml:"progression_rate,omitempty"` // legacy
	Offices          []OfficeJSON                  `json:"offices" yaml:"offices" validate:"required,min=1,dive"`
	Overrides        []OverrideJSON                `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// OfficeJSON represents one office.
type OfficeJSON struct {
	Name     string     `json:"name" yaml:"name" validate:"required"`
	TotalFTE int        `json:"total_fte" yaml:"total_fte" validate:"gte=0"`
	Roles    []RoleJSON `json:"roles" yaml:"roles" validate:"dive"`
}

// RoleJSON is a leveled role (Levels set) or a flat role (cohort fields set).
type RoleJSON struct {
	Name       string      `json:"name" yaml:"name" validate:"required"`
	LevelOrder []string    `json:"level_order,omitempty" yaml:"level_order,omitempty"`
	Levels     []LevelJSON `json:"levels,omitempty" yaml:"levels,omitempty" validate:"dive"`
	CohortJSON `yaml:",inline"`
}

// LevelJSON is one level of a leveled role.
type LevelJSON struct {
	Name        string           `json:"name" yaml:"name" validate:"required"`
	Progression *ProgressionJSON `json:"progression,omitempty" yaml:"progression,omitempty"`
	CohortJSON  `yaml:",inline"`
}

// CohortJSON carries starting headcount and the monthly plan.
type CohortJSON struct {
	FTE             int               `json:"fte" yaml:"fte" validate:"gte=0"`
	Defaults        *MonthJSON        `json:"defaults,omitempty" yaml:"defaults,omitempty"`
	Months          map[int]MonthJSON `json:"months,omitempty" yaml:"months,omitempty"`
	ProgressionRate *float64          `json:"progression_rate,omitempty" yaml:"progression_rate,omitempty"` // legacy
}

// MonthJSON holds the settings of one calendar month. Every field is
// optional so per-month entries only override what they set.
type MonthJSON struct {
	Price           *float64 `json:"price,omitempty" yaml:"price,omitempty"`
	Salary          *float64 `json:"salary,omitempty" yaml:"salary,omitempty"`
	Utilization     *float64 `json:"utr,omitempty" yaml:"utr,omitempty"`
	RecruitmentRate *float64 `json:"recruitment_rate,omitempty" yaml:"recruitment_rate,omitempty"`
	RecruitmentAbs  *float64 `json:"recruitment_abs,omitempty" yaml:"recruitment_abs,omitempty"`
	ChurnRate       *float64 `json:"churn_rate,omitempty" yaml:"churn_rate,omitempty"`
	ChurnAbs        *float64 `json:"churn_abs,omitempty" yaml:"churn_abs,omitempty"`
}

// ProgressionJSON is a progression rule for a level.
type ProgressionJSON struct {
	Months      []int  `json:"months" yaml:"months"`
	MinTenure   int    `json:"min_tenure" yaml:"min_tenure" validate:"gte=0"`
	TimeToReach int    `json:"time_to_reach" yaml:"time_to_reach" validate:"gte=0"`
	TimeOnLevel int    `json:"time_on_level" yaml:"time_on_level" validate:"gte=0"`
	Journey     string `json:"journey,omitempty" yaml:"journey,omitempty"`
}

// OverrideJSON sets one field of one cohort-month:
// "office.role.level.field.month" or "office.role.field.month" for flat roles.
// The fte field takes no month.
type OverrideJSON struct {
	Path  string  `json:"path" yaml:"path"`
	Value float64 `json:"value" yaml:"value"`
}

// =============================================================================
// SIMULATION - The factory's output
// =============================================================================

// Simulation is a parsed document, ready to run.
type Simulation struct {
	Name    string
	Seed    int64
	Period  generic.Period
	Curves  workforce.CATTable
	Offices []*workforce.Office

	// Warnings lists every field-level problem that was recovered from.
	Warnings []string
}

// Format is the document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension (YAML unless ".json").
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// =============================================================================
// CONFIG FACTORY
// =============================================================================

// ConfigFactory converts documents to simulations.
type ConfigFactory struct {
	Logger   logrus.FieldLogger
	validate *validator.Validate
}

// NewConfigFactory creates a factory. A nil logger discards warnings (they
// are still returned in Simulation.Warnings).
func NewConfigFactory(logger logrus.FieldLogger) *ConfigFactory {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &ConfigFactory{Logger: logger, validate: validator.New()}
}

// ParseFile reads and parses a YAML or JSON document.
func (f *ConfigFactory) ParseFile(path string) (*Simulation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read simulation config: %w", err)
	}
	return f.Parse(data, FormatFor(path))
}

// Parse decodes a document and converts it.
func (f *ConfigFactory) Parse(data []byte, format Format) (*Simulation, error) {
	sj, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	return f.FromJSON(*sj)
}

// Decode only decodes the document, without validation or conversion.
func Decode(data []byte, format Format) (*SimulationJSON, error) {
	var sj SimulationJSON
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&sj); err != nil {
			return nil, &generic.ConfigError{Key: "document", Message: "failed to parse JSON", Err: errors.Join(generic.ErrInvalidConfig, err)}
		}
	default:
		if err := yaml.Unmarshal(data, &sj); err != nil {
			return nil, &generic.ConfigError{Key: "document", Message: "failed to parse YAML", Err: errors.Join(generic.ErrInvalidConfig, err)}
		}
	}
	return &sj, nil
}

// FromJSON validates the document and builds fresh offices from it.
func (f *ConfigFactory) FromJSON(sj SimulationJSON) (*Simulation, error) {
	if err := f.validate.Struct(sj); err != nil {
		return nil, validationError(err)
	}

	start, err := generic.ParseMonth(sj.Start)
	if err != nil {
		return nil, &generic.ConfigError{Key: "start", Message: err.Error()}
	}
	end, err := generic.ParseMonth(sj.End)
	if err != nil {
		return nil, &generic.ConfigError{Key: "end", Message: err.Error()}
	}
	period, err := generic.NewPeriod(start, end)
	if err != nil {
		return nil, &generic.ConfigError{Key: "end", Message: "end before start", Err: err}
	}

	b := &builder{factory: f}

	if err := b.checkLegacy(sj); err != nil {
		return nil, err
	}

	sim := &Simulation{
		Name:   sj.Name,
		Seed:   sj.Seed,
		Period: period,
		Curves: b.curves(sj.CATCurves),
	}

	for _, oj := range sj.Offices {
		sim.Offices = append(sim.Offices, b.office(oj, sj.ProgressionRules))
	}

	for _, o := range sj.Overrides {
		b.applyOverride(sim.Offices, o)
	}

	sim.Warnings = b.warnings
	return sim, nil
}

// =============================================================================
// BUILDER
// =============================================================================

type builder struct {
	factory  *ConfigFactory
	warnings []string
}

func (b *builder) warn(key, msg string) {
	b.warnings = append(b.warnings, key+": "+msg)
	b.factory.Logger.WithField("key", key).Warn(msg)
}

func (b *builder) checkLegacy(sj SimulationJSON) error {
	legacy := sj.ProgressionRate != nil
	for _, o := range sj.Offices {
		for _, r := range o.Roles {
			for _, l := range r.Levels {
				if l.ProgressionRate != nil {
					legacy = true
				}
			}
		}
	}
	if !legacy {
		return nil
	}
	if len(sj.CATCurves) == 0 {
		return &generic.ConfigError{
			Key:     "progression_rate",
			Message: "percentage progression is no longer supported, provide cat_curves",
			Err:     generic.ErrProgressionConfigRequired,
		}
	}
	b.warn("progression_rate", "ignored, cat_curves take precedence")
	return nil
}

func (b *builder) curves(in map[string]map[string]float64) workforce.CATTable {
	table := make(workforce.CATTable, len(in))
	for level, labels := range in {
		curve := make(workforce.CATCurve, len(labels))
		for label, p := range labels {
			bucket, err := workforce.ParseBucketLabel(label)
			if err != nil {
				b.warn("cat_curves."+level+"."+label, "unknown bucket label, skipped")
				continue
			}
			if math.IsNaN(p) {
				b.warn("cat_curves."+level+"."+label, "probability is not a number, using 0")
				p = 0
			}
			if p < 0 || p > 1 {
				b.warn("cat_curves."+level+"."+label, fmt.Sprintf("probability %v outside [0,1], clamped", p))
			}
			curve[bucket] = p
		}
		table[level] = curve
	}
	return table
}

func (b *builder) office(oj OfficeJSON, rules map[string]ProgressionJSON) *workforce.Office {
	office := workforce.NewOffice(oj.Name, oj.TotalFTE)
	for _, rj := range oj.Roles {
		role := &workforce.Role{Name: rj.Name, Order: rj.LevelOrder}
		key := oj.Name + "." + rj.Name

		if len(rj.Levels) == 0 {
			role.Flat = b.cohort(key, oj.Name, rj.Name, "", rj.CohortJSON)
			office.AddRole(role)
			continue
		}

		for _, lj := range rj.Levels {
			lkey := key + "." + lj.Name
			c := b.cohort(lkey, oj.Name, rj.Name, lj.Name, lj.CohortJSON)
			c.Progression = b.rule(lkey, lj, rules)
			role.Levels = append(role.Levels, c)
		}
		office.AddRole(role)
	}
	return office
}

func (b *builder) rule(key string, lj LevelJSON, rules map[string]ProgressionJSON) *workforce.ProgressionRule {
	pj := lj.Progression
	if pj == nil {
		if r, ok := rules[lj.Name]; ok {
			pj = &r
		}
	}
	if pj == nil {
		b.warn(key+".progression", "no progression rule, level will not promote")
		return nil
	}

	rule := &workforce.ProgressionRule{
		MinTenure:   pj.MinTenure,
		TimeToReach: pj.TimeToReach,
		TimeOnLevel: pj.TimeOnLevel,
		Journey:     pj.Journey,
	}
	for _, m := range pj.Months {
		if m < 1 || m > 12 {
			b.warn(key+".progression.months", fmt.Sprintf("month %d out of range, skipped", m))
			continue
		}
		rule.Months = append(rule.Months, time.Month(m))
	}
	return rule
}

func (b *builder) cohort(key, office, role, level string, cj CohortJSON) *workforce.Cohort {
	c := &workforce.Cohort{
		Office:            office,
		Role:              role,
		Level:             level,
		StartingHeadcount: cj.FTE,
	}
	if cj.FTE > workforce.MaxHeadcount {
		b.warn(key+".fte", fmt.Sprintf("above %d, clamped", workforce.MaxHeadcount))
		c.StartingHeadcount = workforce.MaxHeadcount
	}

	months := make([]int, 0, len(cj.Months))
	for m := range cj.Months {
		months = append(months, m)
	}
	sort.Ints(months)
	for _, m := range months {
		if m < 1 || m > 12 {
			b.warn(fmt.Sprintf("%s.months.%d", key, m), "unknown month, skipped")
		}
	}

	for m := 1; m <= 12; m++ {
		merged := merge(cj.Defaults, cj.Months[m])
		slot := c.Plan.For(time.Month(m))
		mkey := fmt.Sprintf("%s.%d", key, m)

		slot.Price = b.required(mkey+".price", merged.Price)
		slot.Salary = b.required(mkey+".salary", merged.Salary)
		if utr := b.finite(mkey+".utr", merged.Utilization); utr == nil {
			b.warn(mkey+".utr", "missing, using 0")
		} else {
			slot.Utilization = *utr
		}
		slot.Recruitment = workforce.Movement{
			Rate:     b.finite(mkey+".recruitment_rate", merged.RecruitmentRate),
			Absolute: b.absolute(mkey+".recruitment_abs", merged.RecruitmentAbs),
		}
		slot.Churn = workforce.Movement{
			Rate:     b.finite(mkey+".churn_rate", merged.ChurnRate),
			Absolute: b.absolute(mkey+".churn_abs", merged.ChurnAbs),
		}
	}
	return c
}

func (b *builder) required(key string, v *float64) decimal.Decimal {
	if v == nil {
		b.warn(key, "missing, using 0")
		return decimal.Zero
	}
	if isNonFinite(*v) {
		b.warn(key, "not a finite number, using 0")
		return decimal.Zero
	}
	return decimal.NewFromFloat(*v)
}

// finite drops NaN and infinite values. YAML accepts .nan and .inf.
func (b *builder) finite(key string, v *float64) *float64 {
	if v != nil && isNonFinite(*v) {
		b.warn(key, "not a finite number, ignored")
		return nil
	}
	return v
}

// absolute is finite plus the MaxHeadcount ceiling.
func (b *builder) absolute(key string, v *float64) *float64 {
	v = b.finite(key, v)
	if v != nil && *v > workforce.MaxHeadcount {
		b.warn(key, fmt.Sprintf("above %d, clamped", workforce.MaxHeadcount))
		return generic.Float(workforce.MaxHeadcount)
	}
	return v
}

func isNonFinite(f float64) bool { return math.IsNaN(f) || math.IsInf(f, 0) }

// merge overlays month settings on defaults, field by field.
func merge(defaults *MonthJSON, month MonthJSON) MonthJSON {
	var out MonthJSON
	if defaults != nil {
		out = *defaults
	}
	pick := func(dst **float64, src *float64) {
		if src != nil {
			v := *src
			*dst = &v
		}
	}
	pick(&out.Price, month.Price)
	pick(&out.Salary, month.Salary)
	pick(&out.Utilization, month.Utilization)
	pick(&out.RecruitmentRate, month.RecruitmentRate)
	pick(&out.RecruitmentAbs, month.RecruitmentAbs)
	pick(&out.ChurnRate, month.ChurnRate)
	pick(&out.ChurnAbs, month.ChurnAbs)
	return out
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &generic.ConfigError{
			Key:     fe.Namespace(),
			Message: fmt.Sprintf("failed %q validation", fe.Tag()),
		}
	}
	return &generic.ConfigError{Key: "document", Message: err.Error()}
}

// =============================================================================
// LEVER OVERRIDES
// =============================================================================

// overrideFields are the cohort fields an override path may name.
var overrideFields = map[string]bool{
	"price": true, "salary": true, "utr": true,
	"recruitment_rate": true, "recruitment_abs": true,
	"churn_rate": true, "churn_abs": true,
	"fte": true,
}

// applyOverride sets one field of one cohort. A path without a month applies
// to all twelve months. Malformed paths and unknown targets are warnings.
func (b *builder) applyOverride(offices []*workforce.Office, o OverrideJSON) {
	key := "overrides." + o.Path
	parts := strings.Split(o.Path, ".")
	if len(parts) < 3 {
		b.warn(key, "malformed override path, skipped")
		return
	}

	officeName, roleName := parts[0], parts[1]
	level, rest := "", parts[2:]
	if !overrideFields[rest[0]] {
		level, rest = rest[0], rest[1:]
	}
	if len(rest) == 0 || len(rest) > 2 || !overrideFields[rest[0]] {
		b.warn(key, "malformed override path, skipped")
		return
	}
	field := rest[0]

	months := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	if len(rest) == 2 {
		m, err := strconv.Atoi(rest[1])
		if err != nil || m < 1 || m > 12 || field == "fte" {
			b.warn(key, "malformed override month, skipped")
			return
		}
		months = []int{m}
	}
	if isNonFinite(o.Value) {
		b.warn(key, "override value is not a finite number, skipped")
		return
	}
	if o.Value < 0 {
		b.warn(key, "negative override value, skipped")
		return
	}

	c := findCohort(offices, officeName, roleName, level)
	if c == nil {
		b.warn(key, "override target not found, skipped")
		return
	}

	value := o.Value
	if (field == "fte" || field == "recruitment_abs" || field == "churn_abs") && value > workforce.MaxHeadcount {
		b.warn(key, fmt.Sprintf("above %d, clamped", workforce.MaxHeadcount))
		value = workforce.MaxHeadcount
	}
	if field == "fte" {
		c.StartingHeadcount = int(math.Round(value))
		return
	}
	for _, m := range months {
		slot := c.Plan.For(time.Month(m))
		v := value
		switch field {
		case "price":
			slot.Price = decimal.NewFromFloat(v)
		case "salary":
			slot.Salary = decimal.NewFromFloat(v)
		case "utr":
			slot.Utilization = v
		case "recruitment_rate":
			slot.Recruitment.Rate = &v
		case "recruitment_abs":
			slot.Recruitment.Absolute = &v
		case "churn_rate":
			slot.Churn.Rate = &v
		case "churn_abs":
			slot.Churn.Absolute = &v
		}
	}
}

func findCohort(offices []*workforce.Office, office, role, level string) *workforce.Cohort {
	for _, o := range offices {
		if o.Name != office {
			continue
		}
		r := o.Role(role)
		if r == nil {
			return nil
		}
		if level == "" {
			return r.Flat
		}
		return r.Level(level)
	}
	return nil
}
