package factory

// =============================================================================
// PRESETS - Ready-made consultancy documents
// =============================================================================
//
// The presets model a consultancy with a six-level consultant ladder
// (A, AC, C, SrC, AM, M) and a flat Operations role. They are used by the
// demo scenarios and as fixtures.

// Preset is a named, ready-to-run document.
type Preset struct {
	ID          string
	Name        string
	Description string
	Document    func() SimulationJSON
}

// Presets lists the built-in documents in display order.
var Presets = []Preset{
	{
		ID:          "baseline",
		Name:        "Baseline",
		Description: "Two offices, steady recruitment and churn, three years",
		Document:    BaselineJSON,
	},
	{
		ID:          "hiring-freeze",
		Name:        "Hiring Freeze",
		Description: "Baseline over one year with every cohort's recruitment set to zero",
		Document:    HiringFreezeJSON,
	},
	{
		ID:          "high-churn",
		Name:        "High Churn",
		Description: "Baseline with consultant churn doubled",
		Document:    HighChurnJSON,
	},
	{
		ID:          "new-office",
		Name:        "New Office",
		Description: "Baseline plus an office opened from zero with absolute hiring",
		Document:    NewOfficeJSON,
	},
}

// PresetByID returns the preset with id.
func PresetByID(id string) (Preset, bool) {
	for _, p := range Presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// ConsultantLevels is the consultant ladder, lowest first.
var ConsultantLevels = []string{"A", "AC", "C", "SrC", "AM", "M"}

// ConsultancyCATCurves returns promotion probabilities per level and bucket.
func ConsultancyCATCurves() map[string]map[string]float64 {
	return map[string]map[string]float64{
		"A":   {"CAT0": 0, "CAT6": 0.919, "CAT12": 0.85, "CAT18": 0.5, "CAT24": 0.3},
		"AC":  {"CAT0": 0, "CAT6": 0.054, "CAT12": 0.759, "CAT18": 0.4, "CAT24": 0.3, "CAT30": 0.2},
		"C":   {"CAT0": 0, "CAT6": 0.05, "CAT12": 0.442, "CAT18": 0.45, "CAT24": 0.3, "CAT30": 0.2, "CAT36": 0.1},
		"SrC": {"CAT0": 0, "CAT6": 0, "CAT12": 0.1, "CAT18": 0.25, "CAT24": 0.3, "CAT30": 0.2, "CAT36": 0.15},
		"AM":  {"CAT0": 0, "CAT6": 0, "CAT12": 0.05, "CAT18": 0.1, "CAT24": 0.2, "CAT30": 0.2, "CAT36": 0.15, "CAT42": 0.1},
		"M":   {"CAT0": 0},
	}
}

// ConsultancyProgressionRules returns the progression rule of every level.
func ConsultancyProgressionRules() map[string]ProgressionJSON {
	twice := []int{1, 7}
	return map[string]ProgressionJSON{
		"A":   {Months: twice, MinTenure: 6, TimeToReach: 0, TimeOnLevel: 12, Journey: "Journey 1"},
		"AC":  {Months: twice, MinTenure: 12, TimeToReach: 12, TimeOnLevel: 18, Journey: "Journey 1"},
		"C":   {Months: twice, MinTenure: 12, TimeToReach: 30, TimeOnLevel: 24, Journey: "Journey 2"},
		"SrC": {Months: twice, MinTenure: 18, TimeToReach: 54, TimeOnLevel: 30, Journey: "Journey 2"},
		"AM":  {Months: []int{1}, MinTenure: 24, TimeToReach: 84, TimeOnLevel: 42, Journey: "Journey 3"},
		"M":   {Months: []int{1}, MinTenure: 36, TimeToReach: 126, TimeOnLevel: 60, Journey: "Journey 4"},
	}
}

// BaselineJSON is the reference scenario.
func BaselineJSON() SimulationJSON {
	return SimulationJSON{
		Name:             "baseline",
		Seed:             42,
		Start:            "2025-01",
		End:              "2027-12",
		CATCurves:        ConsultancyCATCurves(),
		ProgressionRules: ConsultancyProgressionRules(),
		Offices: []OfficeJSON{
			consultancyOffice("Stockholm", 1.0),
			consultancyOffice("Oslo", 0.25),
		},
	}
}

// HiringFreezeJSON runs the baseline for one year without any recruitment.
func HiringFreezeJSON() SimulationJSON {
	sj := BaselineJSON()
	sj.Name = "hiring-freeze"
	zero := 0.0
	for i := range sj.Offices {
		eachCohort(&sj.Offices[i], func(c *CohortJSON) {
			for m := 1; m <= 12; m++ {
				month := c.Months[m]
				month.RecruitmentAbs = &zero
				c.Months[m] = month
			}
		})
	}
	sj.End = "2025-12"
	return sj
}

// HighChurnJSON doubles every consultant churn rate.
func HighChurnJSON() SimulationJSON {
	sj := BaselineJSON()
	sj.Name = "high-churn"
	for i := range sj.Offices {
		for j := range sj.Offices[i].Roles {
			role := &sj.Offices[i].Roles[j]
			for k := range role.Levels {
				c := &role.Levels[k].CohortJSON
				if c.Defaults != nil && c.Defaults.ChurnRate != nil {
					c.Defaults.ChurnRate = ptr(*c.Defaults.ChurnRate * 2)
				}
				for m, month := range c.Months {
					if month.ChurnRate != nil {
						month.ChurnRate = ptr(*month.ChurnRate * 2)
						c.Months[m] = month
					}
				}
			}
		}
	}
	return sj
}

// NewOfficeJSON adds an office that starts empty and hires a fixed number
// of juniors every month.
func NewOfficeJSON() SimulationJSON {
	sj := BaselineJSON()
	sj.Name = "new-office"

	office := consultancyOffice("Helsinki", 0)
	for j := range office.Roles {
		role := &office.Roles[j]
		for k := range role.Levels {
			if role.Levels[k].Name == "A" {
				hires := 2.0
				role.Levels[k].Defaults.RecruitmentAbs = &hires
			}
		}
	}
	sj.Offices = append(sj.Offices, office)
	return sj
}

// consultancyOffice builds an office whose headcount is scale times the
// Stockholm reference.
func consultancyOffice(name string, scale float64) OfficeJSON {
	type levelPlan struct {
		fte                int
		price, salary, utr float64
		recruitment, churn float64
	}
	plans := map[string]levelPlan{
		"A":   {fte: 60, price: 1150, salary: 42000, utr: 0.85, recruitment: 0.06, churn: 0.015},
		"AC":  {fte: 70, price: 1300, salary: 48000, utr: 0.87, recruitment: 0.01, churn: 0.015},
		"C":   {fte: 55, price: 1450, salary: 56000, utr: 0.85, recruitment: 0.005, churn: 0.012},
		"SrC": {fte: 40, price: 1600, salary: 64000, utr: 0.83, recruitment: 0.003, churn: 0.01},
		"AM":  {fte: 25, price: 1800, salary: 75000, utr: 0.75, recruitment: 0.002, churn: 0.008},
		"M":   {fte: 12, price: 2000, salary: 90000, utr: 0.6, recruitment: 0.002, churn: 0.006},
	}

	consultant := RoleJSON{Name: "Consultant"}
	total := 0
	for _, level := range ConsultantLevels {
		p := plans[level]
		fte := int(float64(p.fte) * scale)
		total += fte
		consultant.Levels = append(consultant.Levels, LevelJSON{
			Name: level,
			CohortJSON: CohortJSON{
				FTE: fte,
				Defaults: &MonthJSON{
					Price:           ptr(p.price),
					Salary:          ptr(p.salary),
					Utilization:     ptr(p.utr),
					RecruitmentRate: ptr(p.recruitment),
					ChurnRate:       ptr(p.churn),
				},
				// Summer hiring peak and year-end attrition.
				Months: map[int]MonthJSON{
					8:  {RecruitmentRate: ptr(p.recruitment * 2)},
					12: {ChurnRate: ptr(p.churn * 1.5)},
				},
			},
		})
	}

	opsFTE := int(30 * scale)
	total += opsFTE
	operations := RoleJSON{
		Name: "Operations",
		CohortJSON: CohortJSON{
			FTE: opsFTE,
			Defaults: &MonthJSON{
				Price:           ptr(0),
				Salary:          ptr(38000),
				Utilization:     ptr(0),
				RecruitmentRate: ptr(0.01),
				ChurnRate:       ptr(0.01),
			},
			Months: map[int]MonthJSON{},
		},
	}

	return OfficeJSON{Name: name, TotalFTE: total, Roles: []RoleJSON{consultant, operations}}
}

func eachCohort(o *OfficeJSON, fn func(c *CohortJSON)) {
	for j := range o.Roles {
		role := &o.Roles[j]
		if len(role.Levels) == 0 {
			if role.Months == nil {
				role.Months = map[int]MonthJSON{}
			}
			fn(&role.CohortJSON)
			continue
		}
		for k := range role.Levels {
			c := &role.Levels[k].CohortJSON
			if c.Months == nil {
				c.Months = map[int]MonthJSON{}
			}
			fn(c)
		}
	}
}

func ptr(v float64) *float64 { return &v }
