/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Domain types
  (generic.Event, generic.Run) carry no JSON tags; the API contract lives
  here so the engine can change without breaking clients.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Runs:      RunDTO, RunResponse
  Events:    EventDTO
  Scenarios: ScenarioDTO, RunScenarioRequest
  Errors:    ErrorResponse

SEE ALSO:
  - handlers.go: Uses these types
  - factory/config.go: SimulationJSON, the request body of POST /api/simulations
*/
package api

import (
	"time"

	"github.com/warp/workforce-engine/generic"
)

// =============================================================================
// RUNS
// =============================================================================

// RunDTO represents a simulation run in API responses.
type RunDTO struct {
	ID         string     `json:"id"`
	Name       string     `json:"name,omitempty"`
	Seed       int64      `json:"seed"`
	Start      string     `json:"start"`
	End        string     `json:"end"`
	Months     int        `json:"months"`
	Offices    int        `json:"offices"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// RunResponse is returned after a simulation has been executed.
type RunResponse struct {
	Run       RunDTO           `json:"run"`
	Summary   *generic.Summary `json:"summary,omitempty"`
	Initial   map[string]int   `json:"initial_headcount,omitempty"`
	Headcount map[string]int   `json:"final_headcount,omitempty"`
	Warnings  []string         `json:"warnings,omitempty"`
}

func toRunDTO(r generic.Run) RunDTO {
	dto := RunDTO{
		ID:        string(r.ID),
		Name:      r.Name,
		Seed:      r.Seed,
		Start:     r.Period.Start.String(),
		End:       r.Period.End.String(),
		Months:    r.Period.Len(),
		Offices:   r.Offices,
		Status:    r.Status,
		Error:     r.Error,
		CreatedAt: r.Created,
	}
	if !r.Finished.IsZero() {
		finished := r.Finished
		dto.FinishedAt = &finished
	}
	return dto
}

// =============================================================================
// EVENTS
// =============================================================================

// EventDTO represents one event log entry.
type EventDTO struct {
	ID           string   `json:"id"`
	Sequence     int64    `json:"seq"`
	PersonID     string   `json:"person_id"`
	Kind         string   `json:"kind"`
	Month        string   `json:"month"`
	CareerTenure int      `json:"career_tenure"`
	LevelTenure  int      `json:"level_tenure"`
	Office       string   `json:"office"`
	Role         string   `json:"role"`
	Level        string   `json:"level"`
	FromLevel    string   `json:"from_level,omitempty"`
	ToLevel      string   `json:"to_level,omitempty"`
	Bucket       string   `json:"bucket,omitempty"`
	Probability  *float64 `json:"probability,omitempty"`
	Method       string   `json:"method,omitempty"`
	Value        *float64 `json:"value,omitempty"`
}

func toEventDTOs(events []generic.Event) []EventDTO {
	dtos := make([]EventDTO, len(events))
	for i, ev := range events {
		dtos[i] = EventDTO{
			ID:           string(ev.ID),
			Sequence:     ev.Sequence,
			PersonID:     string(ev.PersonID),
			Kind:         string(ev.Kind),
			Month:        ev.Month.String(),
			CareerTenure: ev.CareerTenure,
			LevelTenure:  ev.LevelTenure,
			Office:       ev.Office,
			Role:         ev.Role,
			Level:        ev.Level,
			FromLevel:    ev.FromLevel,
			ToLevel:      ev.ToLevel,
			Bucket:       ev.Bucket,
			Probability:  ev.Probability,
			Method:       string(ev.Method),
			Value:        ev.Value,
		}
	}
	return dtos
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a built-in scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// RunScenarioRequest optionally adjusts a scenario before it runs.
type RunScenarioRequest struct {
	Seed *int64 `json:"seed,omitempty"`
	End  string `json:"end,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
