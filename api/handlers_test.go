/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Posting simulation documents (JSON and YAML)
- Error statuses for invalid documents, legacy progression and missing runs
- Failed runs (unresolvable promotion destination)
- Metrics exposition
*/
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/workforce-engine/factory"
)

const smallYAML = `
name: small
seed: 3
start: 2025-01
end: 2025-03
cat_curves:
  A: {CAT6: 0.5}
progression_rules:
  A: {months: [1], min_tenure: 6, time_to_reach: 0, time_on_level: 12}
offices:
  - name: Oslo
    total_fte: 20
    roles:
      - name: Consultant
        levels:
          - name: A
            fte: 20
            defaults: {price: 1000, salary: 40000, utr: 0.8, recruitment_abs: 2, churn_rate: 0.1}
`

func TestCreateSimulation_JSON(t *testing.T) {
	// GIVEN: The baseline document as JSON, shortened to two months
	_, router := setupTestServer(t)
	doc := factory.BaselineJSON()
	doc.End = "2025-02"
	body, err := json.Marshal(doc)
	require.NoError(t, err)

	// WHEN: Posting it
	rec := do(t, router, http.MethodPost, "/api/simulations", body, "application/json")

	// THEN: The run is created and can be fetched
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[RunResponse](t, rec)
	assert.Equal(t, "baseline", resp.Run.Name)
	assert.Equal(t, 2, resp.Run.Offices)
	assert.Equal(t, "2025-01", resp.Run.Start)

	rec = do(t, router, http.MethodGet, "/api/simulations/"+resp.Run.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completed", decode[RunDTO](t, rec).Status)
}

func TestCreateSimulation_YAML(t *testing.T) {
	_, router := setupTestServer(t)

	rec := do(t, router, http.MethodPost, "/api/simulations", []byte(smallYAML), "application/x-yaml")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[RunResponse](t, rec)
	assert.Equal(t, 20, resp.Initial["Oslo"])
	// Absolute recruitment (2) every month, churn floor(0.1 x headcount)
	assert.Equal(t, 6, resp.Summary.ByKind["recruitment"]-20)
	assert.Positive(t, resp.Summary.ByKind["churn"])
}

func TestCreateSimulation_Errors(t *testing.T) {
	_, router := setupTestServer(t)

	tests := []struct {
		name        string
		body        string
		contentType string
		status      int
		details     string
	}{
		{"malformed JSON", `{"offices": [`, "application/json", http.StatusBadRequest, ""},
		{"no offices", `{"start":"2025-01","end":"2025-02"}`, "application/json", http.StatusBadRequest, "Offices"},
		{"end before start", `{"start":"2025-06","end":"2025-01","offices":[{"name":"Oslo"}]}`, "application/json", http.StatusBadRequest, "end"},
		{"legacy progression", `{"start":"2025-01","end":"2025-02","progression_rate":0.1,"offices":[{"name":"Oslo"}]}`, "application/json", http.StatusBadRequest, "progression configuration required"},
		{"malformed YAML", "offices: [", "text/yaml", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/simulations", []byte(tt.body), tt.contentType)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			resp := decode[ErrorResponse](t, rec)
			assert.NotEmpty(t, resp.Error)
			if tt.details != "" {
				assert.Contains(t, resp.Details, tt.details)
			}
		})
	}
}

func TestCreateSimulation_UnresolvableDestinationFailsRun(t *testing.T) {
	// GIVEN: A ladder A -> B -> C where this office has no B cohort, and
	// everyone past six months on A is promoted
	_, router := setupTestServer(t)
	doc := `{
		"start": "2025-01", "end": "2025-02", "seed": 1,
		"cat_curves": {"A": {"CAT6": 1, "CAT12": 1}},
		"progression_rules": {
			"A": {"months": [1,2,3,4,5,6,7,8,9,10,11,12], "min_tenure": 6, "time_to_reach": 0, "time_on_level": 12},
			"C": {"months": [1], "min_tenure": 12, "time_to_reach": 24, "time_on_level": 12}
		},
		"offices": [{"name": "Oslo", "roles": [{
			"name": "Consultant", "level_order": ["A", "B", "C"],
			"levels": [
				{"name": "A", "fte": 50, "defaults": {"price": 1, "salary": 1, "utr": 1}},
				{"name": "C", "fte": 5, "defaults": {"price": 1, "salary": 1, "utr": 1}}
			]
		}]}]
	}`

	// WHEN: Running it
	rec := do(t, router, http.MethodPost, "/api/simulations", []byte(doc), "application/json")

	// THEN: The run fails with a 422 and is recorded as failed
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	resp := decode[RunResponse](t, rec)
	assert.Equal(t, "failed", resp.Run.Status)
	assert.Contains(t, resp.Run.Error, "no next level")

	rec = do(t, router, http.MethodGet, "/api/simulations/"+resp.Run.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "failed", decode[RunDTO](t, rec).Status)
}

func TestQueries_UnknownRunOrPerson(t *testing.T) {
	_, router := setupTestServer(t)

	for _, path := range []string{
		"/api/simulations/missing",
		"/api/simulations/missing/summary",
		"/api/simulations/missing/events",
		"/api/simulations/missing/result",
		"/api/simulations/missing/export.xlsx",
		"/api/simulations/missing/people/p-1/events",
	} {
		rec := do(t, router, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}

	// A known run with an unknown person is also a 404
	rec := do(t, router, http.MethodPost, "/api/simulations", []byte(smallYAML), "text/yaml")
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[RunResponse](t, rec).Run.ID

	rec = do(t, router, http.MethodGet, "/api/simulations/"+id+"/people/nobody/events", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/simulations/"+id+"/events?kind=bonus", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/simulations/"+id+"/events?from=soon", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResultsCache_KeepsMostRecent(t *testing.T) {
	h, router := setupTestServer(t)
	h.MaxCachedResults = 1

	first := decode[RunResponse](t, do(t, router, http.MethodPost, "/api/simulations", []byte(smallYAML), "text/yaml"))
	second := decode[RunResponse](t, do(t, router, http.MethodPost, "/api/simulations", []byte(smallYAML), "text/yaml"))

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/simulations/"+first.Run.ID+"/result", nil, "").Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/simulations/"+second.Run.ID+"/result", nil, "").Code)

	// Events of evicted runs are still persisted
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/simulations/"+first.Run.ID+"/summary", nil, "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	_, router := setupTestServer(t)

	do(t, router, http.MethodGet, "/api/scenarios", nil, "")
	do(t, router, http.MethodPost, "/api/simulations", []byte(smallYAML), "text/yaml")

	rec := do(t, router, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "workforce_api_requests_total"))
	assert.True(t, strings.Contains(body, `route="/api/scenarios/"`) || strings.Contains(body, `route="/api/scenarios"`))
	assert.Contains(t, body, "workforce_simulation_runs_total")
	assert.Contains(t, body, "workforce_eventlog_events_total")
}
