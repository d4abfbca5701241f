/*
scenarios.go - Built-in demo scenarios

PURPOSE:
  Exposes the factory presets over HTTP so a consultancy projection can be
  run without writing a document first.

AVAILABLE SCENARIOS:
  baseline:      Two offices, steady recruitment and churn, three years
  hiring-freeze: One year without recruitment
  high-churn:    Consultant churn doubled
  new-office:    An office opened from zero with absolute hiring

USAGE VIA API:
  GET  /api/scenarios
  POST /api/scenarios/baseline/run
  {"seed": 7, "end": "2026-12"}     (body optional)

ADDING NEW SCENARIOS:
  Add a Preset to factory.Presets; it is listed here automatically.

SEE ALSO:
  - factory/presets.go: The documents
  - handlers.go: Run execution and persistence
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/workforce-engine/factory"
)

// ListScenarios returns all built-in scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(factory.Presets))
	for i, p := range factory.Presets {
		dtos[i] = ScenarioDTO{ID: p.ID, Name: p.Name, Description: p.Description, Category: "consultancy"}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RunScenario runs a built-in scenario, optionally with another seed or end.
// POST /api/scenarios/{id}/run
func (h *Handler) RunScenario(w http.ResponseWriter, r *http.Request) {
	preset, ok := factory.PresetByID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Scenario not found", nil)
		return
	}

	var req RunScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	doc := preset.Document()
	if req.Seed != nil {
		doc.Seed = *req.Seed
	}
	if req.End != "" {
		doc.End = req.End
	}

	h.runDocument(w, r, doc)
}
