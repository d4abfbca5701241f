/*
handlers.go - HTTP API handlers for the workforce simulation engine

PURPOSE:
  Exposes the simulation engine via REST API. Handles HTTP request/response
  and JSON serialization, and delegates to the factory (documents), the
  runner (execution) and the stores (runs and events).

ENDPOINTS:
  Simulations:
    POST   /api/simulations                               Run a document (JSON or YAML body)
    GET    /api/simulations                               List runs
    GET    /api/simulations/{id}                          Run metadata
    GET    /api/simulations/{id}/result                   Full nested result (recent runs)
    GET    /api/simulations/{id}/export.xlsx              Result workbook (recent runs)
    GET    /api/simulations/{id}/summary                  Event counts per dimension
    GET    /api/simulations/{id}/events                   Events, filtered by query
    GET    /api/simulations/{id}/people/{personID}/events Person history

  Scenarios:
    GET    /api/scenarios                                 List demo scenarios
    POST   /api/scenarios/{id}/run                        Run a demo scenario

RESULTS CACHE:
  Runs and events are persisted; the nested month-by-month result is not.
  The handler keeps the results of the most recent runs in memory for the
  result and export endpoints. Older runs answer 404 there.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid document, period or query
  - 404: Run, person or scenario not found
  - 422: Simulation aborted (e.g. unresolvable promotion destination)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenarios
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/warp/workforce-engine/factory"
	"github.com/warp/workforce-engine/generic"
	"github.com/warp/workforce-engine/report"
	"github.com/warp/workforce-engine/runner"
)

// maxBodyBytes bounds simulation documents.
const maxBodyBytes = 4 << 20

// DefaultCachedResults is how many run results are kept in memory.
const DefaultCachedResults = 16

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is the persistence the API needs: events and the run registry.
type Store interface {
	generic.EventStore
	generic.RunStore
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   Store
	Factory *factory.ConfigFactory
	Runner  *runner.Runner
	Logger  logrus.FieldLogger

	MaxCachedResults int

	mu      sync.RWMutex
	results map[generic.RunID]*runner.Outcome
	order   []generic.RunID
}

// NewHandler creates a handler on the given store.
func NewHandler(store Store, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Handler{
		Store:            store,
		Factory:          factory.NewConfigFactory(logger),
		Runner:           runner.New(store, store, logger),
		Logger:           logger,
		MaxCachedResults: DefaultCachedResults,
		results:          make(map[generic.RunID]*runner.Outcome),
	}
}

// =============================================================================
// SIMULATION ENDPOINTS
// =============================================================================

// CreateSimulation parses the request body and runs it.
// POST /api/simulations
// Content-Type application/x-yaml or text/yaml selects YAML; JSON otherwise.
func (h *Handler) CreateSimulation(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}

	format := factory.FormatJSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = factory.FormatYAML
	}

	doc, err := factory.Decode(bytes.TrimSpace(body), format)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid simulation document", err)
		return
	}
	h.runDocument(w, r, *doc)
}

// runDocument converts, runs and answers with the run summary.
func (h *Handler) runDocument(w http.ResponseWriter, r *http.Request, doc factory.SimulationJSON) {
	sim, err := h.Factory.FromJSON(doc)
	if err != nil {
		writeDomainError(w, "Invalid simulation document", err)
		return
	}

	outcome, err := h.Runner.Run(r.Context(), sim)
	if err != nil {
		if outcome == nil {
			writeError(w, http.StatusInternalServerError, "Failed to start simulation", err)
			return
		}
		status := http.StatusUnprocessableEntity
		if generic.IsClientError(err) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, RunResponse{Run: toRunDTO(outcome.Run), Warnings: sim.Warnings})
		return
	}

	h.remember(outcome)

	resp := RunResponse{
		Run:      toRunDTO(outcome.Run),
		Summary:  outcome.Summary,
		Initial:  outcome.Result.Initial,
		Warnings: sim.Warnings,
	}
	if last, ok := outcome.Result.Offices[sim.Period.End.String()]; ok {
		resp.Headcount = last
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ListSimulations returns every recorded run.
// GET /api/simulations
func (h *Handler) ListSimulations(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}
	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSimulation returns run metadata.
// GET /api/simulations/{id}
func (h *Handler) GetSimulation(w http.ResponseWriter, r *http.Request) {
	run, err := h.Store.GetRun(r.Context(), runID(r))
	if err != nil {
		writeDomainError(w, "Failed to get run", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(*run))
}

// GetResult returns the nested month-by-month result of a recent run.
// GET /api/simulations/{id}/result
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	outcome, ok := h.recall(runID(r))
	if !ok {
		writeError(w, http.StatusNotFound, "Result not available", generic.ErrRunNotFound)
		return
	}
	writeJSON(w, http.StatusOK, outcome.Result)
}

// ExportSimulation streams the result workbook of a recent run.
// GET /api/simulations/{id}/export.xlsx
func (h *Handler) ExportSimulation(w http.ResponseWriter, r *http.Request) {
	id := runID(r)
	outcome, ok := h.recall(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Result not available", generic.ErrRunNotFound)
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, outcome.Result, outcome.Summary); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build workbook", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+string(id)+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// GetSummary counts a run's events by kind, office, role, level and month.
// GET /api/simulations/{id}/summary
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	id := runID(r)
	if _, err := h.Store.GetRun(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to get run", err)
		return
	}

	summary, err := generic.NewEventLog(h.Store, id).Summary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to summarize events", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ListEvents returns a run's events.
// GET /api/simulations/{id}/events?kind=churn&office=Oslo&role=&level=&from=2025-01&to=2025-12
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	id := runID(r)
	if _, err := h.Store.GetRun(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to get run", err)
		return
	}

	filter, err := parseEventFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event filter", err)
		return
	}

	events, err := generic.NewEventLog(h.Store, id).Events(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to query events", err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

// GetPersonEvents returns everything that happened to one person in a run.
// GET /api/simulations/{id}/people/{personID}/events
func (h *Handler) GetPersonEvents(w http.ResponseWriter, r *http.Request) {
	id := runID(r)
	if _, err := h.Store.GetRun(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to get run", err)
		return
	}

	person := generic.PersonID(chi.URLParam(r, "personID"))
	events, err := generic.NewEventLog(h.Store, id).PersonHistory(r.Context(), person)
	if err != nil {
		writeDomainError(w, "Failed to get person history", err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(events))
}

// =============================================================================
// RESULTS CACHE
// =============================================================================

func (h *Handler) remember(o *runner.Outcome) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.results == nil {
		h.results = make(map[generic.RunID]*runner.Outcome)
	}
	h.results[o.Run.ID] = o
	h.order = append(h.order, o.Run.ID)

	limit := h.MaxCachedResults
	if limit <= 0 {
		limit = DefaultCachedResults
	}
	for len(h.order) > limit {
		delete(h.results, h.order[0])
		h.order = h.order[1:]
	}
}

func (h *Handler) recall(id generic.RunID) (*runner.Outcome, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	o, ok := h.results[id]
	return o, ok
}

// =============================================================================
// HELPERS
// =============================================================================

func runID(r *http.Request) generic.RunID {
	return generic.RunID(chi.URLParam(r, "id"))
}

func parseEventFilter(r *http.Request) (generic.EventFilter, error) {
	q := r.URL.Query()
	filter := generic.EventFilter{
		Office: q.Get("office"),
		Role:   q.Get("role"),
		Level:  q.Get("level"),
	}
	for _, k := range q["kind"] {
		kind := generic.EventKind(k)
		if !validKind(kind) {
			return filter, errors.New("unknown event kind " + k)
		}
		filter.Kinds = append(filter.Kinds, kind)
	}
	if s := q.Get("from"); s != "" {
		m, err := generic.ParseMonth(s)
		if err != nil {
			return filter, err
		}
		filter.From = &m
	}
	if s := q.Get("to"); s != "" {
		m, err := generic.ParseMonth(s)
		if err != nil {
			return filter, err
		}
		filter.To = &m
	}
	return filter, nil
}

func validKind(k generic.EventKind) bool {
	for _, known := range generic.EventKinds {
		if k == known {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError picks the status from the error class.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
