/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontends
  5. Metrics:    Request count and latency per route pattern

ROUTE GROUPS:
  /api/simulations/*  Run documents, query runs and event logs
  /api/scenarios/*    Demo scenarios
  /metrics            Prometheus exposition (when enabled)
  /                   Endpoint index

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - metrics.go: Request instrumentation
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions configures the outer surface of the router.
type RouterOptions struct {
	CORSOrigins    []string
	MetricsEnabled bool
	MetricsPath    string
}

// DefaultRouterOptions are used by NewRouter when no options are given.
var DefaultRouterOptions = RouterOptions{
	CORSOrigins:    []string{"http://localhost:5173", "http://localhost:8080"},
	MetricsEnabled: true,
	MetricsPath:    "/metrics",
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts ...RouterOptions) *chi.Mux {
	o := DefaultRouterOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   o.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	if o.MetricsEnabled {
		r.Use(instrument)
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/simulations", func(r chi.Router) {
			r.Get("/", h.ListSimulations)
			r.Post("/", h.CreateSimulation)
			r.Get("/{id}", h.GetSimulation)
			r.Get("/{id}/result", h.GetResult)
			r.Get("/{id}/export.xlsx", h.ExportSimulation)
			r.Get("/{id}/summary", h.GetSummary)
			r.Get("/{id}/events", h.ListEvents)
			r.Get("/{id}/people/{personID}/events", h.GetPersonEvents)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/{id}/run", h.RunScenario)
		})
	})

	if o.MetricsEnabled {
		path := o.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.Handler())
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Workforce Simulation Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Workforce Simulation Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/scenarios">/api/scenarios</a> - List demo scenarios</li>
<li><a href="/api/simulations">/api/simulations</a> - List simulation runs</li>
</ul>
</body>
</html>`))
	})

	return r
}
