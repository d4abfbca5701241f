package runner

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/warp/workforce-engine/generic"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workforce",
		Subsystem: "simulation",
		Name:      "runs_total",
		Help:      "Total number of simulation runs broken down by final status.",
	}, []string{"status"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "workforce",
		Subsystem: "simulation",
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of completed simulation runs.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	monthsSimulated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "workforce",
		Subsystem: "simulation",
		Name:      "months_total",
		Help:      "Total number of simulated months across all runs.",
	})

	eventsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workforce",
		Subsystem: "eventlog",
		Name:      "events_total",
		Help:      "Total number of recorded events broken down by kind.",
	}, []string{"kind"})
)

// countingRecorder counts events by kind on their way into the log.
type countingRecorder struct {
	next generic.Recorder
}

func (c countingRecorder) Record(ctx context.Context, ev generic.Event) (generic.Event, error) {
	recorded, err := c.next.Record(ctx, ev)
	if err != nil {
		return recorded, err
	}
	eventsRecorded.WithLabelValues(string(recorded.Kind)).Inc()
	return recorded, nil
}
