/*
Package runner executes parsed simulations against an event store and keeps
the run registry up to date.

PURPOSE:
  The workforce package knows nothing about storage or metrics. The runner
  wires one run together:
    1. Register the run as "running"
    2. Simulate with an EventLog on the configured store
    3. Mark the run "completed" (or "failed" with the error)
    4. Summarize the run's events

  The HTTP API and the simulate CLI both go through here.

RUNS ARE INDEPENDENT:
  Each Run call gets its own event log, random stream and offices. Several
  runs may execute concurrently against the same store.

SEE ALSO:
  - factory/config.go: Builds the Simulation
  - workforce/simulation.go: The month loop
*/
package runner

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/warp/workforce-engine/factory"
	"github.com/warp/workforce-engine/generic"
	"github.com/warp/workforce-engine/workforce"
)

// Runner executes simulations.
type Runner struct {
	Events generic.EventStore
	Runs   generic.RunStore // optional
	Logger logrus.FieldLogger

	FlatTenure workforce.TenureRange

	now func() time.Time
}

// New creates a runner. runs may be nil when no registry is kept.
func New(events generic.EventStore, runs generic.RunStore, logger logrus.FieldLogger) *Runner {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Runner{Events: events, Runs: runs, Logger: logger, now: time.Now}
}

// Outcome is what a run produced.
type Outcome struct {
	Run     generic.Run
	Result  *workforce.Result
	Summary *generic.Summary
	Log     *generic.EventLog
}

// Run simulates sim under a new run ID. On failure the returned Outcome still
// carries the failed Run record.
func (r *Runner) Run(ctx context.Context, sim *factory.Simulation) (*Outcome, error) {
	return r.RunWithID(ctx, generic.RunID(uuid.NewString()), sim)
}

// RunWithID is Run with a caller-chosen run ID.
func (r *Runner) RunWithID(ctx context.Context, id generic.RunID, sim *factory.Simulation) (*Outcome, error) {
	now := r.now
	if now == nil {
		now = time.Now
	}

	run := generic.Run{
		ID:      id,
		Name:    sim.Name,
		Seed:    sim.Seed,
		Period:  sim.Period,
		Offices: len(sim.Offices),
		Status:  generic.RunStatusRunning,
		Created: now().UTC(),
	}
	if err := r.saveRun(ctx, run); err != nil {
		return nil, err
	}

	logger := r.Logger.WithFields(logrus.Fields{"run_id": string(id), "name": sim.Name})
	eventLog := generic.NewEventLog(r.Events, id)
	simulator := &workforce.Simulator{
		Curves:     sim.Curves,
		Recorder:   countingRecorder{next: eventLog},
		Seed:       sim.Seed,
		FlatTenure: r.FlatTenure,
		Logger:     logger,
		OnMonth:    func(*workforce.MonthReport) { monthsSimulated.Inc() },
	}

	started := time.Now()
	result, err := simulator.Run(ctx, workforce.Input{Name: sim.Name, Period: sim.Period, Offices: sim.Offices})
	run.Finished = now().UTC()
	outcome := &Outcome{Run: run, Log: eventLog}

	if err != nil {
		run.Status = generic.RunStatusFailed
		run.Error = err.Error()
		outcome.Run = run
		runsTotal.WithLabelValues(run.Status).Inc()
		logger.WithError(err).Error("simulation failed")
		if saveErr := r.saveRun(ctx, run); saveErr != nil {
			logger.WithError(saveErr).Warn("failed to record run failure")
		}
		return outcome, err
	}

	run.Status = generic.RunStatusCompleted
	outcome.Run = run
	outcome.Result = result
	runsTotal.WithLabelValues(run.Status).Inc()
	runDuration.Observe(time.Since(started).Seconds())

	if err := r.saveRun(ctx, run); err != nil {
		return outcome, err
	}

	summary, err := eventLog.Summary(ctx)
	if err != nil {
		return outcome, fmt.Errorf("summarize run %s: %w", id, err)
	}
	outcome.Summary = summary
	return outcome, nil
}

func (r *Runner) saveRun(ctx context.Context, run generic.Run) error {
	if r.Runs == nil {
		return nil
	}
	if err := r.Runs.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}
