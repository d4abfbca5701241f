/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Keeps the events and metadata of many simulation runs in one database
  file, so runs can be compared and person histories queried after the
  process that produced them has exited.

INTERFACES IMPLEMENTED:
  generic.EventStore: Event persistence (append-only)
  generic.RunStore:   Run metadata

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the events table
  - No DELETE statements on the events table
  Runs are the only mutable rows (status and finish time).

KEY TABLES:
  runs:   One row per simulation run
  events: Immutable log of every recruitment, promotion, churn, graduation

INDEXES:
  - idx_events_run_seq:    Replay of a run in order (hot path)
  - idx_events_run_person: Person history
  - idx_events_run_month:  Month range queries

CONCURRENCY:
  Uses sync.RWMutex for thread-safety; SQLite allows a single writer.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Readers don't block the simulation writing events
  - Every committed INSERT survives a crash

USAGE:
  store, err := sqlite.New("./data/workforce.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  log := generic.NewEventLog(store, "")

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/ledger.go: EventLog using EventStore
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/workforce-engine/generic"
)

// Store implements generic.EventStore and generic.RunStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		name TEXT,
		seed INTEGER NOT NULL,
		start_month TEXT NOT NULL,
		end_month TEXT NOT NULL,
		offices INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT,
		created_at TEXT NOT NULL,
		finished_at TEXT
	);

	-- Events (append-only)
	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		person_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		month TEXT NOT NULL,
		career_tenure INTEGER NOT NULL,
		level_tenure INTEGER NOT NULL,
		office TEXT NOT NULL,
		role TEXT NOT NULL,
		level TEXT NOT NULL,
		from_level TEXT,
		to_level TEXT,
		bucket TEXT,
		probability REAL,
		value REAL,
		method TEXT,
		recorded_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_events_run_seq
		ON events(run_id, seq);
	CREATE INDEX IF NOT EXISTS idx_events_run_person
		ON events(run_id, person_id);
	CREATE INDEX IF NOT EXISTS idx_events_run_month
		ON events(run_id, month);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EVENT STORE (generic.EventStore interface)
// =============================================================================

// Append inserts one event.
func (s *Store) Append(ctx context.Context, ev generic.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO events
		(id, run_id, seq, person_id, kind, month, career_tenure, level_tenure,
		 office, role, level, from_level, to_level, bucket, probability, value,
		 method, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	recordedAt := ev.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		ev.ID,
		ev.RunID,
		ev.Sequence,
		ev.PersonID,
		ev.Kind,
		ev.Month.String(),
		ev.CareerTenure,
		ev.LevelTenure,
		ev.Office,
		ev.Role,
		ev.Level,
		nullString(ev.FromLevel),
		nullString(ev.ToLevel),
		nullString(ev.Bucket),
		nullFloat(ev.Probability),
		nullFloat(ev.Value),
		nullString(string(ev.Method)),
		recordedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateEvent
		}
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// Query returns the events matching filter, ordered by run and sequence.
func (s *Store) Query(ctx context.Context, filter generic.EventFilter) ([]generic.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		where = append(where, clause)
		args = append(args, arg)
	}

	if filter.RunID != "" {
		add("run_id = ?", filter.RunID)
	}
	if filter.PersonID != "" {
		add("person_id = ?", filter.PersonID)
	}
	if filter.Office != "" {
		add("office = ?", filter.Office)
	}
	if filter.Role != "" {
		add("role = ?", filter.Role)
	}
	if filter.Level != "" {
		add("level = ?", filter.Level)
	}
	// Months are stored as zero-padded "YYYY-MM", so text order is time order.
	if filter.From != nil {
		add("month >= ?", filter.From.String())
	}
	if filter.To != nil {
		add("month <= ?", filter.To.String())
	}
	if len(filter.Kinds) > 0 {
		placeholders := make([]string, len(filter.Kinds))
		for i, k := range filter.Kinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		where = append(where, "kind IN ("+strings.Join(placeholders, ", ")+")")
	}

	query := `
		SELECT id, run_id, seq, person_id, kind, month, career_tenure, level_tenure,
		       office, role, level, from_level, to_level, bucket, probability, value,
		       method, recorded_at
		FROM events`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\t\tORDER BY run_id ASC, seq ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []generic.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Count returns the number of events stored for a run.
func (s *Store) Count(ctx context.Context, runID generic.RunID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM events WHERE run_id = ?", runID,
	).Scan(&count)
	return count, err
}

func scanEvent(rows *sql.Rows) (generic.Event, error) {
	var (
		ev          generic.Event
		month       string
		fromLevel   sql.NullString
		toLevel     sql.NullString
		bucket      sql.NullString
		probability sql.NullFloat64
		value       sql.NullFloat64
		method      sql.NullString
		recordedAt  string
	)

	err := rows.Scan(
		&ev.ID, &ev.RunID, &ev.Sequence, &ev.PersonID, &ev.Kind, &month,
		&ev.CareerTenure, &ev.LevelTenure, &ev.Office, &ev.Role, &ev.Level,
		&fromLevel, &toLevel, &bucket, &probability, &value, &method, &recordedAt,
	)
	if err != nil {
		return ev, fmt.Errorf("failed to scan event: %w", err)
	}

	ev.Month, err = generic.ParseMonth(month)
	if err != nil {
		return ev, fmt.Errorf("failed to scan event %s: %w", ev.ID, err)
	}
	ev.FromLevel = fromLevel.String
	ev.ToLevel = toLevel.String
	ev.Bucket = bucket.String
	ev.Method = generic.Method(method.String)
	if probability.Valid {
		ev.Probability = generic.Float(probability.Float64)
	}
	if value.Valid {
		ev.Value = generic.Float(value.Float64)
	}
	ev.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)

	return ev, nil
}

// =============================================================================
// RUN REGISTRY (generic.RunStore interface)
// =============================================================================

// SaveRun inserts or updates run metadata. The creation time of an existing
// run is kept.
func (s *Store) SaveRun(ctx context.Context, run generic.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := run.Created
	if created.IsZero() {
		created = time.Now()
	}
	var finished sql.NullString
	if !run.Finished.IsZero() {
		finished = sql.NullString{String: run.Finished.UTC().Format(time.RFC3339Nano), Valid: true}
	}

	query := `
		INSERT INTO runs (id, name, seed, start_month, end_month, offices, status, error, created_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			offices = excluded.offices,
			status = excluded.status,
			error = excluded.error,
			finished_at = excluded.finished_at
	`
	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		nullString(run.Name),
		run.Seed,
		run.Period.Start.String(),
		run.Period.End.String(),
		run.Offices,
		run.Status,
		nullString(run.Error),
		created.UTC().Format(time.RFC3339Nano),
		finished,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun returns run metadata, or generic.ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id generic.RunID) (*generic.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, runSelect+" WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns every run, oldest first.
func (s *Store) ListRuns(ctx context.Context) ([]generic.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, runSelect+" ORDER BY created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []generic.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

const runSelect = `
	SELECT id, name, seed, start_month, end_month, offices, status, error, created_at, finished_at
	FROM runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (generic.Run, error) {
	var (
		run        generic.Run
		name       sql.NullString
		start, end string
		runErr     sql.NullString
		createdAt  string
		finishedAt sql.NullString
	)
	if err := row.Scan(&run.ID, &name, &run.Seed, &start, &end, &run.Offices,
		&run.Status, &runErr, &createdAt, &finishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("failed to scan run: %w", err)
	}

	run.Name = name.String
	run.Error = runErr.String
	run.Period.Start, _ = generic.ParseMonth(start)
	run.Period.End, _ = generic.ParseMonth(end)
	run.Created, _ = time.Parse(time.RFC3339Nano, createdAt)
	if finishedAt.Valid {
		run.Finished, _ = time.Parse(time.RFC3339Nano, finishedAt.String)
	}
	return run, nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
