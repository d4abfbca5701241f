/*
Package csvlog stores simulation events as one CSV file per run.

PURPOSE:
  A run's event log is often handed to analysts who open it in a
  spreadsheet. The CSV store writes <dir>/<run-id>.csv with a header row
  and one row per event, flushed on every Append so the file on disk is
  always complete up to the last recorded event.

COLUMNS:
  run_id, seq, id, person_id, kind, month, career_tenure, level_tenure,
  office, role, level, from_level, to_level, bucket, probability, value,
  method, recorded_at

  Optional numeric columns are empty when absent.

READBACK:
  Query re-reads the files, so a log written by one process can be
  summarized by another (see cmd/simulate summary).
*/
package csvlog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/warp/workforce-engine/generic"
)

// Header is the first row of every file.
var Header = []string{
	"run_id", "seq", "id", "person_id", "kind", "month", "career_tenure", "level_tenure",
	"office", "role", "level", "from_level", "to_level", "bucket", "probability", "value",
	"method", "recorded_at",
}

// Store implements generic.EventStore on a directory of CSV files.
type Store struct {
	Dir string

	mu     sync.Mutex
	files  map[generic.RunID]*runFile
	closed bool
}

type runFile struct {
	f   *os.File
	w   *csv.Writer
	ids map[generic.EventID]bool
}

// New creates the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create event log dir: %w", err)
	}
	return &Store{Dir: dir, files: make(map[generic.RunID]*runFile)}, nil
}

// Path returns the file of a run.
func (s *Store) Path(runID generic.RunID) string {
	return filepath.Join(s.Dir, string(runID)+".csv")
}

// Append writes one row and flushes it to disk.
func (s *Store) Append(_ context.Context, ev generic.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return generic.ErrEventStoreClosed
	}
	rf, err := s.open(ev.RunID)
	if err != nil {
		return err
	}
	if rf.ids[ev.ID] {
		return generic.ErrDuplicateEvent
	}

	if err := rf.w.Write(encode(ev)); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	rf.w.Flush()
	if err := rf.w.Error(); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	rf.ids[ev.ID] = true
	return nil
}

// open returns the writer of a run, creating the file (with header) or
// reopening an existing one for append.
func (s *Store) open(runID generic.RunID) (*runFile, error) {
	if rf, ok := s.files[runID]; ok {
		return rf, nil
	}

	path := s.Path(runID)
	existing, err := readFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	rf := &runFile{f: f, w: csv.NewWriter(f), ids: make(map[generic.EventID]bool, len(existing))}
	for _, ev := range existing {
		rf.ids[ev.ID] = true
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat event log: %w", err)
	}
	if info.Size() == 0 {
		if err := rf.w.Write(Header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		rf.w.Flush()
	}

	s.files[runID] = rf
	return rf, nil
}

// Query reads the matching events back from disk. With a RunID only that
// run's file is read; otherwise every file in the directory.
func (s *Store) Query(_ context.Context, filter generic.EventFilter) ([]generic.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var paths []string
	if filter.RunID != "" {
		paths = []string{s.Path(filter.RunID)}
	} else {
		matches, err := filepath.Glob(filepath.Join(s.Dir, "*.csv"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		paths = matches
	}

	var result []generic.Event
	for _, path := range paths {
		events, err := readFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, ev := range events {
			if filter.Matches(ev) {
				result = append(result, ev)
			}
		}
	}
	return result, nil
}

// Runs lists the run IDs that have a file in the directory.
func (s *Store) Runs() ([]generic.RunID, error) {
	matches, err := filepath.Glob(filepath.Join(s.Dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	ids := make([]generic.RunID, len(matches))
	for i, m := range matches {
		ids[i] = generic.RunID(strings.TrimSuffix(filepath.Base(m), ".csv"))
	}
	return ids, nil
}

// Close flushes and closes every open file. Appends after Close fail with
// generic.ErrEventStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for id, rf := range s.files {
		rf.w.Flush()
		errs = append(errs, rf.w.Error(), rf.f.Close())
		delete(s.files, id)
	}
	s.closed = true
	return errors.Join(errs...)
}

// =============================================================================
// ROW ENCODING
// =============================================================================

func encode(ev generic.Event) []string {
	return []string{
		string(ev.RunID),
		strconv.FormatInt(ev.Sequence, 10),
		string(ev.ID),
		string(ev.PersonID),
		string(ev.Kind),
		ev.Month.String(),
		strconv.Itoa(ev.CareerTenure),
		strconv.Itoa(ev.LevelTenure),
		ev.Office,
		ev.Role,
		ev.Level,
		ev.FromLevel,
		ev.ToLevel,
		ev.Bucket,
		formatFloat(ev.Probability),
		formatFloat(ev.Value),
		string(ev.Method),
		ev.RecordedAt.UTC().Format(time.RFC3339Nano),
	}
}

func decode(row []string) (generic.Event, error) {
	if len(row) != len(Header) {
		return generic.Event{}, fmt.Errorf("expected %d columns, got %d", len(Header), len(row))
	}

	var (
		ev  generic.Event
		err error
	)
	ev.RunID = generic.RunID(row[0])
	if ev.Sequence, err = strconv.ParseInt(row[1], 10, 64); err != nil {
		return ev, fmt.Errorf("seq: %w", err)
	}
	ev.ID = generic.EventID(row[2])
	ev.PersonID = generic.PersonID(row[3])
	ev.Kind = generic.EventKind(row[4])
	if ev.Month, err = generic.ParseMonth(row[5]); err != nil {
		return ev, fmt.Errorf("month: %w", err)
	}
	if ev.CareerTenure, err = strconv.Atoi(row[6]); err != nil {
		return ev, fmt.Errorf("career_tenure: %w", err)
	}
	if ev.LevelTenure, err = strconv.Atoi(row[7]); err != nil {
		return ev, fmt.Errorf("level_tenure: %w", err)
	}
	ev.Office, ev.Role, ev.Level = row[8], row[9], row[10]
	ev.FromLevel, ev.ToLevel, ev.Bucket = row[11], row[12], row[13]
	if ev.Probability, err = parseFloat(row[14]); err != nil {
		return ev, fmt.Errorf("probability: %w", err)
	}
	if ev.Value, err = parseFloat(row[15]); err != nil {
		return ev, fmt.Errorf("value: %w", err)
	}
	ev.Method = generic.Method(row[16])
	if row[17] != "" {
		ev.RecordedAt, _ = time.Parse(time.RFC3339Nano, row[17])
	}
	return ev, nil
}

func readFile(path string) ([]generic.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)

	var (
		events []generic.Event
		line   int
	)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if line == 1 && row[0] == Header[0] {
			continue
		}
		ev, err := decode(row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", filepath.Base(path), line, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func parseFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
