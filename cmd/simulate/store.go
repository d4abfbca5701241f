package main

import (
	"context"
	"fmt"

	"github.com/warp/workforce-engine/config"
	"github.com/warp/workforce-engine/generic"
	"github.com/warp/workforce-engine/generic/store"
	"github.com/warp/workforce-engine/store/csvlog"
	"github.com/warp/workforce-engine/store/sqlite"
)

// eventStore is an opened store. runs is nil for CSV, which keeps no registry.
type eventStore struct {
	events generic.EventStore
	runs   generic.RunStore
	list   func(ctx context.Context) ([]generic.RunID, error)
	close  func() error
}

func openStore(opts *rootOptions, cfg *config.Configuration) (*eventStore, error) {
	switch opts.store {
	case "csv":
		dir := opts.dir
		if dir == "" {
			dir = cfg.EventLogDir
		}
		s, err := csvlog.New(dir)
		if err != nil {
			return nil, err
		}
		return &eventStore{
			events: s,
			list:   func(context.Context) ([]generic.RunID, error) { return s.Runs() },
			close:  s.Close,
		}, nil

	case "sqlite":
		path := opts.db
		if path == "" {
			path = cfg.DBPath
		}
		s, err := sqlite.New(path)
		if err != nil {
			return nil, err
		}
		return &eventStore{
			events: s,
			runs:   s,
			list: func(ctx context.Context) ([]generic.RunID, error) {
				runs, err := s.ListRuns(ctx)
				if err != nil {
					return nil, err
				}
				ids := make([]generic.RunID, len(runs))
				for i, r := range runs {
					ids[i] = r.ID
				}
				return ids, nil
			},
			close: s.Close,
		}, nil

	case "memory":
		// Dry run: nothing outlives the process.
		s := store.NewMemory()
		return &eventStore{
			events: s,
			runs:   s,
			list:   func(context.Context) ([]generic.RunID, error) { return nil, nil },
			close:  func() error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unknown --store %q (want csv, sqlite or memory)", opts.store)
	}
}
