package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/warp/workforce-engine/config"
)

type rootOptions struct {
	store string
	dir   string
	db    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "simulate",
		Short:         "Workforce population simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.store, "store", "csv", "Event store: csv, sqlite or memory")
	cmd.PersistentFlags().StringVar(&opts.dir, "dir", "", "CSV event log directory (default EVENT_LOG_DIR)")
	cmd.PersistentFlags().StringVar(&opts.db, "db", "", "SQLite database path (default DB_PATH)")

	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newSummaryCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))
	cmd.AddCommand(newRunsCmd(opts))
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// loadConfig reads process settings; the CLI only logs to stderr.
func loadConfig() (*config.Configuration, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := cfg.Logger()
	logger.SetOutput(os.Stderr)
	return cfg, logger, nil
}
