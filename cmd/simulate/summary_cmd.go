package main

import (
	"github.com/spf13/cobra"
	"github.com/warp/workforce-engine/generic"
)

func newSummaryCmd(root *rootOptions) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Count the events of a recorded run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(root, cfg)
			if err != nil {
				return err
			}
			defer store.close()

			summary, err := generic.NewEventLog(store.events, generic.RunID(runID)).Summary(cmd.Context())
			if err != nil {
				return err
			}
			if summary.Total == 0 {
				return generic.ErrRunNotFound
			}
			return writeJSON(cmd.OutOrStdout(), summary)
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run ID")
	_ = cmd.MarkFlagRequired("run")
	return cmd
}

func newRunsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List the runs recorded in a store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(root, cfg)
			if err != nil {
				return err
			}
			defer store.close()

			ids, err := store.list(cmd.Context())
			if err != nil {
				return err
			}
			if ids == nil {
				ids = []generic.RunID{}
			}
			return writeJSON(cmd.OutOrStdout(), ids)
		},
	}
}
