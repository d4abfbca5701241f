package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/warp/workforce-engine/generic"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var (
		runID    string
		personID string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print everything that happened to one person in a run",
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

			events, err := generic.NewEventLog(store.events, generic.RunID(runID)).
				PersonHistory(cmd.Context(), generic.PersonID(personID))
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SEQ\tMONTH\tKIND\tOFFICE\tROLE\tLEVEL\tCAREER\tON LEVEL\tDETAIL")
			for _, ev := range events {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
					ev.Sequence, ev.Month, ev.Kind, ev.Office, ev.Role, ev.Level,
					ev.CareerTenure, ev.LevelTenure, detail(ev))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run ID")
	cmd.Flags().StringVar(&personID, "person", "", "Person ID")
	_ = cmd.MarkFlagRequired("run")
	_ = cmd.MarkFlagRequired("person")
	return cmd
}

func detail(ev generic.Event) string {
	switch ev.Kind {
	case generic.EventPromotion, generic.EventGraduation:
		s := ev.FromLevel + " -> " + ev.ToLevel
		if ev.Bucket != "" {
			s += " (" + ev.Bucket
			if ev.Probability != nil {
				s += fmt.Sprintf(" p=%.2f", *ev.Probability)
			}
			s += ")"
		}
		return s
	default:
		if ev.Value != nil {
			return fmt.Sprintf("%s %g", ev.Method, *ev.Value)
		}
		return string(ev.Method)
	}
}
