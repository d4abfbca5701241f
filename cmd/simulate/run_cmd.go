package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/workforce-engine/factory"
	"github.com/warp/workforce-engine/generic"
	"github.com/warp/workforce-engine/report"
	"github.com/warp/workforce-engine/runner"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var (
		configPath string
		scenario   string
		seed       int64
		end        string
		xlsxPath   string
		resultPath string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation document or built-in scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (configPath == "") == (scenario == "") {
				return errors.New("exactly one of --config or --scenario is required")
			}

			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			var doc factory.SimulationJSON
			if scenario != "" {
				p, ok := factory.PresetByID(scenario)
				if !ok {
					return fmt.Errorf("unknown scenario %q", scenario)
				}
				doc = p.Document()
			} else {
				data, err := os.ReadFile(configPath)
				if err != nil {
					return err
				}
				decoded, err := factory.Decode(data, factory.FormatFor(configPath))
				if err != nil {
					return err
				}
				doc = *decoded
			}
			if cmd.Flags().Changed("seed") {
				doc.Seed = seed
			}
			if end != "" {
				doc.End = end
			}

			sim, err := factory.NewConfigFactory(logger).FromJSON(doc)
			if err != nil {
				return err
			}

			store, err := openStore(root, cfg)
			if err != nil {
				return err
			}
			defer store.close()

			outcome, err := runner.New(store.events, store.runs, logger).Run(cmd.Context(), sim)
			if err != nil {
				if outcome != nil {
					return fmt.Errorf("run %s failed: %w", outcome.Run.ID, err)
				}
				return err
			}

			if xlsxPath != "" {
				if err := report.Save(xlsxPath, outcome.Result, outcome.Summary); err != nil {
					return err
				}
			}
			if resultPath != "" {
				f, err := os.Create(resultPath)
				if err != nil {
					return err
				}
				if err := writeJSON(f, outcome.Result); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
			}

			return writeJSON(cmd.OutOrStdout(), runOutput{
				RunID:    outcome.Run.ID,
				Name:     outcome.Run.Name,
				Seed:     outcome.Run.Seed,
				Start:    outcome.Run.Period.Start.String(),
				End:      outcome.Run.Period.End.String(),
				Initial:  outcome.Result.Initial,
				Final:    outcome.Result.Offices[sim.Period.End.String()],
				Summary:  outcome.Summary,
				Warnings: sim.Warnings,
			})
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Simulation document (.yaml, .yml or .json)")
	cmd.Flags().StringVar(&scenario, "scenario", "", "Built-in scenario ID (baseline, hiring-freeze, high-churn, new-office)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Override the document seed")
	cmd.Flags().StringVar(&end, "end", "", "Override the last simulated month (YYYY-MM)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Write the result workbook to this path")
	cmd.Flags().StringVar(&resultPath, "result", "", "Write the nested JSON result to this path")
	return cmd
}

type runOutput struct {
	RunID    generic.RunID    `json:"run_id"`
	Name     string           `json:"name,omitempty"`
	Seed     int64            `json:"seed"`
	Start    string           `json:"start"`
	End      string           `json:"end"`
	Initial  map[string]int   `json:"initial_headcount"`
	Final    map[string]int   `json:"final_headcount"`
	Summary  *generic.Summary `json:"summary"`
	Warnings []string         `json:"warnings,omitempty"`
}
