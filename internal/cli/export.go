package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/embrace-call-for-code/envboot/internal/export"
	"github.com/embrace-call-for-code/envboot/internal/store"
)

func newExportCmd() *cobra.Command {
	var (
		exportLast bool
		runID      string
	)

	cmd := &cobra.Command{
		Use:     "export",
		Aliases: []string{"x"},
		Short:   "Export a recorded run as a markdown provisioning report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if runID != "" && exportLast {
				return errors.New("use either `--last` or `--run <id>`, not both")
			}
			if runID == "" && !exportLast {
				return errors.New("provide `--last` or `--run <id>`")
			}

			hist, err := openHistory()
			if err != nil {
				return err
			}
			defer hist.Close()

			var run *store.Run
			if runID != "" {
				run, err = hist.RunByID(cmd.Context(), runID)
				if err != nil {
					if errors.Is(err, store.ErrRunNotFound) {
						return fmt.Errorf("run %q not found", runID)
					}
					return fmt.Errorf("load run by id: %w", err)
				}
			} else {
				run, err = hist.LastRun(cmd.Context())
				if err != nil {
					if errors.Is(err, store.ErrNoRuns) {
						return errors.New("no recorded runs. Execute a manifest with `envboot run` first")
					}
					return fmt.Errorf("load last run: %w", err)
				}
			}

			steps, err := hist.StepsForRun(cmd.Context(), run.ID)
			if err != nil {
				return fmt.Errorf("load run steps: %w", err)
			}

			workingDir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get current directory: %w", err)
			}

			outPath, err := export.WriteMarkdown(run, steps, workingDir)
			if err != nil {
				return fmt.Errorf("export markdown: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported report: %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&exportLast, "last", "l", false, "Export the most recent run")
	cmd.Flags().StringVar(&runID, "run", "", "Export a specific run by id")
	return cmd
}
