package cli

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/embrace-call-for-code/envboot/internal/store"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded bootstrap runs",
	}
	cmd.AddCommand(newRunsListCmd())
	return cmd
}

func newRunsListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List most recent bootstrap runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			hist, err := openHistory()
			if err != nil {
				return err
			}
			defer hist.Close()

			runs, err := hist.ListRuns(cmd.Context(), limit)
			if err != nil {
				if errors.Is(err, store.ErrNoRuns) {
					return errors.New("no recorded runs. Execute a manifest with `envboot run` first")
				}
				return fmt.Errorf("list runs: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "ID\tSTARTED\tSTATUS\tSTEPS\tMANIFEST")
			for _, run := range runs {
				status := run.Status
				if run.Status == store.RunStatusFailed && run.FailedIndex != nil {
					status = fmt.Sprintf("%s (step %d)", run.Status, *run.FailedIndex)
				}
				fmt.Fprintf(
					cmd.OutOrStdout(),
					"%s\t%s\t%s\t%d\t%s\n",
					run.ID,
					humanize.Time(run.StartedAt),
					status,
					run.StepCount,
					run.ManifestPath,
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of most recent runs to show")
	return cmd
}
