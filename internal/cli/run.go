package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/embrace-call-for-code/envboot/internal/envmap"
	"github.com/embrace-call-for-code/envboot/internal/log"
	"github.com/embrace-call-for-code/envboot/internal/manifest"
	"github.com/embrace-call-for-code/envboot/internal/sequencer"
	"github.com/embrace-call-for-code/envboot/internal/store"
)

func newRunCmd() *cobra.Command {
	var (
		manifestFlag string
		dirOverride  string
		handoffLine  string
		skipHandoff  bool
		dryRun       bool
		noHistory    bool
	)

	cmd := &cobra.Command{
		Use:     "run [manifest]",
		Aliases: []string{"r"},
		Short:   "Execute the bootstrap sequence and hand off to the target entry point",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := manifestPathFromArgs(args, manifestFlag)
			m, err := manifest.Load(path)
			if err != nil {
				return err
			}

			opts := sequencer.BuildOptions{
				Dir:         dirOverride,
				SkipHandoff: skipHandoff,
			}
			if handoffLine != "" {
				opts.HandoffArgv = strings.Fields(handoffLine)
			}
			steps := sequencer.FromManifest(m, opts)

			if dryRun {
				for _, line := range sequencer.Describe(steps) {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			}

			env := envmap.Inherited()
			env.Apply(m.Env)

			ctx := log.IntoContext(cmd.Context(), log.New("envboot"))
			return executeSequence(ctx, cmd, path, m, steps, env, !noHistory)
		},
	}

	cmd.Flags().StringVarP(&manifestFlag, "manifest", "f", "", "Path to the bootstrap manifest (default envboot.yaml)")
	cmd.Flags().StringVarP(&dirOverride, "dir", "C", "", "Override the manifest's default working directory")
	cmd.Flags().StringVar(&handoffLine, "handoff", "", "Replace the handoff command (split on whitespace; quoting is not interpreted)")
	cmd.Flags().BoolVar(&skipHandoff, "skip-handoff", false, "Provision only; do not run the handoff command")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the resolved sequence without executing")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this run in the history store")
	return cmd
}

// historyObserver persists step outcomes as the sequence progresses, so a
// run killed mid-step still leaves its completed steps on record.
type historyObserver struct {
	ctx   context.Context
	store *store.Store
	runID string
}

func (o *historyObserver) StepStarted(int, sequencer.Step) {}

func (o *historyObserver) StepFinished(outcome sequencer.Outcome) {
	rec := store.StepRecord{
		RunID:      o.runID,
		Index:      outcome.Index,
		Name:       outcome.Name,
		Kind:       string(outcome.Kind),
		Command:    outcome.Command,
		Status:     outcome.Status,
		Reason:     outcome.Reason,
		ExitCode:   outcome.ExitCode,
		DurationMS: outcome.Duration.Milliseconds(),
		Dir:        outcome.Dir,
		StartedAt:  outcome.StartedAt,
	}
	if err := o.store.AddStep(o.ctx, rec); err != nil {
		log.SubLogger(log.FromContext(o.ctx), "history").Warn("failed to record step", "step", outcome.Name, "err", err)
	}
}

func executeSequence(
	ctx context.Context,
	cmd *cobra.Command,
	manifestPath string,
	m *manifest.Manifest,
	steps []sequencer.Step,
	env envmap.Map,
	record bool,
) error {
	var (
		hist *store.Store
		run  *store.Run
	)
	if record {
		var err error
		hist, err = openHistory()
		if err != nil {
			return err
		}
		defer hist.Close()

		run, err = hist.CreateRun(ctx, manifestPath, m.Description, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}

	seqOpts := sequencer.Options{}
	if run != nil {
		seqOpts.Observer = &historyObserver{ctx: ctx, store: hist, runID: run.ID}
	}

	result, runErr := sequencer.New(seqOpts).Run(ctx, steps, env)

	if run != nil {
		finish := store.FinishInput{
			Status:  store.RunStatusSucceeded,
			EndedAt: time.Now().UTC(),
		}
		if result.State == sequencer.StateFailed {
			idx := result.FailedIndex
			code := result.ExitCode
			finish.Status = store.RunStatusFailed
			finish.FailureClass = string(result.Class)
			finish.FailedStep = result.FailedStep
			finish.FailedIndex = &idx
			finish.ExitCode = &code
		}
		if err := hist.FinishRun(ctx, run.ID, finish); err != nil {
			log.FromContext(ctx).Warn("failed to finalize run record", "err", err)
		}
	}

	if runErr != nil {
		// The step identity itself travels in the StepError; main prints it.
		var stepErr *sequencer.StepError
		if errors.As(runErr, &stepErr) {
			if stepErr.Reason != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Reason: %s\n", stepErr.Reason)
			}
			if stepErr.Reason == "command_not_found" {
				printHint(cmd.ErrOrStderr(), "a tool installed by an earlier step must be on PATH; extend it with an env overlay like PATH: $HOME/.local/bin:$PATH")
			}
		}
		return &ExitError{Code: 1, Err: runErr}
	}

	printOK(cmd.OutOrStdout(), "bootstrap complete: %d step(s) in %s", len(result.Outcomes), result.Duration.Round(time.Millisecond))
	return nil
}
