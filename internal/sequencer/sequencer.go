// Package sequencer executes an ordered list of bootstrap steps, stopping at
// the first failure. Each step observes the filesystem and environment side
// effects of all prior steps; nothing is retried and nothing is rolled back.
package sequencer

import (
	"context"
	"fmt"
	"time"

	"github.com/embrace-call-for-code/envboot/internal/capture"
	"github.com/embrace-call-for-code/envboot/internal/envmap"
	"github.com/embrace-call-for-code/envboot/internal/log"
	"github.com/embrace-call-for-code/envboot/internal/manifest"
	"github.com/embrace-call-for-code/envboot/internal/policy"
)

// State of a sequence run: NotStarted -> Running -> Succeeded | Failed.
type State string

const (
	StateNotStarted State = "not_started"
	StateRunning    State = "running"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// FailureClass names the phase a failure belongs to, derived from the
// failed step's kind.
type FailureClass string

const (
	DownloadFailure  FailureClass = "DownloadFailure"
	InstallFailure   FailureClass = "InstallFailure"
	ExecutionFailure FailureClass = "ExecutionFailure"
)

func Classify(kind manifest.StepKind) FailureClass {
	switch kind {
	case manifest.KindDownload:
		return DownloadFailure
	case manifest.KindHandoff:
		return ExecutionFailure
	default:
		return InstallFailure
	}
}

// Step is one resolved provisioning action. Steps are immutable once
// constructed and run strictly in declaration order.
type Step struct {
	Name    string
	Kind    manifest.StepKind
	Command []string
	// Dir overrides the working directory; empty means inherited.
	Dir string
	// Env is overlaid on the accumulated sequence environment. Values may
	// reference prior variables with $VAR syntax.
	Env map[string]string
}

// Outcome records one executed step, sanitized for persistence.
type Outcome struct {
	Index      int
	Name       string
	Kind       manifest.StepKind
	Command    string
	Status     string
	Reason     string
	ExitCode   *int
	Duration   time.Duration
	Dir        string
	StartedAt  time.Time
}

// Result is the final report of a sequence run.
type Result struct {
	State    State
	Outcomes []Outcome
	// FailedIndex is the 0-based index of the failed step, -1 on success.
	FailedIndex int
	FailedStep  string
	// ExitCode is the failed step's own exit code (127 when it never
	// started), 0 on success.
	ExitCode int
	Class    FailureClass
	Duration time.Duration
}

// StepError is returned by Run when a step fails.
type StepError struct {
	Index    int
	Name     string
	Class    FailureClass
	ExitCode int
	Reason   string
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q (index %d) failed: %s, exit code %d", e.Name, e.Index, e.Class, e.ExitCode)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Observer receives step lifecycle events as the sequence runs.
type Observer interface {
	StepStarted(index int, step Step)
	StepFinished(outcome Outcome)
}

// RunFunc matches capture.RunStep and can be swapped out in tests.
type RunFunc func(ctx context.Context, argv []string, dir string, environ []string) (capture.RunResult, error)

type Sequencer struct {
	runner   RunFunc
	observer Observer
	policy   *policy.Policy
}

type Options struct {
	// Runner defaults to capture.RunStep.
	Runner RunFunc
	// Observer is optional.
	Observer Observer
	// Policy defaults to policy.NewDefault.
	Policy *policy.Policy
}

func New(opts Options) *Sequencer {
	s := &Sequencer{
		runner:   opts.Runner,
		observer: opts.Observer,
		policy:   opts.Policy,
	}
	if s.runner == nil {
		s.runner = capture.RunStep
	}
	if s.policy == nil {
		s.policy = policy.NewDefault()
	}
	return s
}

// Run executes steps strictly in order against a copy of base. Each step's
// env overlay is folded into the sequence environment before it runs, so
// later steps observe it; completed steps are never re-evaluated. The first
// non-zero exit aborts the sequence and is reported as a *StepError.
func (s *Sequencer) Run(ctx context.Context, steps []Step, base envmap.Map) (Result, error) {
	logger := log.FromContext(ctx)
	started := time.Now()

	result := Result{
		State:       StateRunning,
		Outcomes:    make([]Outcome, 0, len(steps)),
		FailedIndex: -1,
	}

	env := base.Clone()

	for i, step := range steps {
		select {
		case <-ctx.Done():
			result.State = StateFailed
			result.FailedIndex = i
			result.FailedStep = step.Name
			result.ExitCode = 1
			result.Class = Classify(step.Kind)
			result.Duration = time.Since(started)
			return result, &StepError{
				Index:    i,
				Name:     step.Name,
				Class:    result.Class,
				ExitCode: 1,
				Reason:   "canceled",
				Err:      ctx.Err(),
			}
		default:
		}

		env.Apply(step.Env)

		if s.observer != nil {
			s.observer.StepStarted(i, step)
		}
		logger.Info("running step", "index", i, "name", step.Name, "kind", string(step.Kind))

		res, runErr := s.runner(ctx, step.Command, step.Dir, env.Environ())

		outcome := Outcome{
			Index:     i,
			Name:      step.Name,
			Kind:      step.Kind,
			Command:   s.policy.RedactCommand(JoinCommand(step.Command)),
			Status:    res.Status,
			Reason:    res.Reason,
			ExitCode:  res.ExitCode,
			Duration:  res.Duration,
			Dir:       step.Dir,
			StartedAt: res.StartedAt,
		}
		result.Outcomes = append(result.Outcomes, outcome)
		if s.observer != nil {
			s.observer.StepFinished(outcome)
		}

		if runErr != nil {
			code := res.EffectiveExitCode()
			result.State = StateFailed
			result.FailedIndex = i
			result.FailedStep = step.Name
			result.ExitCode = code
			result.Class = Classify(step.Kind)
			result.Duration = time.Since(started)

			logger.Error("step failed",
				"index", i,
				"name", step.Name,
				"class", string(result.Class),
				"reason", res.Reason,
				"exit_code", code,
			)
			return result, &StepError{
				Index:    i,
				Name:     step.Name,
				Class:    result.Class,
				ExitCode: code,
				Reason:   res.Reason,
				Err:      runErr,
			}
		}

		logger.Info("step succeeded", "index", i, "name", step.Name, "duration", res.Duration)
	}

	result.State = StateSucceeded
	result.Duration = time.Since(started)
	return result, nil
}
