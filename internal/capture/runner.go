// Package capture invokes a single external command and classifies its
// outcome. Stdout and stderr stay attached to the parent process: bootstrap
// steps are interactive-grade tools (installers, package managers, management
// shells) whose output belongs on the operator's terminal.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

const (
	StatusOK     = "OK"
	StatusFailed = "FAILED"
)

const (
	ReasonNonzeroExit     = "nonzero_exit"
	ReasonCommandNotFound = "command_not_found"
	ReasonStartFailed     = "start_failed"
)

// startFailureExitCode is reported when the process never ran. 127 is the
// shell convention for "command not found" and the closest analogue for
// other start failures.
const startFailureExitCode = 127

type RunResult struct {
	StartedAt time.Time
	Duration  time.Duration
	// ExitCode is nil when the process never started.
	ExitCode *int
	Status   string
	Reason   string
}

// RunStep executes argv in dir with the given environment. The command
// inherits the parent's stdin/stdout/stderr.
func RunStep(ctx context.Context, argv []string, dir string, environ []string) (RunResult, error) {
	if len(argv) == 0 {
		return RunResult{Status: StatusFailed, Reason: ReasonStartFailed}, errors.New("empty argument vector")
	}

	startedAt := time.Now().UTC()
	result := RunResult{StartedAt: startedAt}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = environ
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	result.Duration = time.Since(startedAt)

	if err == nil {
		code := 0
		result.ExitCode = &code
		result.Status = StatusOK
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		result.ExitCode = &code
		result.Status = StatusFailed
		result.Reason = ReasonNonzeroExit
		return result, err
	}

	result.Status = StatusFailed
	result.Reason = classifyStartError(err)
	return result, err
}

// EffectiveExitCode reports the exit code to surface in diagnostics,
// substituting the shell convention when the process never started.
func (r RunResult) EffectiveExitCode() int {
	if r.ExitCode != nil {
		return *r.ExitCode
	}
	return startFailureExitCode
}

func (r RunResult) String() string {
	if r.ExitCode == nil {
		return fmt.Sprintf("%s (%s)", r.Status, r.Reason)
	}
	if r.Reason == "" {
		return fmt.Sprintf("%s, exit=%d", r.Status, *r.ExitCode)
	}
	return fmt.Sprintf("%s (%s), exit=%d", r.Status, r.Reason, *r.ExitCode)
}

func classifyStartError(err error) string {
	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		return ReasonCommandNotFound
	}

	// On some platforms the underlying error may be a PathError.
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, exec.ErrNotFound) {
		return ReasonCommandNotFound
	}

	return ReasonStartFailed
}
