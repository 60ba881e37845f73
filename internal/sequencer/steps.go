package sequencer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/embrace-call-for-code/envboot/internal/manifest"
)

// BuildOptions carries CLI-level overrides applied while flattening a
// manifest into the executable sequence.
type BuildOptions struct {
	// Dir overrides the manifest's default working directory.
	Dir string
	// HandoffArgv replaces the manifest's handoff command.
	HandoffArgv []string
	// SkipHandoff drops the handoff step entirely.
	SkipHandoff bool
}

// FromManifest flattens manifest steps plus the handoff into the ordered
// sequence. Per-step workdirs win over the manifest default, which in turn
// wins over the inherited working directory.
func FromManifest(m *manifest.Manifest, opts BuildOptions) []Step {
	defaultDir := m.Workdir
	if opts.Dir != "" {
		defaultDir = opts.Dir
	}

	resolveDir := func(stepDir string) string {
		if stepDir != "" {
			return stepDir
		}
		return defaultDir
	}

	steps := make([]Step, 0, len(m.Steps)+1)
	for _, ms := range m.Steps {
		steps = append(steps, Step{
			Name:    ms.Name,
			Kind:    ms.Kind,
			Command: append([]string(nil), ms.Command...),
			Dir:     resolveDir(ms.Workdir),
			Env:     ms.Env,
		})
	}

	if m.Handoff != nil && !opts.SkipHandoff {
		handoff := Step{
			Name:    m.Handoff.Name,
			Kind:    manifest.KindHandoff,
			Command: append([]string(nil), m.Handoff.Command...),
			Dir:     resolveDir(m.Handoff.Workdir),
			Env:     m.Handoff.Env,
		}
		if len(opts.HandoffArgv) > 0 {
			handoff.Command = append([]string(nil), opts.HandoffArgv...)
		}
		steps = append(steps, handoff)
	}

	return steps
}

// Describe renders the resolved sequence for `plan` and `run --dry-run`
// without executing anything.
func Describe(steps []Step) []string {
	if len(steps) == 0 {
		return []string{"No steps declared; the sequence succeeds immediately."}
	}

	lines := make([]string, 0, len(steps))
	for i, step := range steps {
		var b strings.Builder
		fmt.Fprintf(&b, "%d. [%s] %s: %s", i+1, step.Kind, step.Name, JoinCommand(step.Command))
		if step.Dir != "" {
			fmt.Fprintf(&b, " (workdir %s)", step.Dir)
		}
		if len(step.Env) > 0 {
			keys := make([]string, 0, len(step.Env))
			for k := range step.Env {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(&b, " (env %s)", strings.Join(keys, ", "))
		}
		lines = append(lines, b.String())
	}
	return lines
}

// JoinCommand renders an argument vector as a single shell-style line,
// quoting arguments that contain whitespace or quotes.
func JoinCommand(argv []string) string {
	parts := make([]string, 0, len(argv))
	for _, arg := range argv {
		if arg == "" || strings.ContainsAny(arg, " \t\n\"'") {
			parts = append(parts, fmt.Sprintf("%q", arg))
			continue
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}
