package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/embrace-call-for-code/envboot/internal/envmap"
	"github.com/embrace-call-for-code/envboot/internal/manifest"
	"github.com/embrace-call-for-code/envboot/internal/sequencer"
)

func newDoctorCmd() *cobra.Command {
	var manifestFlag string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run local diagnostics for the envboot setup",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := manifestPathFromArgs(args, manifestFlag)

			fmt.Fprintln(out, "envboot doctor")
			fmt.Fprintln(out)
			fmt.Fprintf(out, "OS: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(out, "Manifest: %s\n", path)

			histPath, err := historyPath()
			if err != nil {
				return fmt.Errorf("doctor: resolve history path: %w", err)
			}
			fmt.Fprintf(out, "Run history: %s\n", histPath)
			fmt.Fprintln(out)

			healthy := true

			if hist, err := openHistory(); err != nil {
				healthy = false
				printError(out, "Run history: %v", err)
			} else {
				hist.Close()
				printOK(out, "Run history: OK")
			}

			m, err := manifest.Load(path)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					printWarn(out, "Manifest: not found")
					printHint(out, "create one with `envboot init`")
				} else {
					healthy = false
					printError(out, "Manifest: %v", err)
				}
				if !healthy {
					return &ExitError{Code: 1, Err: fmt.Errorf("doctor found problems")}
				}
				return nil
			}
			printOK(out, "Manifest: valid (%d step(s))", len(m.Steps))

			if overlay, ok := m.Env["PATH"]; ok {
				env := envmap.Inherited()
				for _, part := range filepath.SplitList(overlay) {
					if part == "" || part == "$PATH" || part == "${PATH}" {
						continue
					}
					dir := env.Expand(part)
					if envmap.PathContainsDir(env.Get("PATH"), dir) {
						printOK(out, "PATH overlay: %q already present", dir)
					} else {
						printOK(out, "PATH overlay: %q will be prepended for steps", dir)
					}
				}
			}

			// Tools installed by earlier steps are expected to be missing
			// before the first run, so unresolved commands are warnings.
			steps := sequencer.FromManifest(m, sequencer.BuildOptions{})
			for _, step := range steps {
				bin := step.Command[0]
				if _, err := exec.LookPath(bin); err != nil {
					printWarn(out, "Step %q: %q not found on PATH", step.Name, bin)
				} else {
					printOK(out, "Step %q: %q resolves", step.Name, bin)
				}
			}

			if !healthy {
				return &ExitError{Code: 1, Err: fmt.Errorf("doctor found problems")}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&manifestFlag, "manifest", "f", "", "Path to the bootstrap manifest (default envboot.yaml)")
	return cmd
}
