// Package cli assembles the envboot command surface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/embrace-call-for-code/envboot/internal/buildinfo"
	"github.com/embrace-call-for-code/envboot/internal/manifest"
	"github.com/embrace-call-for-code/envboot/internal/store"
)

// HistoryEnvVar overrides the run-history database location, primarily so
// tests and CI can isolate it from the user config directory.
const HistoryEnvVar = "ENVBOOT_HISTORY_DB"

func historyPath() (string, error) {
	if p := os.Getenv(HistoryEnvVar); p != "" {
		return p, nil
	}
	return store.DefaultPath()
}

// openHistory opens and migrates the run-history store. A variable so the
// blackbox harness and unit tests can redirect it via ENVBOOT_HISTORY_DB.
var openHistory = func() (*store.Store, error) {
	path, err := historyPath()
	if err != nil {
		return nil, err
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open run history: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrate run history: %w", err)
	}
	return s, nil
}

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "envboot",
		Short: "Provision a reproducible runtime environment from a declarative manifest",
		Long: `envboot executes the ordered provisioning steps of a bootstrap manifest
(fetch a payload, install a toolchain, install pinned dependencies) and hands
off execution to the target entry point. The first failing step aborts the
sequence with a diagnostic naming the step, its index, and its exit code.`,
	}

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.AddCommand(
		newInitCmd(),
		newRunCmd(),
		newPlanCmd(),
		newRunsCmd(),
		newExportCmd(),
		newDoctorCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print envboot build version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "envboot %s\n", buildinfo.String())
		},
	}
}

// manifestPathFromArgs resolves the manifest location: positional argument
// first, then the -f flag, then the default filename.
func manifestPathFromArgs(args []string, flagValue string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	if flagValue != "" {
		return flagValue
	}
	return manifest.DefaultFilename
}
