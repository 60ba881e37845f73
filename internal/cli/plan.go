package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/embrace-call-for-code/envboot/internal/manifest"
	"github.com/embrace-call-for-code/envboot/internal/policy"
	"github.com/embrace-call-for-code/envboot/internal/sequencer"
)

func newPlanCmd() *cobra.Command {
	var (
		manifestFlag string
		dirOverride  string
		skipHandoff  bool
	)

	cmd := &cobra.Command{
		Use:     "plan [manifest]",
		Aliases: []string{"p"},
		Short:   "Print the resolved bootstrap sequence without executing it",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := manifestPathFromArgs(args, manifestFlag)
			m, err := manifest.Load(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if m.Description != "" {
				fmt.Fprintf(out, "Manifest: %s (%s)\n", path, m.Description)
			} else {
				fmt.Fprintf(out, "Manifest: %s\n", path)
			}
			if m.Workdir != "" {
				fmt.Fprintf(out, "Default workdir: %s\n", m.Workdir)
			}
			if len(m.Env) > 0 {
				overlay := policy.NewDefault().RedactEnv(m.Env)
				keys := make([]string, 0, len(overlay))
				for k := range overlay {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				pairs := make([]string, 0, len(keys))
				for _, k := range keys {
					pairs = append(pairs, k+"="+overlay[k])
				}
				fmt.Fprintf(out, "Global env overlay: %s\n", strings.Join(pairs, ", "))
			}
			fmt.Fprintln(out)

			steps := sequencer.FromManifest(m, sequencer.BuildOptions{Dir: dirOverride, SkipHandoff: skipHandoff})
			for _, line := range sequencer.Describe(steps) {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&manifestFlag, "manifest", "f", "", "Path to the bootstrap manifest (default envboot.yaml)")
	cmd.Flags().StringVarP(&dirOverride, "dir", "C", "", "Override the manifest's default working directory")
	cmd.Flags().BoolVar(&skipHandoff, "skip-handoff", false, "Exclude the handoff command from the plan")
	return cmd
}
