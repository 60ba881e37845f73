package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/embrace-call-for-code/envboot/internal/manifest"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "init",
		Aliases: []string{"i"},
		Short:   "Write a starter manifest and initialize the run history store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(manifest.DefaultFilename); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", manifest.DefaultFilename)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("stat %s: %w", manifest.DefaultFilename, err)
			}

			data, err := manifest.DefaultYAML()
			if err != nil {
				return err
			}
			if err := os.WriteFile(manifest.DefaultFilename, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", manifest.DefaultFilename, err)
			}

			hist, err := openHistory()
			if err != nil {
				return err
			}
			defer hist.Close()

			printOK(cmd.OutOrStdout(), "wrote %s", manifest.DefaultFilename)
			printOK(cmd.OutOrStdout(), "run history at %s", hist.Path())
			printHint(cmd.OutOrStdout(), "edit the manifest, then check it with `envboot plan`")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing manifest")
	return cmd
}
