package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/cuda-installer/internal/config"
)

func newConfigCommand() *cobra.Command {
	var output string

	command := &cobra.Command{
		Use:   "config",
		Short: "Write the effective settings to a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err == nil {
				err = config.Save(output, cfg)
			}

			if err != nil {
				// Root silences errors, the installer reports its own.
				cmd.PrintErrln("Error:", err)

				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Settings written to %s\n", output)

			return nil
		},
	}

	command.Flags().StringVarP(&output, "output", "o", config.DefaultConfigFilename, "where to write the settings")

	return command
}
