package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/cuda-installer/internal/service/installer"
	"github.com/oshokin/cuda-installer/internal/version"
)

var (
	// configPath to the optional configuration YAML file.
	configPath string
	// logLevel overrides the configured log level.
	logLevel string

	// rootCmd installs the CUDA toolkit, cuDNN and the matching host compiler.
	rootCmd = &cobra.Command{
		Use:           "cuda-installer",
		Short:         "Install CUDA, cuDNN and a compatible gcc through pacman",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Signals are handled by the installer, which owns cleanup.
			options := &installer.Options{
				ConfigPath: configPath,
				LogLevel:   logLevel,
			}

			return installer.Run(context.Background(), options)
		},
	}
)

// Execute runs the cuda-installer CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(newCheckCommand(), newConfigCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Flags are shared by every subcommand.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
}
