// SPDX-License-Identifier: MIT
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"ledctl/internal/build"
)

// DefaultSettingsFile is used when --settings-file is not given.
const DefaultSettingsFile = "Settings.json"

// Args is the fully parsed command line.
type Args struct {
	SettingsFile string
}

// ParseArgs builds and executes the root command, returning the parsed
// settings-file path.
func ParseArgs() (*Args, error) {
	buildInfo := build.GetBuildFlags()
	args := &Args{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Real-time audio-reactive LED controller",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			return nil
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.PersistentFlags().StringVar(&args.SettingsFile, "settings-file", DefaultSettingsFile,
		"Path to the settings file")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return args, nil
}
