package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates and returns the root cobra command for crucible.
// Exported for testability (SetArgs/SetOut) and for docgen.
func NewRootCommand() *cobra.Command {
	cobra.EnableTraverseRunHooks = true

	rootCmd := &cobra.Command{
		Use:     "crucible",
		Short:   "Continuous test driver for compiled workspaces",
		Long:    "crucible watches a workspace, keeps a shadow copy of it in sync, and drives the compiler through build, list and run cycles as files change.",
		Version: Version,
		// Silence usage on RunE errors (cobra prints usage by default on error)
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringP("output", "o", "text", "Output format: text, json")

	rootCmd.AddCommand(
		newRunCommand(),
		newDoctorCommand(),
		newVersionCommand(),
		newUpdateCommand(),
	)

	return rootCmd
}
