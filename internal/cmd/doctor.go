package cmd

import (
	"fmt"

	"github.com/forgecorp/crucible"
	"github.com/spf13/cobra"
)

func newDoctorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the toolchain and its dependencies are reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			toolchain, _ := cmd.Flags().GetString("toolchain")
			checks := crucible.RunDoctor(cmd.Context(), toolchain, crucible.NewOSCommandRunner())

			fmt.Fprint(cmd.OutOrStdout(), crucible.SummarizeDoctor(checks))

			for _, c := range checks {
				if !c.Ok {
					return exitErrorf(1, "doctor check %q failed", c.Name)
				}
			}
			return nil
		},
	}

	cmd.Flags().String("toolchain", crucible.DefaultToolchain, "Compiler driver to probe")

	return cmd
}
