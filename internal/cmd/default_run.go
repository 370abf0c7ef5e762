package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NeedsDefaultRun reports whether args should be rewritten to `run <args>`
// so the bare `crucible [flags] <workspace-path>` shorthand keeps working:
// it skips over root-level flags looking for the first positional argument
// and checks whether that argument names a registered subcommand.
func NeedsDefaultRun(rootCmd *cobra.Command, args []string) bool {
	if len(args) == 0 {
		return false
	}
	if hasExitEarlyFlag(args) {
		return false
	}

	bools, valued := rootFlagSets(rootCmd)

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			// First positional argument decides.
			return !isSubcommand(rootCmd, arg)
		}
		switch {
		case strings.Contains(arg, "="):
			// --flag=value is self-contained.
		case bools[arg]:
		case valued[arg]:
			i++ // consume the flag's value
		default:
			// An unknown flag can only belong to the run subcommand.
			return true
		}
	}
	return false // only root flags, no positional
}

// hasExitEarlyFlag reports whether args contain a flag cobra's root
// handles itself (--version/--help); rewriting those would hide them
// behind the run subcommand.
func hasExitEarlyFlag(args []string) bool {
	for _, a := range args {
		if a == "--version" || a == "--help" || a == "-h" {
			return true
		}
		if a == "--" {
			return false
		}
	}
	return false
}

// rootFlagSets splits the root command's persistent flags into boolean
// flags (no value follows) and valued flags (the next arg is the value).
// --version and --help are registered by cobra only once Execute starts,
// so they are seeded by hand.
func rootFlagSets(rootCmd *cobra.Command) (bools, valued map[string]bool) {
	bools = map[string]bool{"--help": true, "-h": true, "--version": true}
	valued = map[string]bool{}
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		target := valued
		if f.Value.Type() == "bool" {
			target = bools
		}
		target["--"+f.Name] = true
		if f.Shorthand != "" {
			target["-"+f.Shorthand] = true
		}
	})
	return bools, valued
}

func isSubcommand(rootCmd *cobra.Command, name string) bool {
	for _, c := range rootCmd.Commands() {
		if c.Name() == name {
			return true
		}
		for _, a := range c.Aliases {
			if a == name {
				return true
			}
		}
	}
	return false
}
