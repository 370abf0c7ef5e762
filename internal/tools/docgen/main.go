// Command docgen renders the crucible CLI's command tree (run, doctor,
// version, update) as one markdown page per command, for the docs site.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/forgecorp/crucible/internal/cmd"
	"github.com/spf13/cobra/doc"
)

func main() {
	outDir := flag.String("out", "docs/cli", "directory the markdown pages are written to")
	flag.Parse()

	if err := run(*outDir); err != nil {
		fmt.Fprintf(os.Stderr, "docgen: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "docs generated in %s/\n", *outDir)
}

func run(outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	rootCmd := cmd.NewRootCommand()
	// The generated-by footer churns on every regeneration; leave it off so
	// the pages only change when a command does.
	rootCmd.DisableAutoGenTag = true

	return doc.GenMarkdownTree(rootCmd, outDir)
}
