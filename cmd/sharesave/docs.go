package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

func newDocsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "gen-docs",
		Short:  "Generate man pages or markdown for every sharesave command",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, _ := cmd.Flags().GetString("dir")       //nolint:errcheck // flag name is hardcoded
			format, _ := cmd.Flags().GetString("format") //nolint:errcheck // flag name is hardcoded
			return genDocs(cmd.Root(), dir, format)
		},
	}
	cmd.Flags().String("dir", "docs", "output directory")
	cmd.Flags().String("format", "man", "output format (man or markdown)")
	return cmd
}

// genDocs renders documentation for root and all its visible subcommands
// into dir.
func genDocs(root *cobra.Command, dir, format string) error {
	var gen func() error
	switch format {
	case "man":
		gen = func() error {
			return doc.GenManTree(root, &doc.GenManHeader{
				Title:   "SHARESAVE",
				Section: "1",
				Source:  "sharesave " + version,
				Manual:  "sharesave manual",
			}, dir)
		}
	case "markdown", "md":
		gen = func() error { return doc.GenMarkdownTree(root, dir) }
	default:
		return fmt.Errorf("unknown format %q (use man or markdown)", format)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return gen()
}
