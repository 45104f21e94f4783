// Package cli implements the qmd command-line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagDB      string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "qmd",
	Short: "query markdown documents",
	Long: `qmd - local multi-modal search over markdown collections

Index directories of markdown files into named collections, then search
them lexically (FTS5/BM25), semantically (embeddings), or both at once
with structured queries whose results are fused into one ranked list.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.qmd/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database file (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}
