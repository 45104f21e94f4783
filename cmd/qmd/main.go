// Package main is the entry point for the qmd CLI.
package main

import (
	"fmt"
	"os"

	"github.com/shaneholloman/qmd/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
