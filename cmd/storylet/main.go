// Package main is the entry point for the storylet CLI.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/storylet/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
