// Package main is the entry point for the logsift CLI tool.
package main

import (
	"os"

	"logsift/cmd/logsift/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
