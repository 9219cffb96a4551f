// Package main is the entry point for the provgraph CLI.
package main

import (
	"os"

	"github.com/provgraph/provgraph/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
