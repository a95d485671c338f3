// Package main provides the entry point for the dictcored server.
package main

import (
	"os"

	"github.com/dictcore/dictcore/cmd/dictcored/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
