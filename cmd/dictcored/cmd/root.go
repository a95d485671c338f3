// Package cmd provides the CLI commands for dictcored.
package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the dictcored CLI.
func NewRootCmd() *cobra.Command {
	var configPath string
	var logLevel string

	cmd := &cobra.Command{
		Use:   "dictcored",
		Short: "Versioned two-tier cache server for dictionary and corpus data",
		Long: `dictcored serves versioned dictionary, corpus, and derived-index
resources over a namespace-partitioned two-tier cache.

It exposes the version-history HTTP endpoints (list, get, diff,
rollback) and maintains the on-disk store, delta chains, and derived
search indices.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newServeCmd(&configPath, &logLevel))

	return cmd
}

// Execute runs the root command with signal-aware cancellation.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
