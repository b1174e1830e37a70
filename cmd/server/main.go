// Package main is the clanhub server entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0-dev"
	configPath string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	serveCmd := newServeCmd()
	rootCmd := &cobra.Command{
		Use:          "clanhub",
		Short:        "Clan record service",
		Version:      version,
		SilenceUsage: true,
		RunE:         serveCmd.RunE,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file (or CLANHUB_CONFIG)")

	rootCmd.AddCommand(
		serveCmd,
		newMigrateCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
