// Package main provides the entry point for the span CLI application.
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
	version  = "0.1.0-dev"
	globalAs string
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
	rootCmd := &cobra.Command{
		Use:     "span",
		Short:   "A biographical database of spans and the connections between them",
		Version: version,
	}

	rootCmd.PersistentFlags().StringVar(&globalAs, "as", "", "Act as this user ID (empty = guest)")

	rootCmd.AddCommand(
		newInitCmd(),
		newSpansCmd(),
		newConnectCmd(),
		newConnectionsCmd(),
		newTypesCmd(),
		newUsersCmd(),
		newImportCmd(),
		newExportCmd(),
		newMusicCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
