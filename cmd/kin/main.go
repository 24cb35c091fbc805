// Package main provides the entry point for the kin CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ersonp/kinship/internal/infrastructure/config"
	"github.com/ersonp/kinship/internal/infrastructure/logging"
)

var (
	version         = "0.1.0-dev"
	globalFamily    string
	globalLogLevel  string
	globalLogFormat string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kin",
		Short:         "A family kinship engine: record relationships, derive the rest, ask how anyone is related",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := globalLogLevel
			if level == "" {
				level = "warn"
			}
			logging.Init(level, globalLogFormat, cmd.ErrOrStderr())
			cmd.SetContext(logging.WithFamily(cmd.Context(), globalFamily))
		},
	}

	rootCmd.PersistentFlags().StringVarP(&globalFamily, "family", "f", config.DefaultFamily, "Family graph to operate on")
	rootCmd.PersistentFlags().StringVar(&globalLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&globalLogFormat, "log-format", "text", "Log format: text, json")

	rootCmd.AddCommand(
		newInitCmd(),
		newFamiliesCmd(),
		newMemberCmd(),
		newRelateCmd(),
		newRelationsCmd(),
		newCodesCmd(),
		newKinshipCmd(),
		newNetworkCmd(),
		newDedupeCmd(),
		newExportCmd(),
		newImportCmd(),
		newDiffCmd(),
		newHistoryCmd(),
		newServeCmd(),
	)

	return rootCmd
}
