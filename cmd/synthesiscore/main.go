// Package main provides the CLI entry point for SynthesisCore, the
// agentic task-synthesis pipeline: it turns completed agent
// trajectories into verified, difficulty-graded training tasks.
//
// Start the server (an HTTP trajectory-ingestion endpoint plus the
// real-time synthesis worker):
//
//	synthesiscore serve --config synthesiscore.yaml
//
// Run one trajectory through the pipeline without starting a server:
//
//	synthesiscore synthesize --config synthesiscore.yaml trajectory.json
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information, populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "synthesiscore",
		Short: "SynthesisCore - agentic task-synthesis pipeline",
		Long: `SynthesisCore turns completed agent trajectories into verified,
difficulty-graded training tasks: it extracts atomic facts, extends
them into deeper and wider variants, scores every candidate along
seven quality dimensions, and emits the ones that pass.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildServeCmd(),
		buildSynthesizeCmd(),
	)

	return rootCmd
}
