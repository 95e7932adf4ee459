package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/synthesiscore/core/internal/config"
	"github.com/synthesiscore/core/internal/realtime"
	"github.com/synthesiscore/core/pkg/models"
)

// buildSynthesizeCmd creates the "synthesize" command: run one
// trajectory through the pipeline synchronously, without starting a
// server, and print the verified tasks it produced.
func buildSynthesizeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "synthesize <trajectory.json>",
		Short: "Run one trajectory through the synthesis pipeline",
		Long: `Read a single agent trajectory from a JSON file, run it through
atomic task generation, depth/width extension, and verification, and
print the accepted tasks as JSON. Intended for local testing of a
trajectory before wiring it into the serve command's ingestion endpoint.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSynthesize(cmd.Context(), configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "synthesiscore.yaml", "Path to YAML configuration file")
	return cmd
}

func runSynthesize(ctx context.Context, configPath, trajectoryPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	data, err := os.ReadFile(trajectoryPath)
	if err != nil {
		return fmt.Errorf("failed to read trajectory file: %w", err)
	}
	var traj models.Trajectory
	if err := json.Unmarshal(data, &traj); err != nil {
		return fmt.Errorf("failed to parse trajectory: %w", err)
	}

	pipe, err := buildPipeline(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer pipe.Close()

	result, err := synthesizeOnce(ctx, pipe.trigger, traj)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// synthesizeOnce drives Trigger's asynchronous worker loop for exactly
// one trajectory and blocks until its quality report callback fires,
// turning the async queue-and-worker flow into a synchronous call
// for one-shot CLI use.
func synthesizeOnce(ctx context.Context, trigger *realtime.Trigger, traj models.Trajectory) (realtime.Result, error) {
	if !traj.Success {
		return realtime.Result{}, fmt.Errorf("trajectory %q did not succeed, nothing to synthesize", traj.ID)
	}

	done := make(chan realtime.Result, 1)
	trigger.SetQualityReportCallback(func(result realtime.Result) {
		select {
		case done <- result:
		default:
		}
	})

	trigger.Start(ctx)
	defer trigger.Stop()

	if err := trigger.OnTrajectoryCompleted(ctx, traj); err != nil {
		return realtime.Result{}, fmt.Errorf("failed to enqueue trajectory: %w", err)
	}

	select {
	case result := <-done:
		return result, nil
	case <-ctx.Done():
		return realtime.Result{}, ctx.Err()
	}
}
