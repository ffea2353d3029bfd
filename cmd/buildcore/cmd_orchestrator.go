package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nexxo-build/nexxocore/engine/orchestrator"
	"github.com/nexxo-build/nexxocore/pkg/logging"
)

var orchestratorCmd = &cobra.Command{
	Use:   "orchestrator",
	Short: "Parallel task dispatcher",
}

var orchestratorRunDemoCmd = &cobra.Command{
	Use:   "run-demo [task-count]",
	Short: "Run N no-op tasks through the bounded dispatcher and print the resulting stats and event log",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runOrchestratorDemo,
}

func init() {
	orchestratorCmd.AddCommand(orchestratorRunDemoCmd)
}

func runOrchestratorDemo(cmd *cobra.Command, args []string) error {
	n := 10
	if len(args) == 1 {
		if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil {
			return fmt.Errorf("parsing task count: %w", err)
		}
	}

	o, err := orchestrator.New(cfg.Orchestrator.Parallelism, nil)
	if err != nil {
		return fmt.Errorf("creating orchestrator: %w", err)
	}

	// Route this demo's own log calls through the orchestrator's event
	// log via EventExporter, so per-task log output and stage
	// transitions end up interleaved in GetEvents() below.
	demoLogger := logging.New(logging.Config{
		Level:    logging.LevelInfo,
		Quiet:    true,
		Exporter: orchestrator.NewEventExporter(o),
	})
	defer demoLogger.Close()

	ctx := cmd.Context()
	err = o.RunStages(ctx, func(ctx context.Context, stage orchestrator.Stage) error {
		if stage != orchestrator.StageExecute {
			return nil
		}
		_, execErr := o.ExecuteParallel(ctx, n, func(ctx context.Context, i int) error {
			time.Sleep(time.Millisecond)
			demoLogger.Info("task completed", "task_index", i)
			return nil
		})
		return execErr
	})
	if err != nil {
		return fmt.Errorf("running stages: %w", err)
	}

	stats := o.GetStats()
	fmt.Printf("parallelism=%d total=%d completed=%d failed=%d duration_ms=%d\n",
		stats.Parallelism, stats.TotalTasks, stats.CompletedTasks, stats.FailedTasks, stats.TotalDurationMS)

	for _, evt := range o.GetEvents() {
		fmt.Printf("[%s] %s\n", evt.Stage, evt.Message)
	}
	return nil
}
