// Command buildcore is a thin CLI over the engine packages: dependency
// graph analysis, cache inspection, and a parallel-orchestrator demo.
// Flag ergonomics are intentionally minimal; this exists to exercise
// the library surface manually, not as a polished build tool.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nexxo-build/nexxocore/engine/config"
	"github.com/nexxo-build/nexxocore/pkg/logging"
)

var (
	configPath string
	logger     *logging.Logger
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "buildcore",
	Short: "Native acceleration primitives for a JS/TS build engine",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cmd.Context(), configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded

		logger = logging.New(logging.Config{
			Level:   parseLevel(cfg.Logging.Level),
			LogDir:  cfg.Logging.Dir,
			Service: cfg.Logging.Service,
			JSON:    cfg.Logging.JSON,
			Quiet:   false,
		})
		logger.Debug("config loaded", "config_path", configPath, "command", cmd.Name())
		return nil
	},
}

func parseLevel(s string) logging.Level {
	switch s {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "buildcore.yaml", "path to a YAML config file (falls back to built-in defaults)")
	rootCmd.AddCommand(graphCmd, cacheCmd, orchestratorCmd, sandboxCmd)
}

func main() {
	ctx := context.Background()
	shutdown, err := setupTelemetry(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer shutdown(ctx)

	rootCmd.SetContext(ctx)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
