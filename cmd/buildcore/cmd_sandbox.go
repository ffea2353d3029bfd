package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nexxo-build/nexxocore/engine/sandbox"
)

var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "WASM plugin verification and execution",
}

var sandboxVerifyCmd = &cobra.Command{
	Use:   "verify [wasm-file]",
	Short: "Compile a WASM module without instantiating it",
	Args:  cobra.ExactArgs(1),
	RunE:  runSandboxVerify,
}

var sandboxRunCmd = &cobra.Command{
	Use:   "run [wasm-file]",
	Short: "Execute a WASM plugin's transform (or main) export under the configured CPU/memory bounds",
	Args:  cobra.ExactArgs(1),
	RunE:  runSandboxRun,
}

func init() {
	sandboxCmd.AddCommand(sandboxVerifyCmd, sandboxRunCmd)
}

func runSandboxVerify(cmd *cobra.Command, args []string) error {
	wasmBytes, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading wasm file: %w", err)
	}

	rt := sandbox.NewWithMemoryLimit(logger.Slog(), cfg.Sandbox.MemoryLimitPages)
	if err := rt.VerifyPlugin(cmd.Context(), wasmBytes); err != nil {
		return fmt.Errorf("verifying plugin: %w", err)
	}
	fmt.Println("ok")
	return nil
}

func runSandboxRun(cmd *cobra.Command, args []string) error {
	wasmBytes, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading wasm file: %w", err)
	}

	rt := sandbox.NewWithMemoryLimit(logger.Slog(), cfg.Sandbox.MemoryLimitPages)
	result, err := rt.Execute(cmd.Context(), wasmBytes, nil, cfg.Sandbox.DefaultTimeoutMS)
	if err != nil {
		return fmt.Errorf("executing plugin: %w", err)
	}
	fmt.Println(result)
	return nil
}
