// Package cli wires configuration, adapters, and the worker loop behind the
// retakecut command.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/retakecut/retakecut/internal/config"
	"github.com/retakecut/retakecut/internal/logging"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	root := &cobra.Command{
		Use:          "retakecut",
		Short:        "Background worker that removes silence and flubbed retakes from screen recordings",
		SilenceUsage: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.AddCommand(newWorkerCmd(cfg))
	root.AddCommand(newEnqueueCmd(cfg))
	root.AddCommand(newStatusCmd(cfg))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
