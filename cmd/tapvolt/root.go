// Package main is the tapvolt CLI entrypoint: a thin cobra wrapper around
// the Connection Engine façade, grounded on the teacher's cmd/agent.go /
// cmd/agent_chat.go command-tree idiom (parent *cobra.Command constructors,
// AddCommand, flag binding via cmd.Flags().*Var, run<X>() helpers that load
// config and bail out with fmt.Fprintf(os.Stderr, ...)+os.Exit(1) on error).
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/n1shantvarma/tapvolt-app/internal/config"
	"github.com/n1shantvarma/tapvolt-app/internal/logging"
)

var cfgPath string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tapvolt",
		Short: "Drive a remote desktop automation host over a WebSocket connection",
	}
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default: user config dir)")
	cmd.AddCommand(connectCmd())
	cmd.AddCommand(runCmd())
	cmd.AddCommand(doctorCmd())
	return cmd
}

// resolveConfigPath mirrors the teacher's cmd/cli_helpers.go resolution
// order: an explicit --config flag wins, otherwise fall back to the user's
// config directory.
func resolveConfigPath() string {
	if cfgPath != "" {
		return cfgPath
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "tapvolt", "config.yaml")
}

// loadConfigOrExit loads and normalizes the config, exiting the process on
// failure the way every teacher subcommand does.
func loadConfigOrExit() config.Config {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func setupLogger(cfg config.Config) {
	logging.Setup(cfg.LogLevel, os.Stderr)
}
