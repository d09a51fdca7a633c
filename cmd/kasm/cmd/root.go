// Package cmd implements kasm's command-line front-end: the "assemble",
// "run", and "graph" verbs wired on top of internal/config,
// internal/logging, internal/extio, internal/arch, and internal/pipeline.
//
// Grounded on the teacher's cmd/cli/cmd package (rootCmd, cobra.Group,
// per-verb subcommand files), generalized from an x86_64-only,
// single-architecture CLI to a formula-driven RISC-V one.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kasm-riscv/kasm/internal/config"
	"github.com/kasm-riscv/kasm/internal/extio"
	"github.com/kasm-riscv/kasm/internal/logging"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logFile    string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "kasm",
	Short: "kasm is a RISC-V assembler and interpreter",
	Long:  `kasm assembles and interprets RISC-V RV32I/RV64I/RV32M/RV64M assembly programs.`,
}

// Execute runs the root command, exiting the process with a non-zero
// status on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(&cobra.Group{ID: "operations", Title: "Operations"})

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a kasm config.toml (defaults to the platform config directory)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")

	rootCmd.AddCommand(assembleCmd, runCmd, graphCmd)
}

// environment bundles the shared setup every subcommand needs: the loaded
// configuration, a structured logger, and the extension provider built
// from the configured search paths.
type environment struct {
	Config   *config.Config
	Logger   *slog.Logger
	Provider extio.Provider
	logFile  *os.File
}

// Close releases resources opened while building the environment (the log
// file, if one was requested).
func (e *environment) Close() {
	if e.logFile != nil {
		_ = e.logFile.Close()
	}
}

// setupEnvironment loads configuration and wires logging per the
// --config/--log-file/--verbose flags, shared by every subcommand.
func setupEnvironment() (*environment, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("kasm: %w", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var f *os.File
	if logFile != "" {
		f, err = os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) // #nosec G304 -- caller-controlled log path
		if err != nil {
			return nil, fmt.Errorf("kasm: failed to open log file %q: %w", logFile, err)
		}
	}

	var logger *slog.Logger
	if f != nil {
		logger = logging.New(level, f)
	} else {
		logger = logging.New(level, nil)
	}

	provider := extio.NewSearchPathProvider(cfg.Assembly.ExtensionSearchPaths)

	return &environment{Config: cfg, Logger: logger, Provider: provider, logFile: f}, nil
}
