package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"steer/internal/config"
	"steer/internal/logging"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string

	// Logger
	logger *zap.Logger

	// Loaded configuration
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "steer",
	Short: "steer - feedback-driven prompts for autonomous coding loops",
	Long: `steer turns the telemetry of an autonomous coding loop (current task,
errors, quality gates, attempts, iteration history) into the next prompt.

It aggregates errors, detects behavioural anti-patterns such as editing
without committing or skipping tests, and renders everything into a
mode-specific Markdown template.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// setup builds the zap logger, loads the config and initializes the
// category loggers.
func setup(cmd *cobra.Command, args []string) error {
	zcfg := zap.NewProductionConfig()
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	var err error
	logger, err = zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}

	path := configPath
	if path == "" {
		path = filepath.Join(ws, config.DefaultPath)
	}
	cfg, err = config.Load(path)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Logging.DebugMode = true
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	if err := logging.Initialize(cfg.LoggingConfig(ws)); err != nil {
		return err
	}

	logger.Debug("steer ready", zap.String("workspace", ws), zap.String("config", path))
	return nil
}

func resolveWorkspace() (string, error) {
	if workspace != "" {
		return filepath.Abs(workspace)
	}
	return os.Getwd()
}

// inWorkspace anchors a relative path at the workspace.
func inWorkspace(path string) string {
	ws, err := resolveWorkspace()
	if err != nil {
		return path
	}
	return config.ResolvePath(ws, path)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: <workspace>/"+config.DefaultPath+")")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
