package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/richinsley/goartstudio/config"
	"github.com/richinsley/goartstudio/effects"
	"github.com/richinsley/goartstudio/logging"
)

var (
	configFile string
	effectsDir string
	logLevel   string
	devLogs    bool
)

func init() {
	// GLFW and GL calls must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "goartstudio",
		Short:         "generative art shader viewer and recorder",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&effectsDir, "effects-dir", "", "directory of .glsl effects overriding or extending the built-ins")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&devLogs, "dev", false, "human-readable development logging")

	rootCmd.AddCommand(newViewCmd(), newRecordCmd(), newEffectsCmd(), newExportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads --config over the defaults and applies the global flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("effects-dir") {
		cfg.EffectsDir = effectsDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("dev") {
		cfg.Log.Development = devLogs
	}
	return cfg, nil
}

// setup builds the logger and the effect library for cfg.
func setup(cfg *config.Config) (*zap.Logger, *effects.Library, error) {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	lib, err := effects.NewLibrary(effects.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	if cfg.EffectsDir != "" {
		if err := lib.LoadDir(cfg.EffectsDir); err != nil {
			return nil, nil, fmt.Errorf("failed to load effects from %s: %w", cfg.EffectsDir, err)
		}
	}
	return logger, lib, nil
}
