package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"buildnerd/internal/config"
)

var (
	// Global flags
	verbose bool

	// Logger
	logger *zap.Logger

	// Tool configuration, loaded once per invocation
	toolConfig *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "bnerd",
	Short: "buildNERD - build automation for multi-project trees",
	Long: `buildNERD resolves build and project properties across a build tree.

Properties are merged from the user home and build root properties files,
environment variables, system properties and command-line definitions,
with a strict precedence chain. Each project can layer its own
properties file on top of its build's resolved set.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		toolConfig, err = config.Load(config.DefaultConfigPath())
		if err != nil {
			return fmt.Errorf("failed to load tool config: %w", err)
		}

		zapConfig := zap.NewProductionConfig()
		if toolConfig.Logging.JSON {
			zapConfig.Encoding = "json"
		} else {
			zapConfig.Encoding = "console"
		}
		zapConfig.Level = zap.NewAtomicLevelAt(parseLevel(toolConfig.Logging.Level))
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = logger.With(zap.String("invocation_id", uuid.NewString()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(propertiesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
