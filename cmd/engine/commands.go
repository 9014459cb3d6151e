package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/inarbit/engine/internal/app"
	"github.com/inarbit/engine/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "engine",
	Short: "Real-time multi-exchange arbitrage signal engine",
}

func init() {
	cobra.OnInitialize(func() { _ = godotenv.Load() })
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to TOML tunables file (optional)")
	rootCmd.AddCommand(runCmd, validateConfigCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the engine and run until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadAndValidate()
		if err != nil {
			return err
		}

		logger.Info("engine starting",
			slog.String("mode", cfg.Engine.Mode),
			slog.String("config", configPath),
		)

		application := app.New(cfg, logger)
		defer application.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := application.Run(ctx); err != nil {
			if err == context.Canceled {
				logger.Info("engine shut down gracefully")
				return nil
			}
			return fmt.Errorf("engine exited with error: %w", err)
		}

		logger.Info("engine stopped")
		return nil
	},
}

var validateConfigCmd = &cobra.Command{
	Use:   "validate-config",
	Short: "Load and validate configuration without connecting to anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadAndValidate()
		if err != nil {
			return err
		}
		redacted := config.RedactedConfig(cfg)
		logger.Info("configuration is valid",
			slog.String("mode", redacted.Engine.Mode),
			slog.Int("symbols", len(redacted.Exchange.Symbols)),
		)
		return nil
	},
}

// loadAndValidate loads config.toml (if --config was given), applies env
// overrides, validates the result, and builds a level-appropriate JSON
// logger.
func loadAndValidate() (*config.Config, *slog.Logger, error) {
	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(configPath)
	if err != nil {
		bootLogger.Error("failed to load config", slog.String("path", configPath), slog.String("error", err.Error()))
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		bootLogger.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, nil, fmt.Errorf("validate config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	return cfg, logger, nil
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
