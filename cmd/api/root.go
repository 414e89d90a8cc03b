package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/smartroom-ai/environment-router/internal/config"
	"github.com/smartroom-ai/environment-router/pkg/logger"
)

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "environment-router",
		Short:         "Smart-environment request router",
		Long:          `Routes chat messages to history answers or sensor-backed optimizations and serves the device polling API.`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					return fmt.Errorf("load %s: %w", envFile, err)
				}
				return nil
			}
			_ = godotenv.Load()
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default .env if present)")

	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

// setup loads configuration and the process logger.
func setup() (*config.Config, *logger.Logger, error) {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.SetGlobal(log)
	return cfg, log, nil
}
