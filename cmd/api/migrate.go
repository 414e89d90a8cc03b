package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartroom-ai/environment-router/internal/store"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the conversations and environment_changes tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required for migrate")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			s, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer s.Close()

			log.Info("schema is up to date")
			return nil
		},
	}
}
