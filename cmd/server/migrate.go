package main

import (
	"errors"

	"promptdesk-backend/internal/store/postgres"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL environment variable is not set")
			}
			pool, err := openPool(cmd.Context(), cfg.DatabaseURL, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgres.NewPostgresStore(pool, logger).Migrate(cmd.Context()); err != nil {
				return err
			}
			logger.Info("Schema applied")
			return nil
		},
	}
}
