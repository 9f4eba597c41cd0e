package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"team_pulse_worker/internal/infra/config"
	idb "team_pulse_worker/internal/infra/database"
	"team_pulse_worker/internal/infra/logger"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the tables the worker reads and writes",
		Long:  `Apply the embedded schema. Every statement is IF NOT EXISTS, so running it twice is safe.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("could not load application configuration: %w", err)
			}
			log := logger.Init(cfg)

			db, err := idb.NewPostgresConnection(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("could not connect to database: %w", err)
			}
			defer db.Close()

			if err := idb.ApplySchema(cmd.Context(), db); err != nil {
				return err
			}
			log.Info("Schema applied.")
			fmt.Fprintln(cmd.OutOrStdout(), "Schema applied.")
			return nil
		},
	}
}
