package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	accountstore "lectern/internal/account/store"
	"lectern/internal/platform/config"
	"lectern/internal/platform/logger"
	"lectern/internal/platform/postgres"
	"lectern/internal/verification/store"
	auditpostgres "lectern/pkg/platform/audit/store/postgres"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "create the verification, account and event tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString(configFlag)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cfg, err := config.Load(ctx, path)
			if err != nil {
				return err
			}
			if cfg.Postgres.DSN == "" {
				return errors.New("postgres.dsn is required for migrate")
			}
			log := logger.New(cfg.Environment, cfg.Server.LogLevel)

			db, err := postgres.Open(ctx, cfg.Postgres)
			if err != nil {
				return err
			}
			defer db.Close()

			for _, m := range []struct {
				name   string
				schema string
			}{
				{"verification_records", store.Schema},
				{"accounts", accountstore.Schema},
				{"verification_events", auditpostgres.Schema},
			} {
				if _, err := db.ExecContext(ctx, m.schema); err != nil {
					return fmt.Errorf("migrate %s: %w", m.name, err)
				}
				log.Info("schema applied", "table", m.name)
			}
			return nil
		},
	}
}
