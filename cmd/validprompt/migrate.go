package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"validprompt/internal/config"
	"validprompt/internal/ratelimit"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the usage table on the configured SQL database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logCloser, err := loadConfig()
			if err != nil {
				return err
			}
			defer logCloser.Close()

			switch cfg.UsageBackend {
			case config.BackendPostgres, config.BackendSQLite:
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "Backend %s needs no migration.\n", cfg.UsageBackend)
				return nil
			}

			db, err := ratelimit.OpenSQL(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(context.Background()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Usage table ready (%s).\n", db.Driver())
			return nil
		},
	}
}
