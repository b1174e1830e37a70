package main

import (
	"github.com/spf13/cobra"

	"clanhub/internal/clan/store"
	"clanhub/internal/platform/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the clan schema if absent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, flush, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = flush() }()

			db, err := database.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := store.EnsureSchema(ctx, db); err != nil {
				return err
			}
			log.InfoContext(ctx, "schema ensured")
			return nil
		},
	}
}
