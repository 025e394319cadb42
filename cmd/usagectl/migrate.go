package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"usagesummary/internal/migrate"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := env()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			db, err := migrate.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			st, err := migrate.Up(ctx, db, logger)
			if err != nil {
				return err
			}
			if !st.Applied() {
				fmt.Fprintf(cmd.OutOrStdout(), "schema is up to date at version %d\n", st.To)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated from version %d to %d\n", st.From, st.To)
			return nil
		},
	}
}
