package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func cleanupCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete raw usage events older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 {
				return fmt.Errorf("--days must not be negative")
			}
			ctx := cmd.Context()
			svc, cfg, _, err := openServices(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			if err := svc.Summaries.CleanupOldUsageData(ctx, days); err != nil {
				return err
			}
			window := days
			if window == 0 {
				window = cfg.Usage.RetentionDays
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed usage events older than %d days\n", window)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "retention window in days, 0 uses USAGE_RETENTION_DAYS")

	return cmd
}
