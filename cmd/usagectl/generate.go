package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"usagesummary/internal/calendar"
	"usagesummary/internal/domain"
	"usagesummary/internal/http/handlers"
	"usagesummary/internal/usage"
)

func generateCmd() *cobra.Command {
	var (
		date  string
		scope string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate daily usage summaries",
		Long: `Generate the system summary and one summary per stream scope.

Without --date the summaries for yesterday are generated. With --scope only
that single summary is (re)considered and the cleanup is not run.

Examples:
  usagectl generate
  usagectl generate --date 2024-03-01
  usagectl generate --date 2024-03-01 --scope 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, cfg, _, err := openServices(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			var day time.Time
			if date != "" {
				if day, err = domain.ParseDate(date); err != nil {
					return err
				}
			}

			if scope != "" {
				target, err := handlers.ParseScope(scope)
				if err != nil {
					return err
				}
				if day.IsZero() {
					loc, err := cfg.Location()
					if err != nil {
						return err
					}
					day = calendar.NewDaysAgo(nil, loc).DaysAgo(1)
				}
				inserted, err := svc.Generator.GenerateOne(ctx, day, *target)
				if err != nil {
					return err
				}
				status := "skipped (already exists)"
				if inserted {
					status = "generated"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", day.Format(domain.DateLayout), target, status)
				return nil
			}

			var res usage.Result
			if day.IsZero() {
				res, err = svc.Generator.Run(ctx)
			} else {
				res, err = svc.Generator.RunForDate(ctx, day)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d scopes, %d generated, %d skipped\n",
				res.Date.Format(domain.DateLayout), res.Scopes, res.Generated, res.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "summary date (YYYY-MM-DD), defaults to yesterday")
	cmd.Flags().StringVar(&scope, "scope", "", "single scope: system or a stream scope id")

	return cmd
}
