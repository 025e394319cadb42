package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"usagesummary/internal/app"
	"usagesummary/internal/infra"
)

var Version = "dev"

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "usagectl",
		Short:         "Operate the daily usage summary job",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(cleanupCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(tokenCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env loads configuration and a logger for a subcommand.
func env() (*infra.Config, infra.Logger, error) {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, infra.Logger{}, err
	}
	return cfg, infra.NewLogger(cfg.AppEnv, cfg.LogLevel), nil
}

func openServices(ctx context.Context) (*app.Services, *infra.Config, infra.Logger, error) {
	cfg, logger, err := env()
	if err != nil {
		return nil, nil, logger, err
	}
	svc, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, logger, err
	}
	return svc, cfg, logger, nil
}
