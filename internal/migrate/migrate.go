// Package migrate applies the embedded schema migrations with goose.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	// Registers the "postgres" database/sql driver.
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed sql/*.sql
var files embed.FS

const dir = "sql"

// Status is the schema version before and after an Up call.
type Status struct {
	From int64
	To   int64
}

// Applied reports whether Up moved the schema forward.
func (s Status) Applied() bool { return s.To > s.From }

// Open connects to databaseURL with the lib/pq driver.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("migrate: open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: ping database: %w", err)
	}
	return db, nil
}

// Versions lists the embedded migration versions in apply order.
func Versions() ([]int64, error) {
	if err := setup(zerolog.Nop()); err != nil {
		return nil, err
	}
	migrations, err := goose.CollectMigrations(dir, 0, goose.MaxVersion)
	if err != nil {
		return nil, fmt.Errorf("migrate: collect: %w", err)
	}
	out := make([]int64, 0, len(migrations))
	for _, m := range migrations {
		out = append(out, m.Version)
	}
	return out, nil
}

// Up applies every pending migration. goose runs each file in its own
// transaction and records it in goose_db_version.
func Up(ctx context.Context, db *sql.DB, logger zerolog.Logger) (Status, error) {
	if err := setup(logger); err != nil {
		return Status{}, err
	}
	from, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return Status{}, fmt.Errorf("migrate: read version: %w", err)
	}
	st := Status{From: from, To: from}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return st, fmt.Errorf("migrate: up: %w", err)
	}
	if st.To, err = goose.GetDBVersionContext(ctx, db); err != nil {
		return st, fmt.Errorf("migrate: read version: %w", err)
	}
	logger.Info().Int64("from", st.From).Int64("to", st.To).Msg("migrate: done")
	return st, nil
}

func setup(logger zerolog.Logger) error {
	goose.SetBaseFS(files)
	goose.SetLogger(gooseLogger{logger})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("migrate: dialect: %w", err)
	}
	return nil
}

// gooseLogger routes goose output through zerolog.
type gooseLogger struct {
	log zerolog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Info().Msg("migrate: " + strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf logs at error level instead of exiting.
func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Error().Msg("migrate: " + strings.TrimSpace(fmt.Sprintf(format, v...)))
}
