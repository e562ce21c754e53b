package persistence

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

const migrationTableName = "schema_migrations"

//go:embed migrations/*.sql
var migrationFS embed.FS

// zapGooseLogger forwards goose output to zap. Fatalf does not exit; the
// error is returned to the caller instead.
type zapGooseLogger struct {
	logger *zap.SugaredLogger
}

func (l zapGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Infof(format, v...)
}

func (l zapGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Errorf(format, v...)
}

// RunMigrations applies the embedded SQL migrations through goose.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool available; skipping migrations")
		return nil
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrationFS)
	goose.SetLogger(zapGooseLogger{logger: logger.Named("goose").Sugar()})
	goose.SetTableName(migrationTableName)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	logger.Info("migrations applied", zap.Int64("version", version))
	return nil
}
