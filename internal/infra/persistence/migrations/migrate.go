// Package migrations wires golang-migrate execution for the portal's persistence layer.
package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file" // file:// migrations loader
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	dbmigrations "github.com/lumera/portal/db/migrations"
	"github.com/lumera/portal/internal/infra/telemetry"
)

var (
	errNotDirectory = errors.New("migrations path must be a directory")

	migrationsCounter   metric.Int64Counter
	migrationsCounterMu sync.Once
)

// Apply ensures the migrations located at migrationsDir are applied to the
// Postgres instance reachable via dsn. A nil logger disables informational logging.
func Apply(ctx context.Context, dsn, migrationsDir string, logger *log.Logger) error {
	return run(ctx, dsn, migrationsDir, logger, "apply", func(m *migrate.Migrate) error {
		return m.Up()
	})
}

// Rollback reverts the most recent steps migrations.
func Rollback(ctx context.Context, dsn, migrationsDir string, steps int, logger *log.Logger) error {
	if steps <= 0 {
		return fmt.Errorf("rollback steps must be positive, got %d", steps)
	}
	return run(ctx, dsn, migrationsDir, logger, "rollback", func(m *migrate.Migrate) error {
		return m.Steps(-steps)
	})
}

// ApplyEmbedded applies the migrations compiled into the binary, for
// deployments that do not ship the db/migrations directory alongside it.
func ApplyEmbedded(ctx context.Context, dsn string, logger *log.Logger) error {
	return execute(ctx, dsn, logger, "apply", "embedded", func(driver database.Driver) (*migrate.Migrate, error) {
		src, err := iofs.New(dbmigrations.Files, ".")
		if err != nil {
			return nil, fmt.Errorf("open embedded migrations: %w", err)
		}
		return migrate.NewWithInstance("iofs", src, "pgx5", driver)
	}, func(m *migrate.Migrate) error {
		return m.Up()
	})
}

func run(ctx context.Context, dsn, migrationsDir string, logger *log.Logger, verb string, op func(*migrate.Migrate) error) error {
	resolvedDir, err := resolveDir(migrationsDir)
	if err != nil {
		return err
	}
	return execute(ctx, dsn, logger, verb, resolvedDir, func(driver database.Driver) (*migrate.Migrate, error) {
		return migrate.NewWithDatabaseInstance(fileURL(resolvedDir), "pgx5", driver)
	}, op)
}

func execute(ctx context.Context, dsn string, logger *log.Logger, verb, sourceLabel string, newMigrate func(database.Driver) (*migrate.Migrate, error), op func(*migrate.Migrate) error) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migrations connection: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && logger != nil {
			logger.Printf("database migrations close: %v", cerr)
		}
	}()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping migrations database: %w", err)
	}

	var driverConfig pgxv5.Config
	driver, err := pgxv5.WithInstance(db, &driverConfig)
	if err != nil {
		return fmt.Errorf("initialise pgx v5 driver: %w", err)
	}

	m, err := newMigrate(driver)
	if err != nil {
		return fmt.Errorf("initialise migrate instance: %w", err)
	}
	defer func() {
		sourceErr, dbErr := m.Close()
		if logger == nil {
			return
		}
		if sourceErr != nil {
			logger.Printf("database migrations source close: %v", sourceErr)
		}
		if dbErr != nil {
			logger.Printf("database migrations db close: %v", dbErr)
		}
	}()

	if logger != nil {
		logger.Printf("running database migrations: op=%s path=%s", verb, sourceLabel)
	}

	if err := op(m); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			recordMigrationMetric(ctx, "noop", sourceLabel)
			if logger != nil {
				logger.Printf("database migrations up-to-date")
			}
			return nil
		}
		recordMigrationMetric(ctx, "failed", sourceLabel)
		return fmt.Errorf("%s migrations: %w", verb, err)
	}

	if logger != nil {
		logger.Printf("database migrations %s completed", verb)
	}
	recordMigrationMetric(ctx, verb, sourceLabel)

	return nil
}

func resolveDir(dir string) (string, error) {
	clean := strings.TrimSpace(dir)
	if clean == "" {
		return "", fmt.Errorf("migrations path required")
	}

	abs, err := filepath.Abs(clean)
	if err != nil {
		return "", fmt.Errorf("resolve migrations path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("migrations directory: %w", err)
		}
		return "", fmt.Errorf("stat migrations directory: %w", err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("migrations directory: %w", errNotDirectory)
	}

	return abs, nil
}

func fileURL(path string) string {
	slashed := filepath.ToSlash(path)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	u := new(url.URL)
	u.Scheme = "file"
	u.Path = slashed
	return u.String()
}

func recordMigrationMetric(ctx context.Context, result, path string) {
	migrationsCounterMu.Do(func() {
		meter := otel.Meter("persistence.migrations")
		counter, err := meter.Int64Counter("lumera_db_migrations_total",
			metric.WithDescription("Total migrations executed via golang-migrate"),
			metric.WithUnit("{migration}"))
		if err == nil {
			migrationsCounter = counter
		}
	})
	if migrationsCounter == nil {
		return
	}
	attrs := telemetry.MigrationAttributes(result, path)
	migrationsCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
}
