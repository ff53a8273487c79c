// Package database opens the bun handle for the configured driver and
// prepares the schema.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"etickets/internal/config"
	"etickets/internal/database/migrations"
	"etickets/internal/logger"
	"etickets/internal/models"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// pqUniqueViolation is the SQLSTATE Postgres reports for a unique index.
const pqUniqueViolation = "23505"

// IsUniqueViolation reports whether err came from a unique constraint on
// either supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Open connects with a few retries so the service can start alongside its
// database container.
func Open(cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	const maxRetries = 5

	driverName := "postgres"
	if cfg.Driver == DriverSQLite {
		driverName = sqliteshim.ShimName
	} else if cfg.Driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	var sqldb *sql.DB
	var err error
	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Connecting to %s (attempt %d/%d)", cfg.Driver, i+1, maxRetries))
		sqldb, err = sql.Open(driverName, cfg.URL)
		if err == nil {
			if err = sqldb.Ping(); err == nil {
				break
			}
			sqldb.Close()
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s after %d attempts: %w", cfg.Driver, maxRetries, err)
	}

	if cfg.Driver == DriverSQLite {
		// SQLite allows one writer; a single connection keeps transactions
		// from failing with SQLITE_BUSY.
		sqldb.SetMaxOpenConns(1)
		log.Info("DATABASE", "SQLite connection ready")
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)
	log.Info("DATABASE", "PostgreSQL connection ready")
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// CreateSchema builds the tables from the bun models. It is used for SQLite;
// Postgres goes through the versioned migrations instead.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{
		(*models.User)(nil),
		(*models.Event)(nil),
		(*models.Order)(nil),
		(*models.Ticket)(nil),
	}
	for _, m := range tables {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}

	indexes := []struct {
		model interface{}
		name  string
		cols  []string
	}{
		{(*models.Event)(nil), "idx_events_status_date", []string{"status", "date"}},
		{(*models.Order)(nil), "idx_orders_status_created", []string{"status", "created_at"}},
		{(*models.Order)(nil), "idx_orders_event", []string{"event_id"}},
		{(*models.Ticket)(nil), "idx_tickets_order", []string{"order_id"}},
	}
	for _, idx := range indexes {
		_, err := db.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.cols...).IfNotExists().Exec(ctx)
		if err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// Prepare readies the schema for the configured driver: bun models for
// SQLite, the embedded migrations for Postgres when MIGRATIONS_AUTO is set.
func Prepare(ctx context.Context, cfg config.DatabaseConfig, db *bun.DB, log *logger.Logger) error {
	if cfg.Driver == DriverSQLite {
		if err := CreateSchema(ctx, db); err != nil {
			return err
		}
		log.Info("DATABASE", "SQLite schema ready")
		return nil
	}

	if !cfg.AutoMigrate {
		log.Info("DATABASE", "MIGRATIONS_AUTO=false, skipping migrations")
		return nil
	}
	runner := migrations.NewRunner(cfg.URL)
	defer runner.Close()
	if err := runner.Up(); err != nil {
		return err
	}
	version, _, err := runner.Version()
	if err != nil {
		return err
	}
	log.Info("DATABASE", fmt.Sprintf("Migrations applied, schema at version %d", version))
	return nil
}
