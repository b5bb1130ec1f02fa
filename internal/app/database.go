package app

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Registers "pgx" driver
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/newrelic/go-agent/v3/integrations/nrpq" // Registers "nrpostgres" driver
	"github.com/newrelic/go-agent/v3/newrelic"

	"carpool/internal/config"
)

// driverName picks the database/sql driver for cfg. lib/pq is swapped for its
// New Relic instrumented wrapper when nrApp is set.
func driverName(cfg config.DatabaseConfig, nrApp *newrelic.Application) string {
	if cfg.Driver == "pgx" {
		return "pgx"
	}
	if nrApp != nil {
		return "nrpostgres"
	}
	return "postgres"
}

// NewDatabase creates a new PostgreSQL connection pool.
func NewDatabase(ctx context.Context, cfg config.DatabaseConfig, nrApp *newrelic.Application) (*sqlx.DB, error) {
	name := driverName(cfg, nrApp)
	db, err := sqlx.Open(name, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database with %s: %w", name, err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	// Verify connection.
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
