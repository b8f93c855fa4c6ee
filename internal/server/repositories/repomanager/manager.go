// Package repomanager vends repository implementations for the configured
// database driver, opens database handles and runs goose migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/pilotkeeper/internal/dbx"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/config"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/repositories/pilots"
	"github.com/pressly/goose/v3"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Pilots(db dbx.DBTX) pilots.Repository
}

// New returns the RepositoryManager for driver ("sqlite" or "postgres").
func New(driver string) (RepositoryManager, error) {
	switch driver {
	case config.DriverSQLite:
		return NewSQLiteRepositoryManager(), nil
	case config.DriverPostgres:
		return NewPostgresRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// sqlDriverNames maps config drivers to database/sql driver names.
var sqlDriverNames = map[string]string{
	config.DriverSQLite:   "sqlite",
	config.DriverPostgres: "pgx",
}

// Open opens and pings a database handle for driver. SQLite handles are
// limited to a single connection so writers are serialized.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	name, ok := sqlDriverNames[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == config.DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	return db, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}
