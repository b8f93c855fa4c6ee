package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/pilotkeeper/internal/dbx"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/repositories/pilots"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories.
type PostgresRepositoryManager struct{}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

// Pilots returns a pilots.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Pilots(db dbx.DBTX) pilots.Repository {
	return pilots.NewPostgresRepository(db)
}

// RunMigrations applies the embedded postgres migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, migrations.PostgresDir)
}
