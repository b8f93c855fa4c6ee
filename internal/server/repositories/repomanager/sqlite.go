package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/pilotkeeper/internal/dbx"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/repositories/pilots"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLiteRepositoryManager vends SQLite-backed repositories (modernc driver).
type SQLiteRepositoryManager struct{}

func NewSQLiteRepositoryManager() *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{}
}

// Pilots returns a pilots.Repository bound to the provided DBTX.
func (m *SQLiteRepositoryManager) Pilots(db dbx.DBTX) pilots.Repository {
	return pilots.NewSQLiteRepository(db)
}

// RunMigrations applies the embedded sqlite migrations.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, migrations.SQLiteDir)
}
