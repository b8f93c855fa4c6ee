package pilots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pilotkeeper/internal/common"
	"github.com/dmitrijs2005/pilotkeeper/internal/dbx"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/models"
)

// SQLiteRepository implements Repository over a modernc.org/sqlite handle.
// created_at is stored as fixed-width UTC text so it sorts chronologically.
type SQLiteRepository struct {
	db dbx.DBTX
}

const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// NewSQLiteRepository constructs a repository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, pilot *models.Pilot) (int64, error) {
	if pilot.CreatedAt.IsZero() {
		pilot.CreatedAt = time.Now().UTC()
	}

	query :=
		`INSERT INTO pilots (pilot_id, username, password_hash, drone_id, address, fingerprint_image_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		pilot.PilotID, pilot.Username, pilot.PasswordHash, pilot.DroneID, pilot.Address,
		pilot.FingerprintImagePath, pilot.CreatedAt.UTC().Format(sqliteTimeLayout))
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return 0, fmt.Errorf("pilot %d: %w", pilot.PilotID, common.ErrorDuplicateKey)
		}
		return 0, fmt.Errorf("%w: db error: %w", common.ErrorStorage, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: last insert id: %w", common.ErrorStorage, err)
	}

	return id, nil
}

func (r *SQLiteRepository) FindByUsername(ctx context.Context, username string) ([]*models.Pilot, error) {
	query :=
		`SELECT pilot_id, username, password_hash, drone_id, address, fingerprint_image_path, created_at
		 FROM pilots
		 WHERE username = ?
		 ORDER BY created_at, pilot_id`

	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("%w: db error: %w", common.ErrorStorage, err)
	}
	defer rows.Close()

	result := []*models.Pilot{}
	for rows.Next() {
		p, err := scanSQLitePilot(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan: %w", common.ErrorStorage, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %w", common.ErrorStorage, err)
	}

	return result, nil
}

func (r *SQLiteRepository) FindByID(ctx context.Context, pilotID int64) (*models.Pilot, error) {
	query :=
		`SELECT pilot_id, username, password_hash, drone_id, address, fingerprint_image_path, created_at
		 FROM pilots
		 WHERE pilot_id = ?`

	p, err := scanSQLitePilot(r.db.QueryRowContext(ctx, query, pilotID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("pilot %d: %w", pilotID, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("%w: db error: %w", common.ErrorStorage, err)
	}

	return p, nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, pilotID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pilots WHERE pilot_id = ?`, pilotID)
	if err != nil {
		return 0, fmt.Errorf("%w: db error: %w", common.ErrorStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: rows affected: %w", common.ErrorStorage, err)
	}

	return n, nil
}

func scanSQLitePilot(row rowScanner) (*models.Pilot, error) {
	p := &models.Pilot{}
	var path sql.NullString
	var createdAt string
	if err := row.Scan(&p.PilotID, &p.Username, &p.PasswordHash, &p.DroneID, &p.Address, &path, &createdAt); err != nil {
		return nil, err
	}
	if path.Valid {
		p.FingerprintImagePath = &path.String
	}
	t, err := time.Parse(sqliteTimeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("created_at %q: %w", createdAt, err)
	}
	p.CreatedAt = t
	return p, nil
}
