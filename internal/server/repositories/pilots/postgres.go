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

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx)
// opened with the pgx driver.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, pilot *models.Pilot) (int64, error) {
	if pilot.CreatedAt.IsZero() {
		pilot.CreatedAt = time.Now().UTC()
	}

	query :=
		`INSERT INTO pilots (pilot_id, username, password_hash, drone_id, address, fingerprint_image_path, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING pilot_id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		pilot.PilotID, pilot.Username, pilot.PasswordHash, pilot.DroneID, pilot.Address,
		pilot.FingerprintImagePath, pilot.CreatedAt).Scan(&id)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return 0, fmt.Errorf("pilot %d: %w", pilot.PilotID, common.ErrorDuplicateKey)
		}
		return 0, fmt.Errorf("%w: db error: %w", common.ErrorStorage, err)
	}

	return id, nil
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) ([]*models.Pilot, error) {
	query :=
		`SELECT pilot_id, username, password_hash, drone_id, address, fingerprint_image_path, created_at
		 FROM pilots
		 WHERE username = $1
		 ORDER BY created_at, pilot_id`

	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("%w: db error: %w", common.ErrorStorage, err)
	}
	defer rows.Close()

	result := []*models.Pilot{}
	for rows.Next() {
		p, err := scanPostgresPilot(rows)
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

func (r *PostgresRepository) FindByID(ctx context.Context, pilotID int64) (*models.Pilot, error) {
	query :=
		`SELECT pilot_id, username, password_hash, drone_id, address, fingerprint_image_path, created_at
		 FROM pilots
		 WHERE pilot_id = $1`

	p, err := scanPostgresPilot(r.db.QueryRowContext(ctx, query, pilotID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("pilot %d: %w", pilotID, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("%w: db error: %w", common.ErrorStorage, err)
	}

	return p, nil
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, pilotID int64) (int64, error) {
	query := `DELETE FROM pilots WHERE pilot_id = $1`

	res, err := r.db.ExecContext(ctx, query, pilotID)
	if err != nil {
		return 0, fmt.Errorf("%w: db error: %w", common.ErrorStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: rows affected: %w", common.ErrorStorage, err)
	}

	return n, nil
}

func scanPostgresPilot(row rowScanner) (*models.Pilot, error) {
	p := &models.Pilot{}
	var path sql.NullString
	if err := row.Scan(&p.PilotID, &p.Username, &p.PasswordHash, &p.DroneID, &p.Address, &path, &p.CreatedAt); err != nil {
		return nil, err
	}
	if path.Valid {
		p.FingerprintImagePath = &path.String
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}
