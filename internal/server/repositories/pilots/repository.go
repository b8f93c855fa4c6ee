// Package pilots is the credential repository: persistence of pilot records
// keyed by pilot id, with one implementation per supported database.
package pilots

import (
	"context"

	"github.com/dmitrijs2005/pilotkeeper/internal/server/models"
)

// Repository stores pilot records.
//
// Create fails with common.ErrorDuplicateKey when the pilot id is taken and
// with common.ErrorStorage on any other failure. FindByID returns
// common.ErrorNotFound for unknown ids. DeleteByID reports how many rows it
// removed (0 or 1).
type Repository interface {
	Create(ctx context.Context, pilot *models.Pilot) (int64, error)
	FindByUsername(ctx context.Context, username string) ([]*models.Pilot, error)
	FindByID(ctx context.Context, pilotID int64) (*models.Pilot, error)
	DeleteByID(ctx context.Context, pilotID int64) (int64, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}
