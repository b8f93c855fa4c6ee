// Package sessions keeps server-side authenticated sessions keyed by an id
// that travels to the client in a signed cookie.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/pilotkeeper/internal/server/models"
)

// Session binds a copy of an authenticated pilot record to a session id.
type Session struct {
	ID        string
	Pilot     models.Pilot
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store abstracts session persistence.
//
// Put overwrites any existing session with the same id. Get returns
// common.ErrorNotFound for unknown or expired ids. Deleting an unknown id is
// not an error.
type Store interface {
	Put(ctx context.Context, id string, pilot *models.Pilot) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
