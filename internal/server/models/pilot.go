// Package models defines server-side data models persisted in the database.
package models

import "time"

// Pilot is a registered pilot credential record. Records are created and
// deleted, never updated.
type Pilot struct {
	// PilotID is the primary key.
	PilotID int64
	// Username is the login name; it is not unique.
	Username string
	// PasswordHash is the bcrypt hash of the password.
	PasswordHash string
	DroneID      int64
	Address      string
	// FingerprintImagePath locates the fingerprint image in the artifact
	// store, nil when the record was created without an image.
	FingerprintImagePath *string
	CreatedAt            time.Time
}
