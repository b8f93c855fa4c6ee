// Package artifacts persists fingerprint images and hands back an opaque
// locator that the credential record references.
package artifacts

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store saves and loads artifact bytes by locator.
//
// Save never overwrites an existing artifact. Load and Delete return
// common.ErrorNotFound when the locator does not resolve and
// common.ErrorIO on any other failure.
type Store interface {
	Save(ctx context.Context, r io.Reader, originalName string) (string, error)
	Load(ctx context.Context, locator string) ([]byte, error)
	Delete(ctx context.Context, locator string) error
}

// newName returns a random name that keeps the lower-cased extension of the
// uploaded file, e.g. "3f1c...e9.png".
func newName(originalName string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
}
