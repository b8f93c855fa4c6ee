package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/pilotkeeper/internal/common"
	"github.com/dmitrijs2005/pilotkeeper/internal/filex"
)

// LocalStore keeps artifacts as files in a single directory. Locators are
// file paths joined onto the configured root, e.g. "uploads/<uuid>.png".
type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: filepath.Clean(root)}
}

func (s *LocalStore) Save(ctx context.Context, r io.Reader, originalName string) (string, error) {
	if _, err := filex.EnsureDir(s.root); err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrorIO, err)
	}

	locator := filepath.Join(s.root, newName(originalName))

	f, err := os.OpenFile(locator, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %w", common.ErrorIO, locator, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(locator)
		return "", fmt.Errorf("%w: write %s: %w", common.ErrorIO, locator, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(locator)
		return "", fmt.Errorf("%w: close %s: %w", common.ErrorIO, locator, err)
	}

	return locator, nil
}

func (s *LocalStore) Load(ctx context.Context, locator string) ([]byte, error) {
	path, err := s.resolve(locator)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("artifact %s: %w", locator, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("%w: read %s: %w", common.ErrorIO, locator, err)
	}

	return data, nil
}

func (s *LocalStore) Delete(ctx context.Context, locator string) error {
	path, err := s.resolve(locator)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("artifact %s: %w", locator, common.ErrorNotFound)
		}
		return fmt.Errorf("%w: remove %s: %w", common.ErrorIO, locator, err)
	}

	return nil
}

// resolve maps a locator to a file path, refusing anything outside root.
func (s *LocalStore) resolve(locator string) (string, error) {
	if locator == "" {
		return "", fmt.Errorf("empty locator: %w", common.ErrorNotFound)
	}

	path := filepath.Clean(locator)
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("artifact %s outside %s: %w", locator, s.root, common.ErrorNotFound)
	}

	return path, nil
}
