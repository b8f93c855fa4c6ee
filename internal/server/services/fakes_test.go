package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/pilotkeeper/internal/common"
	"github.com/dmitrijs2005/pilotkeeper/internal/dbx"
	"github.com/dmitrijs2005/pilotkeeper/internal/logging"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/models"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/repositories/pilots"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func discardLogger() logging.Logger {
	return logging.NewJSONLogger(io.Discard, "error")
}

// fakePilotsRepo keeps records in a map keyed by pilot id.
type fakePilotsRepo struct {
	mu      sync.Mutex
	records map[int64]*models.Pilot
	order   []int64

	createErr error
	findErr   error
	deleteErr error
	// deleteCount overrides the affected row count when set.
	deleteCount *int64
}

func newFakePilotsRepo() *fakePilotsRepo {
	return &fakePilotsRepo{records: map[int64]*models.Pilot{}}
}

func (f *fakePilotsRepo) Create(ctx context.Context, p *models.Pilot) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	if _, ok := f.records[p.PilotID]; ok {
		return 0, fmt.Errorf("pilot %d: %w", p.PilotID, common.ErrorDuplicateKey)
	}
	cp := *p
	f.records[p.PilotID] = &cp
	f.order = append(f.order, p.PilotID)
	return p.PilotID, nil
}

func (f *fakePilotsRepo) FindByUsername(ctx context.Context, username string) ([]*models.Pilot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := []*models.Pilot{}
	for _, id := range f.order {
		if p, ok := f.records[id]; ok && p.Username == username {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakePilotsRepo) FindByID(ctx context.Context, id int64) (*models.Pilot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	p, ok := f.records[id]
	if !ok {
		return nil, fmt.Errorf("pilot %d: %w", id, common.ErrorNotFound)
	}
	cp := *p
	return &cp, nil
}

func (f *fakePilotsRepo) DeleteByID(ctx context.Context, id int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	if f.deleteCount != nil {
		return *f.deleteCount, nil
	}
	if _, ok := f.records[id]; !ok {
		return 0, nil
	}
	delete(f.records, id)
	return 1, nil
}

type fakeRepoManager struct {
	p *fakePilotsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Pilots(db dbx.DBTX) pilots.Repository        { return m.p }

// fakeArtifacts is an in-memory artifacts.Store.
type fakeArtifacts struct {
	mu      sync.Mutex
	objects map[string][]byte
	next    int

	saveErr   error
	loadErr   error
	deleteErr error
	deleted   []string
}

func newFakeArtifacts() *fakeArtifacts {
	return &fakeArtifacts{objects: map[string][]byte{}}
}

func (f *fakeArtifacts) Save(ctx context.Context, r io.Reader, name string) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	loc := fmt.Sprintf("uploads/%d-%s", f.next, name)
	f.objects[loc] = data
	return loc, nil
}

func (f *fakeArtifacts) Load(ctx context.Context, loc string) ([]byte, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[loc]
	if !ok {
		return nil, fmt.Errorf("artifact %s: %w", loc, common.ErrorNotFound)
	}
	return bytes.Clone(data), nil
}

func (f *fakeArtifacts) Delete(ctx context.Context, loc string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, loc)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.objects[loc]; !ok {
		return fmt.Errorf("artifact %s: %w", loc, common.ErrorNotFound)
	}
	delete(f.objects, loc)
	return nil
}

func (f *fakeArtifacts) has(loc string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[loc]
	return ok
}
