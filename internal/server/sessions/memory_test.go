package sessions

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/pilotkeeper/internal/common"
	"github.com/dmitrijs2005/pilotkeeper/internal/logging"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestStore(ttl time.Duration) (*MemoryStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(ttl)
	s.now = clock.Now
	return s, clock
}

func TestMemoryStore_PutGet(t *testing.T) {
	s, clock := newTestStore(time.Hour)
	ctx := context.Background()

	p := &models.Pilot{PilotID: 42, Username: "alice"}
	require.NoError(t, s.Put(ctx, "sid", p))

	got, err := s.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "sid", got.ID)
	assert.Equal(t, int64(42), got.Pilot.PilotID)
	assert.Equal(t, clock.Now(), got.CreatedAt)
	assert.Equal(t, clock.Now().Add(time.Hour), got.ExpiresAt)

	p.Username = "mutated"
	got, err = s.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Pilot.Username, "store keeps its own copy")
}

func TestMemoryStore_PutOverwrites(t *testing.T) {
	s, _ := newTestStore(time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "sid", &models.Pilot{PilotID: 1}))
	require.NoError(t, s.Put(ctx, "sid", &models.Pilot{PilotID: 2}))

	got, err := s.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Pilot.PilotID)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_PutInvalid(t *testing.T) {
	s, _ := newTestStore(time.Hour)
	ctx := context.Background()

	assert.ErrorIs(t, s.Put(ctx, "", &models.Pilot{}), common.ErrorValidation)
	assert.ErrorIs(t, s.Put(ctx, "sid", nil), common.ErrorValidation)
}

func TestMemoryStore_GetUnknown(t *testing.T) {
	s, _ := newTestStore(time.Hour)

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	s, clock := newTestStore(time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "sid", &models.Pilot{PilotID: 1}))

	clock.Advance(59 * time.Minute)
	_, err := s.Get(ctx, "sid")
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = s.Get(ctx, "sid")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryStore_Delete(t *testing.T) {
	s, _ := newTestStore(time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "sid", &models.Pilot{PilotID: 1}))
	require.NoError(t, s.Delete(ctx, "sid"))

	_, err := s.Get(ctx, "sid")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	assert.NoError(t, s.Delete(ctx, "never-existed"))
}

func TestMemoryStore_Sweep(t *testing.T) {
	s, clock := newTestStore(time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "old", &models.Pilot{PilotID: 1}))
	clock.Advance(30 * time.Minute)
	require.NoError(t, s.Put(ctx, "new", &models.Pilot{PilotID: 2}))

	assert.Equal(t, 0, s.Sweep(clock.Now()))
	assert.Equal(t, 1, s.Sweep(clock.Now().Add(45*time.Minute)))
	assert.Equal(t, 1, s.Len())

	_, err := s.Get(ctx, "new")
	assert.NoError(t, err)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i%4)
			_ = s.Put(ctx, id, &models.Pilot{PilotID: int64(i)})
			_, _ = s.Get(ctx, id)
			if i%3 == 0 {
				_ = s.Delete(ctx, id)
			}
			s.Sweep(time.Now())
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, s.Len(), 4)
}

func TestMemoryStore_RunSweeperStopsOnCancel(t *testing.T) {
	s := NewMemoryStore(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Put(ctx, "sid", &models.Pilot{PilotID: 1}))

	done := make(chan struct{})
	go func() {
		s.RunSweeper(ctx, 5*time.Millisecond, logging.NewJSONLogger(io.Discard, "debug"))
		close(done)
	}()

	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
