// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reading_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lector/internal/core/reading"
	"github.com/taibuivan/lector/internal/platform/apperr"
	"github.com/taibuivan/lector/internal/platform/kvcache"
	"github.com/taibuivan/lector/internal/platform/localdb"
	"github.com/taibuivan/lector/pkg/debounce"
	"github.com/taibuivan/lector/pkg/debounce/debouncetest"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// memoryProgress is an in-memory [reading.ProgressRepository].
type memoryProgress struct {
	mu      sync.Mutex
	records map[string]reading.Progress
	writes  []reading.Progress
	err     error
}

func newMemoryProgress() *memoryProgress {
	return &memoryProgress{records: map[string]reading.Progress{}}
}

func (m *memoryProgress) Upsert(_ context.Context, progress reading.Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.writes = append(m.writes, progress)
	m.records[progress.BookID] = progress
	return nil
}

func (m *memoryProgress) Get(_ context.Context, bookID string) (reading.Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return reading.Progress{}, m.err
	}
	progress, ok := m.records[bookID]
	if !ok {
		return reading.Progress{}, apperr.NotFound("Progress")
	}
	return progress, nil
}

func (m *memoryProgress) Writes() []reading.Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]reading.Progress(nil), m.writes...)
}

// countingStore wraps a StateStore and counts Put calls.
type countingStore struct {
	reading.StateStore
	mu   sync.Mutex
	puts int
	fail bool
}

func (c *countingStore) Put(ctx context.Context, state reading.State) error {
	c.mu.Lock()
	c.puts++
	fail := c.fail
	c.mu.Unlock()
	if fail {
		return apperr.LocalStore(errors.New("disk full"))
	}
	return c.StateStore.Put(ctx, state)
}

func (c *countingStore) Get(ctx context.Context, bookID string) (reading.State, error) {
	c.mu.Lock()
	fail := c.fail
	c.mu.Unlock()
	if fail {
		return reading.State{}, apperr.LocalStore(errors.New("disk unavailable"))
	}
	return c.StateStore.Get(ctx, bookID)
}

func (c *countingStore) Recent(ctx context.Context, limit, offset int) ([]reading.State, int, error) {
	c.mu.Lock()
	fail := c.fail
	c.mu.Unlock()
	if fail {
		return nil, 0, apperr.LocalStore(errors.New("disk unavailable"))
	}
	return c.StateStore.Recent(ctx, limit, offset)
}

func (c *countingStore) Puts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.puts
}

type fixture struct {
	handle   *localdb.Handle
	cache    *kvcache.Cache
	primary  *countingStore
	store    *reading.FallbackStore
	remote   *memoryProgress
	clock    *debouncetest.Clock
	tracker  *reading.Tracker
	wallTime time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	handle := localdb.New(filepath.Join(dir, "lector.db"), discard)
	t.Cleanup(func() { _ = handle.Close() })

	cache, err := kvcache.Open(filepath.Join(dir, "fallback"), discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	f := &fixture{
		handle:   handle,
		cache:    cache,
		primary:  &countingStore{StateStore: reading.NewStateRepository(handle)},
		remote:   newMemoryProgress(),
		clock:    debouncetest.NewClock(),
		wallTime: time.UnixMilli(1_700_000_000_000),
	}
	f.store = reading.NewFallbackStore(f.primary, cache, discard)
	f.tracker = reading.NewTracker(f.store, f.remote, 3*time.Second, discard,
		reading.WithClock(func() time.Time { return f.wallTime }),
		reading.WithSchedulerOptions(debounce.WithAfterFunc(f.clock.AfterFunc)),
	)
	return f
}

func (f *fixture) tick(d time.Duration) {
	f.wallTime = f.wallTime.Add(d)
	f.clock.Advance(d)
}
