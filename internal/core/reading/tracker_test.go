// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reading_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lector/internal/core/reading"
	"github.com/taibuivan/lector/internal/platform/apperr"
)

var dune = reading.BookRef{ID: "b1", Title: "Dune", Author: "Frank Herbert"}

/*
TestTracker_DebounceCoalescing sends one remote write carrying the 10th position.
*/
func TestTracker_DebounceCoalescing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for i := 1; i <= 10; i++ {
		recorded, err := f.tracker.PositionChanged(ctx, dune, fmt.Sprintf("epubcfi(/6/%d)", i), float64(i)/100)
		require.NoError(t, err)
		assert.True(t, recorded)
		f.tick(200 * time.Millisecond)
	}

	assert.Empty(t, f.remote.Writes(), "nothing flushes inside the quiet period")
	assert.True(t, f.tracker.Pending("b1"))
	assert.Equal(t, 10, f.primary.Puts(), "every change is written locally")

	f.tick(3 * time.Second)

	writes := f.remote.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, "epubcfi(/6/10)", writes[0].LastLocation)
	assert.Equal(t, "Dune", writes[0].Title)
	assert.Equal(t, "Frank Herbert", writes[0].Author)
	assert.False(t, f.tracker.Pending("b1"))
	assert.Equal(t, 0, f.clock.Active())
}

/*
TestTracker_RedundantWriteSuppression writes the same location only once.
*/
func TestTracker_RedundantWriteSuppression(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	recorded, err := f.tracker.PositionChanged(ctx, dune, "epubcfi(/6/4)", 0.1)
	require.NoError(t, err)
	assert.True(t, recorded)

	recorded, err = f.tracker.PositionChanged(ctx, dune, "epubcfi(/6/4)", 0.1)
	require.NoError(t, err)
	assert.False(t, recorded)

	assert.Equal(t, 1, f.primary.Puts())
}

/*
TestTracker_IndependentBooks keeps one pending flush per book.
*/
func TestTracker_IndependentBooks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	other := reading.BookRef{ID: "b2", Title: "Emma", Author: "Jane Austen"}

	_, err := f.tracker.PositionChanged(ctx, dune, "a", 0.1)
	require.NoError(t, err)
	f.tick(2 * time.Second)
	_, err = f.tracker.PositionChanged(ctx, other, "x", 0.2)
	require.NoError(t, err)

	f.tick(1 * time.Second)
	writes := f.remote.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, "b1", writes[0].BookID)

	f.tick(2 * time.Second)
	require.Len(t, f.remote.Writes(), 2)
}

/*
TestTracker_PreservesStateFields keeps finished flag and counters across position writes.
*/
func TestTracker_PreservesStateFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	pages := 320
	spent := int64(90_000)
	require.NoError(t, f.store.Put(ctx, reading.State{
		BookID: "b1", LastLocation: "a", Progress: 0.5, TotalPages: &pages, TimeSpent: &spent, LastRead: 1,
	}))

	_, err := f.tracker.PositionChanged(ctx, dune, "b", 0.55)
	require.NoError(t, err)

	state, err := f.store.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "b", state.LastLocation)
	assert.Equal(t, 0.55, state.Progress)
	require.NotNil(t, state.TotalPages)
	assert.Equal(t, 320, *state.TotalPages)
	require.NotNil(t, state.TimeSpent)
	assert.Equal(t, int64(90_000), *state.TimeSpent)
	assert.Equal(t, f.wallTime.UnixMilli(), state.LastRead)
}

/*
TestTracker_FlushFailureIsSwallowed logs the failure and recovers on the next change.
*/
func TestTracker_FlushFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.remote.err = apperr.TransientNetwork(errors.New("offline"))
	_, err := f.tracker.PositionChanged(ctx, dune, "a", 0.1)
	require.NoError(t, err)
	f.tick(3 * time.Second)

	assert.Empty(t, f.remote.Writes())
	assert.False(t, f.tracker.Pending("b1"), "a failed flush is not retried")

	f.remote.err = nil
	_, err = f.tracker.PositionChanged(ctx, dune, "b", 0.2)
	require.NoError(t, err)
	f.tick(3 * time.Second)

	writes := f.remote.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, "b", writes[0].LastLocation)
}

/*
TestTracker_Flush fires pending writes immediately.
*/
func TestTracker_Flush(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.tracker.PositionChanged(ctx, dune, "a", 0.1)
	require.NoError(t, err)

	assert.Equal(t, 1, f.tracker.Flush(ctx))
	require.Len(t, f.remote.Writes(), 1)

	f.tick(3 * time.Second)
	assert.Len(t, f.remote.Writes(), 1, "the stopped timer does not fire again")
}

/*
TestTracker_FinishUnfinish sets 1.0 then min(previous, 0.95).
*/
func TestTracker_FinishUnfinish(t *testing.T) {
	tests := []struct {
		name     string
		previous float64
	}{
		{"midway", 0.4},
		{"almost_done", 0.97},
		{"at_ceiling", 0.95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)

			_, err := f.tracker.PositionChanged(ctx, dune, "a", tt.previous)
			require.NoError(t, err)

			finished, err := f.tracker.MarkFinished(ctx, "b1")
			require.NoError(t, err)
			assert.Equal(t, 1.0, finished.Progress)
			assert.True(t, finished.IsFinished)

			unfinished, changed, err := f.tracker.MarkUnfinished(ctx, "b1")
			require.NoError(t, err)
			assert.True(t, changed)
			assert.False(t, unfinished.IsFinished)
			assert.Equal(t, 0.95, unfinished.Progress, "unmarking never leaves progress at 1.0")

			stored, err := f.store.Get(ctx, "b1")
			require.NoError(t, err)
			assert.Equal(t, 0.95, stored.Progress)
			assert.Equal(t, "a", stored.LastLocation)
		})
	}
}

/*
TestTracker_UnfinishWithoutFinishKeepsLowerProgress caps only values above the ceiling.
*/
func TestTracker_UnfinishWithoutFinishKeepsLowerProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.tracker.PositionChanged(ctx, dune, "a", 0.4)
	require.NoError(t, err)

	state, changed, err := f.tracker.MarkUnfinished(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 0.4, state.Progress)
}

/*
TestTracker_FinishCreatesState and unfinish on an unknown book is a no-op.
*/
func TestTracker_FinishCreatesState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, changed, err := f.tracker.MarkUnfinished(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, changed)
	_, err = f.store.Get(ctx, "ghost")
	assert.True(t, apperr.IsNotFound(err))

	state, err := f.tracker.MarkFinished(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, "new", state.BookID)
	assert.Equal(t, 1.0, state.Progress)
	assert.Empty(t, f.remote.Writes(), "finishing bypasses the remote debounce")
}

/*
TestTracker_InitialLocation prefers local state, then remote progress, and seeds the guard.
*/
func TestTracker_InitialLocation(t *testing.T) {
	ctx := context.Background()

	t.Run("local_first", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.Put(ctx, reading.State{BookID: "b1", LastLocation: "local"}))
		f.remote.records["b1"] = reading.Progress{BookID: "b1", LastLocation: "remote"}

		location, source, err := f.tracker.InitialLocation(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, "local", location)
		assert.Equal(t, reading.SourcePrimary, source)
	})

	t.Run("remote_seeds_guard", func(t *testing.T) {
		f := newFixture(t)
		f.remote.records["b1"] = reading.Progress{BookID: "b1", LastLocation: "remote"}

		location, source, err := f.tracker.InitialLocation(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, "remote", location)
		assert.Equal(t, reading.SourceRemote, source)

		recorded, err := f.tracker.PositionChanged(ctx, dune, "remote", 0.3)
		require.NoError(t, err)
		assert.False(t, recorded, "the renderer's first report of the opened location is not written")
		assert.Equal(t, 0, f.primary.Puts())
	})

	t.Run("offline_without_local", func(t *testing.T) {
		f := newFixture(t)
		f.remote.err = apperr.TransientNetwork(errors.New("offline"))

		location, source, err := f.tracker.InitialLocation(ctx, "b1")
		require.NoError(t, err)
		assert.Empty(t, location)
		assert.Equal(t, reading.SourceNone, source)
	})
}

/*
TestTracker_Validation rejects blank locations and out-of-range progress.
*/
func TestTracker_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.tracker.PositionChanged(ctx, dune, "", 0.1)
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	_, err = f.tracker.PositionChanged(ctx, dune, "a", 1.5)
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	assert.Equal(t, 0, f.primary.Puts())
}

/*
TestTracker_PrimaryDownStillDurable degrades to the fallback copy.
*/
func TestTracker_PrimaryDownStillDurable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.primary.fail = true

	recorded, err := f.tracker.PositionChanged(ctx, dune, "a", 0.2)
	require.NoError(t, err)
	assert.True(t, recorded)

	state, source, err := f.tracker.State(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, reading.SourceFallback, source)
	assert.Equal(t, "a", state.LastLocation)

	f.tick(3 * time.Second)
	assert.Len(t, f.remote.Writes(), 1)
}
