// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reading

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/lector/internal/platform/apperr"
	"github.com/taibuivan/lector/internal/platform/constants"
	"github.com/taibuivan/lector/internal/platform/metrics"
	"github.com/taibuivan/lector/internal/platform/validate"
	"github.com/taibuivan/lector/pkg/debounce"
)

// flushTimeout bounds one remote progress write.
const flushTimeout = 10 * time.Second

// Tracker records reading positions locally and debounces them to the remote store.
//
// # Per-book states
//
//	Idle --PositionChanged(new location)--> PendingRemoteFlush
//	PendingRemoteFlush --PositionChanged--> PendingRemoteFlush (timer restarted)
//	PendingRemoteFlush --timer expiry--> Idle (remote write attempted once)
type Tracker struct {
	states    Store
	remote    ProgressRepository
	scheduler *debounce.Scheduler[string, Progress]
	logger    *slog.Logger
	now       func() time.Time

	mu sync.Mutex
	// last holds the latest known location per book, seeded by InitialLocation.
	last map[string]string
}

// TrackerOption customises a [Tracker].
type TrackerOption func(*trackerSettings)

type trackerSettings struct {
	now       func() time.Time
	scheduler []debounce.Option
}

// WithClock replaces the wall clock used for LastRead and UpdatedAt.
func WithClock(now func() time.Time) TrackerOption {
	return func(settings *trackerSettings) { settings.now = now }
}

// WithSchedulerOptions passes options to the debounce scheduler.
func WithSchedulerOptions(options ...debounce.Option) TrackerOption {
	return func(settings *trackerSettings) { settings.scheduler = append(settings.scheduler, options...) }
}

// NewTracker builds a tracker whose remote flush fires delay after the last change.
func NewTracker(states Store, remote ProgressRepository, delay time.Duration, logger *slog.Logger, options ...TrackerOption) *Tracker {
	settings := trackerSettings{now: time.Now}
	for _, option := range options {
		option(&settings)
	}
	if delay <= 0 {
		delay = constants.RemoteFlushDelay
	}

	tracker := &Tracker{
		states: states,
		remote: remote,
		logger: logger,
		now:    settings.now,
		last:   make(map[string]string),
	}
	tracker.scheduler = debounce.New(delay, tracker.flush, settings.scheduler...)
	return tracker
}

// # Position updates

/*
PositionChanged records a new position for book.

A location equal to the last recorded one is ignored and reports false. Any
other location is written to the local store before returning, then the
remote flush is (re)armed with this value.
*/
func (tracker *Tracker) PositionChanged(context context.Context, book BookRef, location string, progress float64) (bool, error) {
	validator := &validate.Validator{}
	validator.Required(FieldBookID, book.ID).Required(FieldLocation, location).Fraction(FieldProgress, progress)
	if err := validator.Err(); err != nil {
		return false, err
	}

	tracker.mu.Lock()
	defer tracker.mu.Unlock()

	current, found, err := tracker.load(context, book.ID)
	if err != nil {
		tracker.logger.WarnContext(context, "reading_state_load_failed",
			slog.String("book_id", book.ID), slog.Any("error", err))
	}

	lastLocation, known := tracker.last[book.ID]
	if !known && found {
		lastLocation, known = current.LastLocation, true
	}
	if known && lastLocation == location {
		metrics.IncPositionWrite(true)
		return false, nil
	}

	now := tracker.now().UnixMilli()
	next := current
	next.BookID = book.ID
	next.LastLocation = location
	next.Progress = progress
	next.LastRead = now

	writeErr := tracker.states.Put(context, next)
	tracker.last[book.ID] = location
	metrics.IncPositionWrite(false)

	// The remote copy is still scheduled when the local write failed.
	tracker.scheduler.Schedule(book.ID, Progress{
		BookID:       book.ID,
		LastLocation: location,
		Title:        book.Title,
		Author:       book.Author,
		UpdatedAt:    now,
	})
	metrics.SetPendingFlushes(tracker.scheduler.Len())

	if writeErr != nil {
		return true, writeErr
	}
	return true, nil
}

// flush is the debounce callback. Failures are logged and dropped: the next
// position change re-arms the timer with the latest value.
func (tracker *Tracker) flush(bookID string, progress Progress) {
	flushContext, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	defer metrics.SetPendingFlushes(tracker.scheduler.Len())

	if err := tracker.remote.Upsert(flushContext, progress); err != nil {
		metrics.IncProgressFlush(metrics.OutcomeFailure)
		tracker.logger.Warn("progress_flush_failed",
			slog.String("book_id", bookID),
			slog.String("location", progress.LastLocation),
			slog.Any("error", err),
		)
		return
	}

	metrics.IncProgressFlush(metrics.OutcomeSuccess)
	tracker.logger.Debug("progress_flushed",
		slog.String("book_id", bookID),
		slog.String("location", progress.LastLocation),
	)
}

// Flush sends every pending position now and returns how many were sent.
func (tracker *Tracker) Flush(context context.Context) int {
	flushed := tracker.scheduler.Flush()
	if flushed > 0 {
		tracker.logger.InfoContext(context, "progress_flushed_on_demand", slog.Int("books", flushed))
	}
	return flushed
}

// Pending reports whether bookID has a remote flush waiting.
func (tracker *Tracker) Pending(bookID string) bool {
	_, pending := tracker.scheduler.Pending(bookID)
	return pending
}

// # Finish / unfinish

// MarkFinished sets progress to 1 and the finished flag, creating the state if needed.
// It bypasses the debounce.
func (tracker *Tracker) MarkFinished(context context.Context, bookID string) (State, error) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()

	state, found, err := tracker.load(context, bookID)
	if err != nil {
		return State{}, err
	}
	if !found {
		state = State{BookID: bookID}
	}

	state.Progress = constants.FinishedProgress
	state.IsFinished = true
	state.LastRead = tracker.now().UnixMilli()

	if err := tracker.states.Put(context, state); err != nil {
		return State{}, err
	}

	tracker.logger.InfoContext(context, "book_marked_finished", slog.String("book_id", bookID))
	return state, nil
}

// MarkUnfinished clears the finished flag and caps progress below completion.
// A book with no state is left alone and reports false.
func (tracker *Tracker) MarkUnfinished(context context.Context, bookID string) (State, bool, error) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()

	state, found, err := tracker.load(context, bookID)
	if err != nil || !found {
		return State{}, false, err
	}

	state.Progress = min(state.Progress, constants.UnfinishedProgressCeiling)
	state.IsFinished = false

	if err := tracker.states.Put(context, state); err != nil {
		return State{}, false, err
	}

	tracker.logger.InfoContext(context, "book_marked_unfinished", slog.String("book_id", bookID))
	return state, true, nil
}

// # Reads

// State returns the local state of bookID and the layer that served it.
func (tracker *Tracker) State(context context.Context, bookID string) (State, Source, error) {
	return tracker.states.Lookup(context, bookID)
}

// Recent lists states by last read time, newest first.
func (tracker *Tracker) Recent(context context.Context, limit, offset int) ([]State, int, error) {
	return tracker.states.Recent(context, limit, offset)
}

/*
InitialLocation resolves where to open bookID.

The local state wins. Without one, the remote progress record is used. The
result seeds the redundant-write guard, so the renderer's first report of the
same location is not written back. An unreachable remote store yields an empty
location rather than an error.
*/
func (tracker *Tracker) InitialLocation(context context.Context, bookID string) (string, Source, error) {
	state, source, err := tracker.states.Lookup(context, bookID)
	if err == nil && state.LastLocation != "" {
		tracker.seed(bookID, state.LastLocation)
		return state.LastLocation, source, nil
	}
	if err != nil && !apperr.IsNotFound(err) {
		tracker.logger.WarnContext(context, "reading_state_lookup_failed",
			slog.String("book_id", bookID), slog.Any("error", err))
	}

	progress, err := tracker.remote.Get(context, bookID)
	if err != nil {
		if !apperr.IsNotFound(err) {
			tracker.logger.WarnContext(context, "remote_progress_unavailable",
				slog.String("book_id", bookID), slog.Any("error", err))
		}
		return "", SourceNone, nil
	}
	if progress.LastLocation == "" {
		return "", SourceNone, nil
	}

	tracker.seed(bookID, progress.LastLocation)
	return progress.LastLocation, SourceRemote, nil
}

func (tracker *Tracker) seed(bookID, location string) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	if _, known := tracker.last[bookID]; !known {
		tracker.last[bookID] = location
	}
}

// load returns the current state and whether one exists.
func (tracker *Tracker) load(context context.Context, bookID string) (State, bool, error) {
	state, err := tracker.states.Get(context, bookID)
	if apperr.IsNotFound(err) {
		return State{BookID: bookID}, false, nil
	}
	if err != nil {
		return State{BookID: bookID}, false, err
	}
	return state, true, nil
}
