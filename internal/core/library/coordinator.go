// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import (
	stdctx "context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/lector/internal/core/reading"
	"github.com/taibuivan/lector/internal/platform/apperr"
	"github.com/taibuivan/lector/internal/platform/constants"
	"github.com/taibuivan/lector/internal/platform/metrics"
	"github.com/taibuivan/lector/internal/platform/validate"
	"github.com/taibuivan/lector/pkg/pointer"
	"github.com/taibuivan/lector/pkg/uuidv7"
)

// Option customises a [Coordinator].
type Option func(*Coordinator)

// WithLoadingTimeout replaces the safety timeout that clears the loading flag.
func WithLoadingTimeout(timeout time.Duration) Option {
	return func(coordinator *Coordinator) {
		if timeout > 0 {
			coordinator.loadingTimeout = timeout
		}
	}
}

// WithRetryBackoff bounds the exponential delay between subscription attempts.
func WithRetryBackoff(minDelay, maxDelay time.Duration) Option {
	return func(coordinator *Coordinator) {
		if minDelay > 0 && maxDelay >= minDelay {
			coordinator.backoffMin = minDelay
			coordinator.backoffMax = maxDelay
		}
	}
}

// WithClock replaces the wall clock used for CreatedAt and UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(coordinator *Coordinator) { coordinator.now = now }
}

// WithIDGenerator replaces the book id generator.
func WithIDGenerator(newID func() string) Option {
	return func(coordinator *Coordinator) { coordinator.newID = newID }
}

/*
Coordinator owns the library view.

# Lifecycle

	NewCoordinator -> Start -> (snapshots, mutations) -> Close

Start publishes the local snapshot when there is one, arms the loading safety
timeout and opens the remote subscription. Every remote snapshot is merged
with the local books and reading states and published as a whole. A failed or
ended subscription is reopened with exponential backoff until Close.

# Concurrency

The view is replaced, never mutated: observers may keep the entries slice they
received. Snapshots are applied from a single goroutine in delivery order.
*/
type Coordinator struct {
	local    LocalRepository
	remote   RemoteRepository
	content  ContentStore
	states   StateReader
	finisher FinishMarker
	logger   *slog.Logger

	loadingTimeout time.Duration
	backoffMin     time.Duration
	backoffMax     time.Duration
	now            func() time.Time
	newID          func() string

	mu        sync.Mutex
	view      View
	watchers  map[uint64]chan View
	nextWatch uint64
	safety    *time.Timer
	cancel    stdctx.CancelFunc
	done      chan struct{}
}

// NewCoordinator builds a coordinator. Nothing runs until [Coordinator.Start].
func NewCoordinator(local LocalRepository, remote RemoteRepository, content ContentStore, states StateReader, finisher FinishMarker, logger *slog.Logger, options ...Option) *Coordinator {
	coordinator := &Coordinator{
		local:          local,
		remote:         remote,
		content:        content,
		states:         states,
		finisher:       finisher,
		logger:         logger,
		loadingTimeout: constants.LoadingSafetyTimeout,
		backoffMin:     constants.SubscribeBackoffMin,
		backoffMax:     constants.SubscribeBackoffMax,
		now:            time.Now,
		newID:          uuidv7.New,
		view:           View{Entries: []Entry{}, Loading: true, Syncing: true},
		watchers:       make(map[uint64]chan View),
	}
	for _, option := range options {
		option(coordinator)
	}
	return coordinator
}

// # Lifecycle

/*
Start loads the local snapshot and opens the remote subscription.

A subscription failure is published on the view and returned; the local
snapshot stays available and the subscription is retried in the background.
*/
func (coordinator *Coordinator) Start(context stdctx.Context) error {
	coordinator.mu.Lock()
	if coordinator.cancel != nil {
		coordinator.mu.Unlock()
		return errors.New("library: coordinator already started")
	}
	subscriptionContext, cancel := stdctx.WithCancel(context)
	coordinator.cancel = cancel
	coordinator.mu.Unlock()

	// 1. Local snapshot
	books, states := coordinator.loadLocal(context)
	if len(books) > 0 {
		coordinator.publish(func(view *View) {
			view.Entries = LocalEntries(books, states)
			view.Loading = false
		})
		coordinator.logger.InfoContext(context, "library_local_snapshot_loaded", slog.Int("books", len(books)))
	}

	// 2. Safety timeout
	coordinator.mu.Lock()
	coordinator.safety = time.AfterFunc(coordinator.loadingTimeout, coordinator.loadingExpired)
	coordinator.mu.Unlock()

	// 3. Remote subscription
	snapshots, err := coordinator.subscribe(subscriptionContext)

	done := make(chan struct{})
	coordinator.mu.Lock()
	coordinator.done = done
	coordinator.mu.Unlock()

	go coordinator.run(subscriptionContext, snapshots, done)
	return err
}

// subscribe opens one subscription. A failure is published on the view.
func (coordinator *Coordinator) subscribe(context stdctx.Context) (<-chan Snapshot, error) {
	snapshots, err := coordinator.remote.Subscribe(context)
	if err == nil {
		return snapshots, nil
	}
	if context.Err() != nil {
		return nil, err
	}

	coordinator.stopSafety()
	coordinator.publish(func(view *View) {
		view.Loading = false
		view.Syncing = false
		view.Err = err.Error()
	})
	coordinator.logger.WarnContext(context, "library_subscription_failed", slog.Any("error", err))
	return nil, err
}

/*
run applies snapshots in delivery order and reopens the subscription when it
fails or ends. The delay doubles after every failed attempt up to the
configured maximum and resets once a subscription opens.
*/
func (coordinator *Coordinator) run(context stdctx.Context, snapshots <-chan Snapshot, done chan<- struct{}) {
	defer close(done)

	backoff := coordinator.backoffMin
	for {
		if snapshots != nil {
			for snapshot := range snapshots {
				coordinator.apply(context, snapshot)
			}
			backoff = coordinator.backoffMin
		}
		if context.Err() != nil {
			return
		}

		timer := time.NewTimer(backoff)
		select {
		case <-context.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		var err error
		if snapshots, err = coordinator.subscribe(context); err != nil {
			backoff = min(backoff*2, coordinator.backoffMax)
			continue
		}
		coordinator.logger.InfoContext(context, "library_subscription_reopened")
	}
}

// Close ends the subscription and closes every watcher channel.
func (coordinator *Coordinator) Close() {
	coordinator.mu.Lock()
	cancel, done := coordinator.cancel, coordinator.done
	coordinator.mu.Unlock()

	coordinator.stopSafety()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	for id, watcher := range coordinator.watchers {
		close(watcher)
		delete(coordinator.watchers, id)
	}
}

func (coordinator *Coordinator) loadingExpired() {
	coordinator.mu.Lock()
	loading := coordinator.view.Loading
	coordinator.mu.Unlock()
	if !loading {
		return
	}

	coordinator.logger.Warn("library_loading_timeout", slog.Duration("after", coordinator.loadingTimeout))
	coordinator.publish(func(view *View) { view.Loading = false })
}

func (coordinator *Coordinator) stopSafety() {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	if coordinator.safety != nil {
		coordinator.safety.Stop()
	}
}

// apply merges one remote snapshot into the view.
func (coordinator *Coordinator) apply(context stdctx.Context, snapshot Snapshot) {
	coordinator.stopSafety()

	if snapshot.Err != nil {
		coordinator.logger.WarnContext(context, "library_snapshot_failed", slog.Any("error", snapshot.Err))
		coordinator.publish(func(view *View) {
			view.Loading = false
			view.Syncing = false
			view.Err = snapshot.Err.Error()
		})
		return
	}

	books, states := coordinator.loadLocal(context)
	entries := Merge(snapshot.Books, books, states)

	coordinator.publish(func(view *View) {
		view.Entries = entries
		view.Loading = false
		view.Syncing = false
		view.Err = ""
	})

	metrics.IncSnapshotMerged()
	coordinator.logger.DebugContext(context, "library_snapshot_merged",
		slog.Int("remote", len(snapshot.Books)),
		slog.Int("downloaded", len(books)),
		slog.Int("entries", len(entries)),
	)
}

// loadLocal reads the downloaded books and the reading states. Failures are
// logged and yield empty lists.
func (coordinator *Coordinator) loadLocal(context stdctx.Context) ([]LocalBook, []reading.State) {
	books, err := coordinator.local.GetAll(context)
	if err != nil {
		coordinator.logger.WarnContext(context, "library_local_books_unavailable", slog.Any("error", err))
		books = nil
	}

	states, err := coordinator.states.GetAll(context)
	if err != nil {
		coordinator.logger.WarnContext(context, "library_reading_states_unavailable", slog.Any("error", err))
		states = nil
	}
	return books, states
}

// # Observation

// View returns the current snapshot.
func (coordinator *Coordinator) View() View {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	return coordinator.view
}

/*
Watch registers an observer.

The channel holds at most one view: a slow observer skips intermediate views
and always receives the latest. The cancel func unregisters and closes the
channel.
*/
func (coordinator *Coordinator) Watch() (<-chan View, func()) {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()

	id := coordinator.nextWatch
	coordinator.nextWatch++
	watcher := make(chan View, 1)
	coordinator.watchers[id] = watcher

	var once sync.Once
	return watcher, func() {
		once.Do(func() {
			coordinator.mu.Lock()
			defer coordinator.mu.Unlock()
			if _, ok := coordinator.watchers[id]; ok {
				close(watcher)
				delete(coordinator.watchers, id)
			}
		})
	}
}

// publish applies change to a copy of the view and installs it.
func (coordinator *Coordinator) publish(change func(view *View)) View {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()

	next := coordinator.view
	next.Entries = slices.Clone(coordinator.view.Entries)
	change(&next)
	if next.Entries == nil {
		next.Entries = []Entry{}
	}
	next.Version = coordinator.view.Version + 1
	next.UpdatedAt = coordinator.now().UnixMilli()
	coordinator.view = next

	for _, watcher := range coordinator.watchers {
		select {
		case watcher <- next:
		default:
			select {
			case <-watcher:
			default:
			}
			watcher <- next
		}
	}

	metrics.SetLibraryEntries(len(next.Entries))
	return next
}

// updateEntry republishes the view with one entry changed. It reports false
// when the entry is not in the view.
func (coordinator *Coordinator) updateEntry(id string, change func(entry *Entry)) bool {
	found := false
	coordinator.publish(func(view *View) {
		for index := range view.Entries {
			if view.Entries[index].ID == id {
				change(&view.Entries[index])
				found = true
				return
			}
		}
	})
	return found
}

func (coordinator *Coordinator) entry(id string) (Entry, bool) {
	coordinator.mu.Lock()
	defer coordinator.mu.Unlock()
	for _, entry := range coordinator.view.Entries {
		if entry.ID == id {
			return entry, true
		}
	}
	return Entry{}, false
}

// # Mutations

/*
Reorder arranges the library as ids, giving each book order = its index.

The view changes before any remote call. One remote update is issued per book;
failures are joined into the returned error and nothing is rolled back.
*/
func (coordinator *Coordinator) Reorder(context stdctx.Context, ids []string) error {
	coordinator.mu.Lock()
	current := coordinator.view.Entries
	coordinator.mu.Unlock()

	reordered, err := Reorder(current, ids)
	if err != nil {
		return err
	}
	coordinator.publish(func(view *View) { view.Entries = reordered })

	var failures []error
	for index, entry := range reordered {
		if entry.IsDownloaded {
			if err := coordinator.local.UpdateOrder(context, entry.ID, index); err != nil {
				coordinator.logger.WarnContext(context, "library_local_order_failed",
					slog.String("book_id", entry.ID), slog.Any("error", err))
			}
		}
		if err := coordinator.remote.UpdateOrder(context, entry.ID, index); err != nil {
			failures = append(failures, fmt.Errorf("order %s: %w", entry.ID, err))
		}
	}

	if len(failures) > 0 {
		coordinator.logger.WarnContext(context, "library_reorder_incomplete",
			slog.Int("books", len(reordered)), slog.Int("failed", len(failures)))
		return errors.Join(failures...)
	}

	coordinator.logger.InfoContext(context, "library_reordered", slog.Int("books", len(reordered)))
	return nil
}

/*
Delete removes a book from this device and from the remote store.

The steps run in order: local payload, remote metadata, remote content. The
content is purged only once the metadata record is gone, so a book that is
still listed never loses its chunks. Failures are joined and nothing is rolled
back.
*/
func (coordinator *Coordinator) Delete(context stdctx.Context, id string) error {
	var failures []error

	localErr := coordinator.local.Delete(context, id)
	if localErr != nil {
		failures = append(failures, fmt.Errorf("delete local copy: %w", localErr))
	}

	metadataErr := coordinator.content.Delete(context, id)
	if metadataErr != nil {
		failures = append(failures, metadataErr)
	}

	if metadataErr == nil {
		if err := coordinator.content.PurgeChunks(context, id); err != nil {
			failures = append(failures, err)
		}
	}

	switch {
	case metadataErr == nil:
		coordinator.publish(func(view *View) {
			view.Entries = slices.DeleteFunc(view.Entries, func(entry Entry) bool { return entry.ID == id })
		})
	case localErr == nil:
		coordinator.updateEntry(id, func(entry *Entry) {
			entry.IsDownloaded = false
			entry.Data = nil
		})
	}

	if len(failures) > 0 {
		coordinator.logger.WarnContext(context, "library_delete_incomplete",
			slog.String("book_id", id), slog.Int("failed", len(failures)))
		return errors.Join(failures...)
	}

	coordinator.logger.InfoContext(context, "library_book_deleted", slog.String("book_id", id))
	return nil
}

/*
Upload adds a new book.

Title, author and cover are read from the EPUB; hints fill the gaps (title
falls back to the file name, author to "Unknown author"). The book is saved
locally first, then the remote metadata record is written, then the content.
The new book is ordered after every book currently in the view.
*/
func (coordinator *Coordinator) Upload(context stdctx.Context, data []byte, hints UploadHints) (Metadata, error) {
	validator := &validate.Validator{}
	validator.Custom(FieldData, len(data) == 0, "Book file is empty")
	if err := validator.Err(); err != nil {
		return Metadata{}, err
	}

	info, err := ParseEPUB(data)
	if err != nil {
		return Metadata{}, apperr.ValidationError("The file is not a readable EPUB",
			apperr.FieldError{Field: FieldData, Message: err.Error()})
	}

	coordinator.mu.Lock()
	order := len(coordinator.view.Entries)
	coordinator.mu.Unlock()

	book := Metadata{
		ID:        coordinator.newID(),
		Title:     firstNonBlank([]string{hints.Title, info.Title, strings.TrimSuffix(hints.FileName, ".epub")}),
		Author:    firstNonBlank([]string{hints.Author, info.Author, constants.UnknownAuthor}),
		CreatedAt: coordinator.now().UnixMilli(),
		Order:     pointer.To(order),
	}
	if book.Title == "" {
		book.Title = book.ID
	}
	if info.CoverURL != "" {
		book.CoverURL = &info.CoverURL
	}

	// 1. Local copy
	if err := coordinator.local.Put(context, LocalBook{Metadata: book, Data: data}); err != nil {
		return Metadata{}, err
	}
	coordinator.publish(func(view *View) {
		view.Entries = append(view.Entries, Entry{Metadata: book, IsDownloaded: true, Data: data})
		Sort(view.Entries)
	})

	// 2. Remote metadata, 3. remote content
	if err := coordinator.remote.Insert(context, book); err != nil {
		return book, fmt.Errorf("library: upload %s metadata: %w", book.ID, err)
	}
	if err := coordinator.content.Upload(context, book.ID, data); err != nil {
		return book, err
	}

	coordinator.logger.InfoContext(context, "library_book_uploaded",
		slog.String("book_id", book.ID),
		slog.String("title", book.Title),
		slog.Int("bytes", len(data)),
	)
	return book, nil
}

/*
Download fetches the content of a book in the view and stores it locally.

On failure the entry stays not downloaded and the error is returned.
*/
func (coordinator *Coordinator) Download(context stdctx.Context, id string) (Entry, error) {
	entry, ok := coordinator.entry(id)
	if !ok {
		return Entry{}, apperr.NotFound("Book")
	}
	if entry.IsDownloaded {
		return entry, nil
	}

	data, err := coordinator.content.Download(context, id)
	if err != nil {
		return Entry{}, err
	}

	if err := coordinator.local.Put(context, LocalBook{Metadata: entry.Metadata, Data: data}); err != nil {
		return Entry{}, err
	}

	entry.IsDownloaded = true
	entry.Data = data
	coordinator.updateEntry(id, func(current *Entry) {
		current.IsDownloaded = true
		current.Data = data
	})

	coordinator.logger.InfoContext(context, "library_book_downloaded",
		slog.String("book_id", id), slog.Int("bytes", len(data)))
	return entry, nil
}

// Content returns the downloaded payload of a book.
func (coordinator *Coordinator) Content(context stdctx.Context, id string) (LocalBook, error) {
	return coordinator.local.Get(context, id)
}

// SetFinished marks or unmarks a book as finished and refreshes its entry.
func (coordinator *Coordinator) SetFinished(context stdctx.Context, id string, finished bool) (reading.State, error) {
	var (
		state reading.State
		err   error
	)
	if finished {
		state, err = coordinator.finisher.MarkFinished(context, id)
	} else {
		state, _, err = coordinator.finisher.MarkUnfinished(context, id)
	}
	if err != nil {
		return reading.State{}, err
	}

	coordinator.updateEntry(id, func(entry *Entry) {
		entry.IsFinished = finished
		if state.BookID != "" {
			entry.Progress = state.Progress
		}
	})
	return state, nil
}
