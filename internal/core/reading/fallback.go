// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reading

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/taibuivan/lector/internal/platform/apperr"
	"github.com/taibuivan/lector/internal/platform/constants"
	"github.com/taibuivan/lector/internal/platform/metrics"
	"github.com/taibuivan/lector/pkg/pagination"
)

/*
FallbackStore puts the primary reading state namespace and its plain string
copy behind one contract.

Policy:

  - Writes go to both layers. A write succeeds when at least one layer took it.
  - Reads try the primary layer and use the copy only when the primary misses
    or fails. [FallbackStore.Lookup] reports which layer answered.
*/
type FallbackStore struct {
	primary StateStore
	cache   StringCache
	logger  *slog.Logger
}

// NewFallbackStore layers cache under primary.
func NewFallbackStore(primary StateStore, cache StringCache, logger *slog.Logger) *FallbackStore {
	return &FallbackStore{primary: primary, cache: cache, logger: logger}
}

// FallbackKey returns the cache key holding the copy of bookID's state.
func FallbackKey(bookID string) string {
	return constants.FallbackReadingStatePrefix + bookID
}

// Put writes the state to both layers.
func (store *FallbackStore) Put(context context.Context, state State) error {
	primaryErr := store.primary.Put(context, state)
	cacheErr := store.putCopy(state)

	switch {
	case primaryErr == nil && cacheErr != nil:
		store.logger.WarnContext(context, "reading_state_fallback_write_failed",
			slog.String("book_id", state.BookID), slog.Any("error", cacheErr))
	case primaryErr != nil && cacheErr == nil:
		store.logger.WarnContext(context, "reading_state_primary_write_failed",
			slog.String("book_id", state.BookID), slog.Any("error", primaryErr))
	case primaryErr != nil && cacheErr != nil:
		return apperr.LocalStore(errors.Join(primaryErr, cacheErr))
	}
	return nil
}

// Get is [FallbackStore.Lookup] without the source.
func (store *FallbackStore) Get(context context.Context, bookID string) (State, error) {
	state, _, err := store.Lookup(context, bookID)
	return state, err
}

// Lookup reads bookID's state and reports the serving layer.
func (store *FallbackStore) Lookup(context context.Context, bookID string) (State, Source, error) {
	state, primaryErr := store.primary.Get(context, bookID)
	if primaryErr == nil {
		metrics.IncStateRead(string(SourcePrimary))
		return state, SourcePrimary, nil
	}

	if !apperr.IsNotFound(primaryErr) {
		store.logger.WarnContext(context, "reading_state_primary_read_failed",
			slog.String("book_id", bookID), slog.Any("error", primaryErr))
	}

	state, found, cacheErr := store.getCopy(bookID)
	if found {
		metrics.IncStateRead(string(SourceFallback))
		return state, SourceFallback, nil
	}

	metrics.IncStateRead(string(SourceNone))
	if cacheErr != nil && !apperr.IsNotFound(primaryErr) {
		return State{}, SourceNone, apperr.LocalStore(errors.Join(primaryErr, cacheErr))
	}
	if !apperr.IsNotFound(primaryErr) {
		return State{}, SourceNone, primaryErr
	}
	return State{}, SourceNone, apperr.NotFound("Reading state")
}

// GetAll reads the primary namespace, or every cached copy when it fails.
func (store *FallbackStore) GetAll(context context.Context) ([]State, error) {
	states, err := store.primary.GetAll(context)
	if err == nil {
		return states, nil
	}

	store.logger.WarnContext(context, "reading_state_primary_scan_failed", slog.Any("error", err))
	copies, cacheErr := store.allCopies()
	if cacheErr != nil {
		return nil, apperr.LocalStore(errors.Join(err, cacheErr))
	}
	return copies, nil
}

// Recent reads the primary index, or sorts the cached copies when it fails.
func (store *FallbackStore) Recent(context context.Context, limit, offset int) ([]State, int, error) {
	states, total, err := store.primary.Recent(context, limit, offset)
	if err == nil {
		return states, total, nil
	}

	copies, cacheErr := store.allCopies()
	if cacheErr != nil {
		return nil, 0, apperr.LocalStore(errors.Join(err, cacheErr))
	}

	slices.SortFunc(copies, func(a, b State) int { return cmp.Compare(b.LastRead, a.LastRead) })
	return pagination.Window(copies, limit, offset), len(copies), nil
}

func (store *FallbackStore) putCopy(state State) error {
	encoded, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("reading: encode fallback copy: %w", err)
	}
	return store.cache.Set(FallbackKey(state.BookID), string(encoded))
}

func (store *FallbackStore) getCopy(bookID string) (State, bool, error) {
	raw, found, err := store.cache.Get(FallbackKey(bookID))
	if err != nil || !found {
		return State{}, false, err
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return State{}, false, fmt.Errorf("reading: decode fallback copy of %s: %w", bookID, err)
	}
	return state, true, nil
}

func (store *FallbackStore) allCopies() ([]State, error) {
	keys, err := store.cache.Keys(constants.FallbackReadingStatePrefix)
	if err != nil {
		return nil, err
	}

	states := make([]State, 0, len(keys))
	for _, key := range keys {
		state, found, err := store.getCopy(strings.TrimPrefix(key, constants.FallbackReadingStatePrefix))
		if err != nil {
			return nil, err
		}
		if found {
			states = append(states, state)
		}
	}
	return states, nil
}
