// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reading

import "context"

// StateStore is the local durable namespace of reading states.
type StateStore interface {
	// Get returns apperr NOT_FOUND when the book has no state.
	Get(context context.Context, bookID string) (State, error)
	Put(context context.Context, state State) error
	GetAll(context context.Context) ([]State, error)
	// Recent orders by last_read descending and returns the total count.
	Recent(context context.Context, limit, offset int) ([]State, int, error)
}

// Store is a [StateStore] that also reports which layer served a read.
type Store interface {
	StateStore
	Lookup(context context.Context, bookID string) (State, Source, error)
}

// StringCache is the plain key/value cache holding the fallback copy.
type StringCache interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Keys(prefix string) ([]string, error)
}

// ProgressRepository is the remote progress collection.
type ProgressRepository interface {
	// Upsert merges the given fields into the remote record.
	Upsert(context context.Context, progress Progress) error
	// Get returns apperr NOT_FOUND when no device has flushed this book yet.
	Get(context context.Context, bookID string) (Progress, error)
}
