// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import (
	"context"

	"github.com/taibuivan/lector/internal/core/reading"
)

// LocalRepository is the on-device books namespace.
type LocalRepository interface {
	// Put upserts the full record including the payload.
	Put(context context.Context, book LocalBook) error
	// Get returns apperr NOT_FOUND when the book is not downloaded.
	Get(context context.Context, id string) (LocalBook, error)
	GetAll(context context.Context) ([]LocalBook, error)
	// UpdateOrder is a no-op when the book is not downloaded.
	UpdateOrder(context context.Context, id string, order int) error
	// Delete is a no-op when the book is not downloaded.
	Delete(context context.Context, id string) error
}

// RemoteRepository is the authoritative books collection.
type RemoteRepository interface {
	// List returns every book ordered by sort order (missing last), then newest first.
	List(context context.Context) ([]Metadata, error)
	Insert(context context.Context, book Metadata) error
	UpdateOrder(context context.Context, id string, order int) error
	// DeleteBook removes the metadata record only.
	DeleteBook(context context.Context, id string) error
	// Subscribe delivers the current collection, then a fresh one after every change.
	// The channel closes when context is done.
	Subscribe(context context.Context) (<-chan Snapshot, error)
}

// ChangeFeed announces and delivers mutations of the remote collection.
type ChangeFeed interface {
	Publish(context context.Context, payload string) error
	Subscribe(context context.Context) (<-chan string, error)
}

// ContentStore moves book payloads to and from the remote store.
type ContentStore interface {
	Upload(context context.Context, bookID string, data []byte) error
	Download(context context.Context, bookID string) ([]byte, error)
	// Delete removes the metadata record. PurgeChunks removes the content.
	Delete(context context.Context, bookID string) error
	PurgeChunks(context context.Context, bookID string) error
}

// StateReader lists the local reading states.
type StateReader interface {
	GetAll(context context.Context) ([]reading.State, error)
}

// FinishMarker toggles the finished flag of a book.
type FinishMarker interface {
	MarkFinished(context context.Context, bookID string) (reading.State, error)
	MarkUnfinished(context context.Context, bookID string) (reading.State, bool, error)
}
