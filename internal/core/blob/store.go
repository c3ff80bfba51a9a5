// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob

import (
	"context"

	"github.com/taibuivan/lector/internal/core/chunk"
)

// ChunkRepository persists chunk records and the content manifest.
type ChunkRepository interface {
	// PutChunk upserts one chunk record keyed by (book, index).
	PutChunk(context context.Context, piece chunk.Chunk) error
	// TrimChunks deletes chunks with index >= from.
	TrimChunks(context context.Context, bookID string, from int) error
	// ListChunks returns every chunk of a book ordered by index.
	ListChunks(context context.Context, bookID string) ([]Record, error)
	// DeleteChunks removes every chunk of a book and reports how many were removed.
	DeleteChunks(context context.Context, bookID string) (int64, error)

	// SetManifest records the manifest on the book's metadata record.
	SetManifest(context context.Context, bookID string, manifest Manifest) error
	// Manifest returns the recorded manifest, or nil when none was recorded.
	Manifest(context context.Context, bookID string) (*Manifest, error)
}

// MetadataRemover deletes a book's metadata record. The library's remote
// repository implements it so the deletion is announced on the change feed.
type MetadataRemover interface {
	DeleteBook(context context.Context, bookID string) error
}
