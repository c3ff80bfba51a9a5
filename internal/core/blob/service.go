// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/lector/internal/core/chunk"
	"github.com/taibuivan/lector/internal/platform/apperr"
	"github.com/taibuivan/lector/internal/platform/metrics"
)

// Store uploads and downloads chunked book content.
type Store struct {
	chunks    ChunkRepository
	metadata  MetadataRemover
	chunkSize int
	logger    *slog.Logger
}

// NewStore builds a blob store. A non-positive chunkSize falls back to [chunk.DefaultSize].
func NewStore(chunks ChunkRepository, metadata MetadataRemover, chunkSize int, logger *slog.Logger) *Store {
	if chunkSize <= 0 {
		chunkSize = chunk.DefaultSize
	}
	return &Store{chunks: chunks, metadata: metadata, chunkSize: chunkSize, logger: logger}
}

// ChunkSize returns the configured chunk size in bytes.
func (store *Store) ChunkSize() int { return store.chunkSize }

// # Upload

/*
Upload stores data as the content of bookID.

A pending manifest (chunk count and size, no digest) is recorded first. Chunks
are then written sequentially, each awaited before the next; the context is
checked between writes so a cancelled upload stops at a chunk boundary. The
digest is recorded last, which is what makes the content downloadable as a
verified whole. An interrupted upload leaves the manifest pending.
*/
func (store *Store) Upload(context context.Context, bookID string, data []byte) error {
	startedAt := time.Now()

	pieces, err := chunk.Split(bookID, data, store.chunkSize)
	if err != nil {
		return err
	}

	pending := Manifest{ChunkCount: len(pieces), Size: int64(len(data))}
	if err := store.chunks.SetManifest(context, bookID, pending); err != nil {
		return fmt.Errorf("blob: upload %s manifest: %w", bookID, err)
	}

	for _, piece := range pieces {
		if err := context.Err(); err != nil {
			return fmt.Errorf("blob: upload %s cancelled after %d of %d chunks: %w", bookID, piece.Index, len(pieces), err)
		}

		if err := store.chunks.PutChunk(context, piece); err != nil {
			return fmt.Errorf("blob: upload %s chunk %d: %w", bookID, piece.Index, err)
		}

		metrics.AddChunks(metrics.DirectionUpload, 1)
		store.logger.DebugContext(context, "chunk_uploaded",
			slog.String("book_id", bookID),
			slog.Int("index", piece.Index),
			slog.Int("total", len(pieces)),
			slog.Int("bytes", len(piece.Data)),
		)
	}

	// A previous, longer upload under the same id must not leave a tail behind.
	if err := store.chunks.TrimChunks(context, bookID, len(pieces)); err != nil {
		return fmt.Errorf("blob: upload %s trim: %w", bookID, err)
	}

	manifest := pending
	manifest.Digest = Digest(data)
	if err := store.chunks.SetManifest(context, bookID, manifest); err != nil {
		return fmt.Errorf("blob: upload %s manifest: %w", bookID, err)
	}

	metrics.AddBlobBytes(metrics.DirectionUpload, len(data))
	store.logger.InfoContext(context, "blob_uploaded",
		slog.String("book_id", bookID),
		slog.Int("chunks", len(pieces)),
		slog.Int("bytes", len(data)),
		slog.Duration("elapsed", time.Since(startedAt)),
	)
	return nil
}

// # Download

/*
Download returns the complete content of bookID.

Every failure is a [*DownloadError]. No partial payload is ever returned.
*/
func (store *Store) Download(context context.Context, bookID string) ([]byte, error) {
	data, err := store.download(context, bookID)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeReconstructionFailed) {
			metrics.IncReconstructionFailure()
		}
		store.logger.WarnContext(context, "blob_download_failed",
			slog.String("book_id", bookID),
			slog.Any("error", err),
		)
		return nil, &DownloadError{BookID: bookID, Cause: err}
	}

	metrics.AddBlobBytes(metrics.DirectionDownload, len(data))
	return data, nil
}

func (store *Store) download(context context.Context, bookID string) ([]byte, error) {
	manifest, err := store.chunks.Manifest(context, bookID)
	if err != nil {
		return nil, err
	}

	records, err := store.chunks.ListChunks(context, bookID)
	if err != nil {
		return nil, err
	}
	metrics.AddChunks(metrics.DirectionDownload, len(records))

	pieces := make([]chunk.Chunk, 0, len(records))
	for _, record := range records {
		payload, err := chunk.DecodePayload(record.Data, record.Text)
		if err != nil {
			return nil, apperr.ReconstructionFailed(fmt.Errorf("chunk %d: %w", record.Index, err))
		}
		pieces = append(pieces, chunk.Chunk{ParentID: bookID, Index: record.Index, Data: payload})
	}

	if manifest == nil {
		return joinLegacy(pieces, records)
	}
	if manifest.Pending() {
		return nil, apperr.ReconstructionFailed(fmt.Errorf("upload incomplete: %d of %d chunks present", len(pieces), manifest.ChunkCount))
	}

	data, err := chunk.JoinExpect(pieces, manifest.ChunkCount)
	if err != nil {
		return nil, apperr.ReconstructionFailed(err)
	}

	if got := Digest(data); got != manifest.Digest {
		return nil, apperr.ReconstructionFailed(&DigestMismatchError{Want: manifest.Digest, Got: got})
	}
	return data, nil
}

/*
joinLegacy joins content stored before manifests existed.

Only a chunk set written entirely in the legacy text form qualifies. Binary
chunks without a manifest belong to an upload that never recorded one, and an
empty set means there is nothing to download.
*/
func joinLegacy(pieces []chunk.Chunk, records []Record) ([]byte, error) {
	if len(records) == 0 {
		return nil, apperr.NotFound("Book content")
	}
	for _, record := range records {
		if record.Text == nil {
			return nil, apperr.ReconstructionFailed(fmt.Errorf("chunk %d has no manifest", record.Index))
		}
	}

	data, err := chunk.Join(pieces)
	if err != nil {
		return nil, apperr.ReconstructionFailed(err)
	}
	return data, nil
}

// # Delete

// Delete removes the metadata record of bookID. Content stays until [Store.PurgeChunks].
func (store *Store) Delete(context context.Context, bookID string) error {
	if err := store.metadata.DeleteBook(context, bookID); err != nil {
		return fmt.Errorf("blob: delete metadata %s: %w", bookID, err)
	}
	return nil
}

// PurgeChunks removes every chunk record of bookID.
func (store *Store) PurgeChunks(context context.Context, bookID string) error {
	removed, err := store.chunks.DeleteChunks(context, bookID)
	if err != nil {
		return fmt.Errorf("blob: purge chunks %s: %w", bookID, err)
	}

	store.logger.InfoContext(context, "blob_chunks_purged",
		slog.String("book_id", bookID),
		slog.Int64("chunks", removed),
	)
	return nil
}

// IsReconstructionFailure reports whether err is a download that failed reassembly or verification.
func IsReconstructionFailure(err error) bool {
	var downloadErr *DownloadError
	return errors.As(err, &downloadErr) && apperr.HasCode(err, apperr.CodeReconstructionFailed)
}
