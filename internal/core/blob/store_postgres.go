// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/lector/internal/core/chunk"
	"github.com/taibuivan/lector/internal/platform/database/schema"
	"github.com/taibuivan/lector/internal/platform/dberr"
)

// # PostgreSQL Repository

// chunkRepository implements [ChunkRepository] using pgx.
type chunkRepository struct {
	pool *pgxpool.Pool
}

// NewChunkRepository constructs a PostgreSQL backed chunk store.
func NewChunkRepository(pool *pgxpool.Pool) ChunkRepository {
	return &chunkRepository{pool: pool}
}

/*
PutChunk upserts a chunk record.

New writes always use the binary column; the text column is cleared so a
rewritten legacy chunk cannot be read back in its old form.
*/
func (repository *chunkRepository) PutChunk(context context.Context, piece chunk.Chunk) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, NULL)
		ON CONFLICT (%s, %s) DO UPDATE
		SET %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = NULL
	`,
		schema.SyncBookChunks.Table,
		schema.SyncBookChunks.BookID, schema.SyncBookChunks.ChunkIndex, schema.SyncBookChunks.ChunkKey,
		schema.SyncBookChunks.Data, schema.SyncBookChunks.DataText,
		schema.SyncBookChunks.BookID, schema.SyncBookChunks.ChunkIndex,
		schema.SyncBookChunks.ChunkKey, schema.SyncBookChunks.ChunkKey,
		schema.SyncBookChunks.Data, schema.SyncBookChunks.Data,
		schema.SyncBookChunks.DataText,
	)

	if _, err := repository.pool.Exec(context, query, piece.ParentID, piece.Index, piece.Key(), piece.Data); err != nil {
		return dberr.Wrap(err, "Chunk")
	}
	return nil
}

// TrimChunks deletes chunks at or beyond index from.
func (repository *chunkRepository) TrimChunks(context context.Context, bookID string, from int) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s >= $2`,
		schema.SyncBookChunks.Table, schema.SyncBookChunks.BookID, schema.SyncBookChunks.ChunkIndex)

	if _, err := repository.pool.Exec(context, query, bookID, from); err != nil {
		return dberr.Wrap(err, "Chunk")
	}
	return nil
}

// ListChunks runs the single ordered range query of a download.
func (repository *chunkRepository) ListChunks(context context.Context, bookID string) ([]Record, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s ASC
	`,
		schema.SyncBookChunks.ChunkIndex, schema.SyncBookChunks.ChunkKey,
		schema.SyncBookChunks.Data, schema.SyncBookChunks.DataText,
		schema.SyncBookChunks.Table,
		schema.SyncBookChunks.BookID,
		schema.SyncBookChunks.ChunkIndex,
	)

	rows, err := repository.pool.Query(context, query, bookID)
	if err != nil {
		return nil, dberr.Wrap(err, "Chunk")
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var record Record
		err := row.Scan(&record.Index, &record.Key, &record.Data, &record.Text)
		return record, err
	})
	if err != nil {
		return nil, dberr.Wrap(err, "Chunk")
	}
	return records, nil
}

// DeleteChunks removes every chunk of a book.
func (repository *chunkRepository) DeleteChunks(context context.Context, bookID string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.SyncBookChunks.Table, schema.SyncBookChunks.BookID)

	tag, err := repository.pool.Exec(context, query, bookID)
	if err != nil {
		return 0, dberr.Wrap(err, "Chunk")
	}
	return tag.RowsAffected(), nil
}

// SetManifest writes the manifest columns of the book record.
func (repository *chunkRepository) SetManifest(context context.Context, bookID string, manifest Manifest) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3, %s = $4, %s = now() WHERE %s = $1`,
		schema.SyncBooks.Table,
		schema.SyncBooks.ContentDigest, schema.SyncBooks.ChunkCount, schema.SyncBooks.ContentSize,
		schema.SyncBooks.UpdatedAt,
		schema.SyncBooks.ID,
	)

	tag, err := repository.pool.Exec(context, query, bookID, manifest.Digest, manifest.ChunkCount, manifest.Size)
	if err != nil {
		return dberr.Wrap(err, "Book")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Book")
	}
	return nil
}

// Manifest reads the manifest columns. A missing book or an unset digest yields nil; an empty digest is a pending upload.
func (repository *chunkRepository) Manifest(context context.Context, bookID string) (*Manifest, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s FROM %s WHERE %s = $1`,
		schema.SyncBooks.ContentDigest, schema.SyncBooks.ChunkCount, schema.SyncBooks.ContentSize,
		schema.SyncBooks.Table,
		schema.SyncBooks.ID,
	)

	var (
		digest *string
		count  *int
		size   *int64
	)
	err := repository.pool.QueryRow(context, query, bookID).Scan(&digest, &count, &size)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dberr.Wrap(err, "Book")
	}
	if digest == nil || count == nil {
		return nil, nil
	}

	manifest := &Manifest{Digest: *digest, ChunkCount: *count}
	if size != nil {
		manifest.Size = *size
	}
	return manifest, nil
}
