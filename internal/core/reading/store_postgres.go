// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reading

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/lector/internal/platform/database/schema"
	"github.com/taibuivan/lector/internal/platform/dberr"
)

// progressRepository implements [ProgressRepository] using pgx.
type progressRepository struct {
	pool *pgxpool.Pool
}

// NewProgressRepository constructs the PostgreSQL backed remote progress store.
func NewProgressRepository(pool *pgxpool.Pool) ProgressRepository {
	return &progressRepository{pool: pool}
}

/*
Upsert merges a position into the remote record.

Only the listed columns are written; any column added to the table later by
another client is left as it was.
*/
func (repository *progressRepository) Upsert(context context.Context, progress Progress) error {
	table := schema.SyncProgress
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (%s) DO UPDATE
		SET %s = EXCLUDED.%s,
		    %s = EXCLUDED.%s,
		    %s = EXCLUDED.%s,
		    %s = EXCLUDED.%s
	`,
		table.Table, table.BookID, table.LastLocation, table.Title, table.Author, table.UpdatedAt,
		table.BookID,
		table.LastLocation, table.LastLocation,
		table.Title, table.Title,
		table.Author, table.Author,
		table.UpdatedAt, table.UpdatedAt,
	)

	_, err := repository.pool.Exec(context, query,
		progress.BookID, progress.LastLocation, progress.Title, progress.Author, progress.UpdatedAt)
	return dberr.Wrap(err, "Progress")
}

func (repository *progressRepository) Get(context context.Context, bookID string) (Progress, error) {
	table := schema.SyncProgress
	query := fmt.Sprintf(`
		SELECT %s, COALESCE(%s, ''), COALESCE(%s, ''), COALESCE(%s, ''), %s
		FROM %s WHERE %s = $1
	`,
		table.BookID, table.LastLocation, table.Title, table.Author, table.UpdatedAt,
		table.Table, table.BookID,
	)

	var progress Progress
	err := repository.pool.QueryRow(context, query, bookID).Scan(
		&progress.BookID, &progress.LastLocation, &progress.Title, &progress.Author, &progress.UpdatedAt)
	if err != nil {
		return Progress{}, dberr.Wrap(err, "Progress")
	}
	return progress, nil
}
