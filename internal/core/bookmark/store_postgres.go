// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package bookmark

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/lector/internal/platform/database/schema"
	"github.com/taibuivan/lector/internal/platform/dberr"
)

// remoteRepository implements [RemoteRepository] using pgx.
type remoteRepository struct {
	pool *pgxpool.Pool
}

// NewRemoteRepository constructs the PostgreSQL backed bookmark collection.
func NewRemoteRepository(pool *pgxpool.Pool) RemoteRepository {
	return &remoteRepository{pool: pool}
}

func (repository *remoteRepository) Put(context context.Context, bookmark Bookmark) error {
	table := schema.SyncBookmarks
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (%s) DO UPDATE
		SET %s = EXCLUDED.%s,
		    %s = EXCLUDED.%s,
		    %s = EXCLUDED.%s,
		    %s = EXCLUDED.%s
	`,
		table.Table, strings.Join(table.Columns(), ", "),
		table.ID,
		table.CFI, table.CFI,
		table.Label, table.Label,
		table.Page, table.Page,
		table.Progress, table.Progress,
	)

	_, err := repository.pool.Exec(context, query,
		bookmark.ID, bookmark.BookID, bookmark.CFI, bookmark.Label,
		bookmark.CreatedAt, bookmark.Page, bookmark.Progress)
	return dberr.Wrap(err, "Bookmark")
}

func (repository *remoteRepository) ListByBook(context context.Context, bookID string) ([]Bookmark, error) {
	table := schema.SyncBookmarks
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s ASC, %s ASC`,
		strings.Join(table.Columns(), ", "), table.Table, table.BookID, table.CreatedAt, table.ID)

	rows, err := repository.pool.Query(context, query, bookID)
	if err != nil {
		return nil, dberr.Wrap(err, "Bookmark")
	}

	defer rows.Close()

	bookmarks := []Bookmark{}
	for rows.Next() {
		var bookmark Bookmark
		if err := rows.Scan(&bookmark.ID, &bookmark.BookID, &bookmark.CFI, &bookmark.Label,
			&bookmark.CreatedAt, &bookmark.Page, &bookmark.Progress); err != nil {
			return nil, dberr.Wrap(err, "Bookmark")
		}
		bookmarks = append(bookmarks, bookmark)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "Bookmark")
	}
	return bookmarks, nil
}

func (repository *remoteRepository) Delete(context context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", schema.SyncBookmarks.Table, schema.SyncBookmarks.ID)
	_, err := repository.pool.Exec(context, query, id)
	return dberr.Wrap(err, "Bookmark")
}
