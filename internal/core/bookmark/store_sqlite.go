// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package bookmark

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/taibuivan/lector/internal/platform/database/schema"
	"github.com/taibuivan/lector/internal/platform/dberr"
	"github.com/taibuivan/lector/internal/platform/localdb"
)

// localRepository implements [LocalRepository] on SQLite.
type localRepository struct {
	handle *localdb.Handle
}

// NewLocalRepository constructs the SQLite backed bookmark store.
func NewLocalRepository(handle *localdb.Handle) LocalRepository {
	return &localRepository{handle: handle}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBookmark(row scanner) (Bookmark, error) {
	var (
		bookmark Bookmark
		page     sql.NullInt64
		progress sql.NullFloat64
	)
	err := row.Scan(&bookmark.ID, &bookmark.BookID, &bookmark.CFI, &bookmark.Label,
		&bookmark.CreatedAt, &page, &progress)
	if err != nil {
		return Bookmark{}, err
	}
	if page.Valid {
		value := int(page.Int64)
		bookmark.Page = &value
	}
	if progress.Valid {
		bookmark.Progress = &progress.Float64
	}
	return bookmark, nil
}

func selectBookmarks() string {
	return fmt.Sprintf("SELECT %s FROM %s",
		strings.Join(schema.LocalBookmarks.Columns(), ", "), schema.LocalBookmarks.Table)
}

func (repository *localRepository) Put(context context.Context, bookmark Bookmark) error {
	table := schema.LocalBookmarks
	query := fmt.Sprintf(`INSERT OR REPLACE INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		table.Table, strings.Join(table.Columns(), ", "))

	err := repository.handle.With(context, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(context, query,
			bookmark.ID, bookmark.BookID, bookmark.CFI, bookmark.Label,
			bookmark.CreatedAt, bookmark.Page, bookmark.Progress)
		return err
	})
	return dberr.WrapLocal(err, "Bookmark")
}

func (repository *localRepository) Get(context context.Context, id string) (Bookmark, error) {
	var bookmark Bookmark
	err := repository.handle.With(context, func(conn *sql.Conn) error {
		query := selectBookmarks() + fmt.Sprintf(" WHERE %s = ?", schema.LocalBookmarks.ID)

		var err error
		bookmark, err = scanBookmark(conn.QueryRowContext(context, query, id))
		return err
	})
	if err != nil {
		return Bookmark{}, dberr.WrapLocal(err, "Bookmark")
	}
	return bookmark, nil
}

// ListByBook uses the book_id index.
func (repository *localRepository) ListByBook(context context.Context, bookID string) ([]Bookmark, error) {
	table := schema.LocalBookmarks
	query := selectBookmarks() + fmt.Sprintf(" WHERE %s = ? ORDER BY %s ASC, %s ASC",
		table.BookID, table.CreatedAt, table.ID)

	bookmarks := []Bookmark{}
	err := repository.handle.With(context, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(context, query, bookID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			bookmark, err := scanBookmark(rows)
			if err != nil {
				return err
			}
			bookmarks = append(bookmarks, bookmark)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, dberr.WrapLocal(err, "Bookmark")
	}
	return bookmarks, nil
}

func (repository *localRepository) Delete(context context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", schema.LocalBookmarks.Table, schema.LocalBookmarks.ID)
	err := repository.handle.With(context, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(context, query, id)
		return err
	})
	return dberr.WrapLocal(err, "Bookmark")
}
