// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

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

// NewLocalRepository constructs the SQLite backed books namespace.
func NewLocalRepository(handle *localdb.Handle) LocalRepository {
	return &localRepository{handle: handle}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLocalBook(row scanner) (LocalBook, error) {
	var (
		book     LocalBook
		coverURL sql.NullString
		order    sql.NullInt64
	)
	err := row.Scan(&book.ID, &book.Title, &book.Author, &coverURL, &book.CreatedAt, &order, &book.Data)
	if err != nil {
		return LocalBook{}, err
	}
	if coverURL.Valid {
		book.CoverURL = &coverURL.String
	}
	if order.Valid {
		value := int(order.Int64)
		book.Order = &value
	}
	return book, nil
}

func selectLocalBooks() string {
	return fmt.Sprintf("SELECT %s FROM %s",
		strings.Join(schema.LocalBooks.Columns(), ", "), schema.LocalBooks.Table)
}

func (repository *localRepository) Put(context context.Context, book LocalBook) error {
	table := schema.LocalBooks
	query := fmt.Sprintf(`INSERT OR REPLACE INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		table.Table, strings.Join(table.Columns(), ", "))

	data := book.Data
	if data == nil {
		data = []byte{}
	}

	err := repository.handle.With(context, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(context, query,
			book.ID, book.Title, book.Author, book.CoverURL, book.CreatedAt, book.Order, data)
		return err
	})
	return dberr.WrapLocal(err, "Book")
}

func (repository *localRepository) Get(context context.Context, id string) (LocalBook, error) {
	var book LocalBook
	err := repository.handle.With(context, func(conn *sql.Conn) error {
		query := selectLocalBooks() + fmt.Sprintf(" WHERE %s = ?", schema.LocalBooks.ID)

		var err error
		book, err = scanLocalBook(conn.QueryRowContext(context, query, id))
		return err
	})
	if err != nil {
		return LocalBook{}, dberr.WrapLocal(err, "Book")
	}
	return book, nil
}

func (repository *localRepository) GetAll(context context.Context) ([]LocalBook, error) {
	books := []LocalBook{}
	err := repository.handle.With(context, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(context, selectLocalBooks())
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			book, err := scanLocalBook(rows)
			if err != nil {
				return err
			}
			books = append(books, book)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, dberr.WrapLocal(err, "Book")
	}
	return books, nil
}

func (repository *localRepository) UpdateOrder(context context.Context, id string, order int) error {
	table := schema.LocalBooks
	query := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?", table.Table, table.SortOrder, table.ID)

	err := repository.handle.With(context, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(context, query, order, id)
		return err
	})
	return dberr.WrapLocal(err, "Book")
}

func (repository *localRepository) Delete(context context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", schema.LocalBooks.Table, schema.LocalBooks.ID)
	err := repository.handle.With(context, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(context, query, id)
		return err
	})
	return dberr.WrapLocal(err, "Book")
}
