// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/lector/internal/platform/apperr"
	"github.com/taibuivan/lector/internal/platform/database/schema"
	"github.com/taibuivan/lector/internal/platform/dberr"
)

// Change feed payloads. Subscribers re-query regardless of the payload.
const (
	changeUpsert = "upsert:"
	changeOrder  = "order:"
	changeDelete = "delete:"
)

// # PostgreSQL Repository

// remoteRepository implements [RemoteRepository] using pgx and announces every
// mutation on the change feed.
type remoteRepository struct {
	pool   *pgxpool.Pool
	feed   ChangeFeed
	logger *slog.Logger
}

// NewRemoteRepository constructs the PostgreSQL backed books collection.
func NewRemoteRepository(pool *pgxpool.Pool, feed ChangeFeed, logger *slog.Logger) RemoteRepository {
	return &remoteRepository{pool: pool, feed: feed, logger: logger}
}

// List uses the display order index.
func (repository *remoteRepository) List(context context.Context) ([]Metadata, error) {
	table := schema.SyncBooks
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		ORDER BY %s ASC NULLS LAST, %s DESC
	`,
		strings.Join(table.Columns(), ", "),
		table.Table,
		table.SortOrder, table.CreatedAt,
	)

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "Book")
	}
	defer rows.Close()

	books := []Metadata{}
	for rows.Next() {
		var book Metadata
		if err := rows.Scan(&book.ID, &book.Title, &book.Author, &book.CoverURL, &book.CreatedAt, &book.Order); err != nil {
			return nil, dberr.Wrap(err, "Book")
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "Book")
	}
	return books, nil
}

// Insert writes the metadata record. Writing an existing id replaces its
// descriptive fields and keeps the content manifest.
func (repository *remoteRepository) Insert(context context.Context, book Metadata) error {
	table := schema.SyncBooks
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (%s) DO UPDATE
		SET %s = EXCLUDED.%s,
		    %s = EXCLUDED.%s,
		    %s = EXCLUDED.%s,
		    %s = EXCLUDED.%s,
		    %s = now()
	`,
		table.Table, strings.Join(table.Columns(), ", "),
		table.ID,
		table.Title, table.Title,
		table.Author, table.Author,
		table.CoverURL, table.CoverURL,
		table.SortOrder, table.SortOrder,
		table.UpdatedAt,
	)

	_, err := repository.pool.Exec(context, query,
		book.ID, book.Title, book.Author, book.CoverURL, book.CreatedAt, book.Order)
	if err != nil {
		return dberr.Wrap(err, "Book")
	}

	repository.announce(context, changeUpsert+book.ID)
	return nil
}

func (repository *remoteRepository) UpdateOrder(context context.Context, id string, order int) error {
	table := schema.SyncBooks
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = now() WHERE %s = $1`,
		table.Table, table.SortOrder, table.UpdatedAt, table.ID)

	tag, err := repository.pool.Exec(context, query, id, order)
	if err != nil {
		return dberr.Wrap(err, "Book")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Book")
	}

	repository.announce(context, changeOrder+id)
	return nil
}

// DeleteBook removes the metadata record. Deleting an absent book is not an error.
func (repository *remoteRepository) DeleteBook(context context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.SyncBooks.Table, schema.SyncBooks.ID)

	if _, err := repository.pool.Exec(context, query, id); err != nil {
		return dberr.Wrap(err, "Book")
	}

	repository.announce(context, changeDelete+id)
	return nil
}

/*
Subscribe streams the collection.

The current collection is delivered first. Each notification on the change
feed triggers a re-query; notifications that arrive while a re-query is
running collapse into one. A failed query is delivered as a [Snapshot] with
Err set and the subscription stays open.
*/
func (repository *remoteRepository) Subscribe(context context.Context) (<-chan Snapshot, error) {
	notifications, err := repository.feed.Subscribe(context)
	if err != nil {
		return nil, dberr.Wrap(err, "Change feed")
	}

	snapshots := make(chan Snapshot)
	go func() {
		defer close(snapshots)

		deliver := func() bool {
			books, err := repository.List(context)
			select {
			case snapshots <- Snapshot{Books: books, Err: err}:
				return true
			case <-context.Done():
				return false
			}
		}

		if !deliver() {
			return
		}
		for {
			select {
			case <-context.Done():
				return
			case _, ok := <-notifications:
				if !ok {
					return
				}
				if !deliver() {
					return
				}
			}
		}
	}()

	return snapshots, nil
}

// announce publishes a change. Failures are logged only.
func (repository *remoteRepository) announce(context context.Context, payload string) {
	if err := repository.feed.Publish(context, payload); err != nil {
		repository.logger.WarnContext(context, "change_feed_publish_failed",
			slog.String("payload", payload), slog.Any("error", err))
	}
}
