// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reading

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/taibuivan/lector/internal/platform/database/schema"
	"github.com/taibuivan/lector/internal/platform/dberr"
	"github.com/taibuivan/lector/internal/platform/localdb"
)

// stateRepository implements [StateStore] on the local SQLite namespace.
type stateRepository struct {
	handle *localdb.Handle
}

// NewStateRepository constructs the SQLite backed reading state store.
func NewStateRepository(handle *localdb.Handle) StateStore {
	return &stateRepository{handle: handle}
}

func selectStates() string {
	return fmt.Sprintf("SELECT %s FROM %s",
		strings.Join(schema.LocalReadingState.Columns(), ", "), schema.LocalReadingState.Table)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanState(row scanner) (State, error) {
	var (
		state      State
		totalPages sql.NullInt64
		timeSpent  sql.NullInt64
	)
	err := row.Scan(&state.BookID, &state.LastLocation, &state.Progress, &totalPages,
		&state.LastRead, &state.IsFinished, &timeSpent)
	if err != nil {
		return State{}, err
	}
	if totalPages.Valid {
		pages := int(totalPages.Int64)
		state.TotalPages = &pages
	}
	if timeSpent.Valid {
		state.TimeSpent = &timeSpent.Int64
	}
	return state, nil
}

func (repository *stateRepository) Get(context context.Context, bookID string) (State, error) {
	var state State
	err := repository.handle.With(context, func(conn *sql.Conn) error {
		query := selectStates() + fmt.Sprintf(" WHERE %s = ?", schema.LocalReadingState.BookID)

		var err error
		state, err = scanState(conn.QueryRowContext(context, query, bookID))
		return err
	})
	if err != nil {
		return State{}, dberr.WrapLocal(err, "Reading state")
	}
	return state, nil
}

// Put upserts the full record.
func (repository *stateRepository) Put(context context.Context, state State) error {
	table := schema.LocalReadingState
	query := fmt.Sprintf(`INSERT OR REPLACE INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		table.Table, strings.Join(table.Columns(), ", "))

	err := repository.handle.With(context, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(context, query,
			state.BookID, state.LastLocation, state.Progress, state.TotalPages,
			state.LastRead, state.IsFinished, state.TimeSpent)
		return err
	})
	return dberr.WrapLocal(err, "Reading state")
}

func (repository *stateRepository) GetAll(context context.Context) ([]State, error) {
	states, err := repository.query(context, selectStates())
	if err != nil {
		return nil, dberr.WrapLocal(err, "Reading state")
	}
	return states, nil
}

// Recent uses the last_read index.
func (repository *stateRepository) Recent(context context.Context, limit, offset int) ([]State, int, error) {
	var total int
	err := repository.handle.With(context, func(conn *sql.Conn) error {
		return conn.QueryRowContext(context, "SELECT COUNT(*) FROM "+schema.LocalReadingState.Table).Scan(&total)
	})
	if err != nil {
		return nil, 0, dberr.WrapLocal(err, "Reading state")
	}

	query := selectStates() + fmt.Sprintf(" ORDER BY %s DESC LIMIT ? OFFSET ?", schema.LocalReadingState.LastRead)
	states, err := repository.query(context, query, limit, offset)
	if err != nil {
		return nil, 0, dberr.WrapLocal(err, "Reading state")
	}
	return states, total, nil
}

func (repository *stateRepository) query(context context.Context, query string, args ...any) ([]State, error) {
	var states []State
	err := repository.handle.With(context, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(context, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			state, err := scanState(rows)
			if err != nil {
				return err
			}
			states = append(states, state)
		}
		return rows.Err()
	})
	return states, err
}
