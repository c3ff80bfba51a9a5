// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dberr_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/lector/internal/platform/apperr"
	"github.com/taibuivan/lector/internal/platform/dberr"
)

/*
TestWrap checks the remote error classification table.
*/
func TestWrap(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"no_rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), apperr.CodeNotFound},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), apperr.CodeTransientNetwork},
		{"unknown", errors.New("boom"), apperr.CodeInternal},
		{"unique_violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), apperr.CodeConflict},
		{"already_classified", apperr.Conflict("dup"), apperr.CodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := dberr.Wrap(tt.err, "Book")
			assert.True(t, apperr.HasCode(wrapped, tt.code))
		})
	}

	assert.NoError(t, dberr.Wrap(nil, "Book"))
}

/*
TestWrapLocal checks the on-device error classification.
*/
func TestWrapLocal(t *testing.T) {
	assert.True(t, apperr.IsNotFound(dberr.WrapLocal(sql.ErrNoRows, "Reading state")))
	assert.True(t, apperr.HasCode(dberr.WrapLocal(errors.New("disk full"), "Book"), apperr.CodeLocalStore))
	assert.NoError(t, dberr.WrapLocal(nil, "Book"))
}
