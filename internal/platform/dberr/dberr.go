// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/lector/internal/platform/apperr"
)

// SQLSTATE of a unique constraint violation.
const uniqueViolation = "23505"

// Wrap classifies an error coming from the remote (PostgreSQL / Redis) store.
//
//   - missing rows become NOT_FOUND for the named resource;
//   - unique violations become CONFLICT;
//   - connection failures and timeouts become TRANSIENT_NETWORK;
//   - anything else becomes INTERNAL_ERROR.
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	// Already classified further down the stack
	if apperr.IsAppError(err) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperr.Conflict(fmt.Sprintf("%s already exists", resource))
	}

	if IsTransient(err) {
		return apperr.TransientNetwork(err)
	}

	return apperr.Internal(err)
}

// WrapLocal classifies an error coming from the on-device SQLite store.
func WrapLocal(err error, resource string) error {
	if err == nil {
		return nil
	}

	if apperr.IsAppError(err) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	return apperr.LocalStore(err)
}

// IsTransient reports whether err looks like a connectivity problem that a
// later attempt may not hit.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if apperr.HasCode(err, apperr.CodeTransientNetwork) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return pgconn.SafeToRetry(err)
}
