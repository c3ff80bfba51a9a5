// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package postgres provides the managed connection pool to the remote
// authoritative store.
//
// # Architecture
//
// The remote store holds library metadata, chunked book content, reading
// progress and bookmarks. Every device's sync daemon opens one pool; the
// workload is a handful of small writes per minute plus occasional chunk
// transfers, so the pool is kept small.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/lector/internal/platform/apperr"
	"github.com/taibuivan/lector/internal/platform/constants"
)

// Pool settings for a single-user sync daemon.
const (
	maxConns          = 8
	minConns          = 1
	maxConnLifetime   = 60 * time.Minute
	maxConnIdleTime   = 10 * time.Minute
	healthCheckPeriod = 1 * time.Minute
	connectTimeout    = 5 * time.Second
	pingTimeout       = 2 * time.Second
)

/*
NewPool creates a PostgreSQL connection pool.

Connections are opened lazily, so an unreachable server does not fail the
call; only an invalid DSN does. The initial ping is advisory: a failure is
logged as TRANSIENT_NETWORK and the pool keeps trying on later queries.

# Parameters
  - ctx: Context for the initial ping.
  - dsn: A libpq-compatible connection string or postgres:// URL.
  - logger: Structured logger for pool-level events.
*/
func NewPool(ctx context.Context, dsn string, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid DSN: %w", err)
	}

	poolConfig.MaxConns = maxConns
	poolConfig.MinConns = minConns
	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = connectTimeout
	poolConfig.ConnConfig.RuntimeParams["application_name"] = constants.AppName

	// Chunk writes carry up to one chunk per statement; cap runaway statements
	// at the request deadline.
	poolConfig.AfterConnect = func(ctx context.Context, connection *pgx.Conn) error {
		timeoutQuery := fmt.Sprintf("SET statement_timeout = '%ds'", int(constants.GlobalRequestTimeout.Seconds()))
		_, err := connection.Exec(ctx, timeoutQuery)
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}

	if err := Ping(ctx, pool); err != nil {
		logger.Warn("postgres_unreachable",
			slog.String("host", poolConfig.ConnConfig.Host),
			slog.Any("error", err),
		)
		return pool, nil
	}

	stats := pool.Stat()
	logger.Info("postgres_pool_connected",
		slog.Int("max_conns", int(stats.MaxConns())),
		slog.Int("total_conns", int(stats.TotalConns())),
	)

	return pool, nil
}

// Ping verifies that the remote store answers. Failure is TRANSIENT_NETWORK:
// the device keeps working from its local store.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		return apperr.TransientNetwork(fmt.Errorf("postgres: ping failed: %w", err))
	}
	return nil
}
