// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package app is the composition root shared by the sync daemon and the operator CLI.

# Startup Sequence

 1. Create the PostgreSQL pool and run migrations when the server answers.
 2. Create the Redis client and the books change feed.
 3. Prepare the local SQLite store (opened lazily) and the Pebble fallback cache.
 4. Wire repositories, the reading tracker, the blob store, the library
    coordinator and the bookmark service.

The remote clients connect lazily. An unreachable PostgreSQL or Redis is
logged as TRANSIENT_NETWORK and never fails startup: the device runs from its
local store and the library coordinator reopens its subscription later. Only
invalid configuration and local store failures are fatal.

No business logic lives here. All wiring is explicit constructor injection.
*/
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/lector/internal/core/blob"
	"github.com/taibuivan/lector/internal/core/bookmark"
	"github.com/taibuivan/lector/internal/core/library"
	"github.com/taibuivan/lector/internal/core/reading"
	"github.com/taibuivan/lector/internal/platform/apperr"
	"github.com/taibuivan/lector/internal/platform/config"
	"github.com/taibuivan/lector/internal/platform/constants"
	"github.com/taibuivan/lector/internal/platform/kvcache"
	"github.com/taibuivan/lector/internal/platform/localdb"
	"github.com/taibuivan/lector/internal/platform/migration"
	pgstore "github.com/taibuivan/lector/internal/platform/postgres"
	redisstore "github.com/taibuivan/lector/internal/platform/redis"
	"github.com/taibuivan/lector/internal/platform/sec"
)

// App holds every long-lived component of a device.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Pool  *pgxpool.Pool
	Redis *goredis.Client
	Local *localdb.Handle
	Cache *kvcache.Cache

	States    *reading.FallbackStore
	Tracker   *reading.Tracker
	Blobs     *blob.Store
	Library   *library.Coordinator
	Bookmarks *bookmark.Service

	// Tokens is nil when no key is configured.
	Tokens *sec.TokenService
}

// New prepares every store and wires the services. On failure everything
// opened so far is released.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	app := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			app.release()
		}
	}()

	// 1. Remote store
	if app.Pool, err = pgstore.NewPool(ctx, cfg.DatabaseURL, logger); err != nil {
		return nil, fmt.Errorf("configure postgres: %w", err)
	}
	app.migrate(ctx)

	// 2. Change feed
	if app.Redis, err = redisstore.NewClient(ctx, cfg.RedisURL, logger); err != nil {
		return nil, fmt.Errorf("configure redis: %w", err)
	}
	feed := redisstore.NewChangeFeed(app.Redis, constants.RedisChannelBooksChanged, logger)

	// 3. Local stores
	app.Local = localdb.New(cfg.LocalDBPath, logger)
	if app.Cache, err = kvcache.Open(cfg.FallbackCachePath, logger); err != nil {
		return nil, fmt.Errorf("open fallback cache: %w", err)
	}

	// 4. Reading progress
	app.States = reading.NewFallbackStore(reading.NewStateRepository(app.Local), app.Cache, logger)
	app.Tracker = reading.NewTracker(app.States, reading.NewProgressRepository(app.Pool), cfg.FlushDelay, logger)

	// 5. Library
	books := library.NewRemoteRepository(app.Pool, feed, logger)
	app.Blobs = blob.NewStore(blob.NewChunkRepository(app.Pool), books, cfg.ChunkSizeBytes, logger)
	app.Library = library.NewCoordinator(
		library.NewLocalRepository(app.Local),
		books,
		app.Blobs,
		app.States,
		app.Tracker,
		logger,
		library.WithLoadingTimeout(cfg.LoadingTimeout),
	)

	// 6. Bookmarks
	app.Bookmarks = bookmark.NewService(
		bookmark.NewLocalRepository(app.Local),
		bookmark.NewRemoteRepository(app.Pool),
		logger,
	)

	// 7. Device tokens
	if cfg.AuthEnabled() {
		if app.Tokens, err = sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer); err != nil {
			return nil, fmt.Errorf("initialize token service: %w", err)
		}
	}

	logger.Info("app_wired",
		slog.String("local_db", cfg.LocalDBPath),
		slog.Int("chunk_size", cfg.ChunkSizeBytes),
		slog.Bool("auth", app.Tokens != nil),
	)
	return app, nil
}

// migrate applies pending migrations. Connectivity failures are logged and skipped.
func (app *App) migrate(ctx context.Context) {
	if err := pgstore.Ping(ctx, app.Pool); err != nil {
		app.Logger.Warn("migrations_deferred", slog.String("code", apperr.CodeTransientNetwork), slog.Any("error", err))
		return
	}
	if err := migration.RunUp(app.Config.DatabaseURL, app.Config.MigrationPath, app.Logger); err != nil {
		app.Logger.Warn("migrations_failed", slog.String("code", apperr.CodeTransientNetwork), slog.Any("error", err))
	}
}

/*
Close flushes pending reading positions, stops the library subscription and
releases every store.

It returns the number of positions flushed.
*/
func (app *App) Close(ctx context.Context) int {
	flushed := 0
	if app.Tracker != nil {
		flushed = app.Tracker.Flush(ctx)
	}
	if app.Library != nil {
		app.Library.Close()
	}
	app.release()
	return flushed
}

func (app *App) release() {
	var failures []error
	if app.Cache != nil {
		failures = append(failures, app.Cache.Close())
	}
	if app.Local != nil {
		failures = append(failures, app.Local.Close())
	}
	if app.Redis != nil {
		failures = append(failures, app.Redis.Close())
	}
	if app.Pool != nil {
		app.Pool.Close()
	}
	if err := errors.Join(failures...); err != nil {
		app.Logger.Error("app_release_failed", slog.Any("error", err))
	}
}

// CheckRemote pings PostgreSQL.
func (app *App) CheckRemote(ctx context.Context) error {
	return pgstore.Ping(ctx, app.Pool)
}

// CheckFeed pings Redis.
func (app *App) CheckFeed(ctx context.Context) error {
	return redisstore.Ping(ctx, app.Redis)
}

// CheckLocal pings the local store, opening it if needed.
func (app *App) CheckLocal(ctx context.Context) error {
	return app.Local.With(ctx, func(conn *sql.Conn) error {
		return conn.PingContext(ctx)
	})
}
