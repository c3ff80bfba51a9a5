// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, sync tuning, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Sync Timing: Debounce and loading-indicator deadlines.
  - Storage: Chunk size, namespaces and key prefixes.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "lector"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is generous because uploads carry whole EPUB files.
	DefaultReadTimeout = 60 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 60 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 60 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Sync Timing

const (
	// RemoteFlushDelay is the quiet period before a reading position is sent remotely.
	RemoteFlushDelay = 3 * time.Second

	// LoadingSafetyTimeout forces the library loading indicator off.
	LoadingSafetyTimeout = 5 * time.Second

	// SubscribeBackoffMin and SubscribeBackoffMax bound the delay between
	// attempts to reopen the library subscription.
	SubscribeBackoffMin = 1 * time.Second
	SubscribeBackoffMax = 60 * time.Second

	// ViewStreamTimeout bounds a long-poll on the library view.
	ViewStreamTimeout = 25 * time.Second
)

// # Reading Progress

const (
	// FinishedProgress is the progress recorded when a book is marked finished.
	FinishedProgress = 1.0

	// UnfinishedProgressCeiling caps progress after a book is unmarked.
	UnfinishedProgressCeiling = 0.95
)

// # Storage

const (
	// DefaultChunkSize keeps a single remote chunk record under typical document ceilings.
	DefaultChunkSize = 512 * 1024

	// ChunkKeyPrefix prefixes the remote record key of every chunk ("chunk_0", "chunk_1", ...).
	ChunkKeyPrefix = "chunk_"

	// FallbackReadingStatePrefix prefixes the fallback cache key of a reading state.
	FallbackReadingStatePrefix = "reading-state-"

	// UnknownAuthor is used when an uploaded book carries no creator metadata.
	UnknownAuthor = "Unknown author"
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	// Page turns report positions several times per second.
	DefaultRateLimitRPS = 50.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 100

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in device tokens.
	AuthIssuer = "lector.app"

	// DeviceTokenTTL is the lifetime of a token issued by the CLI.
	DeviceTokenTTL = 365 * 24 * time.Hour
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderRetryAfter    = "Retry-After"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldError   = "error"
	FieldCode    = "code"
	FieldItems   = "items"
	FieldTotal   = "total"
	FieldMessage = "message"
	FieldStatus  = "status"
)

// # Redis Channels

const (
	// RedisChannelBooksChanged is published after every mutation of the remote books collection.
	RedisChannelBooksChanged = "lector:books:changed"
)
