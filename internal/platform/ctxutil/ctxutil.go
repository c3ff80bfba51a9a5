// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package ctxutil carries request-scoped values through [context.Context].

Three values travel with every API request: the X-Request-ID correlation id,
the per-request logger, and the claims of the reader device that presented a
token. Keys are unexported so no other package can overwrite them.
*/
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/lector/internal/platform/sec"
)

type key int

const (
	requestIDKey key = iota
	loggerKey
	deviceKey
)

// # Request Tracing

// WithRequestID attaches the correlation id of the request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the correlation id, or "" outside a request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// # Structured Logging

// WithLogger attaches the per-request logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// Logger returns the per-request logger, falling back to [slog.Default].
func Logger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// # Device Identity

// WithDevice attaches the verified claims of the calling device.
func WithDevice(ctx context.Context, device *sec.DeviceClaims) context.Context {
	return context.WithValue(ctx, deviceKey, device)
}

// Device returns the claims of the calling device, or nil for anonymous requests.
func Device(ctx context.Context) *sec.DeviceClaims {
	claims, _ := ctx.Value(deviceKey).(*sec.DeviceClaims)
	return claims
}

// DeviceID returns the id of the calling device, or "" for anonymous requests.
func DeviceID(ctx context.Context) string {
	if claims := Device(ctx); claims != nil {
		return claims.DeviceID
	}
	return ""
}
