// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lector/internal/platform/ctxutil"
	"github.com/taibuivan/lector/internal/platform/sec"
)

/*
TestContext_RequestID round trips the correlation id.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ctxutil.RequestID(ctx))

	ctx = ctxutil.WithRequestID(ctx, "req-1")
	assert.Equal(t, "req-1", ctxutil.RequestID(ctx))
}

/*
TestContext_Logger falls back to the default logger.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	assert.Same(t, slog.Default(), ctxutil.Logger(ctx))

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	assert.Same(t, logger, ctxutil.Logger(ctxutil.WithLogger(ctx, logger)))
	assert.Same(t, slog.Default(), ctxutil.Logger(ctxutil.WithLogger(ctx, nil)))
}

/*
TestContext_Device stores the claims of a reader device.
*/
func TestContext_Device(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, ctxutil.Device(ctx))
	assert.Empty(t, ctxutil.DeviceID(ctx))

	ctx = ctxutil.WithDevice(ctx, &sec.DeviceClaims{DeviceID: "kobo-42", DeviceName: "Kobo Libra"})
	device := ctxutil.Device(ctx)
	require.NotNil(t, device)
	assert.Equal(t, "Kobo Libra", device.DeviceName)
	assert.Equal(t, "kobo-42", ctxutil.DeviceID(ctx))
}
