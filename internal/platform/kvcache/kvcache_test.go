// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package kvcache_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lector/internal/platform/kvcache"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

/*
TestCache_SetGetDelete covers the basic string map contract.
*/
func TestCache_SetGetDelete(t *testing.T) {
	cache, err := kvcache.Open(t.TempDir(), discard)
	require.NoError(t, err)
	defer cache.Close()

	_, found, err := cache.Get("reading-state-b1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set("reading-state-b1", `{"bookId":"b1"}`))
	value, found, err := cache.Get("reading-state-b1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"bookId":"b1"}`, value)

	require.NoError(t, cache.Delete("reading-state-b1"))
	require.NoError(t, cache.Delete("reading-state-b1"))
	_, found, err = cache.Get("reading-state-b1")
	require.NoError(t, err)
	assert.False(t, found)
}

/*
TestCache_Durable reopens the directory and reads the value back.
*/
func TestCache_Durable(t *testing.T) {
	dir := t.TempDir()

	cache, err := kvcache.Open(dir, discard)
	require.NoError(t, err)
	require.NoError(t, cache.Set("k", "v"))
	require.NoError(t, cache.Close())

	reopened, err := kvcache.Open(dir, discard)
	require.NoError(t, err)
	defer reopened.Close()

	value, found, err := reopened.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", value)
}

/*
TestCache_Keys lists only the requested prefix.
*/
func TestCache_Keys(t *testing.T) {
	cache, err := kvcache.Open(t.TempDir(), discard)
	require.NoError(t, err)
	defer cache.Close()

	for _, key := range []string{"reading-state-b", "reading-state-a", "other-x"} {
		require.NoError(t, cache.Set(key, "1"))
	}

	keys, err := cache.Keys("reading-state-")
	require.NoError(t, err)
	assert.Equal(t, []string{"reading-state-a", "reading-state-b"}, keys)
}
