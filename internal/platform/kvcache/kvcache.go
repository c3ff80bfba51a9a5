// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package kvcache is the plain string key/value cache used as the last-resort
// copy of reading state.
//
// It lives in its own Pebble directory, independent of the SQLite file, so a
// corrupted or locked local database does not take the fallback down with it.
package kvcache

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cockroachdb/pebble/v2"
)

// Cache is a durable string map.
type Cache struct {
	db     *pebble.DB
	logger *slog.Logger
}

// Open opens or creates the cache directory at path.
func Open(path string, logger *slog.Logger) (*Cache, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("kvcache: open %s: %w", path, err)
	}

	logger.Info("kvcache_opened", slog.String("path", path))
	return &Cache{db: db, logger: logger}, nil
}

// Get returns the value under key and whether it exists.
func (cache *Cache) Get(key string) (string, bool, error) {
	value, closer, err := cache.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kvcache: get %s: %w", key, err)
	}
	defer closer.Close()

	// The slice is only valid until closer.Close.
	return string(value), true, nil
}

// Set stores value under key and syncs it to disk.
func (cache *Cache) Set(key, value string) error {
	if err := cache.db.Set([]byte(key), []byte(value), pebble.Sync); err != nil {
		return fmt.Errorf("kvcache: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (cache *Cache) Delete(key string) error {
	if err := cache.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("kvcache: delete %s: %w", key, err)
	}
	return nil
}

// Keys lists every key starting with prefix, in byte order.
func (cache *Cache) Keys(prefix string) ([]string, error) {
	iter, err := cache.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: upperBound([]byte(prefix)),
	})
	if err != nil {
		return nil, fmt.Errorf("kvcache: iterate %s: %w", prefix, err)
	}
	defer iter.Close()

	var keys []string
	for iter.First(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	return keys, iter.Error()
}

// Close flushes and closes the cache.
func (cache *Cache) Close() error {
	return cache.db.Close()
}

// upperBound returns the smallest key greater than every key with the prefix.
func upperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
