// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis provides the change feed of the remote store.

PostgreSQL has no document-level live query, so every mutation of the remote
books collection is followed by a publish on a Redis channel. Devices keep a
subscription open and re-query the collection when a message arrives.

Core Responsibilities:

  - Connection: pooled client with short timeouts.
  - Publish: best-effort notification after a write.
  - Subscribe: a channel of notifications bound to a context.
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/lector/internal/platform/apperr"
)

// Opiniated default timeouts for Redis operations.
const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
	pingTimeout  = 2 * time.Second
)

// NewClient parses a Redis URL and returns a client. Connections are opened on
// demand; an unreachable server is logged as TRANSIENT_NETWORK, not returned.
func NewClient(context stdctx.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	options.PoolSize = 4
	options.MinIdleConns = 1
	options.MaxIdleConns = 2

	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout

	client := redis.NewClient(options)

	if err := Ping(context, client); err != nil {
		logger.Warn("redis_unreachable",
			slog.String("addr", options.Addr),
			slog.Any("error", err),
		)
		return client, nil
	}

	logger.Info("redis_client_connected",
		slog.String("addr", options.Addr),
		slog.Int("pool_size", options.PoolSize),
	)

	return client, nil
}

// Ping verifies that the Redis client is healthy.
func Ping(context stdctx.Context, client *redis.Client) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return apperr.TransientNetwork(fmt.Errorf("redis: ping failed: %w", err))
	}

	return nil
}

// # Change Feed

// ChangeFeed publishes and receives change notifications on one channel.
type ChangeFeed struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// NewChangeFeed binds a feed to a channel name.
func NewChangeFeed(client *redis.Client, channel string, logger *slog.Logger) *ChangeFeed {
	return &ChangeFeed{client: client, channel: channel, logger: logger}
}

// Publish announces a change. The payload is informational; subscribers re-query.
func (feed *ChangeFeed) Publish(context stdctx.Context, payload string) error {
	if err := feed.client.Publish(context, feed.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish on %s: %w", feed.channel, err)
	}
	return nil
}

// Subscribe returns a channel of payloads that closes when context is done.
//
// The subscription is confirmed before returning, so a publish issued after
// Subscribe returns is never missed.
func (feed *ChangeFeed) Subscribe(context stdctx.Context) (<-chan string, error) {
	pubsub := feed.client.Subscribe(context, feed.channel)
	if _, err := pubsub.Receive(context); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe to %s: %w", feed.channel, err)
	}

	out := make(chan string, 1)
	go func() {
		defer close(out)
		defer func() { _ = pubsub.Close() }()

		messages := pubsub.Channel()
		for {
			select {
			case <-context.Done():
				return
			case message, ok := <-messages:
				if !ok {
					feed.logger.Warn("change_feed_closed", slog.String("channel", feed.channel))
					return
				}
				select {
				case out <- message.Payload:
				default:
					// A pending notification already triggers a re-query.
				}
			}
		}
	}()

	return out, nil
}
