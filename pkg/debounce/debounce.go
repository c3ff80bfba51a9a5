// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package debounce provides a per-key coalescing scheduler.

Each key owns at most one pending entry (value + timer). Scheduling a key that
is already pending stops its timer and restarts it with the newer value, so only
the latest value of a burst reaches the fire callback.

Usage:

	scheduler := debounce.New(3*time.Second, func(bookID string, state State) {
	    flush(bookID, state)
	})
	scheduler.Schedule("b1", state)
*/
package debounce

import (
	"sync"
	"time"
)

// Timer is the subset of [*time.Timer] the scheduler relies on.
type Timer interface {
	Stop() bool
}

// AfterFunc starts a timer that calls f after d elapses.
type AfterFunc func(d time.Duration, f func()) Timer

// Option customises a [Scheduler].
type Option func(*settings)

type settings struct {
	afterFunc AfterFunc
}

// WithAfterFunc replaces the timer factory (defaults to [time.AfterFunc]).
func WithAfterFunc(afterFunc AfterFunc) Option {
	return func(s *settings) {
		s.afterFunc = afterFunc
	}
}

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// entry is one pending (value, timer) pair. seq identifies the generation so a
// timer that fired while being replaced cannot deliver a stale value.
type entry[V any] struct {
	value V
	timer Timer
	seq   uint64
}

// Scheduler coalesces values per key and fires the latest one after a quiet period.
//
// # Concurrency
//
// Safe for concurrent use. The fire callback always runs outside the internal lock.
type Scheduler[K comparable, V any] struct {
	mu        sync.Mutex
	delay     time.Duration
	fire      func(key K, value V)
	afterFunc AfterFunc
	pending   map[K]*entry[V]
	seq       uint64
}

// New constructs a [Scheduler] with a fixed delay.
func New[K comparable, V any](delay time.Duration, fire func(key K, value V), options ...Option) *Scheduler[K, V] {
	cfg := settings{afterFunc: realAfterFunc}
	for _, option := range options {
		option(&cfg)
	}

	return &Scheduler[K, V]{
		delay:     delay,
		fire:      fire,
		afterFunc: cfg.afterFunc,
		pending:   make(map[K]*entry[V]),
	}
}

// Schedule arms (or re-arms) the timer for key with value.
// It reports whether a pending entry was replaced.
func (s *Scheduler[K, V]) Schedule(key K, value V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, replaced := s.pending[key]
	if replaced {
		previous.timer.Stop()
	}

	s.seq++
	seq := s.seq
	s.pending[key] = &entry[V]{
		value: value,
		seq:   seq,
		timer: s.afterFunc(s.delay, func() { s.expire(key, seq) }),
	}

	return replaced
}

// Cancel drops the pending entry for key without firing it.
func (s *Scheduler[K, V]) Cancel(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok := s.pending[key]
	if !ok {
		return false
	}
	pending.timer.Stop()
	delete(s.pending, key)
	return true
}

// Pending returns the value waiting to be fired for key, if any.
func (s *Scheduler[K, V]) Pending(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pending, ok := s.pending[key]; ok {
		return pending.value, true
	}
	var zero V
	return zero, false
}

// Len returns the number of keys with a pending entry.
func (s *Scheduler[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush fires every pending entry immediately and returns how many fired.
func (s *Scheduler[K, V]) Flush() int {
	s.mu.Lock()
	drained := make(map[K]V, len(s.pending))
	for key, pending := range s.pending {
		pending.timer.Stop()
		drained[key] = pending.value
	}
	s.pending = make(map[K]*entry[V])
	s.mu.Unlock()

	for key, value := range drained {
		s.fire(key, value)
	}
	return len(drained)
}

// expire is the timer callback for generation seq of key.
func (s *Scheduler[K, V]) expire(key K, seq uint64) {
	s.mu.Lock()
	pending, ok := s.pending[key]
	if !ok || pending.seq != seq {
		s.mu.Unlock()
		return
	}
	delete(s.pending, key)
	s.mu.Unlock()

	s.fire(key, pending.value)
}
