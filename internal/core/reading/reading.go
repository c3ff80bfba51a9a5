// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package reading tracks where the user is in each book.

Position reports arrive at page-turn frequency. Each one is written to the
local store right away, then coalesced per book and sent to the remote store
after a quiet period. Only the last position of a burst goes out.

# Persistence

Local reads and writes go through [FallbackStore]: the SQLite namespace first,
then a plain key/value copy that survives when SQLite does not.

# Conflicts

Devices do not coordinate. The last flush to reach the remote store wins.
*/
package reading

import (
	"context"
)

// State is the reading position of one book on this device.
type State struct {
	BookID       string  `json:"book_id"`
	LastLocation string  `json:"last_location"`
	Progress     float64 `json:"progress"`
	TotalPages   *int    `json:"total_pages,omitempty"`
	LastRead     int64   `json:"last_read"`
	IsFinished   bool    `json:"is_finished"`
	TimeSpent    *int64  `json:"time_spent,omitempty"`
}

// Progress is the remote mirror of a position. Upserts touch only these fields.
type Progress struct {
	BookID       string `json:"book_id"`
	LastLocation string `json:"last_location"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	UpdatedAt    int64  `json:"updated_at"`
}

// BookRef identifies the book a position belongs to. Title and author travel
// with remote progress so other devices can label it before metadata arrives.
type BookRef struct {
	ID     string
	Title  string
	Author string
}

// Source names the layer that served a read.
type Source string

const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
	SourceRemote   Source = "remote"
	SourceNone     Source = "none"
)

// Rendition is the rendering engine's handle on an open book.
//
// Page navigation happens inside the renderer; it reports the resulting
// position back through [Session.Relocated].
type Rendition interface {
	Next(context context.Context) error
	Prev(context context.Context) error
	Display(context context.Context, location string) error
	// LocationAt resolves a fraction of the book in [0, 1] to a position token.
	LocationAt(fraction float64) (string, error)
}

// Field names for validation
const (
	FieldBookID   = "book_id"
	FieldLocation = "location"
	FieldProgress = "progress"
)
