// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package library keeps the device's view of the book collection in sync with
the remote catalogue.

The remote books collection is authoritative for which books exist and in
what order. The local store holds the downloaded payloads. A [Coordinator]
merges both, together with the local reading states, into a sorted list of
[Entry] values that observers receive as whole snapshots.
*/
package library

// Metadata is the remote record of a book.
type Metadata struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Author    string  `json:"author"`
	CoverURL  *string `json:"cover_url,omitempty"`
	CreatedAt int64   `json:"created_at"`
	Order     *int    `json:"order,omitempty"`
}

// LocalBook is a downloaded book: its metadata plus the full payload.
type LocalBook struct {
	Metadata
	Data []byte
}

// Entry is one row of the library view. It is derived, never persisted.
type Entry struct {
	Metadata
	IsDownloaded bool    `json:"is_downloaded"`
	IsFinished   bool    `json:"is_finished"`
	Progress     float64 `json:"progress"`
	Data         []byte  `json:"-"`
}

// View is a published snapshot of the library.
type View struct {
	Entries []Entry `json:"entries"`
	// Loading is true until local data, remote data or the safety timeout arrives.
	Loading bool `json:"loading"`
	// Syncing is true until the first remote snapshot was merged.
	Syncing bool `json:"syncing"`
	// Err carries the last remote failure. It never blocks the entries.
	Err       string `json:"error,omitempty"`
	UpdatedAt int64  `json:"updated_at"`
	// Version increases with every publish.
	Version uint64 `json:"version"`
}

// Snapshot is one delivery of the remote subscription.
type Snapshot struct {
	Books []Metadata
	Err   error
}

// UploadHints carries what the caller knows about an uploaded file.
type UploadHints struct {
	FileName string
	Title    string
	Author   string
}

const (
	FieldIDs    = "ids"
	FieldData   = "data"
	FieldBookID = "book_id"
)
