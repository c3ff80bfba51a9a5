// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package bookmark manages user bookmarks inside books.

Bookmarks are written to the local store first and mirrored to the remote
collection. [Service.Sync] reconciles both copies by id.
*/
package bookmark

// Bookmark is a saved position inside a book.
type Bookmark struct {
	ID        string   `json:"id"`
	BookID    string   `json:"book_id"`
	CFI       string   `json:"cfi"`
	Label     string   `json:"label"`
	CreatedAt int64    `json:"created_at"`
	Page      *int     `json:"page,omitempty"`
	Progress  *float64 `json:"progress,omitempty"`
}

// CreateInput is the payload accepted when adding a bookmark.
type CreateInput struct {
	CFI      string   `json:"cfi"`
	Label    string   `json:"label"`
	Page     *int     `json:"page,omitempty"`
	Progress *float64 `json:"progress,omitempty"`
}

// SyncResult reports a reconciliation of one book's bookmarks.
type SyncResult struct {
	Bookmarks []Bookmark `json:"bookmarks"`
	// Mirrored counts local bookmarks copied to the remote collection.
	Mirrored int `json:"mirrored"`
	// Pulled counts remote bookmarks that were new to this device.
	Pulled int `json:"pulled"`
}

const (
	FieldBookID   = "book_id"
	FieldCFI      = "cfi"
	FieldLabel    = "label"
	FieldPage     = "page"
	FieldProgress = "progress"

	maxLabelLength = 200
)
