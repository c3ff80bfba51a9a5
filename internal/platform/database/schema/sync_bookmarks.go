// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// SyncBookmarksTable represents the 'sync.bookmarks' table
type SyncBookmarksTable struct {
	Table     string
	ID        string
	BookID    string
	CFI       string
	Label     string
	CreatedAt string
	Page      string
	Progress  string
}

// SyncBookmarks is the schema definition for sync.bookmarks
var SyncBookmarks = SyncBookmarksTable{
	Table:     "sync.bookmarks",
	ID:        "id",
	BookID:    "book_id",
	CFI:       "cfi",
	Label:     "label",
	CreatedAt: "created_at",
	Page:      "page",
	Progress:  "progress",
}

// Columns returns all columns in scan order.
func (t SyncBookmarksTable) Columns() []string {
	return []string{t.ID, t.BookID, t.CFI, t.Label, t.CreatedAt, t.Page, t.Progress}
}
