// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// LocalBooksTable represents the on-device 'books' namespace
type LocalBooksTable struct {
	Table     string
	ID        string
	Title     string
	Author    string
	CoverURL  string
	CreatedAt string
	SortOrder string
	Data      string
}

// LocalBooks is the schema definition for the local books namespace
var LocalBooks = LocalBooksTable{
	Table:     "books",
	ID:        "id",
	Title:     "title",
	Author:    "author",
	CoverURL:  "cover_url",
	CreatedAt: "created_at",
	SortOrder: "sort_order",
	Data:      "data",
}

// Columns returns all columns in scan order.
func (t LocalBooksTable) Columns() []string {
	return []string{t.ID, t.Title, t.Author, t.CoverURL, t.CreatedAt, t.SortOrder, t.Data}
}

// LocalReadingStateTable represents the on-device 'reading_state' namespace
type LocalReadingStateTable struct {
	Table        string
	BookID       string
	LastLocation string
	Progress     string
	TotalPages   string
	LastRead     string
	IsFinished   string
	TimeSpent    string
	LastReadIdx  string
}

// LocalReadingState is the schema definition for the local reading_state namespace
var LocalReadingState = LocalReadingStateTable{
	Table:        "reading_state",
	BookID:       "book_id",
	LastLocation: "last_location",
	Progress:     "progress",
	TotalPages:   "total_pages",
	LastRead:     "last_read",
	IsFinished:   "is_finished",
	TimeSpent:    "time_spent",
	LastReadIdx:  "reading_state_last_read_idx",
}

// Columns returns all columns in scan order.
func (t LocalReadingStateTable) Columns() []string {
	return []string{t.BookID, t.LastLocation, t.Progress, t.TotalPages, t.LastRead, t.IsFinished, t.TimeSpent}
}

// LocalBookmarksTable represents the on-device 'bookmarks' namespace
type LocalBookmarksTable struct {
	Table     string
	ID        string
	BookID    string
	CFI       string
	Label     string
	CreatedAt string
	Page      string
	Progress  string
	BookIdx   string
}

// LocalBookmarks is the schema definition for the local bookmarks namespace
var LocalBookmarks = LocalBookmarksTable{
	Table:     "bookmarks",
	ID:        "id",
	BookID:    "book_id",
	CFI:       "cfi",
	Label:     "label",
	CreatedAt: "created_at",
	Page:      "page",
	Progress:  "progress",
	BookIdx:   "bookmarks_book_id_idx",
}

// Columns returns all columns in scan order.
func (t LocalBookmarksTable) Columns() []string {
	return []string{t.ID, t.BookID, t.CFI, t.Label, t.CreatedAt, t.Page, t.Progress}
}
