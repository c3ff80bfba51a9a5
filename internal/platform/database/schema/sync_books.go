// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// SyncBooksTable represents the 'sync.books' table
type SyncBooksTable struct {
	Table         string
	ID            string
	Title         string
	Author        string
	CoverURL      string
	CreatedAt     string
	SortOrder     string
	ContentDigest string
	ChunkCount    string
	ContentSize   string
	UpdatedAt     string
}

// SyncBooks is the schema definition for sync.books
var SyncBooks = SyncBooksTable{
	Table:         "sync.books",
	ID:            "id",
	Title:         "title",
	Author:        "author",
	CoverURL:      "cover_url",
	CreatedAt:     "created_at",
	SortOrder:     "sort_order",
	ContentDigest: "content_digest",
	ChunkCount:    "chunk_count",
	ContentSize:   "content_size",
	UpdatedAt:     "updated_at",
}

// Columns returns the metadata columns in scan order.
func (t SyncBooksTable) Columns() []string {
	return []string{t.ID, t.Title, t.Author, t.CoverURL, t.CreatedAt, t.SortOrder}
}
