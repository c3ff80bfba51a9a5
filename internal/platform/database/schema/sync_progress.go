// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// SyncProgressTable represents the 'sync.progress' table
type SyncProgressTable struct {
	Table        string
	BookID       string
	LastLocation string
	Title        string
	Author       string
	UpdatedAt    string
}

// SyncProgress is the schema definition for sync.progress
var SyncProgress = SyncProgressTable{
	Table:        "sync.progress",
	BookID:       "book_id",
	LastLocation: "last_location",
	Title:        "title",
	Author:       "author",
	UpdatedAt:    "updated_at",
}
