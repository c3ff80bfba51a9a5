// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// SyncBookChunksTable represents the 'sync.book_chunks' table
type SyncBookChunksTable struct {
	Table      string
	BookID     string
	ChunkKey   string
	ChunkIndex string
	Data       string
	DataText   string
}

// SyncBookChunks is the schema definition for sync.book_chunks
var SyncBookChunks = SyncBookChunksTable{
	Table:      "sync.book_chunks",
	BookID:     "book_id",
	ChunkKey:   "chunk_key",
	ChunkIndex: "chunk_index",
	Data:       "data",
	DataText:   "data_text",
}
