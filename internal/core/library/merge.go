// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import (
	"cmp"
	"slices"

	"github.com/taibuivan/lector/internal/core/reading"
	"github.com/taibuivan/lector/internal/platform/apperr"
	"github.com/taibuivan/lector/internal/platform/validate"
	"github.com/taibuivan/lector/pkg/fold"
	"github.com/taibuivan/lector/pkg/slice"
)

/*
Merge derives the library view from a remote snapshot.

One entry is built per remote record, deduplicated by id with the last record
winning. Download state comes from local, finished state and progress from
states. The result is sorted with [Sort]. Merging the same inputs twice yields
identical entries.
*/
func Merge(remote []Metadata, local []LocalBook, states []reading.State) []Entry {
	books := slice.DedupeLast(remote, metadataID)
	downloaded := slice.Index(local, localBookID)
	progress := slice.Index(states, stateBookID)

	entries := make([]Entry, 0, len(books))
	for _, book := range books {
		entry := Entry{Metadata: book}
		if localBook, ok := downloaded[book.ID]; ok {
			entry.IsDownloaded = true
			entry.Data = localBook.Data
		}
		if state, ok := progress[book.ID]; ok {
			entry.IsFinished = state.IsFinished
			entry.Progress = state.Progress
		}
		entries = append(entries, entry)
	}

	Sort(entries)
	return entries
}

// LocalEntries derives a view from the local store alone, before any remote snapshot.
func LocalEntries(local []LocalBook, states []reading.State) []Entry {
	books := slice.Map(slice.DedupeLast(local, localBookID), func(book LocalBook) Metadata { return book.Metadata })
	return Merge(books, local, states)
}

// Sort orders entries by Order ascending with missing orders last, then by
// CreatedAt descending. The sort is stable.
func Sort(entries []Entry) {
	slices.SortStableFunc(entries, compareEntries)
}

func compareEntries(a, b Entry) int {
	switch {
	case a.Order != nil && b.Order != nil:
		if byOrder := cmp.Compare(*a.Order, *b.Order); byOrder != 0 {
			return byOrder
		}
	case a.Order != nil:
		return -1
	case b.Order != nil:
		return 1
	}
	return cmp.Compare(b.CreatedAt, a.CreatedAt)
}

// Filter keeps the entries whose title or author contains query, ignoring
// case and accents. An empty query keeps everything.
func Filter(entries []Entry, query string) []Entry {
	if query == "" {
		return entries
	}
	return slice.Filter(entries, func(entry Entry) bool {
		return fold.Contains(entry.Title, query) || fold.Contains(entry.Author, query)
	})
}

/*
Reorder returns a copy of entries arranged as ids, with Order set to the
position in ids.

ids must name every entry exactly once.
*/
func Reorder(entries []Entry, ids []string) ([]Entry, error) {
	validator := &validate.Validator{}
	validator.Distinct(FieldIDs, ids).
		Custom(FieldIDs, len(ids) != len(entries), "The new order must list every book exactly once")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	byID := slice.Index(entries, func(entry Entry) string { return entry.ID })
	reordered := make([]Entry, 0, len(ids))
	for index, id := range ids {
		entry, ok := byID[id]
		if !ok {
			return nil, apperr.NotFound("Book " + id)
		}
		position := index
		entry.Order = &position
		reordered = append(reordered, entry)
	}
	return reordered, nil
}

func metadataID(book Metadata) string { return book.ID }

func localBookID(book LocalBook) string { return book.ID }

func stateBookID(state reading.State) string { return state.BookID }
