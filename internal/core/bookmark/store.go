// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package bookmark

import "context"

// LocalRepository is the on-device bookmarks namespace.
type LocalRepository interface {
	Put(context context.Context, bookmark Bookmark) error
	// Get returns apperr NOT_FOUND when absent.
	Get(context context.Context, id string) (Bookmark, error)
	// ListByBook returns the book's bookmarks oldest first.
	ListByBook(context context.Context, bookID string) ([]Bookmark, error)
	// Delete is a no-op when the bookmark does not exist.
	Delete(context context.Context, id string) error
}

// RemoteRepository is the remote bookmarks collection.
type RemoteRepository interface {
	Put(context context.Context, bookmark Bookmark) error
	ListByBook(context context.Context, bookID string) ([]Bookmark, error)
	Delete(context context.Context, id string) error
}
