// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package bookmark

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/taibuivan/lector/internal/platform/validate"
	"github.com/taibuivan/lector/pkg/slice"
	"github.com/taibuivan/lector/pkg/uuidv7"
)

// Service writes bookmarks locally first and mirrors them remotely.
type Service struct {
	local  LocalRepository
	remote RemoteRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(local LocalRepository, remote RemoteRepository, logger *slog.Logger) *Service {
	return &Service{local: local, remote: remote, logger: logger, now: time.Now}
}

// List returns the bookmarks of bookID held on this device.
func (service *Service) List(context context.Context, bookID string) ([]Bookmark, error) {
	return service.local.ListByBook(context, bookID)
}

/*
Create stores a new bookmark for bookID.

The local write decides success. The remote copy is best effort: a failure is
logged and the next [Service.Sync] mirrors the bookmark.
*/
func (service *Service) Create(context context.Context, bookID string, input CreateInput) (Bookmark, error) {
	validator := &validate.Validator{}
	validator.Required(FieldBookID, bookID).
		Required(FieldCFI, input.CFI).
		MaxLen(FieldLabel, input.Label, maxLabelLength)
	if input.Progress != nil {
		validator.Fraction(FieldProgress, *input.Progress)
	}
	if input.Page != nil {
		validator.Range(FieldPage, *input.Page, 1, math.MaxInt32)
	}
	if err := validator.Err(); err != nil {
		return Bookmark{}, err
	}

	bookmark := Bookmark{
		ID:        uuidv7.New(),
		BookID:    bookID,
		CFI:       input.CFI,
		Label:     input.Label,
		CreatedAt: service.now().UnixMilli(),
		Page:      input.Page,
		Progress:  input.Progress,
	}

	if err := service.local.Put(context, bookmark); err != nil {
		return Bookmark{}, err
	}

	if err := service.remote.Put(context, bookmark); err != nil {
		service.logger.WarnContext(context, "bookmark_mirror_failed",
			slog.String("bookmark_id", bookmark.ID), slog.Any("error", err))
	}

	service.logger.InfoContext(context, "bookmark_created",
		slog.String("bookmark_id", bookmark.ID), slog.String("book_id", bookID))
	return bookmark, nil
}

// Delete removes a bookmark from both copies. The remote delete is best effort.
func (service *Service) Delete(context context.Context, id string) error {
	if err := service.local.Delete(context, id); err != nil {
		return err
	}

	if err := service.remote.Delete(context, id); err != nil {
		service.logger.WarnContext(context, "bookmark_remote_delete_failed",
			slog.String("bookmark_id", id), slog.Any("error", err))
	}

	service.logger.InfoContext(context, "bookmark_deleted", slog.String("bookmark_id", id))
	return nil
}

/*
Sync reconciles the local and remote bookmarks of bookID.

The two lists are concatenated local first and deduplicated by id, keeping the
last occurrence, so the remote copy of a shared bookmark wins. The merged set is saved locally and any bookmark the remote
collection lacks is mirrored to it. When the remote list cannot be read, the
local list is returned along with the error.
*/
func (service *Service) Sync(context context.Context, bookID string) (SyncResult, error) {
	local, err := service.local.ListByBook(context, bookID)
	if err != nil {
		return SyncResult{}, err
	}

	remote, err := service.remote.ListByBook(context, bookID)
	if err != nil {
		return SyncResult{Bookmarks: local}, err
	}

	merged := Merge(local, remote)
	localIDs := slice.Index(local, bookmarkID)
	remoteIDs := slice.Index(remote, bookmarkID)

	result := SyncResult{Bookmarks: merged}
	for _, bookmark := range merged {
		if _, ok := localIDs[bookmark.ID]; !ok {
			result.Pulled++
		}
		if err := service.local.Put(context, bookmark); err != nil {
			return result, err
		}

		if _, ok := remoteIDs[bookmark.ID]; ok {
			continue
		}
		if err := service.remote.Put(context, bookmark); err != nil {
			service.logger.WarnContext(context, "bookmark_mirror_failed",
				slog.String("bookmark_id", bookmark.ID), slog.Any("error", err))
			continue
		}
		result.Mirrored++
	}

	service.logger.InfoContext(context, "bookmarks_synced",
		slog.String("book_id", bookID),
		slog.Int("total", len(merged)),
		slog.Int("pulled", result.Pulled),
		slog.Int("mirrored", result.Mirrored),
	)
	return result, nil
}

// Merge concatenates local and remote and keeps the last bookmark seen per id.
func Merge(local, remote []Bookmark) []Bookmark {
	all := make([]Bookmark, 0, len(local)+len(remote))
	all = append(all, local...)
	all = append(all, remote...)
	return slice.DedupeLast(all, bookmarkID)
}

func bookmarkID(bookmark Bookmark) string { return bookmark.ID }
