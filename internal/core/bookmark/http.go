// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package bookmark

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/lector/internal/platform/request"
	"github.com/taibuivan/lector/internal/platform/respond"
)

// Handler implements the HTTP layer for bookmarks.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches bookmark endpoints to the root API router.
// They span both /books/{bookID}/bookmarks and /bookmarks/{id}.
func (handler *Handler) RegisterRoutes(api chi.Router) {
	api.Get("/books/{bookID}/bookmarks", handler.list)
	api.Post("/books/{bookID}/bookmarks", handler.create)
	api.Post("/books/{bookID}/bookmarks/sync", handler.sync)
	api.Delete("/bookmarks/{id}", handler.delete)
}

/*
GET /api/v1/books/{bookID}/bookmarks.

Description: Lists the bookmarks of a book held on this device, oldest first.
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	bookmarks, err := handler.service.List(request.Context(), requestutil.Param(request, "bookID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, bookmarks)
}

/*
POST /api/v1/books/{bookID}/bookmarks.

Request: {"cfi": "...", "label": "...", "page": 12, "progress": 0.31}

Response:
  - 201: Bookmark
  - 400: VALIDATION_ERROR
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	bookmark, err := handler.service.Create(request.Context(), requestutil.Param(request, "bookID"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, bookmark)
}

/*
POST /api/v1/books/{bookID}/bookmarks/sync.

Description: Merges the local and remote bookmarks of a book.

Response:
  - 200: SyncResult
  - 503: TRANSIENT_NETWORK when the remote collection is unreachable
*/
func (handler *Handler) sync(writer http.ResponseWriter, request *http.Request) {
	result, err := handler.service.Sync(request.Context(), requestutil.Param(request, "bookID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}

// DELETE /api/v1/bookmarks/{id}.
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.RequiredParam(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
