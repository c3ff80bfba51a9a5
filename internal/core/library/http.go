// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import (
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/lector/internal/platform/constants"
	requestutil "github.com/taibuivan/lector/internal/platform/request"
	"github.com/taibuivan/lector/internal/platform/respond"
	"github.com/taibuivan/lector/pkg/convert"
)

// maxUploadBytes bounds a single EPUB upload.
const maxUploadBytes = 256 << 20

const epubContentType = "application/epub+zip"

// Handler implements the HTTP layer for the library.
type Handler struct {
	coordinator   *Coordinator
	streamTimeout time.Duration
}

func NewHandler(coordinator *Coordinator) *Handler {
	return &Handler{coordinator: coordinator, streamTimeout: constants.ViewStreamTimeout}
}

// Routes returns a [chi.Router] with the library endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// ## View
	router.Get("/", handler.view)
	router.Get("/stream", handler.stream)
	router.Put("/order", handler.reorder)

	// ## Books
	router.Post("/books", handler.upload)
	router.Post("/books/{id}/download", handler.download)
	router.Get("/books/{id}/content", handler.content)
	router.Delete("/books/{id}", handler.delete)
	router.Put("/books/{id}/finished", handler.markFinished)
	router.Delete("/books/{id}/finished", handler.markUnfinished)

	return router
}

// # View Endpoints

/*
GET /api/v1/library?q=.

Description: Returns the current library view, optionally filtered by a
case- and accent-insensitive search over title and author.
*/
func (handler *Handler) view(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, filtered(handler.coordinator.View(), request.URL.Query().Get("q")))
}

/*
GET /api/v1/library/stream?after={version}&q=.

Description: Long-poll. Answers as soon as the view version exceeds after, or
with the current view when nothing changed before the stream timeout.
*/
func (handler *Handler) stream(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()
	after := convert.ToUint64D(query.Get("after"), 0)

	updates, cancel := handler.coordinator.Watch()
	defer cancel()

	current := handler.coordinator.View()
	if current.Version > after {
		respond.OK(writer, filtered(current, query.Get("q")))
		return
	}

	timer := time.NewTimer(handler.streamTimeout)
	defer timer.Stop()

	for {
		select {
		case <-request.Context().Done():
			return
		case <-timer.C:
			respond.OK(writer, filtered(handler.coordinator.View(), query.Get("q")))
			return
		case next, ok := <-updates:
			if !ok {
				respond.OK(writer, filtered(handler.coordinator.View(), query.Get("q")))
				return
			}
			if next.Version > after {
				respond.OK(writer, filtered(next, query.Get("q")))
				return
			}
		}
	}
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

/*
PUT /api/v1/library/order.

Request: {"ids": ["b3", "b1", "b2"]}

Response:
  - 200: the reordered view
  - 400: VALIDATION_ERROR when ids is not a permutation of the library
  - 503: TRANSIENT_NETWORK when some remote updates failed (the view keeps the new order)
*/
func (handler *Handler) reorder(writer http.ResponseWriter, request *http.Request) {
	var input reorderRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.coordinator.Reorder(request.Context(), input.IDs); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, handler.coordinator.View())
}

// # Book Endpoints

/*
POST /api/v1/library/books?filename=&title=&author=.

Request: the raw EPUB file as the body.

Response:
  - 201: Metadata
  - 400: VALIDATION_ERROR when the body is empty or not an EPUB
*/
func (handler *Handler) upload(writer http.ResponseWriter, request *http.Request) {
	data, err := requestutil.Body(request, maxUploadBytes)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	query := request.URL.Query()
	hints := UploadHints{
		FileName: path.Base(query.Get("filename")),
		Title:    query.Get("title"),
		Author:   query.Get("author"),
	}
	if hints.FileName == "." || hints.FileName == "/" {
		hints.FileName = ""
	}

	book, err := handler.coordinator.Upload(request.Context(), data, hints)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, book)
}

/*
POST /api/v1/library/books/{id}/download.

Response:
  - 200: Entry
  - 404: NOT_FOUND when the book is not in the library
  - 422: RECONSTRUCTION_FAILED when the stored content is incomplete or corrupt
*/
func (handler *Handler) download(writer http.ResponseWriter, request *http.Request) {
	entry, err := handler.coordinator.Download(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, entry)
}

// GET /api/v1/library/books/{id}/content serves a downloaded EPUB.
func (handler *Handler) content(writer http.ResponseWriter, request *http.Request) {
	book, err := handler.coordinator.Content(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Binary(writer, epubContentType, book.Data)
}

// DELETE /api/v1/library/books/{id}.
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	if err := handler.coordinator.Delete(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// PUT /api/v1/library/books/{id}/finished.
func (handler *Handler) markFinished(writer http.ResponseWriter, request *http.Request) {
	handler.setFinished(writer, request, true)
}

// DELETE /api/v1/library/books/{id}/finished.
func (handler *Handler) markUnfinished(writer http.ResponseWriter, request *http.Request) {
	handler.setFinished(writer, request, false)
}

func (handler *Handler) setFinished(writer http.ResponseWriter, request *http.Request, finished bool) {
	state, err := handler.coordinator.SetFinished(request.Context(), requestutil.Param(request, "id"), finished)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, state)
}

// filtered returns view with its entries narrowed to query.
func filtered(view View, query string) View {
	view.Entries = Filter(view.Entries, query)
	if view.Entries == nil {
		view.Entries = []Entry{}
	}
	return view
}
