// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reading

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/lector/internal/platform/request"
	"github.com/taibuivan/lector/internal/platform/respond"
	"github.com/taibuivan/lector/pkg/pagination"
)

type Handler struct {
	tracker *Tracker
}

func NewHandler(tracker *Tracker) *Handler {
	return &Handler{tracker: tracker}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/recent", handler.recent)
	router.Get("/{bookID}", handler.getState)
	router.Get("/{bookID}/initial", handler.initialLocation)
	router.Put("/{bookID}/position", handler.reportPosition)
}

type stateResponse struct {
	State  State  `json:"state"`
	Source Source `json:"source"`
}

type positionRequest struct {
	Location string  `json:"location"`
	Progress float64 `json:"progress"`
	Title    string  `json:"title"`
	Author   string  `json:"author"`
}

type positionResponse struct {
	Recorded     bool `json:"recorded"`
	FlushPending bool `json:"flush_pending"`
}

type initialResponse struct {
	Location string `json:"location"`
	Source   Source `json:"source"`
}

func (handler *Handler) recent(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	states, total, err := handler.tracker.Recent(request.Context(), params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, states, pagination.NewMeta(params.Page, params.Limit, total))
}

func (handler *Handler) getState(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.Param(request, "bookID")

	state, source, err := handler.tracker.State(request.Context(), bookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, stateResponse{State: state, Source: source})
}

func (handler *Handler) initialLocation(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.Param(request, "bookID")

	location, source, err := handler.tracker.InitialLocation(request.Context(), bookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, initialResponse{Location: location, Source: source})
}

// reportPosition answers 202: the local write is done, the remote one is queued.
func (handler *Handler) reportPosition(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.Param(request, "bookID")

	var input positionRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	book := BookRef{ID: bookID, Title: input.Title, Author: input.Author}
	recorded, err := handler.tracker.PositionChanged(request.Context(), book, input.Location, input.Progress)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Accepted(writer, positionResponse{Recorded: recorded, FlushPending: handler.tracker.Pending(bookID)})
}
