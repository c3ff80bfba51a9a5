// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lector/internal/core/library"
)

type viewEnvelope struct {
	Data library.View `json:"data"`
}

func serve(t *testing.T, handler http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(method, target, bytes.NewReader(body)))
	return recorder
}

func decodeView(t *testing.T, recorder *httptest.ResponseRecorder) library.View {
	t.Helper()
	var envelope viewEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope.Data
}

/*
TestHandler_ViewAndSearch filters the view by title or author.
*/
func TestHandler_ViewAndSearch(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.coordinator.Start(context.Background()))
	h.deliver(t,
		library.Metadata{ID: "b1", Title: "Dune", Author: "Frank Herbert"},
		library.Metadata{ID: "b2", Title: "Emma", Author: "Jane Austen"},
	)
	routes := library.NewHandler(h.coordinator).Routes()

	recorder := serve(t, routes, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Len(t, decodeView(t, recorder).Entries, 2)

	recorder = serve(t, routes, http.MethodGet, "/?q=austen", nil)
	assert.Equal(t, []string{"b2"}, ids(decodeView(t, recorder).Entries))

	recorder = serve(t, routes, http.MethodGet, "/?q=nothing", nil)
	assert.Contains(t, recorder.Body.String(), `"entries":[]`)
	assert.NotContains(t, recorder.Body.String(), `"data":"`, "payloads stay out of JSON")
}

/*
TestHandler_Stream answers once the view moves past the given version.
*/
func TestHandler_Stream(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.coordinator.Start(context.Background()))
	h.deliver(t, library.Metadata{ID: "b1"})
	routes := library.NewHandler(h.coordinator).Routes()

	recorder := serve(t, routes, http.MethodGet, "/stream", nil)
	assert.Equal(t, h.coordinator.View().Version, decodeView(t, recorder).Version)

	recorder = serve(t, routes, http.MethodGet, "/stream?after=-1", nil)
	assert.Equal(t, h.coordinator.View().Version, decodeView(t, recorder).Version, "a malformed version answers at once")

	after := h.coordinator.View().Version
	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- serve(t, routes, http.MethodGet, fmt.Sprintf("/stream?after=%d", after), nil)
	}()

	h.remote.snapshots <- library.Snapshot{Books: []library.Metadata{{ID: "b1"}, {ID: "b2"}}}
	view := decodeView(t, <-done)
	assert.Greater(t, view.Version, after)
	assert.Len(t, view.Entries, 2)
}

/*
TestHandler_Reorder rejects anything but a permutation of the library.
*/
func TestHandler_Reorder(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.coordinator.Start(context.Background()))
	h.deliver(t, library.Metadata{ID: "a"}, library.Metadata{ID: "b"})
	routes := library.NewHandler(h.coordinator).Routes()

	recorder := serve(t, routes, http.MethodPut, "/order", []byte(`{"ids":["a","a"]}`))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = serve(t, routes, http.MethodPut, "/order", []byte(`{"ids":["b","a"]}`))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []string{"b", "a"}, ids(decodeView(t, recorder).Entries))
}

/*
TestHandler_UploadAndContent stores an EPUB and serves it back.
*/
func TestHandler_UploadAndContent(t *testing.T) {
	h := newHarness(t, nil, library.WithIDGenerator(func() string { return "new-book" }))
	routes := library.NewHandler(h.coordinator).Routes()
	data := buildEPUB(t, epubOptions{title: "Dune"})

	recorder := serve(t, routes, http.MethodPost, "/books?filename=dune.epub&author=Frank%20Herbert", data)
	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"author":"Frank Herbert"`)

	recorder = serve(t, routes, http.MethodGet, "/books/new-book/content", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/epub+zip", recorder.Header().Get("Content-Type"))
	assert.Equal(t, data, recorder.Body.Bytes())

	recorder = serve(t, routes, http.MethodPost, "/books", []byte("not an epub"))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.True(t, strings.Contains(recorder.Body.String(), "VALIDATION_ERROR"))

	recorder = serve(t, routes, http.MethodGet, "/books/ghost/content", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
