// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lector/internal/api"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type readinessBody struct {
	Data struct {
		Status string `json:"status"`
		Checks []struct {
			Name  string `json:"name"`
			OK    bool   `json:"ok"`
			Error string `json:"error"`
		} `json:"checks"`
	} `json:"data"`
}

func probe(t *testing.T, handler http.HandlerFunc) (int, readinessBody) {
	t.Helper()
	recorder := httptest.NewRecorder()
	handler(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

	var body readinessBody
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return recorder.Code, body
}

/*
TestReadiness reports every dependency and degrades on the first failure.
*/
func TestReadiness(t *testing.T) {
	healthy := func(context.Context) error { return nil }

	_, ready := api.NewHealthHandlers([]api.HealthCheck{
		{Name: "postgres", Check: healthy},
		{Name: "local", Check: healthy},
	}, discard)
	status, body := probe(t, ready)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body.Data.Status)
	assert.Len(t, body.Data.Checks, 2)

	_, ready = api.NewHealthHandlers([]api.HealthCheck{
		{Name: "postgres", Check: healthy},
		{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
	}, discard)
	status, body = probe(t, ready)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "degraded", body.Data.Status)
	require.Len(t, body.Data.Checks, 2)
	assert.True(t, body.Data.Checks[0].OK)
	assert.False(t, body.Data.Checks[1].OK)
	assert.Equal(t, "connection refused", body.Data.Checks[1].Error)
}

/*
TestLiveness always answers ok.
*/
func TestLiveness(t *testing.T) {
	live, _ := api.NewHealthHandlers(nil, discard)
	recorder := httptest.NewRecorder()
	live(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"data":{"status":"ok"}}`, recorder.Body.String())
}
