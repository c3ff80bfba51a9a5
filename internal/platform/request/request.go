// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/lector/internal/platform/apperr"
	"github.com/taibuivan/lector/internal/platform/ctxutil"
	"github.com/taibuivan/lector/internal/platform/sec"
	"github.com/taibuivan/lector/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Returns validate.ErrInvalidJSON if decoding fails.
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Body reads a raw request body of at most limit bytes.

A larger body is rejected rather than truncated.
*/
func Body(request *http.Request, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(request.Body, limit+1))
	if err != nil {
		return nil, apperr.ValidationError("Could not read request body")
	}
	if int64(len(data)) > limit {
		return nil, apperr.ValidationError(fmt.Sprintf("Body exceeds %d bytes", limit))
	}
	if len(data) == 0 {
		return nil, validate.RequiredError("body", "Request body is empty")
	}
	return data, nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
RequiredParam retrieves a named URL parameter and fails if it is blank.
*/
func RequiredParam(request *http.Request, name string) (string, error) {
	value := chi.URLParam(request, name)
	if value == "" {
		return "", validate.RequiredError(name, "This field is required")
	}
	return value, nil
}

/*
Device extracts the authenticated device claims from the request context.

Returns nil if the request is anonymous.
*/
func Device(request *http.Request) *sec.DeviceClaims {
	return ctxutil.Device(request.Context())
}
