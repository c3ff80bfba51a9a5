// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/lector/pkg/pagination"
)

/*
TestFromRequest clamps every out of range input.
*/
func TestFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		want   pagination.Params
		offset int
	}{
		{"defaults", "", pagination.Params{Page: 1, Limit: 20}, 0},
		{"explicit", "?page=3&limit=10", pagination.Params{Page: 3, Limit: 10}, 20},
		{"garbage", "?page=x&limit=y", pagination.Params{Page: 1, Limit: 20}, 0},
		{"negative", "?page=-2&limit=0", pagination.Params{Page: 1, Limit: 20}, 0},
		{"capped", "?limit=1000", pagination.Params{Page: 1, Limit: 100}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := pagination.FromRequest(httptest.NewRequest("GET", "/recent"+tt.query, nil))
			assert.Equal(t, tt.want, params)
			assert.Equal(t, tt.offset, params.Offset())
		})
	}
}

/*
TestWindow cuts pages out of an in-memory list.
*/
func TestWindow(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	assert.Equal(t, []string{"a", "b"}, pagination.Window(items, 2, 0))
	assert.Equal(t, []string{"e"}, pagination.Window(items, 2, 4))
	assert.Equal(t, []string{}, pagination.Window(items, 2, 5))
	assert.Equal(t, []string{}, pagination.Window[string](nil, 2, 0))
	assert.Equal(t, 3, pagination.NewMeta(1, 2, 5).TotalPages)
}
