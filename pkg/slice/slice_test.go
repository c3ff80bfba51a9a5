// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slice_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/lector/pkg/slice"
)

type record struct {
	id    string
	value int
}

func recordID(r record) string { return r.id }

/*
TestDedupeLast verifies last-seen-wins at the first position of each key.
*/
func TestDedupeLast(t *testing.T) {
	input := []record{{"a", 1}, {"b", 2}, {"a", 3}, {"c", 4}, {"b", 5}}

	got := slice.DedupeLast(input, recordID)

	assert.Equal(t, []record{{"a", 3}, {"b", 5}, {"c", 4}}, got)
	assert.Nil(t, slice.DedupeLast[record, string](nil, recordID))
}

/*
TestMapFilterIndex covers the remaining helpers.
*/
func TestMapFilterIndex(t *testing.T) {
	numbers := []int{1, 2, 3, 4}

	assert.Equal(t, []string{"1", "2", "3", "4"}, slice.Map(numbers, strconv.Itoa))
	assert.Equal(t, []int{2, 4}, slice.Filter(numbers, func(n int) bool { return n%2 == 0 }))

	index := slice.Index([]record{{"a", 1}, {"a", 2}}, recordID)
	assert.Equal(t, record{"a", 2}, index["a"])
}
