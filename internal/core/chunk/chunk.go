// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package chunk splits book payloads into fixed-size ordered pieces and puts them
back together.

The remote store caps the size of a single record, so an EPUB of several
megabytes travels as a sequence of chunk records. The codec is pure: no I/O,
no shared state, and no aliasing between input and output buffers.

Law:

	Join(Split(id, b, n)) == b   for every b and every n > 0
*/
package chunk

import (
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/taibuivan/lector/internal/platform/constants"
)

// DefaultSize keeps one chunk record under typical remote document ceilings.
const DefaultSize = constants.DefaultChunkSize

// ErrInvalidSize is returned by [Split] for a non-positive chunk size.
var ErrInvalidSize = errors.New("chunk: size must be positive")

// Chunk is one ordered slice of a payload.
type Chunk struct {
	ParentID string `json:"parentId"`
	Index    int    `json:"index"`
	Data     []byte `json:"data"`
}

// Key returns the remote record key of the chunk ("chunk_0", "chunk_1", ...).
func (chunk Chunk) Key() string {
	return Key(chunk.Index)
}

// Key returns the remote record key for an index.
func Key(index int) string {
	return fmt.Sprintf("%s%d", constants.ChunkKeyPrefix, index)
}

// Count returns how many chunks [Split] produces for length bytes.
func Count(length, size int) int {
	if size <= 0 || length <= 0 {
		return 0
	}
	return (length + size - 1) / size
}

// # Split

// Split cuts data into chunks of at most size bytes, indexed from zero.
//
// Every chunk is full except possibly the last one. An empty payload yields no
// chunks. The returned chunks own their bytes.
func Split(parentID string, data []byte, size int) ([]Chunk, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	chunks := make([]Chunk, 0, Count(len(data), size))
	for index, offset := 0, 0; offset < len(data); index, offset = index+1, offset+size {
		end := min(offset+size, len(data))
		chunks = append(chunks, Chunk{
			ParentID: parentID,
			Index:    index,
			Data:     slices.Clone(data[offset:end]),
		})
	}
	return chunks, nil
}

// # Join

// Join reassembles chunks in index order.
//
// The input may arrive in any order and is not modified. Indices must cover
// [0, n) exactly once; anything else is a [*ReconstructionError]. An empty
// input yields an empty payload.
func Join(chunks []Chunk) ([]byte, error) {
	return join(chunks, -1)
}

// JoinExpect is [Join] with a known chunk count. Fewer or more chunks than
// expected, including an empty input when expected > 0, is a [*ReconstructionError].
func JoinExpect(chunks []Chunk, expected int) ([]byte, error) {
	if expected < 0 {
		return nil, &ReconstructionError{Reason: fmt.Sprintf("negative expected count %d", expected)}
	}
	return join(chunks, expected)
}

func join(chunks []Chunk, expected int) ([]byte, error) {
	if expected >= 0 && len(chunks) != expected {
		if len(chunks) == 0 {
			return nil, &ReconstructionError{Expected: expected, Reason: "no chunks received"}
		}
		ordered := sortedIndices(chunks)
		return nil, &ReconstructionError{
			ParentID: chunks[0].ParentID,
			Expected: expected,
			Missing:  missing(ordered, expected),
			Reason:   fmt.Sprintf("expected %d chunks, received %d", expected, len(chunks)),
		}
	}

	if len(chunks) == 0 {
		return []byte{}, nil
	}

	ordered := slices.Clone(chunks)
	slices.SortStableFunc(ordered, func(a, b Chunk) int { return a.Index - b.Index })

	total := 0
	for position, chunk := range ordered {
		if chunk.Index != position {
			indices := sortedIndices(chunks)
			return nil, &ReconstructionError{
				ParentID: chunk.ParentID,
				Expected: len(chunks),
				Missing:  missing(indices, indices[len(indices)-1]+1),
				Reason:   describeGap(position, chunk.Index),
			}
		}
		total += len(chunk.Data)
	}

	data := make([]byte, 0, total)
	for _, chunk := range ordered {
		data = append(data, chunk.Data...)
	}
	return data, nil
}

func describeGap(position, index int) string {
	if index < position {
		return fmt.Sprintf("duplicate chunk index %d", index)
	}
	return fmt.Sprintf("chunk index %d missing", position)
}

func sortedIndices(chunks []Chunk) []int {
	indices := make([]int, len(chunks))
	for i, chunk := range chunks {
		indices[i] = chunk.Index
	}
	slices.Sort(indices)
	return indices
}

// missing lists the indices in [0, upTo) absent from sorted.
func missing(sorted []int, upTo int) []int {
	var gaps []int
	for index := 0; index < upTo; index++ {
		if _, found := slices.BinarySearch(sorted, index); !found {
			gaps = append(gaps, index)
		}
	}
	return gaps
}

// # Errors

// ReconstructionError reports chunks that cannot form a complete payload.
// No partial payload is ever returned alongside it.
type ReconstructionError struct {
	ParentID string
	Expected int
	Missing  []int
	Reason   string
}

func (e *ReconstructionError) Error() string {
	var builder strings.Builder
	builder.WriteString("chunk: cannot reconstruct")
	if e.ParentID != "" {
		fmt.Fprintf(&builder, " %s", e.ParentID)
	}
	fmt.Fprintf(&builder, ": %s", e.Reason)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&builder, " (missing %v)", e.Missing)
	}
	return builder.String()
}

// # Legacy payloads

// DecodePayload returns the bytes of a stored chunk.
//
// Chunks written by older clients carry their bytes as base64 text instead of
// raw binary. Both variants are equivalent: raw bytes win when present,
// otherwise the text is decoded with padded or unpadded standard base64.
func DecodePayload(raw []byte, text *string) ([]byte, error) {
	if raw != nil {
		return raw, nil
	}
	if text == nil {
		return nil, errors.New("chunk: payload has neither bytes nor text")
	}

	trimmed := strings.TrimSpace(*text)
	if decoded, err := base64.StdEncoding.Strict().DecodeString(trimmed); err == nil {
		return decoded, nil
	}
	decoded, err := base64.RawStdEncoding.Strict().DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("chunk: legacy payload is not base64: %w", err)
	}
	return decoded, nil
}
