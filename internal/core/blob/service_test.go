// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lector/internal/core/blob"
	"github.com/taibuivan/lector/internal/core/chunk"
	"github.com/taibuivan/lector/internal/platform/apperr"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// memoryChunks is an in-memory [blob.ChunkRepository] recording call order.
type memoryChunks struct {
	mu        sync.Mutex
	records   map[string]map[int]blob.Record
	manifests map[string]blob.Manifest
	puts      []int
	failAt    int
	onPut     func(index int)
}

func newMemoryChunks() *memoryChunks {
	return &memoryChunks{
		records:   map[string]map[int]blob.Record{},
		manifests: map[string]blob.Manifest{},
		failAt:    -1,
	}
}

func (m *memoryChunks) PutChunk(_ context.Context, piece chunk.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if piece.Index == m.failAt {
		return apperr.TransientNetwork(errors.New("connection reset"))
	}
	if m.records[piece.ParentID] == nil {
		m.records[piece.ParentID] = map[int]blob.Record{}
	}
	m.records[piece.ParentID][piece.Index] = blob.Record{Index: piece.Index, Key: piece.Key(), Data: bytes.Clone(piece.Data)}
	m.puts = append(m.puts, piece.Index)
	if m.onPut != nil {
		m.onPut(piece.Index)
	}
	return nil
}

func (m *memoryChunks) TrimChunks(_ context.Context, bookID string, from int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for index := range m.records[bookID] {
		if index >= from {
			delete(m.records[bookID], index)
		}
	}
	return nil
}

func (m *memoryChunks) ListChunks(_ context.Context, bookID string) ([]blob.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var records []blob.Record
	for _, record := range m.records[bookID] {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Index < records[j].Index })
	return records, nil
}

func (m *memoryChunks) DeleteChunks(_ context.Context, bookID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := int64(len(m.records[bookID]))
	delete(m.records, bookID)
	return removed, nil
}

func (m *memoryChunks) SetManifest(_ context.Context, bookID string, manifest blob.Manifest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manifests[bookID] = manifest
	return nil
}

func (m *memoryChunks) Manifest(_ context.Context, bookID string) (*blob.Manifest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	manifest, ok := m.manifests[bookID]
	if !ok {
		return nil, nil
	}
	return &manifest, nil
}

type memoryMetadata struct {
	deleted []string
}

func (m *memoryMetadata) DeleteBook(_ context.Context, bookID string) error {
	m.deleted = append(m.deleted, bookID)
	return nil
}

func payload(n int) []byte {
	source := rand.New(rand.NewPCG(7, uint64(n)))
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(source.IntN(256))
	}
	return data
}

/*
TestStore_UploadDownload_BookScenario uploads 1.3 MB as three chunks and reads it back byte for byte.
*/
func TestStore_UploadDownload_BookScenario(t *testing.T) {
	ctx := context.Background()
	chunks := newMemoryChunks()
	store := blob.NewStore(chunks, &memoryMetadata{}, chunk.DefaultSize, discard)

	data := payload(1_300_000)
	require.NoError(t, store.Upload(ctx, "b1", data))

	assert.Equal(t, []int{0, 1, 2}, chunks.puts, "chunks are written sequentially in index order")
	records, err := chunks.ListChunks(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Len(t, records[0].Data, 512*1024)
	assert.Len(t, records[1].Data, 512*1024)
	assert.Len(t, records[2].Data, 1_300_000-2*512*1024)
	assert.Equal(t, "chunk_1", records[1].Key)

	manifest, err := chunks.Manifest(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 3, manifest.ChunkCount)
	assert.Equal(t, int64(1_300_000), manifest.Size)
	assert.Equal(t, blob.Digest(data), manifest.Digest)

	downloaded, err := store.Download(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, downloaded))
}

/*
TestStore_Download_MissingChunk fails when chunk 1 of 3 is absent.
*/
func TestStore_Download_MissingChunk(t *testing.T) {
	tests := []struct {
		name         string
		keepManifest bool
	}{
		{"with_manifest", true},
		{"legacy_without_manifest", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			chunks := newMemoryChunks()
			store := blob.NewStore(chunks, &memoryMetadata{}, 4, discard)

			require.NoError(t, store.Upload(ctx, "b1", []byte("abcdefghij")))
			delete(chunks.records["b1"], 1)
			if !tt.keepManifest {
				delete(chunks.manifests, "b1")
				for index, record := range chunks.records["b1"] {
					text := base64.StdEncoding.EncodeToString(record.Data)
					chunks.records["b1"][index] = blob.Record{Index: index, Key: record.Key, Text: &text}
				}
			}

			data, err := store.Download(ctx, "b1")
			assert.Nil(t, data)

			var downloadErr *blob.DownloadError
			require.ErrorAs(t, err, &downloadErr)
			assert.Equal(t, "b1", downloadErr.BookID)

			var reconstruction *chunk.ReconstructionError
			require.ErrorAs(t, err, &reconstruction)
			assert.Equal(t, []int{1}, reconstruction.Missing)

			assert.True(t, apperr.HasCode(err, apperr.CodeReconstructionFailed))
			assert.True(t, blob.IsReconstructionFailure(err))
		})
	}
}

/*
TestStore_Download_TailMissing catches an incomplete upload through the manifest.
*/
func TestStore_Download_TailMissing(t *testing.T) {
	ctx := context.Background()
	chunks := newMemoryChunks()
	store := blob.NewStore(chunks, &memoryMetadata{}, 4, discard)

	require.NoError(t, store.Upload(ctx, "b1", []byte("abcdefghij")))
	delete(chunks.records["b1"], 2)

	_, err := store.Download(ctx, "b1")
	var reconstruction *chunk.ReconstructionError
	require.ErrorAs(t, err, &reconstruction)
	assert.Equal(t, []int{2}, reconstruction.Missing)
}

/*
TestStore_Download_DigestMismatch rejects tampered content.
*/
func TestStore_Download_DigestMismatch(t *testing.T) {
	ctx := context.Background()
	chunks := newMemoryChunks()
	store := blob.NewStore(chunks, &memoryMetadata{}, 4, discard)

	require.NoError(t, store.Upload(ctx, "b1", []byte("abcdefghij")))
	chunks.records["b1"][0] = blob.Record{Index: 0, Key: "chunk_0", Data: []byte("ABCD")}

	_, err := store.Download(ctx, "b1")
	var mismatch *blob.DigestMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.True(t, blob.IsReconstructionFailure(err))
}

/*
TestStore_Download_LegacyText decodes manifest-less base64 text chunks.
*/
func TestStore_Download_LegacyText(t *testing.T) {
	ctx := context.Background()
	chunks := newMemoryChunks()
	store := blob.NewStore(chunks, &memoryMetadata{}, 4, discard)

	first := base64.StdEncoding.EncodeToString([]byte("abcd"))
	second := base64.StdEncoding.EncodeToString([]byte("ef"))
	chunks.records["legacy"] = map[int]blob.Record{
		0: {Index: 0, Key: "chunk_0", Text: &first},
		1: {Index: 1, Key: "chunk_1", Text: &second},
	}

	data, err := store.Download(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, []byte("abcdef"), data)
}

/*
TestStore_Download_BinaryWithoutManifest refuses binary chunks that no manifest vouches for.
*/
func TestStore_Download_BinaryWithoutManifest(t *testing.T) {
	ctx := context.Background()
	chunks := newMemoryChunks()
	store := blob.NewStore(chunks, &memoryMetadata{}, 4, discard)

	first := base64.StdEncoding.EncodeToString([]byte("abcd"))
	chunks.records["b1"] = map[int]blob.Record{
		0: {Index: 0, Key: "chunk_0", Text: &first},
		1: {Index: 1, Key: "chunk_1", Data: []byte("ef")},
	}

	data, err := store.Download(ctx, "b1")
	assert.Nil(t, data)
	assert.True(t, blob.IsReconstructionFailure(err))
}

/*
TestStore_Download_InterruptedUpload never returns the prefix an interrupted upload left behind.
*/
func TestStore_Download_InterruptedUpload(t *testing.T) {
	ctx := context.Background()
	chunks := newMemoryChunks()
	chunks.failAt = 2
	store := blob.NewStore(chunks, &memoryMetadata{}, 4, discard)

	require.Error(t, store.Upload(ctx, "b1", []byte("abcdefghij")))
	require.Equal(t, []int{0, 1}, chunks.puts)

	data, err := store.Download(ctx, "b1")
	assert.Nil(t, data)
	var downloadErr *blob.DownloadError
	require.ErrorAs(t, err, &downloadErr)
	assert.True(t, blob.IsReconstructionFailure(err))
}

/*
TestStore_Download_InterruptedReupload does not serve a half-replaced payload.
*/
func TestStore_Download_InterruptedReupload(t *testing.T) {
	ctx := context.Background()
	chunks := newMemoryChunks()
	store := blob.NewStore(chunks, &memoryMetadata{}, 4, discard)

	require.NoError(t, store.Upload(ctx, "b1", []byte("abcdefghij")))
	chunks.failAt = 1
	require.Error(t, store.Upload(ctx, "b1", []byte("ABCDEFGHIJ")))

	_, err := store.Download(ctx, "b1")
	assert.True(t, blob.IsReconstructionFailure(err))
}

/*
TestStore_Download_Nothing reports absent content as not found.
*/
func TestStore_Download_Nothing(t *testing.T) {
	store := blob.NewStore(newMemoryChunks(), &memoryMetadata{}, 4, discard)

	_, err := store.Download(context.Background(), "ghost")
	var downloadErr *blob.DownloadError
	require.ErrorAs(t, err, &downloadErr)
	assert.True(t, apperr.IsNotFound(err))
	assert.False(t, blob.IsReconstructionFailure(err))
}

/*
TestStore_Upload_Empty records an empty manifest that downloads as empty content.
*/
func TestStore_Upload_Empty(t *testing.T) {
	ctx := context.Background()
	chunks := newMemoryChunks()
	store := blob.NewStore(chunks, &memoryMetadata{}, 4, discard)

	require.NoError(t, store.Upload(ctx, "empty", nil))
	assert.Empty(t, chunks.puts)

	data, err := store.Download(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, data)
}

/*
TestStore_Upload_StopsOnFailure does not write later chunks and leaves the manifest pending.
*/
func TestStore_Upload_StopsOnFailure(t *testing.T) {
	ctx := context.Background()
	chunks := newMemoryChunks()
	chunks.failAt = 1
	store := blob.NewStore(chunks, &memoryMetadata{}, 4, discard)

	err := store.Upload(ctx, "b1", []byte("abcdefghij"))
	assert.True(t, apperr.HasCode(err, apperr.CodeTransientNetwork))
	assert.Equal(t, []int{0}, chunks.puts)

	manifest, _ := chunks.Manifest(ctx, "b1")
	require.NotNil(t, manifest)
	assert.True(t, manifest.Pending())
	assert.Equal(t, 3, manifest.ChunkCount)
}

/*
TestStore_Upload_Cancellation stops at a chunk boundary.
*/
func TestStore_Upload_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	chunks := newMemoryChunks()
	chunks.onPut = func(index int) {
		if index == 0 {
			cancel()
		}
	}
	store := blob.NewStore(chunks, &memoryMetadata{}, 4, discard)

	err := store.Upload(ctx, "b1", []byte("abcdefghij"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int{0}, chunks.puts)
}

/*
TestStore_Upload_TrimsStaleTail removes chunks left by a longer earlier upload.
*/
func TestStore_Upload_TrimsStaleTail(t *testing.T) {
	ctx := context.Background()
	chunks := newMemoryChunks()
	store := blob.NewStore(chunks, &memoryMetadata{}, 4, discard)

	require.NoError(t, store.Upload(ctx, "b1", []byte("abcdefghijkl")))
	require.NoError(t, store.Upload(ctx, "b1", []byte("xyz")))

	data, err := store.Download(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, []byte("xyz"), data)
}

/*
TestStore_DeleteAndPurge keeps metadata deletion and chunk purge separate.
*/
func TestStore_DeleteAndPurge(t *testing.T) {
	ctx := context.Background()
	chunks := newMemoryChunks()
	metadata := &memoryMetadata{}
	store := blob.NewStore(chunks, metadata, 4, discard)

	require.NoError(t, store.Upload(ctx, "b1", []byte("abcdefghij")))

	require.NoError(t, store.Delete(ctx, "b1"))
	assert.Equal(t, []string{"b1"}, metadata.deleted)
	records, _ := chunks.ListChunks(ctx, "b1")
	assert.Len(t, records, 3, "metadata delete does not cascade")

	require.NoError(t, store.PurgeChunks(ctx, "b1"))
	records, _ = chunks.ListChunks(ctx, "b1")
	assert.Empty(t, records)
}
