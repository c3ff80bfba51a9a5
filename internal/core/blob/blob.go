// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package blob moves book content to and from the remote store as chunk records.

Upload records a pending manifest, writes chunks one at a time in index order,
and only then records the content digest. Download reads every chunk of a
book in one ordered query and refuses to return anything but the complete,
verified payload.

Deleting a book is two explicit steps: [Store.Delete] removes the metadata
record and [Store.PurgeChunks] removes the content. Nothing cascades.
*/
package blob

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Manifest describes the content recorded for a book. The digest is empty until the upload completed.
type Manifest struct {
	Digest     string
	ChunkCount int
	Size       int64
}

// Pending reports whether the upload that wrote the manifest has not finished.
func (manifest Manifest) Pending() bool { return manifest.Digest == "" }

// Record is a stored chunk as read back from the remote store.
// Exactly one of Data and Text is set; Text is the legacy base64 variant.
type Record struct {
	Index int
	Key   string
	Data  []byte
	Text  *string
}

// Digest returns the hex blake2b-256 digest of data.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DownloadError reports a download that produced no payload.
//
// Reconstruction failures are wrapped as apperr RECONSTRUCTION_FAILED, with the
// underlying [*chunk.ReconstructionError] still reachable through errors.As.
type DownloadError struct {
	BookID string
	Cause  error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("blob: download %s: %v", e.BookID, e.Cause)
}

func (e *DownloadError) Unwrap() error { return e.Cause }

// DigestMismatchError reports reassembled content that does not match its manifest.
type DigestMismatchError struct {
	Want string
	Got  string
}

func (e *DigestMismatchError) Error() string {
	return fmt.Sprintf("blob: digest mismatch: want %s, got %s", e.Want, e.Got)
}
