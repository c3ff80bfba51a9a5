// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library_test

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/lector/internal/core/library"
)

type epubOptions struct {
	title        string
	author       string
	cover        []byte
	skipManifest bool
}

// buildEPUB writes a minimal EPUB 3 container in memory.
func buildEPUB(t *testing.T, options epubOptions) []byte {
	t.Helper()

	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)

	write := func(name, content string) {
		entry, err := writer.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}

	mimetype, err := writer.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	require.NoError(t, err)
	_, err = mimetype.Write([]byte("application/epub+zip"))
	require.NoError(t, err)

	if !options.skipManifest {
		write("META-INF/container.xml", `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`)
	}

	var metadata strings.Builder
	if options.title != "" {
		fmt.Fprintf(&metadata, "    <dc:title>%s</dc:title>\n", options.title)
	}
	if options.author != "" {
		fmt.Fprintf(&metadata, "    <dc:creator opf:role=\"aut\">%s</dc:creator>\n", options.author)
	}

	coverItem := ""
	if options.cover != nil {
		coverItem = `<item id="cover" href="images/cover.png" media-type="image/png" properties="cover-image"/>`
		entry, err := writer.Create("OEBPS/images/cover.png")
		require.NoError(t, err)
		_, err = entry.Write(options.cover)
		require.NoError(t, err)
	}

	write("OEBPS/content.opf", fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<package version="3.0" xmlns="http://www.idpf.org/2007/opf" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
%s    <dc:identifier id="bookid">urn:uuid:test</dc:identifier>
  </metadata>
  <manifest>
    <item id="c1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
    %s
  </manifest>
  <spine><itemref idref="c1"/></spine>
</package>`, metadata.String(), coverItem))

	write("OEBPS/chapter1.xhtml", `<html xmlns="http://www.w3.org/1999/xhtml"><body><p>Hi</p></body></html>`)

	require.NoError(t, writer.Close())
	return buffer.Bytes()
}

/*
TestParseEPUB reads title, author and cover from the package document.
*/
func TestParseEPUB(t *testing.T) {
	cover := []byte{0x89, 'P', 'N', 'G'}
	data := buildEPUB(t, epubOptions{title: "Dune", author: "Frank Herbert", cover: cover})

	info, err := library.ParseEPUB(data)
	require.NoError(t, err)
	assert.Equal(t, "Dune", info.Title)
	assert.Equal(t, "Frank Herbert", info.Author)
	assert.Equal(t, "data:image/png;base64,iVBORw==", info.CoverURL)
}

/*
TestParseEPUB_Fallbacks handles missing metadata and a missing container file.
*/
func TestParseEPUB_Fallbacks(t *testing.T) {
	info, err := library.ParseEPUB(buildEPUB(t, epubOptions{skipManifest: true}))
	require.NoError(t, err)
	assert.Empty(t, info.Title)
	assert.Empty(t, info.Author)
	assert.Empty(t, info.CoverURL)
}

/*
TestParseEPUB_NotAnArchive rejects arbitrary bytes.
*/
func TestParseEPUB_NotAnArchive(t *testing.T) {
	_, err := library.ParseEPUB([]byte("definitely not a zip"))
	assert.ErrorIs(t, err, library.ErrNotEPUB)
}
