// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package library

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// maxCoverBytes bounds the cover embedded into the metadata record as a data URL.
const maxCoverBytes = 256 * 1024

// ErrNotEPUB is returned when an upload is not a readable EPUB container.
var ErrNotEPUB = errors.New("library: not an EPUB container")

// BookInfo is what an EPUB says about itself.
type BookInfo struct {
	Title  string
	Author string
	// CoverURL is a data URL of the cover image, empty when there is none.
	CoverURL string
}

type container struct {
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

type opfPackage struct {
	Metadata struct {
		Title   []string `xml:"title"`
		Creator []string `xml:"creator"`
		Meta    []struct {
			Name    string `xml:"name,attr"`
			Content string `xml:"content,attr"`
		} `xml:"meta"`
	} `xml:"metadata"`
	Manifest struct {
		Item []struct {
			ID         string `xml:"id,attr"`
			Href       string `xml:"href,attr"`
			MediaType  string `xml:"media-type,attr"`
			Properties string `xml:"properties,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
}

/*
ParseEPUB reads the package document of an EPUB held in memory.

The package document is located through META-INF/container.xml, or the first
.opf entry when the container file is missing. The first title and creator
are used. The cover comes from the EPUB 3 cover-image property or the EPUB 2
cover meta element, and is dropped when larger than 256 KiB.
*/
func ParseEPUB(data []byte) (BookInfo, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return BookInfo{}, fmt.Errorf("%w: %v", ErrNotEPUB, err)
	}

	files := make(map[string]*zip.File, len(archive.File))
	for _, file := range archive.File {
		files[file.Name] = file
	}

	opfPath, err := locatePackage(files, archive.File)
	if err != nil {
		return BookInfo{}, err
	}

	raw, err := readEntry(files[opfPath], -1)
	if err != nil {
		return BookInfo{}, fmt.Errorf("%w: read %s: %v", ErrNotEPUB, opfPath, err)
	}

	var pkg opfPackage
	if err := xml.Unmarshal(raw, &pkg); err != nil {
		return BookInfo{}, fmt.Errorf("%w: parse %s: %v", ErrNotEPUB, opfPath, err)
	}

	info := BookInfo{
		Title:  firstNonBlank(pkg.Metadata.Title),
		Author: firstNonBlank(pkg.Metadata.Creator),
	}

	// Manifest hrefs are relative to the package document.
	if href, mediaType := coverItem(pkg); href != "" {
		if cover, ok := files[path.Join(path.Dir(opfPath), href)]; ok {
			if image, err := readEntry(cover, maxCoverBytes); err == nil {
				info.CoverURL = "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(image)
			}
		}
	}

	return info, nil
}

func locatePackage(files map[string]*zip.File, ordered []*zip.File) (string, error) {
	if file, ok := files["META-INF/container.xml"]; ok {
		raw, err := readEntry(file, -1)
		if err == nil {
			var parsed container
			if xml.Unmarshal(raw, &parsed) == nil {
				for _, rootfile := range parsed.Rootfiles {
					if _, ok := files[rootfile.FullPath]; ok {
						return rootfile.FullPath, nil
					}
				}
			}
		}
	}

	for _, file := range ordered {
		if strings.EqualFold(path.Ext(file.Name), ".opf") {
			return file.Name, nil
		}
	}
	return "", fmt.Errorf("%w: no package document", ErrNotEPUB)
}

func coverItem(pkg opfPackage) (string, string) {
	coverID := ""
	for _, meta := range pkg.Metadata.Meta {
		if meta.Name == "cover" {
			coverID = meta.Content
		}
	}

	for _, item := range pkg.Manifest.Item {
		if strings.Contains(" "+item.Properties+" ", " cover-image ") || (coverID != "" && item.ID == coverID) {
			return item.Href, item.MediaType
		}
	}
	return "", ""
}

// readEntry reads a zip entry. A non-negative limit rejects larger entries.
func readEntry(file *zip.File, limit int64) ([]byte, error) {
	if limit >= 0 && file.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("%s exceeds %d bytes", file.Name, limit)
	}

	reader, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	if limit < 0 {
		return io.ReadAll(reader)
	}
	return io.ReadAll(io.LimitReader(reader, limit))
}

func firstNonBlank(values []string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
