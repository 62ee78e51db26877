// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive extracts uploaded project zips into (path, content)
// pairs for the repository store.
//
// Extraction filters out everything that should never reach the
// upstream repository: directory entries, build output (target/),
// VCS metadata (.git/), IDE droppings, and compiled artifacts. If
// every remaining file lives under a single top-level directory — the
// common shape of a zip exported from an IDE — that wrapper directory
// is stripped so project files sit at the folder root.
package archive

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/zeebo/blake3"
)

// maxFileSize bounds a single extracted file: 10 MB. MuleSoft project
// files are text (XML flows, DataWeave scripts, RAML specs) and far
// smaller; anything bigger is a packaging mistake.
const maxFileSize = 10 << 20

// Entry is one extracted file.
type Entry struct {
	// Path is the file's path relative to the project root, with the
	// wrapper directory (if any) stripped. Always slash-separated,
	// never absolute, never containing "..".
	Path string

	// Content is the file's raw bytes.
	Content []byte
}

// excludedDirs are path prefixes (after wrapper stripping happens the
// prefixes are checked against every segment) whose contents never
// reach the store.
var excludedDirs = map[string]bool{
	"target":    true, // Maven build output
	".git":      true,
	".mule":     true, // runtime working directory
	".idea":     true,
	"__MACOSX":  true,
	".settings": true,
}

// excludedExtensions are compiled or packaged artifacts.
var excludedExtensions = map[string]bool{
	".class": true,
	".jar":   true,
	".zip":   true,
}

// excludedFiles are OS metadata files excluded by base name.
var excludedFiles = map[string]bool{
	".DS_Store": true,
	"Thumbs.db": true,
}

// Extract unpacks zip data into entries, applying the exclusion rules
// and stripping a single shared wrapper directory. Returns the entries
// and the BLAKE3 fingerprint of the extracted file set.
func Extract(data []byte) ([]Entry, string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, "", fmt.Errorf("opening archive: %w", err)
	}

	var entries []Entry
	for _, file := range reader.File {
		name := path.Clean(strings.ReplaceAll(file.Name, `\`, "/"))

		if file.FileInfo().IsDir() {
			continue
		}
		if strings.HasPrefix(name, "/") || name == ".." || strings.HasPrefix(name, "../") || strings.Contains(name, "/../") {
			return nil, "", fmt.Errorf("archive entry escapes the project root: %q", file.Name)
		}
		if excluded(name) {
			continue
		}
		if file.UncompressedSize64 > maxFileSize {
			return nil, "", fmt.Errorf("archive entry %q exceeds %d bytes", name, maxFileSize)
		}

		content, err := readEntry(file)
		if err != nil {
			return nil, "", fmt.Errorf("extracting %q: %w", name, err)
		}

		entries = append(entries, Entry{Path: name, Content: content})
	}

	if len(entries) == 0 {
		return nil, "", fmt.Errorf("archive contains no project files")
	}

	entries = stripWrapperDir(entries)

	return entries, Fingerprint(entries), nil
}

// readEntry reads one zip entry fully, bounded by maxFileSize. The
// size in the central directory is advisory; the read is bounded
// independently so a lying header cannot balloon memory.
func readEntry(file *zip.File) ([]byte, error) {
	opened, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer opened.Close()

	content, err := io.ReadAll(io.LimitReader(opened, maxFileSize+1))
	if err != nil {
		return nil, err
	}
	if len(content) > maxFileSize {
		return nil, fmt.Errorf("entry exceeds %d bytes", maxFileSize)
	}
	return content, nil
}

// excluded reports whether a cleaned entry path matches the exclusion
// rules.
func excluded(name string) bool {
	for _, segment := range strings.Split(path.Dir(name), "/") {
		if excludedDirs[segment] {
			return true
		}
	}
	base := path.Base(name)
	if excludedFiles[base] {
		return true
	}
	return excludedExtensions[strings.ToLower(path.Ext(base))]
}

// stripWrapperDir removes the shared top-level directory when every
// entry lives under the same one.
func stripWrapperDir(entries []Entry) []Entry {
	wrapper := ""
	for i, entry := range entries {
		segment, _, found := strings.Cut(entry.Path, "/")
		if !found {
			return entries // a root-level file: nothing to strip
		}
		if i == 0 {
			wrapper = segment
		} else if segment != wrapper {
			return entries
		}
	}

	stripped := make([]Entry, len(entries))
	for i, entry := range entries {
		stripped[i] = Entry{
			Path:    strings.TrimPrefix(entry.Path, wrapper+"/"),
			Content: entry.Content,
		}
	}
	return stripped
}

// fingerprintKey is the BLAKE3 keyed-hash domain for upload
// fingerprints. The bytes are the ASCII domain name zero-padded to 32
// bytes; readable in hex dumps, opaque to the hash.
var fingerprintKey = [32]byte{
	'm', 'u', 'l', 'e', 'r', 'e', 'p', 'o', '.', 'a', 'r', 'c', 'h', 'i', 'v', 'e',
	'.', 'f', 'i', 'l', 'e', 's', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Fingerprint computes a BLAKE3 keyed digest over the file set,
// independent of entry order: paths and contents are hashed in sorted
// path order with NUL separators. Two uploads with identical files
// produce identical fingerprints, which the catalog records for dedup
// diagnostics.
func Fingerprint(entries []Entry) string {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	hasher, err := blake3.NewKeyed(fingerprintKey[:])
	if err != nil {
		// NewKeyed fails only on a wrong key size, which is fixed at
		// compile time.
		panic("archive: fingerprint hasher: " + err.Error())
	}
	for _, entry := range sorted {
		hasher.Write([]byte(entry.Path))
		hasher.Write([]byte{0})
		hasher.Write(entry.Content)
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

// Build assembles a zip archive from entries. It is the inverse of
// Extract and exists mainly for tests; the service itself only extracts.
func Build(entries []Entry) ([]byte, error) {
	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)
	for _, entry := range entries {
		fileWriter, err := writer.Create(entry.Path)
		if err != nil {
			return nil, err
		}
		if _, err := fileWriter.Write(entry.Content); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
