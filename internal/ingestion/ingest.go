// Package ingestion reads source pricing documents from disk into batch
// documents. It only moves bytes and sniffs MIME types; document
// understanding belongs to the extraction collaborator.
package ingestion

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mikael/pricebook/internal/types"
)

// maxDocumentSize caps a single source file at 20 MB, matching the inline
// payload limit of the extraction collaborator.
const maxDocumentSize = 20 << 20

// extensionMIMETypes maps common pricing-document extensions to MIME types.
// Content sniffing is the fallback for anything else.
var extensionMIMETypes = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".html": "text/html",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// LoadFiles reads every path into a pending document, preserving the order of
// the paths. Files are read concurrently; any single failure fails the whole
// load, because a batch must be ingested completely or not at all.
func LoadFiles(paths []string) ([]types.Document, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no document paths given")
	}

	docs := make([]types.Document, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		g.Go(func() error {
			doc, err := LoadFile(path)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return docs, nil
}

// LoadFile reads one file into a pending document.
func LoadFile(path string) (types.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.Document{}, fmt.Errorf("failed to stat document %s: %w", path, err)
	}
	if info.Size() > maxDocumentSize {
		return types.Document{}, fmt.Errorf("document %s exceeds the %d byte limit", path, maxDocumentSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return types.Document{}, fmt.Errorf("failed to read document %s: %w", path, err)
	}
	if len(content) == 0 {
		return types.Document{}, fmt.Errorf("document %s is empty", path)
	}

	return types.NewDocument(filepath.Base(path), DetectMIME(path, content), content), nil
}

// DetectMIME resolves a document's MIME type from its extension, falling back
// to content sniffing.
func DetectMIME(path string, content []byte) string {
	if mime, ok := extensionMIMETypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}
	detected := http.DetectContentType(content)
	// DetectContentType appends a charset suffix to text types; the
	// collaborator only wants the media type.
	if i := strings.Index(detected, ";"); i >= 0 {
		detected = detected[:i]
	}
	return detected
}
