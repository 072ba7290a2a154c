package indexer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lichun/polisearch/document"
)

// WritePagesJSON persists the OCR stage output. An empty page list is
// written as an explicit empty array so downstream stages can tell "empty
// document" apart from "never extracted".
func WritePagesJSON(path string, pages []document.PageContent) error {
	if pages == nil {
		pages = []document.PageContent{}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create JSON output directory: %w", err)
	}
	data, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal page JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write page JSON %s: %w", path, err)
	}
	return nil
}

// ReadPagesJSON loads an OCR stage output file.
func ReadPagesJSON(path string) ([]document.PageContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page JSON %s: %w", path, err)
	}
	var pages []document.PageContent
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("failed to parse page JSON %s: %w", path, err)
	}
	return pages, nil
}
