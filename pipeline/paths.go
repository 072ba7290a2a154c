package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FolderPaths holds every derived location for one document folder. The
// folder name doubles as the collection suffix, so a folder of claim forms
// named "form" feeds collections chunk_form and summary_form.
type FolderPaths struct {
	PDFDirectory         string
	JSONDirectory        string
	ChunkedJSONDirectory string
	SummaryJSONDirectory string

	OCRLogDirectory     string
	ChunkLogDirectory   string
	SummaryLogDirectory string
	EmbedLogDirectory   string

	ChunkCollection   string
	SummaryCollection string
}

func NewFolderPaths(baseDir, folderName string) FolderPaths {
	pdfDir := filepath.Join(baseDir, folderName)
	return FolderPaths{
		PDFDirectory:         pdfDir,
		JSONDirectory:        filepath.Join(pdfDir, "json_files"),
		ChunkedJSONDirectory: filepath.Join(pdfDir, "chunked_json_files"),
		SummaryJSONDirectory: filepath.Join(pdfDir, "summary_json_files"),
		OCRLogDirectory:      filepath.Join(pdfDir, "logs", "ocr_logs"),
		ChunkLogDirectory:    filepath.Join(pdfDir, "logs", "chunk_logs"),
		SummaryLogDirectory:  filepath.Join(pdfDir, "logs", "summary_logs"),
		EmbedLogDirectory:    filepath.Join(pdfDir, "logs", "embed_logs"),
		ChunkCollection:      "chunk_" + folderName,
		SummaryCollection:    "summary_" + folderName,
	}
}

// OCRLogPath is the resume log for the indexer pipeline.
func (p FolderPaths) OCRLogPath() string {
	return filepath.Join(p.OCRLogDirectory, "indexer_ocr.log")
}

func (p FolderPaths) ChunkLogPath() string {
	return filepath.Join(p.ChunkLogDirectory, "indexer_chunk.log")
}

func (p FolderPaths) EmbedLogPath() string {
	return filepath.Join(p.EmbedLogDirectory, "indexer_embed.log")
}

// SummaryLogPath is the resume log for the summary pipeline.
func (p FolderPaths) SummaryLogPath() string {
	return filepath.Join(p.SummaryLogDirectory, "summary.log")
}

func (p FolderPaths) SummaryEmbedLogPath() string {
	return filepath.Join(p.EmbedLogDirectory, "summary_embed.log")
}

// ListFolders returns the document folders under baseDir, skipping hidden
// entries. Order follows the directory listing.
func ListFolders(baseDir string) ([]string, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read base directory %s: %w", baseDir, err)
	}
	var folders []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			folders = append(folders, e.Name())
		}
	}
	return folders, nil
}

// ListFilesWithExt returns the filenames in dir whose extension matches one
// of exts (case-insensitive, with leading dot). Order follows the directory
// listing; the resume log, not ordering, is what makes re-runs safe.
func ListFilesWithExt(dir string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range exts {
			if ext == want {
				files = append(files, e.Name())
				break
			}
		}
	}
	return files, nil
}
