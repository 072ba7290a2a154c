// Package extractor pulls text straight out of born-digital documents. It is
// the fallback path when no OCR service is configured: per-page PDF text via
// the pdf reader, and whole-document conversion for Word files. No table
// structure is recovered on this path.
package extractor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/ledongthuc/pdf"
)

type DocumentExtractor struct {
	logger *slog.Logger
}

func NewDocumentExtractor(logger *slog.Logger) *DocumentExtractor {
	return &DocumentExtractor{logger: logger}
}

// ExtractPDFPages returns the plain text of each page, indexed from zero.
// Pages that yield no text are present as empty strings so page numbering
// stays aligned with the source document.
func (e *DocumentExtractor) ExtractPDFPages(path string) ([]string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		e.logger.Error("Failed to open PDF",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to open PDF: %v", err)
	}
	defer f.Close()

	totalPage := reader.NumPage()
	pages := make([]string, 0, totalPage)
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			e.logger.Warn("Null page encountered",
				slog.Int("page_number", pageIndex))
			pages = append(pages, "")
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Error("Failed to extract text from page",
				slog.Int("page_number", pageIndex),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to extract text from page %d: %v", pageIndex, err)
		}
		pages = append(pages, strings.TrimSpace(text))
	}

	e.logger.Info("Extracted digital PDF text",
		slog.String("path", path),
		slog.Int("total_pages", totalPage))
	return pages, nil
}

var wordMimeTypes = map[string]string{
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ExtractWordText converts a .doc/.docx file to plain text. Word documents
// have no stable page boundaries, so the result is a single block.
func (e *DocumentExtractor) ExtractWordText(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mimeType, ok := wordMimeTypes[ext]
	if !ok {
		return "", fmt.Errorf("unsupported file type: %s", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open document: %v", err)
	}
	defer f.Close()

	result, err := docconv.Convert(f, mimeType, false)
	if err != nil {
		e.logger.Error("Failed to convert Word document",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("failed to convert Word document: %v", err)
	}
	if len(result.Body) == 0 {
		return "", fmt.Errorf("no text content extracted from Word document")
	}

	e.logger.Info("Extracted Word document text",
		slog.String("path", path),
		slog.Int("text_length", len(result.Body)))
	return result.Body, nil
}
