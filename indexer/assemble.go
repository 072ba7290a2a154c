package indexer

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/lichun/polisearch/document"
)

// Table regions are detected on a 200 dpi raster while text blocks carry PDF
// point coordinates (72 dpi), so table boxes shrink by this factor before
// intersection testing.
const tableToTextScale = 72.0 / 200.0

// AssemblePages builds one PageContent per non-empty page from the OCR
// output. The text extractor and the table extractor both report table
// content, so any text block overlapping a table box is dropped rather than
// duplicated; the surviving blocks keep their source order. Rendered tables
// are appended after the page's free text. Page numbers in the output are
// 1-based. An empty document yields an empty (non-nil) slice.
func AssemblePages(filename string, texts map[int][]document.TextBlock, tables map[int][]document.TableFragment, logger *slog.Logger) []document.PageContent {
	pages := make([]document.PageContent, 0)

	maxPage := -1
	for p := range texts {
		if p > maxPage {
			maxPage = p
		}
	}
	for p := range tables {
		if p > maxPage {
			maxPage = p
		}
	}

	for pageNum := 0; pageNum <= maxPage; pageNum++ {
		var parts []string

		pageTables := tables[pageNum]
		tableBoxes := make([]document.BBox, 0, len(pageTables))
		for _, t := range pageTables {
			if t.Malformed() {
				logger.Warn("Skipping malformed table during page assembly",
					slog.String("filename", filename),
					slog.Int("page", pageNum+1))
				continue
			}
			tableBoxes = append(tableBoxes, t.BBox.Scaled(tableToTextScale))
		}

		var textParts []string
		for _, block := range texts[pageNum] {
			if intersectsAny(block.BBox, tableBoxes) {
				continue
			}
			text := strings.TrimSpace(block.Text)
			if text != "" {
				textParts = append(textParts, text)
			}
		}
		if len(textParts) > 0 {
			parts = append(parts, strings.Join(textParts, " "))
		}

		tableIdx := 0
		for _, t := range pageTables {
			if t.Malformed() {
				continue
			}
			tableIdx++
			parts = append(parts, renderTable(t, tableIdx))
		}

		content := strings.Join(parts, "\n")
		if strings.TrimSpace(content) == "" {
			continue
		}
		pages = append(pages, document.PageContent{
			Filename: filename,
			Page:     pageNum + 1,
			Content:  content,
		})
	}

	return pages
}

func intersectsAny(b document.BBox, boxes []document.BBox) bool {
	for _, box := range boxes {
		if b.Intersects(box) {
			return true
		}
	}
	return false
}

// renderTable prints a table as delimited text between explicit markers, one
// row per line with cells joined by tabs and no index column.
func renderTable(t document.TableFragment, number int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("--- 表格 %d START ---\n", number))

	var lines []string
	if len(t.Columns) > 0 {
		lines = append(lines, strings.Join(t.Columns, "\t"))
	}
	for _, idx := range sortedRowKeys(t.Rows) {
		lines = append(lines, strings.Join(t.Rows[idx], "\t"))
	}
	sb.WriteString(strings.Join(lines, "\n"))

	sb.WriteString("\n--- 表格 END ---")
	return sb.String()
}

func sortedRowKeys(rows map[int][]string) []int {
	keys := make([]int, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
