package indexer_test

import (
	"strings"
	"testing"

	"github.com/lichun/polisearch/document"
	"github.com/lichun/polisearch/indexer"
)

func TestAssemblePages(t *testing.T) {
	texts := map[int][]document.TextBlock{
		0: {
			// Falls inside the scaled table region and must be dropped.
			{BBox: document.BBox{X1: 20, Y1: 20, X2: 60, Y2: 60}, Text: "項目 金額"},
			{BBox: document.BBox{X1: 300, Y1: 300, X2: 400, Y2: 340}, Text: "投保須知"},
		},
		1: {
			{BBox: document.BBox{X1: 10, Y1: 10, X2: 100, Y2: 40}, Text: "第二頁說明"},
		},
	}
	tables := map[int][]document.TableFragment{
		0: {
			{
				// 200 dpi coordinates; scales to (0,0)-(180,180) in text space.
				BBox:    document.BBox{X1: 0, Y1: 0, X2: 500, Y2: 500},
				Columns: []string{"項目", "金額"},
				Rows:    map[int][]string{0: {"保費", "1000"}},
			},
		},
	}

	pages := indexer.AssemblePages("policy.pdf", texts, tables, discardLogger())
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}

	first := pages[0]
	if first.Page != 1 {
		t.Errorf("got page %d, want 1-based page 1", first.Page)
	}
	if first.Filename != "policy.pdf" {
		t.Errorf("got filename %q", first.Filename)
	}
	if strings.Contains(first.Content, "項目 金額") {
		t.Errorf("text overlapping the table was not dropped: %q", first.Content)
	}
	if !strings.Contains(first.Content, "投保須知") {
		t.Errorf("free text outside the table is missing: %q", first.Content)
	}
	if !strings.Contains(first.Content, "--- 表格 1 START ---") ||
		!strings.Contains(first.Content, "--- 表格 END ---") {
		t.Errorf("table markers missing: %q", first.Content)
	}
	if !strings.Contains(first.Content, "項目\t金額") || !strings.Contains(first.Content, "保費\t1000") {
		t.Errorf("table rows not rendered tab-delimited: %q", first.Content)
	}

	if pages[1].Page != 2 || !strings.Contains(pages[1].Content, "第二頁說明") {
		t.Errorf("second page wrong: %+v", pages[1])
	}
}

func TestAssemblePagesEmptyDocument(t *testing.T) {
	pages := indexer.AssemblePages("empty.pdf", nil, nil, discardLogger())
	if pages == nil {
		t.Fatal("want a non-nil empty slice for an empty document")
	}
	if len(pages) != 0 {
		t.Fatalf("got %d pages, want 0", len(pages))
	}
}

func TestAssemblePagesSkipsBlankPages(t *testing.T) {
	texts := map[int][]document.TextBlock{
		0: {{BBox: document.BBox{X1: 10, Y1: 10, X2: 50, Y2: 30}, Text: "   "}},
		2: {{BBox: document.BBox{X1: 10, Y1: 10, X2: 50, Y2: 30}, Text: "第三頁"}},
	}

	pages := indexer.AssemblePages("sparse.pdf", texts, nil, discardLogger())
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	if pages[0].Page != 3 {
		t.Errorf("got page %d, want 3", pages[0].Page)
	}
}
