package indexer_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/lichun/polisearch/document"
	"github.com/lichun/polisearch/indexer"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMergeTablesByPosition(t *testing.T) {
	twoColRows := func(cells ...[]string) map[int][]string {
		rows := make(map[int][]string, len(cells))
		for i, c := range cells {
			rows[i] = c
		}
		return rows
	}

	tests := []struct {
		name      string
		fragments []document.TableFragment
		wantCount int
	}{
		{
			name: "Adjacent fragments merge",
			fragments: []document.TableFragment{
				{
					BBox:    document.BBox{X1: 50, Y1: 100, X2: 500, Y2: 300},
					Columns: []string{"項目", "金額"},
					Rows:    twoColRows([]string{"保費", "1000"}, []string{"利息", "20"}),
				},
				{
					BBox: document.BBox{X1: 55, Y1: 350, X2: 505, Y2: 500},
					Rows: twoColRows([]string{"合計", "1020"}),
				},
			},
			wantCount: 1,
		},
		{
			name: "Vertical gap too large",
			fragments: []document.TableFragment{
				{
					BBox:    document.BBox{X1: 50, Y1: 100, X2: 500, Y2: 300},
					Columns: []string{"項目", "金額"},
					Rows:    twoColRows([]string{"保費", "1000"}),
				},
				{
					BBox: document.BBox{X1: 50, Y1: 450, X2: 500, Y2: 600},
					Rows: twoColRows([]string{"合計", "1020"}),
				},
			},
			wantCount: 2,
		},
		{
			name: "Column counts too different",
			fragments: []document.TableFragment{
				{
					BBox:    document.BBox{X1: 50, Y1: 100, X2: 500, Y2: 300},
					Columns: []string{"項目", "金額", "幣別", "備註"},
					Rows:    twoColRows([]string{"保費", "1000", "TWD", ""}),
				},
				{
					BBox: document.BBox{X1: 50, Y1: 350, X2: 500, Y2: 500},
					Rows: twoColRows([]string{"合計", "1020"}),
				},
			},
			wantCount: 2,
		},
		{
			name: "Left edges misaligned",
			fragments: []document.TableFragment{
				{
					BBox:    document.BBox{X1: 50, Y1: 100, X2: 500, Y2: 300},
					Columns: []string{"項目", "金額"},
					Rows:    twoColRows([]string{"保費", "1000"}),
				},
				{
					BBox: document.BBox{X1: 200, Y1: 350, X2: 650, Y2: 500},
					Rows: twoColRows([]string{"合計", "1020"}),
				},
			},
			wantCount: 2,
		},
		{
			// Three mutually mergeable fragments: the greedy pass merges
			// the first pair and leaves the third alone.
			name: "Chain of three merges pairwise only",
			fragments: []document.TableFragment{
				{
					BBox:    document.BBox{X1: 50, Y1: 100, X2: 500, Y2: 300},
					Columns: []string{"項目", "金額"},
					Rows:    twoColRows([]string{"保費", "1000"}),
				},
				{
					BBox: document.BBox{X1: 50, Y1: 350, X2: 500, Y2: 500},
					Rows: twoColRows([]string{"利息", "20"}),
				},
				{
					BBox: document.BBox{X1: 50, Y1: 550, X2: 500, Y2: 700},
					Rows: twoColRows([]string{"合計", "1020"}),
				},
			},
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := indexer.MergeTablesByPosition(
				map[int][]document.TableFragment{0: tt.fragments}, discardLogger())
			if got := len(merged[0]); got != tt.wantCount {
				t.Fatalf("got %d tables, want %d", got, tt.wantCount)
			}
		})
	}
}

func TestMergeTablesByPositionCombinesRows(t *testing.T) {
	tables := map[int][]document.TableFragment{
		0: {
			{
				BBox:    document.BBox{X1: 50, Y1: 100, X2: 500, Y2: 300},
				Title:   "保費明細",
				Columns: []string{"項目", "金額"},
				Rows: map[int][]string{
					0: {"保費", "1000"},
					1: {"利息", "20"},
				},
			},
			{
				BBox:  document.BBox{X1: 55, Y1: 350, X2: 510, Y2: 500},
				Title: "續",
				Rows: map[int][]string{
					0: {"合計", "1020"},
				},
			},
		},
	}

	merged := indexer.MergeTablesByPosition(tables, discardLogger())
	if len(merged[0]) != 1 {
		t.Fatalf("got %d tables, want 1", len(merged[0]))
	}

	table := merged[0][0]
	if len(table.Rows) != 3 {
		t.Errorf("got %d rows, want 3", len(table.Rows))
	}
	if got := table.Rows[2]; len(got) != 2 || got[0] != "合計" {
		t.Errorf("appended row not re-indexed after existing rows: %v", got)
	}
	if table.Title != "保費明細 續" {
		t.Errorf("got title %q, want titles joined with a space", table.Title)
	}
	want := document.BBox{X1: 50, Y1: 100, X2: 510, Y2: 500}
	if table.BBox != want {
		t.Errorf("got bbox %+v, want %+v", table.BBox, want)
	}
	if len(table.Columns) != 2 {
		t.Errorf("merged table lost its header: %v", table.Columns)
	}
}

func TestMergeTablesByPositionKeepsEmptyPages(t *testing.T) {
	tables := map[int][]document.TableFragment{
		0: {},
		1: {{BBox: document.BBox{X1: 50, Y1: 100, X2: 50, Y2: 300}, Rows: map[int][]string{0: {"孤"}}}},
	}

	merged := indexer.MergeTablesByPosition(tables, discardLogger())
	for _, page := range []int{0, 1} {
		list, ok := merged[page]
		if !ok || list == nil {
			t.Errorf("page %d: want an explicit empty list, got %v (present %v)", page, list, ok)
		}
		if len(list) != 0 {
			t.Errorf("page %d: got %d tables, want 0", page, len(list))
		}
	}
}

func TestMergeTablesByPositionSkipsMalformed(t *testing.T) {
	tables := map[int][]document.TableFragment{
		0: {
			{BBox: document.BBox{X1: 50, Y1: 100, X2: 50, Y2: 300}, Rows: map[int][]string{0: {"孤"}}},
			{BBox: document.BBox{X1: 50, Y1: 100, X2: 500, Y2: 300}},
			{
				BBox:    document.BBox{X1: 50, Y1: 400, X2: 500, Y2: 600},
				Columns: []string{"項目"},
				Rows:    map[int][]string{0: {"保費"}},
			},
		},
	}

	merged := indexer.MergeTablesByPosition(tables, discardLogger())
	if len(merged[0]) != 1 {
		t.Fatalf("got %d tables, want only the well-formed one", len(merged[0]))
	}
	if merged[0][0].Columns[0] != "項目" {
		t.Errorf("wrong fragment survived: %+v", merged[0][0])
	}
}
