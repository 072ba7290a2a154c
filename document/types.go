package document

// PageContent is one page of extracted document text, tables already rendered
// inline. It is the unit the OCR stage persists and the chunker consumes.
type PageContent struct {
	Filename string `json:"filename"`
	Page     int    `json:"page"`
	Content  string `json:"content"`
}

// Chunk is a bounded slice of page content, the retrieval granule for
// chunk-level search.
type Chunk struct {
	Filename string `json:"filename"`
	Page     int    `json:"page"`
	Content  string `json:"content"`
}

// BBox is an axis-aligned bounding box in the coordinate space of whichever
// extractor produced it. X1/Y1 is the top-left corner.
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Intersects reports whether the two boxes overlap.
func (b BBox) Intersects(o BBox) bool {
	return b.X1 < o.X2 && o.X1 < b.X2 && b.Y1 < o.Y2 && o.Y1 < b.Y2
}

// Empty reports whether the box has no area.
func (b BBox) Empty() bool {
	return b.X2 <= b.X1 || b.Y2 <= b.Y1
}

// Scaled returns the box with every coordinate multiplied by factor.
func (b BBox) Scaled(factor float64) BBox {
	return BBox{X1: b.X1 * factor, Y1: b.Y1 * factor, X2: b.X2 * factor, Y2: b.Y2 * factor}
}

// TextBlock is a positioned run of free text on a page, in the text
// extractor's coordinate space and original top-to-bottom order.
type TextBlock struct {
	BBox BBox   `json:"bbox"`
	Text string `json:"text"`
}

// TableFragment is one detected table region. Rows are keyed by row index so
// merged fragments can re-index the appended rows without reordering them.
type TableFragment struct {
	BBox    BBox
	Title   string
	Columns []string
	Rows    map[int][]string
}

// ColumnCount is the width used for merge eligibility: the header width when
// one was detected, otherwise the widest body row.
func (t TableFragment) ColumnCount() int {
	if len(t.Columns) > 0 {
		return len(t.Columns)
	}
	max := 0
	for _, row := range t.Rows {
		if len(row) > max {
			max = len(row)
		}
	}
	return max
}

// Malformed reports whether the fragment cannot participate in merging or
// rendering: a zero-area bbox or no cells at all.
func (t TableFragment) Malformed() bool {
	return t.BBox.Empty() || t.ColumnCount() == 0
}

// SummaryRecord is the structured output of the document summarizer. When the
// model output fails to parse, Error and RawOutput are set instead of the
// structured fields.
type SummaryRecord struct {
	Title     string   `json:"title,omitempty"`
	FileType  string   `json:"file_type,omitempty"`
	Metadata  []string `json:"metadata,omitempty"`
	Intent    []string `json:"intent,omitempty"`
	Summary   string   `json:"summary,omitempty"`
	Filename  string   `json:"filename"`
	Error     string   `json:"error,omitempty"`
	RawOutput string   `json:"raw_output,omitempty"`
}
