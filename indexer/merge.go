package indexer

import (
	"log/slog"
	"sort"

	"github.com/lichun/polisearch/document"
)

// Table detection splits one logical table whenever a rule line or a page
// artifact interrupts it. Two fragments are considered halves of the same
// table when they sit within this vertical gap of each other, their column
// counts differ by at most one, and their left edges line up within this
// horizontal tolerance. Units are the raw table-extraction coordinate space,
// before any scale normalization.
const (
	mergeMaxVerticalGap   = 100.0
	mergeMaxLeftEdgeDelta = 100.0
	mergeMaxColumnDelta   = 1
)

// MergeTablesByPosition folds vertically adjacent fragments on each page into
// single tables. The scan is a single greedy top-to-bottom pass over the
// fragments sorted by top edge: each fragment is only compared with its
// immediate successor, and a merged pair is not reconsidered against what
// follows. Chains of three or more fragments therefore merge pairwise at
// best; downstream chunking depends on that exact behavior, so don't "fix"
// it.
func MergeTablesByPosition(tables map[int][]document.TableFragment, logger *slog.Logger) map[int][]document.TableFragment {
	merged := make(map[int][]document.TableFragment, len(tables))

	for pageNum, fragments := range tables {
		valid := make([]document.TableFragment, 0, len(fragments))
		for _, frag := range fragments {
			if frag.Malformed() {
				logger.Warn("Skipping malformed table fragment",
					slog.Int("page", pageNum),
					slog.Float64("x1", frag.BBox.X1),
					slog.Float64("y1", frag.BBox.Y1))
				continue
			}
			valid = append(valid, frag)
		}

		sorted := make([]document.TableFragment, len(valid))
		copy(sorted, valid)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].BBox.Y1 < sorted[j].BBox.Y1
		})

		// Pages whose fragments were all filtered keep an explicit empty
		// list rather than nil.
		mergedList := make([]document.TableFragment, 0, len(sorted))
		i := 0
		for i < len(sorted) {
			current := sorted[i]
			if i+1 < len(sorted) {
				next := sorted[i+1]
				if shouldMerge(current, next) {
					mergedList = append(mergedList, mergeFragments(current, next))
					i += 2
					continue
				}
			}
			mergedList = append(mergedList, current)
			i++
		}
		merged[pageNum] = mergedList
	}

	return merged
}

func shouldMerge(current, next document.TableFragment) bool {
	yGap := next.BBox.Y1 - current.BBox.Y2
	columnDelta := current.ColumnCount() - next.ColumnCount()
	if columnDelta < 0 {
		columnDelta = -columnDelta
	}
	leftDelta := current.BBox.X1 - next.BBox.X1
	if leftDelta < 0 {
		leftDelta = -leftDelta
	}
	return yGap < mergeMaxVerticalGap &&
		columnDelta <= mergeMaxColumnDelta &&
		leftDelta < mergeMaxLeftEdgeDelta
}

func mergeFragments(current, next document.TableFragment) document.TableFragment {
	rows := make(map[int][]string, len(current.Rows)+len(next.Rows))
	for idx, row := range current.Rows {
		rows[idx] = row
	}
	offset := len(current.Rows)
	for idx, row := range next.Rows {
		rows[idx+offset] = row
	}

	bbox := document.BBox{
		X1: minFloat(current.BBox.X1, next.BBox.X1),
		Y1: current.BBox.Y1,
		X2: maxFloat(current.BBox.X2, next.BBox.X2),
		Y2: next.BBox.Y2,
	}

	title := current.Title
	if title != "" && next.Title != "" {
		title = current.Title + " " + next.Title
	} else if next.Title != "" {
		title = next.Title
	}

	columns := current.Columns
	if len(columns) == 0 {
		columns = next.Columns
	}

	return document.TableFragment{
		BBox:    bbox,
		Title:   title,
		Columns: columns,
		Rows:    rows,
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
