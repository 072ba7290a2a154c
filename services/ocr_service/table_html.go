package ocr_service

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseTableHTML turns the OCR service's HTML table fragment into column
// labels and indexed body rows. A <th> row (or a <thead>) becomes the
// columns; every other <tr> becomes a body row keyed by its position.
func ParseTableHTML(html string) ([]string, map[int][]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse table HTML: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, nil, fmt.Errorf("no <table> element in fragment")
	}

	var columns []string
	rows := make(map[int][]string)
	rowIndex := 0

	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		headers := tr.Find("th")
		if headers.Length() > 0 && columns == nil {
			headers.Each(func(_ int, th *goquery.Selection) {
				columns = append(columns, cleanCell(th.Text()))
			})
			return
		}

		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, cleanCell(td.Text()))
		})
		if len(cells) == 0 {
			return
		}
		rows[rowIndex] = cells
		rowIndex++
	})

	if columns == nil && len(rows) == 0 {
		return nil, nil, fmt.Errorf("table fragment has no cells")
	}
	return columns, rows, nil
}

func cleanCell(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
