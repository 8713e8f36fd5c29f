// Package render provides aligned, colored terminal output for dbtctl.
package render

import (
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"
)

// Table renders rows of cells with columns padded to their widest value.
// Cell widths are measured with runewidth so wide characters align too.
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// AddRow appends a row. Missing cells render empty; extra cells are kept
// and widen the table.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// String renders the table with a header row and underline.
func (t *Table) String() string {
	widths := t.columnWidths()

	var b strings.Builder
	writeRow(&b, t.headers, widths)
	writeRule(&b, widths)
	for _, row := range t.rows {
		writeRow(&b, row, widths)
	}
	return b.String()
}

func (t *Table) columnWidths() []int {
	cols := len(t.headers)
	for _, row := range t.rows {
		if len(row) > cols {
			cols = len(row)
		}
	}

	widths := make([]int, cols)
	measure := func(row []string) {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.headers)
	for _, row := range t.rows {
		measure(row)
	}
	return widths
}

func writeRow(b *strings.Builder, row []string, widths []int) {
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(cell)
		if i < len(widths)-1 {
			b.WriteString(strings.Repeat(" ", width-runewidth.StringWidth(cell)))
		}
	}
	b.WriteString("\n")
}

func writeRule(b *strings.Builder, widths []int) {
	for i, width := range widths {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(strings.Repeat("-", width))
	}
	b.WriteString("\n")
}

// Success formats a string as a success marker.
func Success(s string) string {
	return color.Green.Sprint(s)
}

// Failure formats a string as a failure marker.
func Failure(s string) string {
	return color.Red.Sprint(s)
}

// Emphasize formats a string in bold.
func Emphasize(s string) string {
	return color.Bold.Sprint(s)
}
