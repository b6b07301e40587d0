package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// placeholder fills a cell that has no value, such as the rate columns of
// an idle reading.
const placeholder = "-"

type column struct {
	title string
	right bool
}

// renderTable lays rows out under cols, one space between columns.
// Placeholder cells are centered so idle rows read as gaps, and trailing
// padding is dropped.
func renderTable(cols []column, rows [][]string) []string {
	if len(cols) == 0 {
		return nil
	}
	widths := make([]int, len(cols))
	for i, col := range cols {
		widths[i] = runewidth.StringWidth(col.title)
	}
	for _, row := range rows {
		for i := 0; i < len(cols) && i < len(row); i++ {
			widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
		}
	}

	titles := make([]string, len(cols))
	for i, col := range cols {
		titles[i] = col.title
	}
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, renderLine(cols, widths, titles))
	for _, row := range rows {
		lines = append(lines, renderLine(cols, widths, row))
	}
	return lines
}

func renderLine(cols []column, widths []int, cells []string) string {
	var b strings.Builder
	for i, col := range cols {
		if i > 0 {
			b.WriteByte(' ')
		}
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		gap := widths[i] - runewidth.StringWidth(cell)
		if gap < 0 {
			gap = 0
		}
		var left int
		switch {
		case cell == placeholder:
			left = gap / 2
		case col.right:
			left = gap
		}
		b.WriteString(strings.Repeat(" ", left))
		b.WriteString(cell)
		b.WriteString(strings.Repeat(" ", gap-left))
	}
	return strings.TrimRight(b.String(), " ")
}
