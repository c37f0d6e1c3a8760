package gen

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
)

// formatTable left-aligns the columns of a table, dropping columns that are empty in every row and
// trailing whitespace on every line.
func formatTable(table [][]string) (string, error) {
	if len(table) == 0 {
		return "", fmt.Errorf("table must be filled")
	}
	width := len(table[0])
	maxWidths := make([]int, width)
	for _, row := range table {
		if len(row) != width {
			return "", fmt.Errorf("table rows must all have %d columns", width)
		}
		for i, cell := range row {
			maxWidths[i] = max(maxWidths[i], cellWidth(cell))
		}
	}

	lines := make([]string, 0, len(table))
	for _, row := range table {
		var sb strings.Builder
		for i, cell := range row {
			if maxWidths[i] == 0 {
				continue
			}
			sb.WriteString(cell)
			sb.WriteString(strings.Repeat(" ", maxWidths[i]-cellWidth(cell)+1))
		}
		lines = append(lines, strings.TrimRight(sb.String(), " "))
	}
	return strings.Join(lines, "\n"), nil
}

// cellWidth counts user-perceived characters, so labels with combining marks still line up.
func cellWidth(s string) int {
	n := 0
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		n++
	}
	return n
}
