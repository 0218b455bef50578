package render

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
)

// formatTable pads each column to its widest cell. paint, when set, styles a
// cell after padding so escape sequences do not affect alignment.
func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool, paint func(row, col int, cell string) string) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, formatRow(headers, widths, rightAlignCols, nil))
	for r, row := range rows {
		var cellPaint func(col int, cell string) string
		if paint != nil {
			cellPaint = func(col int, cell string) string { return paint(r, col, cell) }
		}
		lines = append(lines, formatRow(row, widths, rightAlignCols, cellPaint))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool, paint func(col int, cell string) string) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteString("  ")
		}
		padded := padCell(cell, widths[i], rightAlignCols[i])
		if paint != nil {
			padded = paint(i, padded)
		}
		b.WriteString(padded)
	}
	return b.String()
}

func padCell(value string, width int, rightAlign bool) string {
	if rightAlign {
		return runewidth.FillLeft(value, width)
	}
	return runewidth.FillRight(value, width)
}

// colorRenderer emits true-colour sequences regardless of where the output
// goes, so --color also applies to files and pipes.
func colorRenderer() *lipgloss.Renderer {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.TrueColor)
	return r
}

func colorize(r *lipgloss.Renderer, s, color string) string {
	if color == "" {
		return s
	}
	return r.NewStyle().Foreground(lipgloss.Color(color)).Render(s)
}
