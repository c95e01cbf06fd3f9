package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).MarginTop(1)
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1).Align(lipgloss.Center)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
	nameStyle     = lipgloss.NewStyle().Padding(0, 1)
	negativeStyle = cellStyle.Foreground(lipgloss.Color("9"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// num renders a value with two decimals, or "-" when undefined.
func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

// render draws a bordered table whose first column holds names and whose
// negative numbers are shown in red.
func render(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return nameStyle
			case row >= 0 && row < len(rows) && col < len(rows[row]) && isNegative(rows[row][col]):
				return negativeStyle
			default:
				return cellStyle
			}
		})
	return t.Render()
}

func isNegative(cell string) bool {
	return len(cell) > 1 && strings.HasPrefix(cell, "-")
}

func title(s string) string { return titleStyle.Render(s) }
