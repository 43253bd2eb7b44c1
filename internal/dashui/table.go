package dashui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/awardboard/internal/model"
	"github.com/verte-zerg/awardboard/internal/report"
)

const (
	minTitleWidth = 16
	defaultWidth  = 100
)

func buildTable(rows []model.ViewRow, visible []string, width, height int) table.Model {
	cols, tableRows := buildTableData(rows, visible, width)
	t := table.New(
		table.WithColumns(cols),
		table.WithRows(tableRows),
		table.WithHeight(max(1, height-1)),
		table.WithFocused(true),
	)
	t.SetWidth(width)
	t.SetStyles(tableStyles())
	return t
}

func buildTableData(rows []model.ViewRow, visible []string, width int) ([]table.Column, []table.Row) {
	if width <= 0 {
		width = defaultWidth
	}
	trendWidth := max(5, len(visible))
	fixed := []table.Column{
		{Title: "Code", Width: 10},
		{Title: "Award", Width: 12},
		{Title: "Dept", Width: 12},
		{Title: "Total", Width: 7},
		{Title: "Avg/yr", Width: 7},
		{Title: "Trend", Width: trendWidth},
		{Title: "Rec", Width: 3},
	}
	used := 0
	for _, c := range fixed {
		used += c.Width + 1
	}
	titleWidth := max(minTitleWidth, width-used-1)

	columns := []table.Column{
		fixed[0],
		{Title: "Program", Width: titleWidth},
		fixed[1], fixed[2], fixed[3], fixed[4], fixed[5], fixed[6],
	}
	out := make([]table.Row, 0, len(rows))
	for _, row := range rows {
		rec := ""
		if row.RecDeact {
			rec = "Yes"
		}
		out = append(out, table.Row{
			report.Truncate(row.Code, 10),
			report.Truncate(row.Title, titleWidth),
			report.Truncate(row.Award, 12),
			report.Truncate(row.Dept, 12),
			strconv.Itoa(row.TotalRange),
			fmt.Sprintf("%.2f", row.AvgPerYear),
			report.Trend(row, visible),
			rec,
		})
	}
	return columns, out
}

// applyTable pushes the current rows into the table, resizing it to fit
// below the summary cards.
func (m *Model) applyTable(force bool) {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	_, bodyHeight, _ := m.layoutHeights()
	height := max(1, bodyHeight-m.cardsHeight())
	cols, rows := buildTableData(m.rows, m.visible, width)
	viewportHeight := max(1, height-1)
	if !force &&
		m.layout.width == width &&
		m.layout.height == viewportHeight &&
		m.layout.rowCount == len(rows) &&
		m.layout.colCount == len(cols) {
		return
	}
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(0, len(rows)-1))
	}
	m.layout.rowCount = len(rows)
	m.layout.colCount = len(cols)
	m.layout.width = 0
	m.setTableSize(width, height)
}

func (m *Model) setTableSize(width, height int) {
	viewportHeight := max(1, height-1)
	if m.layout.width == width && m.layout.height == viewportHeight {
		return
	}
	m.layout.width = width
	m.layout.height = viewportHeight
	m.table.SetWidth(width)
	m.table.SetHeight(viewportHeight)
	viewportHeight = m.adjustTableHeight(height)
	if m.layout.height != viewportHeight {
		m.layout.height = viewportHeight
		m.table.SetHeight(viewportHeight)
	}
}

func (m *Model) adjustTableHeight(bodyHeight int) int {
	target := max(1, bodyHeight)
	height := m.table.Height()
	viewHeight := lipgloss.Height(m.table.View())
	if viewHeight == target {
		return height
	}
	height = max(1, height+target-viewHeight)
	m.table.SetHeight(height)
	viewHeight = lipgloss.Height(m.table.View())
	if viewHeight == target {
		return height
	}
	return max(1, height+target-viewHeight)
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}
