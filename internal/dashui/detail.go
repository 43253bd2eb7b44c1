package dashui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/verte-zerg/awardboard/internal/report"
)

// renderDetail fills the detail viewport for the selected row.
func (m *Model) renderDetail() {
	m.detail.SetContent(m.detailContent())
}

func (m *Model) detailContent() string {
	row, ok := m.selectedRow()
	if !ok {
		return "No program selected."
	}
	th := m.assessor.Thresholds()
	recent := m.ds.Years.Last(th.Window)
	recentSet := make(map[string]struct{}, len(recent))
	for _, label := range recent {
		recentSet[label] = struct{}{}
	}
	visibleSet := make(map[string]struct{}, len(m.visible))
	for _, label := range m.visible {
		visibleSet[label] = struct{}{}
	}

	lines := []string{
		cardValueStyle.Render(row.Title),
		headerStyle.Render(fmt.Sprintf("%s  |  %s  |  %s", row.Code, row.Award, row.Dept)),
		"",
		fmt.Sprintf("Total (range): %d", row.TotalRange),
		fmt.Sprintf("Avg / yr:      %.2f", row.AvgPerYear),
		fmt.Sprintf("Trend:         %s", report.Trend(row, m.visible)),
		"",
	}
	verdict := "No"
	if row.RecDeact {
		verdict = flagStyle.Render("Yes")
	}
	lines = append(lines,
		fmt.Sprintf("Rec Deact (last %dy): %s", len(recent), verdict),
		"  "+row.RecDeactReason,
		headerStyle.Render(fmt.Sprintf("  rules: total < %d and avg < %s; zeros >= %d; max/year < %d",
			th.MinTotal, strconv.FormatFloat(th.MinAvg, 'f', -1, 64), th.MinZeros, th.MinPeak)),
		"",
		"Completions by year",
	)
	counts := make([]int, len(m.ds.Years))
	for i, label := range m.ds.Years {
		counts[i] = row.Count(label)
	}
	chartWidth := min(max(m.width-24, 0), 72)
	for i, line := range report.BarChart(m.ds.Years, counts, chartWidth) {
		label := m.ds.Years[i]
		var marks []string
		if _, ok := visibleSet[label]; ok {
			marks = append(marks, "in range")
		}
		if _, ok := recentSet[label]; ok {
			marks = append(marks, "assessed")
		}
		if len(marks) > 0 {
			line += headerStyle.Render("  " + strings.Join(marks, ", "))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
