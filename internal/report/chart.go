package report

import (
	"math"
	"strconv"
	"strings"
)

const (
	axisSeparator = " │ "
	barChar       = "█"
	minBarWidth   = 10
)

// BarChart renders one horizontal bar per label, scaled to the largest
// count, as "<label> │ <bar> <count>" lines. Non-zero counts always get at
// least one cell.
func BarChart(labels []string, counts []int, width int) []string {
	if len(labels) == 0 || len(labels) != len(counts) {
		return nil
	}
	labelWidth, countWidth, maxCount := 0, 0, 0
	for i, label := range labels {
		labelWidth = max(labelWidth, displayWidth(label))
		countWidth = max(countWidth, len(strconv.Itoa(counts[i])))
		maxCount = max(maxCount, counts[i])
	}
	barWidth := max(minBarWidth, width-labelWidth-displayWidth(axisSeparator)-countWidth-1)

	lines := make([]string, 0, len(labels))
	for i, label := range labels {
		n := 0
		if maxCount > 0 && counts[i] > 0 {
			n = int(math.Round(float64(counts[i]) / float64(maxCount) * float64(barWidth)))
			n = max(1, min(n, barWidth))
		}
		var b strings.Builder
		b.WriteString(padCell(label, labelWidth, false))
		b.WriteString(axisSeparator)
		b.WriteString(strings.Repeat(barChar, n))
		b.WriteString(strings.Repeat(" ", barWidth-n))
		b.WriteString(" ")
		b.WriteString(padCell(strconv.Itoa(counts[i]), countWidth, true))
		lines = append(lines, b.String())
	}
	return lines
}
