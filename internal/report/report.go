package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/verte-zerg/awardboard/internal/model"
	"github.com/verte-zerg/awardboard/internal/query"
)

const sparkChars = " .:-=+*#%@"

const minTitleWidth = 12

// Options controls RenderView.
type Options struct {
	// Width limits line width; 0 uses the terminal width of stdout, if any.
	Width int
	// Years adds one column per visible year.
	Years bool
	// Reasons adds the deactivation reason column.
	Reasons bool
}

// Sparkline renders a single-line ASCII trend for values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Trend is the sparkline of a row's counts over the visible years.
func Trend(row model.ViewRow, visible []string) string {
	values := make([]float64, len(visible))
	for i, label := range visible {
		values[i] = float64(row.Count(label))
	}
	return Sparkline(values)
}

// RenderSummary prints the headline numbers for rows.
func RenderSummary(w io.Writer, rows []model.ViewRow, visible []string) error {
	s := query.Summarize(rows)
	span := "no years"
	if len(visible) > 0 {
		span = fmt.Sprintf("%s to %s", visible[0], visible[len(visible)-1])
	}
	_, err := fmt.Fprintf(w, "Programs: %d  Flagged: %d  Total (%s): %d  Avg/yr: %.2f\n",
		s.Programs, s.Flagged, span, s.TotalRange, s.AvgPerYear)
	return err
}

// RenderView prints rows as an aligned table.
func RenderView(w io.Writer, rows []model.ViewRow, visible []string, opts Options) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No programs match.")
		return err
	}
	width := opts.Width
	if width <= 0 {
		width = terminalWidth()
	}

	headers := []string{"Dept", "Code", "Program", "Award", "Total", "Avg/yr", "Trend", "Rec"}
	rightAlign := map[int]bool{4: true, 5: true}
	if opts.Years {
		for _, label := range visible {
			headers = append(headers, label)
			rightAlign[len(headers)-1] = true
		}
	}
	if opts.Reasons {
		headers = append(headers, "Reason")
	}

	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		rec := "No"
		if row.RecDeact {
			rec = "Yes"
		}
		cells := []string{
			row.Dept,
			row.Code,
			row.Title,
			row.Award,
			strconv.Itoa(row.TotalRange),
			fmt.Sprintf("%.2f", row.AvgPerYear),
			Trend(row, visible),
			rec,
		}
		if opts.Years {
			for _, label := range visible {
				cells = append(cells, strconv.Itoa(row.Count(label)))
			}
		}
		if opts.Reasons {
			cells = append(cells, row.RecDeactReason)
		}
		tableRows = append(tableRows, cells)
	}

	if width > 0 {
		fitTitleColumn(headers, tableRows, width)
	}
	for _, line := range formatTable(headers, tableRows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// fitTitleColumn truncates program titles so lines fit within width.
func fitTitleColumn(headers []string, rows [][]string, width int) {
	const titleCol = 2
	widths := columnWidths(headers, rows, len(headers))
	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}
	if total <= width {
		return
	}
	titleWidth := max(minTitleWidth, widths[titleCol]-(total-width))
	for _, row := range rows {
		row[titleCol] = Truncate(row[titleCol], titleWidth)
	}
}

func terminalWidth() int {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return width
}
