// Package export serializes the current view back into a delimited table.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/verte-zerg/awardboard/internal/assess"
	"github.com/verte-zerg/awardboard/internal/model"
)

// Options controls the export layout.
type Options struct {
	// Delimiter separates fields. Zero means ','.
	Delimiter rune
	// Window is the assessed year count shown in the Rec Deact header.
	// Zero means the default window.
	Window int
}

// Header returns the export header for the visible years.
func Header(visible []string, window int) []string {
	if window <= 0 {
		window = assess.DefaultThresholds().Window
	}
	header := []string{
		model.ColDept,
		model.ColCode,
		model.ColTitle,
		model.ColAward,
		model.ColTotalRange,
		model.ColAvgPerYear,
		model.RecDeactColumn(window),
	}
	return append(header, visible...)
}

// Write renders rows with one column per visible year. Fields holding the
// delimiter, quotes or line breaks are quoted with quotes doubled.
func Write(w io.Writer, rows []model.ViewRow, visible []string, opts Options) error {
	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}
	cw := csv.NewWriter(w)
	cw.Comma = delim
	if err := cw.Write(Header(visible, opts.Window)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(Fields(row, visible)); err != nil {
			return fmt.Errorf("failed to write row %s: %w", row.Key(), err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush export: %w", err)
	}
	return nil
}

// Fields returns the unquoted export cells for one row.
func Fields(row model.ViewRow, visible []string) []string {
	flag := "No"
	if row.RecDeact {
		flag = "Yes"
	}
	fields := []string{
		row.Dept,
		row.Code,
		row.Title,
		row.Award,
		strconv.Itoa(row.TotalRange),
		strconv.FormatFloat(row.AvgPerYear, 'f', 2, 64),
		flag,
	}
	for _, label := range visible {
		fields = append(fields, strconv.Itoa(row.Count(label)))
	}
	return fields
}

// FileName names the export after the data set source.
func FileName(source string) string {
	base := source
	if i := strings.LastIndexAny(base, "/\\"); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" {
		base = "programs"
	}
	return base + "-view.csv"
}

// WriteFile writes the export to path through a temporary file so a failed
// write never leaves a truncated export behind.
func WriteFile(path string, rows []model.ViewRow, visible []string, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "export-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp export: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := Write(tmpFile, rows, visible, opts); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close export: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
