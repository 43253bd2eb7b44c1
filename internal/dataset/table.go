package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/verte-zerg/awardboard/internal/model"
)

const utf8BOM = "\ufeff"

// ParseTable reads a delimited table whose first row is the header and
// normalizes every data row. A zero delim is sniffed from the header line.
func ParseTable(r io.Reader, delim rune) ([]model.Record, error) {
	br := bufio.NewReader(r)
	if delim == 0 {
		delim = sniffDelimiter(br)
	}
	reader := csv.NewReader(br)
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	// Leading-space trimming would swallow empty fields of a tab-separated row.
	reader.TrimLeadingSpace = !unicode.IsSpace(delim)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("table has no header row")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) > 0 {
		header[0] = strings.TrimSpace(strings.TrimPrefix(header[0], utf8BOM))
	}

	var records []model.Record
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				// A malformed line degrades to whatever fields were recovered.
				if len(fields) == 0 {
					continue
				}
			} else {
				return nil, fmt.Errorf("failed to read table: %w", err)
			}
		}
		if blankRow(fields) {
			continue
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(fields) {
				row[name] = fields[i]
			} else {
				row[name] = ""
			}
		}
		records = append(records, NormalizeRow(row))
	}
	return records, nil
}

func blankRow(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// sniffDelimiter picks the most frequent of ',', ';', '\t' and '|' in the
// first line without consuming it. Comma wins ties.
func sniffDelimiter(br *bufio.Reader) rune {
	line, err := br.Peek(4096)
	if err != nil && len(line) == 0 {
		return ','
	}
	if idx := strings.IndexByte(string(line), '\n'); idx >= 0 {
		line = line[:idx]
	}
	best := ','
	bestCount := strings.Count(string(line), ",")
	for _, candidate := range []rune{';', '\t', '|'} {
		if n := strings.Count(string(line), string(candidate)); n > bestCount {
			best = candidate
			bestCount = n
		}
	}
	return best
}
