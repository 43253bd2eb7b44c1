// Package dataset turns raw completion tables into records.
package dataset

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/verte-zerg/awardboard/internal/model"
)

var yearLabelPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// IsYearLabel reports whether s is an academic year label such as "2019-20".
func IsYearLabel(s string) bool {
	return yearLabelPattern.MatchString(s)
}

// NormalizeRow builds a record from one raw row keyed by column name.
// Missing fields become empty strings and unreadable counts become 0.
func NormalizeRow(raw map[string]string) model.Record {
	rec := model.Record{Years: map[string]int{}}
	for key, value := range raw {
		key = strings.TrimSpace(key)
		switch {
		case IsYearLabel(key):
			rec.Years[key] = parseCount(value)
		case key == model.ColDept:
			rec.Dept = strings.TrimSpace(value)
		case key == model.ColCode:
			rec.Code = strings.TrimSpace(value)
		case key == model.ColTitle:
			rec.Title = strings.TrimSpace(value)
		case key == model.ColAward:
			rec.Award = strings.TrimSpace(value)
		}
	}
	return rec
}

func parseCount(value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	value = strings.ReplaceAll(value, ",", "")
	value = strings.ReplaceAll(value, " ", "")
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return int(math.Round(v))
}
