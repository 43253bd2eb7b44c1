package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/verte-zerg/awardboard/internal/dataset"
	"github.com/verte-zerg/awardboard/internal/model"
	"github.com/verte-zerg/awardboard/internal/years"
)

// TopNChoices are the row limits offered by the dashboard; 0 is All.
var TopNChoices = []int{10, 25, 50, 100, 0}

// Departments returns All followed by the sorted distinct departments.
func Departments(records []model.Record) []string {
	return choices(records, func(r model.Record) string { return r.Dept })
}

// AwardTypes returns All followed by the sorted distinct award types.
func AwardTypes(records []model.Record) []string {
	return choices(records, func(r model.Record) string { return r.Award })
}

func choices(records []model.Record, field func(model.Record) string) []string {
	seen := map[string]struct{}{}
	values := []string{}
	for _, rec := range records {
		v := field(rec)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return append([]string{model.All}, values...)
}

// SortKeys lists the computed keys followed by every year label.
func SortKeys(idx years.Index) []model.SortKey {
	keys := []model.SortKey{model.SortTotalRange, model.SortAvgPerYear}
	for _, label := range idx {
		keys = append(keys, model.SortKey(label))
	}
	return keys
}

// ParseSortKey accepts a computed key name (or a short alias) or a year label.
func ParseSortKey(value string) (model.SortKey, error) {
	v := strings.TrimSpace(value)
	switch strings.ToLower(v) {
	case "", "total", "totalrange":
		return model.SortTotalRange, nil
	case "avg", "average", "avgperyear":
		return model.SortAvgPerYear, nil
	}
	if dataset.IsYearLabel(v) {
		return model.SortKey(v), nil
	}
	return "", fmt.Errorf("invalid sort key %q (use total, avg, or a year like 2019-20)", value)
}

// ParseTopN parses a row limit; "all" or empty means no limit.
func ParseTopN(value string) (int, error) {
	v := strings.TrimSpace(value)
	if v == "" || strings.EqualFold(v, model.All) {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid top value %q (use a non-negative integer or all)", value)
	}
	return n, nil
}

// FormatTopN renders a row limit for display.
func FormatTopN(n int) string {
	if n <= 0 {
		return model.All
	}
	return strconv.Itoa(n)
}

// NextTopN cycles through TopNChoices.
func NextTopN(n int) int {
	for i, c := range TopNChoices {
		if c == n {
			return TopNChoices[(i+1)%len(TopNChoices)]
		}
	}
	return TopNChoices[0]
}

// NextSortKey cycles through SortKeys(idx).
func NextSortKey(key model.SortKey, idx years.Index) model.SortKey {
	keys := SortKeys(idx)
	for i, k := range keys {
		if k == key {
			return keys[(i+1)%len(keys)]
		}
	}
	return keys[0]
}

// SortLabel is the column heading used for a sort key.
func SortLabel(key model.SortKey) string {
	switch key {
	case model.SortTotalRange, "":
		return "Total"
	case model.SortAvgPerYear:
		return "Avg/yr"
	default:
		return string(key)
	}
}

// Summary aggregates the rows currently in view.
type Summary struct {
	Programs   int
	Flagged    int
	TotalRange int
	AvgPerYear float64
}

// Summarize computes the dashboard summary for rows.
func Summarize(rows []model.ViewRow) Summary {
	var s Summary
	var avgSum float64
	for _, row := range rows {
		s.Programs++
		if row.RecDeact {
			s.Flagged++
		}
		s.TotalRange += row.TotalRange
		avgSum += row.AvgPerYear
	}
	if s.Programs > 0 {
		s.AvgPerYear = avgSum / float64(s.Programs)
	}
	return s
}
