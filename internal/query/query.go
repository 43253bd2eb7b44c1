// Package query applies the filter, aggregate, sort and top-N chain that
// turns loaded records into the rows on screen.
package query

import (
	"sort"
	"strings"

	"github.com/verte-zerg/awardboard/internal/assess"
	"github.com/verte-zerg/awardboard/internal/dataset"
	"github.com/verte-zerg/awardboard/internal/model"
	"github.com/verte-zerg/awardboard/internal/years"
)

// VisibleYears resolves the parameter range against the data set's index.
func VisibleYears(ds dataset.Dataset, p model.ViewParams) []string {
	return ds.Years.Resolve(p.From, p.To)
}

// ComputeView runs the full pipeline. It has no side effects; callers
// invoke it again whenever a parameter changes.
func ComputeView(ds dataset.Dataset, p model.ViewParams, a *assess.Assessor) []model.ViewRow {
	visible := VisibleYears(ds, p)
	needle := strings.ToLower(strings.TrimSpace(p.Query))

	rows := make([]model.ViewRow, 0, len(ds.Records))
	for i, rec := range ds.Records {
		if !matchChoice(p.Dept, rec.Dept) || !matchChoice(p.Award, rec.Award) {
			continue
		}
		if needle != "" && !matchKeyword(rec, needle) {
			continue
		}
		row := buildRow(rec, i, visible, ds.Years, a)
		if p.FlaggedOnly && !row.RecDeact {
			continue
		}
		rows = append(rows, row)
	}

	sortRows(rows, p.SortKey, p.Desc)

	if p.TopN > 0 && len(rows) > p.TopN {
		rows = rows[:p.TopN]
	}
	return rows
}

func matchChoice(choice, value string) bool {
	if choice == "" || choice == model.All {
		return true
	}
	return value == choice
}

func matchKeyword(rec model.Record, needle string) bool {
	return strings.Contains(strings.ToLower(rec.Title), needle) ||
		strings.Contains(strings.ToLower(rec.Award), needle) ||
		strings.Contains(strings.ToLower(rec.Code), needle)
}

func buildRow(rec model.Record, pos int, visible []string, idx years.Index, a *assess.Assessor) model.ViewRow {
	total := 0
	for _, label := range visible {
		total += rec.Count(label)
	}
	den := len(visible)
	if den < 1 {
		den = 1
	}
	verdict := a.Assess(rec, idx)
	return model.ViewRow{
		Record:         rec,
		Position:       pos,
		TotalRange:     total,
		AvgPerYear:     float64(total) / float64(den),
		RecDeact:       verdict.Flag,
		RecDeactReason: verdict.Reason,
	}
}

// SortValue returns the numeric value a row is ordered by for key.
func SortValue(row model.ViewRow, key model.SortKey) float64 {
	switch key {
	case model.SortTotalRange, "":
		return float64(row.TotalRange)
	case model.SortAvgPerYear:
		return row.AvgPerYear
	default:
		return float64(row.Count(string(key)))
	}
}

func sortRows(rows []model.ViewRow, key model.SortKey, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		vi := SortValue(rows[i], key)
		vj := SortValue(rows[j], key)
		if desc {
			return vi > vj
		}
		return vi < vj
	})
}
