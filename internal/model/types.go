// Package model defines shared data structures.
package model

import (
	"fmt"
	"strconv"
)

// Column names of the source table.
const (
	ColDept  = "DEPT"
	ColCode  = "STATE CONTROL NUMBER"
	ColTitle = "PROGRAM TITLE"
	ColAward = "AWARD TYPE"
)

// Computed column names written on export.
const (
	ColTotalRange = "TOTAL (Range)"
	ColAvgPerYear = "AVG / yr"
)

// RecDeactColumn names the recommendation column after the assessed window.
func RecDeactColumn(window int) string {
	return fmt.Sprintf("Rec Deact (last %dy)", window)
}

// Record is one program/award entry.
type Record struct {
	Dept  string
	Code  string
	Title string
	Award string
	Years map[string]int
}

// Count returns the completions for a year label. Absent years are 0.
func (r Record) Count(label string) int {
	if r.Years == nil {
		return 0
	}
	return r.Years[label]
}

// ViewRow is a record enriched for the current view parameters.
type ViewRow struct {
	Record
	// Position is the record's index in the loaded data set.
	Position       int
	TotalRange     int
	AvgPerYear     float64
	RecDeact       bool
	RecDeactReason string
}

// Key returns a display key that stays unique when codes repeat.
func (v ViewRow) Key() string {
	return v.Code + "#" + strconv.Itoa(v.Position)
}

// Thresholds holds the deactivation rule parameters.
type Thresholds struct {
	Window   int     `default:"5"`
	MinTotal int     `default:"15"`
	MinAvg   float64 `default:"3"`
	MinZeros int     `default:"3"`
	MinPeak  int     `default:"3"`
}

// SortKey selects the value rows are ordered by: one of the computed
// columns or a year label.
type SortKey string

// Computed sort keys.
const (
	SortTotalRange SortKey = "totalRange"
	SortAvgPerYear SortKey = "avgPerYear"
)

// All is the pass-through choice for department and award filters.
const All = "All"

// ViewParams are the user-controlled pipeline inputs.
type ViewParams struct {
	Dept        string
	Award       string
	Query       string
	TopN        int // 0 means all rows
	SortKey     SortKey
	Desc        bool
	FlaggedOnly bool
	From        string
	To          string
}
