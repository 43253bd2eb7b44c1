// Package years derives the academic year index and resolves year ranges.
package years

import (
	"sort"

	"github.com/verte-zerg/awardboard/internal/model"
)

// Index is the ascending, de-duplicated list of year labels in a data set.
// Labels are fixed-width, so string order is chronological order.
type Index []string

// Build collects every year label seen across records.
func Build(records []model.Record) Index {
	seen := map[string]struct{}{}
	for _, rec := range records {
		for label := range rec.Years {
			seen[label] = struct{}{}
		}
	}
	out := make(Index, 0, len(seen))
	for label := range seen {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// Position returns the label's index or -1.
func (idx Index) Position(label string) int {
	i := sort.SearchStrings(idx, label)
	if i < len(idx) && idx[i] == label {
		return i
	}
	return -1
}

// Contains reports whether label is in the index.
func (idx Index) Contains(label string) bool {
	return idx.Position(label) >= 0
}

// First returns the earliest label, or "" for an empty index.
func (idx Index) First() string {
	if len(idx) == 0 {
		return ""
	}
	return idx[0]
}

// Final returns the latest label, or "" for an empty index.
func (idx Index) Final() string {
	if len(idx) == 0 {
		return ""
	}
	return idx[len(idx)-1]
}

// Resolve returns the inclusive slice between start and end in either
// order. An endpoint missing from the index yields the full index.
func (idx Index) Resolve(start, end string) []string {
	a := idx.Position(start)
	b := idx.Position(end)
	if a < 0 || b < 0 {
		return append([]string(nil), idx...)
	}
	if a > b {
		a, b = b, a
	}
	return append([]string(nil), idx[a:b+1]...)
}

// Last returns the most recent n labels, or all of them when fewer exist.
func (idx Index) Last(n int) []string {
	if n <= 0 {
		return nil
	}
	if n > len(idx) {
		n = len(idx)
	}
	return append([]string(nil), idx[len(idx)-n:]...)
}

// Step moves label by delta positions, clamped to the index bounds.
// An unknown label steps from the nearest end in the direction of travel.
func (idx Index) Step(label string, delta int) string {
	if len(idx) == 0 {
		return ""
	}
	pos := idx.Position(label)
	if pos < 0 {
		if delta < 0 {
			pos = len(idx)
		} else {
			pos = -1
		}
	}
	pos += delta
	if pos < 0 {
		pos = 0
	}
	if pos >= len(idx) {
		pos = len(idx) - 1
	}
	return idx[pos]
}

// Selection is the user's chosen visible range.
type Selection struct {
	From string
	To   string

	synced bool
}

// Sync defaults the selection to the full index the first time a non-empty
// index is seen. Later calls leave an explicit choice alone.
func (s *Selection) Sync(idx Index) {
	if s.synced || len(idx) == 0 {
		return
	}
	s.synced = true
	if s.From == "" {
		s.From = idx.First()
	}
	if s.To == "" {
		s.To = idx.Final()
	}
}

// Synced reports whether the selection has been initialized.
func (s *Selection) Synced() bool {
	return s.synced
}

// Visible resolves the selection against idx.
func (s Selection) Visible(idx Index) []string {
	return idx.Resolve(s.From, s.To)
}
