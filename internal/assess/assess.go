// Package assess evaluates the recommend-deactivation rules for a program.
package assess

import (
	"fmt"
	"strings"

	"github.com/creasty/defaults"

	"github.com/verte-zerg/awardboard/internal/model"
	"github.com/verte-zerg/awardboard/internal/years"
)

// Assessment is the outcome of the deactivation rules for one record.
type Assessment struct {
	Flag   bool
	Reason string
}

// DefaultThresholds returns the built-in rule thresholds.
func DefaultThresholds() model.Thresholds {
	var th model.Thresholds
	if err := defaults.Set(&th); err != nil {
		// Tags are static; Set only fails on malformed tags.
		panic(fmt.Sprintf("invalid threshold defaults: %v", err))
	}
	return th
}

// Assessor applies a fixed set of thresholds.
type Assessor struct {
	th model.Thresholds
}

// New returns an Assessor for th.
func New(th model.Thresholds) *Assessor {
	return &Assessor{th: th}
}

// Thresholds returns the thresholds in use.
func (a *Assessor) Thresholds() model.Thresholds {
	return a.th
}

// Assess checks the record against the most recent Window labels of the
// full index. The visible range plays no part.
func (a *Assessor) Assess(rec model.Record, idx years.Index) Assessment {
	labels := idx.Last(a.th.Window)
	n := len(labels)
	if n == 0 {
		return Assessment{Flag: false, Reason: "No years"}
	}

	total, zeros, peak := 0, 0, 0
	for i, label := range labels {
		v := rec.Count(label)
		total += v
		if v == 0 {
			zeros++
		}
		if i == 0 || v > peak {
			peak = v
		}
	}
	avg := float64(total) / float64(n)

	lowOverall := total < a.th.MinTotal && avg < a.th.MinAvg
	manyZeros := zeros >= a.th.MinZeros
	noPeak := peak < a.th.MinPeak

	if !lowOverall && !manyZeros && !noPeak {
		return Assessment{
			Flag: false,
			Reason: fmt.Sprintf("%dy total %d, avg %s, max/year %d, zeros %d/%d",
				n, total, formatAvg(avg), peak, zeros, n),
		}
	}

	var reasons []string
	if lowOverall {
		reasons = append(reasons, fmt.Sprintf("%dy total %d & avg %s (<%d, <%s)",
			n, total, formatAvg(avg), a.th.MinTotal, formatAvg(a.th.MinAvg)))
	}
	if manyZeros {
		reasons = append(reasons, fmt.Sprintf("zeros %d/%d", zeros, n))
	}
	if noPeak {
		reasons = append(reasons, fmt.Sprintf("max/year %d (<%d)", peak, a.th.MinPeak))
	}
	return Assessment{Flag: true, Reason: strings.Join(reasons, "; ")}
}

func formatAvg(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	return strings.TrimSuffix(s, ".0")
}
