package matcher

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	domsvc "FolioPull/internal/domain/service"
)

// DefaultCutoff is the minimum similarity a candidate must reach.
const DefaultCutoff = 0.6

// Ratio matches by sequence similarity: 2*M/T over the characters of probe and
// candidate, 1.0 meaning identical.
type Ratio struct {
	cutoff float64
}

var _ domsvc.AssetMatcher = (*Ratio)(nil)

// NewRatio creates a ratio matcher. A cutoff outside (0, 1] falls back to DefaultCutoff.
func NewRatio(cutoff float64) *Ratio {
	if cutoff <= 0 || cutoff > 1 {
		cutoff = DefaultCutoff
	}
	return &Ratio{cutoff: cutoff}
}

// Cutoff returns the configured minimum similarity.
func (r *Ratio) Cutoff() float64 { return r.cutoff }

// Match returns the highest scoring candidate at or above the cutoff.
// Equal scores keep the earliest candidate.
func (r *Ratio) Match(probe string, candidates []string) (string, float64, bool) {
	if len(candidates) == 0 {
		return "", 0, false
	}

	sm := difflib.NewMatcher(nil, chars(probe))
	best, bestScore, found := "", 0.0, false
	for _, c := range candidates {
		sm.SetSeq1(chars(c))
		// cheap upper bounds first
		if sm.RealQuickRatio() < r.cutoff || sm.QuickRatio() < r.cutoff {
			continue
		}
		score := sm.Ratio()
		if score < r.cutoff {
			continue
		}
		if !found || score > bestScore {
			best, bestScore, found = c, score, true
		}
	}
	return best, bestScore, found
}

func chars(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "")
}
