package matcher

import domsvc "FolioPull/internal/domain/service"

// Alias resolves probes through a fixed alias table before falling back to
// another matcher.
type Alias struct {
	table map[string]string
	next  domsvc.AssetMatcher
}

var _ domsvc.AssetMatcher = (*Alias)(nil)

// NewAlias creates an alias matcher. next may be nil, in which case only the table is used.
func NewAlias(table map[string]string, next domsvc.AssetMatcher) *Alias {
	t := make(map[string]string, len(table))
	for k, v := range table {
		t[k] = v
	}
	return &Alias{table: t, next: next}
}

func (a *Alias) Match(probe string, candidates []string) (string, float64, bool) {
	if target, ok := a.table[probe]; ok {
		for _, c := range candidates {
			if c == target {
				return c, 1, true
			}
		}
	}
	if a.next == nil {
		return "", 0, false
	}
	return a.next.Match(probe, candidates)
}
