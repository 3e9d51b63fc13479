package ledger

import (
	"FolioPull/internal/domain/models"
	domsvc "FolioPull/internal/domain/service"
)

// Breakdown groups non-fiat ledger entries by asset in order of first
// appearance. Names lists the asset codes with near-duplicates (by m) folded
// into the first one seen.
func Breakdown(entries []models.LedgerEntry, m domsvc.AssetMatcher) models.LedgerBreakdown {
	var out models.LedgerBreakdown
	index := make(map[string]int)
	for _, e := range entries {
		if models.IsFiatCode(e.Asset) {
			continue
		}
		i, ok := index[e.Asset]
		if !ok {
			i = len(out.Groups)
			index[e.Asset] = i
			out.Groups = append(out.Groups, models.AssetLedger{Asset: e.Asset})
		}
		out.Groups[i].Entries = append(out.Groups[i].Entries, e)
	}

	for _, g := range out.Groups {
		if _, _, dup := m.Match(g.Asset, out.Names); dup {
			continue
		}
		out.Names = append(out.Names, g.Asset)
	}
	return out
}
