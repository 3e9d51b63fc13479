package ledger

import (
	"github.com/shopspring/decimal"

	"FolioPull/internal/domain/models"
)

// Reconstruct walks a newest-first ledger feed backwards from anchor, the
// balance at the time of the newest entry.
//
// cumulative[0] is anchor; cumulative[i] = cumulative[i-1] - entries[i].amount
// for 1 <= i <= n-2. The last position of a feed with two or more entries is
// left undefined (Valid == false). That boundary is kept as observed behaviour
// until the intended closing value is confirmed.
func Reconstruct(entries []models.LedgerEntry, anchor decimal.Decimal) models.RunningBalanceSeries {
	n := len(entries)
	series := models.RunningBalanceSeries{
		Entries:    append([]models.LedgerEntry(nil), entries...),
		Cumulative: make([]decimal.NullDecimal, n),
	}
	if n == 0 {
		return series
	}

	series.Cumulative[0] = decimal.NewNullDecimal(anchor)
	for i := 1; i < n-1; i++ {
		prev := series.Cumulative[i-1].Decimal
		series.Cumulative[i] = decimal.NewNullDecimal(prev.Sub(entries[i].Amount))
	}
	return series
}

// Chronological returns a copy of s ordered oldest-first. Entries and
// cumulative values stay paired.
func Chronological(s models.RunningBalanceSeries) models.RunningBalanceSeries {
	if s.Chronological {
		return s
	}
	n := len(s.Entries)
	out := models.RunningBalanceSeries{
		Entries:       make([]models.LedgerEntry, n),
		Cumulative:    make([]decimal.NullDecimal, len(s.Cumulative)),
		Chronological: true,
	}
	for i := range s.Entries {
		out.Entries[n-1-i] = s.Entries[i]
	}
	m := len(s.Cumulative)
	for i := range s.Cumulative {
		out.Cumulative[m-1-i] = s.Cumulative[i]
	}
	return out
}
