package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FiatMarker is the leading character the exchange uses for fiat asset codes (ZGBP, ZUSD).
const FiatMarker = "Z"

// Balance is one non-zero holding of the account.
type Balance struct {
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
}

// IsFiat reports whether the balance is a fiat currency balance.
func (b Balance) IsFiat() bool { return IsFiatCode(b.Asset) }

// IsFiatCode reports whether an asset code carries the fiat marker.
func IsFiatCode(code string) bool { return strings.HasPrefix(code, FiatMarker) }

// NonZero returns the balances whose amount is not zero, preserving order.
func NonZero(balances []Balance) []Balance {
	out := make([]Balance, 0, len(balances))
	for _, b := range balances {
		if b.Amount.IsZero() {
			continue
		}
		out = append(out, b)
	}
	return out
}

// AssetPair is one tradable instrument of the exchange. Altname is unique per universe.
type AssetPair struct {
	Name    string `json:"name"`
	Altname string `json:"altname"`
	Base    string `json:"base"`
	Quote   string `json:"quote"`
}

// Altnames returns the altnames of a universe in its original order.
func Altnames(universe []AssetPair) []string {
	out := make([]string, len(universe))
	for i, p := range universe {
		out[i] = p.Altname
	}
	return out
}

// ResolvedBalance binds a balance to the pair chosen for pricing it.
// Pair is nil for fiat balances, which pass through valuation unconverted.
type ResolvedBalance struct {
	Balance
	Pair *AssetPair `json:"pair,omitempty"`
}

// ResolvedBalances is the outcome of resolving every balance of a snapshot.
// Unresolved keeps the raw balances that could not be matched to any pair.
type ResolvedBalances struct {
	Resolved   []ResolvedBalance `json:"resolved"`
	Unresolved []Balance         `json:"unresolved,omitempty"`
	Skipped    []Skip            `json:"skipped,omitempty"`
}

// Pairs returns the altnames of all resolved non-fiat balances, in order.
func (r ResolvedBalances) Pairs() []string {
	out := make([]string, 0, len(r.Resolved))
	for _, rb := range r.Resolved {
		if rb.Pair != nil {
			out = append(out, rb.Pair.Altname)
		}
	}
	return out
}
