package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PriceKind selects which price point is extracted from a ticker snapshot.
type PriceKind string

const (
	PriceSpot PriceKind = "spot"
	PriceMid  PriceKind = "mid"
	PriceVWAP PriceKind = "vwap"
	PriceMax  PriceKind = "max"
	PriceMin  PriceKind = "min"
	PriceOpen PriceKind = "open"
)

// ParsePriceKind validates a raw kind string.
func ParsePriceKind(s string) (PriceKind, error) {
	switch k := PriceKind(s); k {
	case PriceSpot, PriceMid, PriceVWAP, PriceMax, PriceMin, PriceOpen:
		return k, nil
	default:
		return "", fmt.Errorf("unknown price kind %q", s)
	}
}

// TickerSnapshot is the raw ticker payload of one pair as delivered by the exchange.
// Array fields follow the exchange layout: [0] is the current/today value.
type TickerSnapshot struct {
	Ask    []string `json:"a"` // price, whole lot volume, lot volume
	Bid    []string `json:"b"`
	Last   []string `json:"c"` // price, lot volume
	Volume []string `json:"v"` // today, last 24h
	VWAP   []string `json:"p"`
	Trades []int64  `json:"t"`
	Low    []string `json:"l"`
	High   []string `json:"h"`
	Open   string   `json:"o"`
}

// PricePoint is one extracted price for one asset.
type PricePoint struct {
	Asset string          `json:"asset"`
	Kind  PriceKind       `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// Prices is an ordered asset -> price mapping.
type Prices struct {
	Points  []PricePoint `json:"points"`
	Skipped []Skip       `json:"skipped,omitempty"`
}

// Get returns the price of asset, if present.
func (p Prices) Get(asset string) (decimal.Decimal, bool) {
	for _, pt := range p.Points {
		if pt.Asset == asset {
			return pt.Value, true
		}
	}
	return decimal.Decimal{}, false
}

// Assets returns the asset codes in iteration order.
func (p Prices) Assets() []string {
	out := make([]string, len(p.Points))
	for i, pt := range p.Points {
		out[i] = pt.Asset
	}
	return out
}

// Map returns the prices as a plain map.
func (p Prices) Map() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(p.Points))
	for _, pt := range p.Points {
		out[pt.Asset] = pt.Value
	}
	return out
}
