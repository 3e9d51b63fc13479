package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"FolioPull/internal/domain/models"
)

var two = decimal.NewFromInt(2)

// Extract reads the requested price point out of a ticker snapshot.
func Extract(pair string, t models.TickerSnapshot, kind models.PriceKind) (decimal.Decimal, error) {
	switch kind {
	case models.PriceSpot:
		return first(pair, "c", t.Last)
	case models.PriceMid:
		ask, err := first(pair, "a", t.Ask)
		if err != nil {
			return decimal.Decimal{}, err
		}
		bid, err := first(pair, "b", t.Bid)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return ask.Add(bid).Div(two), nil
	case models.PriceVWAP:
		return first(pair, "p", t.VWAP)
	case models.PriceMax:
		return first(pair, "h", t.High)
	case models.PriceMin:
		return first(pair, "l", t.Low)
	case models.PriceOpen:
		return parse(pair, "o", t.Open)
	default:
		return decimal.Decimal{}, &models.DataShapeError{Item: pair, Field: string(kind)}
	}
}

func first(pair, field string, vals []string) (decimal.Decimal, error) {
	if len(vals) == 0 {
		return decimal.Decimal{}, &models.DataShapeError{Item: pair, Field: field}
	}
	return parse(pair, field, vals[0])
}

func parse(pair, field, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Decimal{}, &models.DataShapeError{Item: pair, Field: field}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, &models.DataShapeError{Item: pair, Field: field, Err: err}
	}
	return d, nil
}

// NormalizeAsset turns a pair identifier into a plain asset code: the trailing
// quote suffix is removed, then a Z…Z fiat wrapper.
func NormalizeAsset(pair, quote string) string {
	return unwrapFiat(trimQuote(pair, quote))
}

func trimQuote(key, quote string) string {
	if quote != "" && len(key) > len(quote) && strings.HasSuffix(key, quote) {
		return strings.TrimSuffix(key, quote)
	}
	return key
}

func unwrapFiat(key string) string {
	if len(key) > 2 && strings.HasPrefix(key, models.FiatMarker) && strings.HasSuffix(key, models.FiatMarker) {
		return key[1 : len(key)-1]
	}
	return key
}

// NormalizeKeys builds a fresh, re-keyed price list in two passes. Each pass
// keeps untouched entries first and appends renamed ones after them, so
// fiat-wrapped entries end up last.
func NormalizeKeys(points []models.PricePoint, quote string) []models.PricePoint {
	pass := func(in []models.PricePoint, rename func(string) string) []models.PricePoint {
		kept := make([]models.PricePoint, 0, len(in))
		var moved []models.PricePoint
		for _, p := range in {
			key := rename(p.Asset)
			if key == p.Asset {
				kept = append(kept, p)
				continue
			}
			moved = append(moved, models.PricePoint{Asset: key, Kind: p.Kind, Value: p.Value})
		}
		return append(kept, moved...)
	}
	out := pass(points, func(k string) string { return trimQuote(k, quote) })
	return pass(out, unwrapFiat)
}
