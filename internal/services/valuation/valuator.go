package valuation

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"FolioPull/internal/domain/models"
)

var one = decimal.NewFromInt(1)

// Valuator turns balances and prices into a display-currency valuation table.
type Valuator struct {
	currency string
}

// New creates a valuator for the display currency (ISO code, e.g. GBP).
func New(currency string) *Valuator {
	return &Valuator{currency: currency}
}

// Currency returns the display currency.
func (v *Valuator) Currency() string { return v.currency }

// Value builds one row per balance that is fiat or has a price, in balance
// order, then a total row. Crypto rows are worth round(fx*balance*price, 2);
// fiat rows pass through at a unit price of 1 (display currency) or fx.
// The total is the sum of the rounded row values.
func (v *Valuator) Value(balances []models.Balance, prices models.Prices, fxRate decimal.Decimal) models.ValuationTable {
	table := models.ValuationTable{Currency: v.currency, FXRate: fxRate}
	total := decimal.Zero

	for _, b := range models.NonZero(balances) {
		var unit, value decimal.Decimal
		switch {
		case v.isFiat(b.Asset):
			unit = fxRate
			if v.isDisplay(b.Asset) {
				unit = one
			}
			value = unit.Mul(b.Amount).Round(2)
		default:
			price, ok := prices.Get(b.Asset)
			if !ok {
				table.Unpriced = append(table.Unpriced, b.Asset)
				continue
			}
			unit = fxRate.Mul(price).Round(2)
			value = fxRate.Mul(b.Amount).Mul(price).Round(2)
		}

		total = total.Add(value)
		table.Rows = append(table.Rows, models.ValuationRow{
			Asset:     b.Asset,
			Balance:   decimal.NewNullDecimal(b.Amount),
			UnitPrice: decimal.NewNullDecimal(unit),
			Value:     value,
			Display:   Format(value, v.currency),
		})
	}

	table.Total = models.ValuationRow{
		Asset:   models.TotalLabel,
		Value:   total,
		Display: Format(total, v.currency),
	}
	return table
}

func (v *Valuator) isFiat(asset string) bool {
	return models.IsFiatCode(asset) || v.isDisplay(asset)
}

func (v *Valuator) isDisplay(asset string) bool {
	return asset == v.currency || asset == models.FiatMarker+v.currency
}

// Format renders an amount with the currency's symbol and grouping, or as a
// plain two-decimal number for unknown currencies.
func Format(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2)
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}
