package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// TotalLabel names the synthesized total row.
const TotalLabel = "TOTAL"

// Placeholder is rendered for the non-summable columns of the total row.
const Placeholder = "-"

// ValuationRow is one line of a valuation table. Balance and UnitPrice are
// invalid on the total row.
type ValuationRow struct {
	Asset     string
	Balance   decimal.NullDecimal
	UnitPrice decimal.NullDecimal
	Value     decimal.Decimal
	Display   string
}

// IsTotal reports whether the row is the synthesized total row.
func (r ValuationRow) IsTotal() bool { return r.Asset == TotalLabel && !r.Balance.Valid }

func (r ValuationRow) MarshalJSON() ([]byte, error) {
	cell := func(d decimal.NullDecimal) any {
		if !d.Valid {
			return Placeholder
		}
		return d.Decimal
	}
	return json.Marshal(struct {
		Asset     string          `json:"asset"`
		Balance   any             `json:"balance"`
		UnitPrice any             `json:"unit_price"`
		Value     decimal.Decimal `json:"value"`
		Display   string          `json:"display,omitempty"`
	}{r.Asset, cell(r.Balance), cell(r.UnitPrice), r.Value, r.Display})
}

// ValuationTable is the ordered asset rows plus one total row.
type ValuationTable struct {
	Currency string          `json:"currency"`
	FXRate   decimal.Decimal `json:"fx_rate"`
	Rows     []ValuationRow  `json:"rows"`
	Total    ValuationRow    `json:"total"`
	Unpriced []string        `json:"unpriced,omitempty"`
}

// AllRows returns the asset rows followed by the total row.
func (t ValuationTable) AllRows() []ValuationRow {
	out := make([]ValuationRow, 0, len(t.Rows)+1)
	out = append(out, t.Rows...)
	return append(out, t.Total)
}

// ValuationSnapshot is a valuation recorded at a point in time for downstream sinks.
type ValuationSnapshot struct {
	SessionID string          `json:"session_id"`
	TakenAt   time.Time       `json:"taken_at"`
	Currency  string          `json:"currency"`
	FXRate    decimal.Decimal `json:"fx_rate"`
	Total     decimal.Decimal `json:"total"`
	Rows      []ValuationRow  `json:"rows"`
}
