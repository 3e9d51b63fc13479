package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is an open order as listed by the exchange. It is never acted upon.
type Order struct {
	ID        string          `json:"id"`
	Pair      string          `json:"pair"`
	Side      string          `json:"side"`
	OrderType string          `json:"order_type"`
	Price     decimal.Decimal `json:"price"`
	Volume    decimal.Decimal `json:"volume"`
	Executed  decimal.Decimal `json:"executed"`
	Status    string          `json:"status"`
	OpenedAt  time.Time       `json:"opened_at"`
	Desc      string          `json:"description"`
}

// Trade is one historical fill.
type Trade struct {
	ID      string          `json:"id"`
	OrderID string          `json:"order_id"`
	Pair    string          `json:"pair"`
	Time    time.Time       `json:"time"`
	Side    string          `json:"side"`
	Price   decimal.Decimal `json:"price"`
	Cost    decimal.Decimal `json:"cost"`
	Fee     decimal.Decimal `json:"fee"`
	Volume  decimal.Decimal `json:"volume"`
}

// TradeBalance summarises the margin account in the requested asset.
type TradeBalance struct {
	Asset             string          `json:"asset"`
	EquivalentBalance decimal.Decimal `json:"equivalent_balance"`
	TradeBalance      decimal.Decimal `json:"trade_balance"`
	MarginAmount      decimal.Decimal `json:"margin_amount"`
	UnrealizedPnL     decimal.Decimal `json:"unrealized_pnl"`
	CostBasis         decimal.Decimal `json:"cost_basis"`
	FloatingValuation decimal.Decimal `json:"floating_valuation"`
	Equity            decimal.Decimal `json:"equity"`
	FreeMargin        decimal.Decimal `json:"free_margin"`
	MarginLevel       decimal.Decimal `json:"margin_level"`
	UnexecutedValue   decimal.Decimal `json:"unexecuted_value"`
}
