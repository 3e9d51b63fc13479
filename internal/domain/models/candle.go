package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tenure is a categorical lookback window.
type Tenure string

const (
	Tenure1D Tenure = "1D"
	Tenure7D Tenure = "7D"
	Tenure1M Tenure = "1M"
	Tenure3M Tenure = "3M"
	Tenure6M Tenure = "6M"
	Tenure1Y Tenure = "1Y"
)

var tenureMinutes = map[Tenure]int{
	Tenure1D: 1440,
	Tenure7D: 10080,
	Tenure1M: 43200,
	Tenure3M: 129600,
	Tenure6M: 259200,
	Tenure1Y: 518400,
}

// Minutes returns the tenure length in minutes, or 0 for an unknown tenure.
func (t Tenure) Minutes() int { return tenureMinutes[t] }

// Valid reports whether t is a known tenure.
func (t Tenure) Valid() bool {
	_, ok := tenureMinutes[t]
	return ok
}

// RawCandle is one OHLC row as delivered by the exchange:
// [time, open, high, low, close, vwap, volume, count].
type RawCandle []any

// Candle is one time bucket converted into the display currency.
type Candle struct {
	Timestamp  time.Time       `json:"timestamp"`
	Open       decimal.Decimal `json:"open"`
	High       decimal.Decimal `json:"high"`
	Low        decimal.Decimal `json:"low"`
	Close      decimal.Decimal `json:"close"`
	Volume     decimal.Decimal `json:"volume"`
	TradeCount int64           `json:"trade_count"`
}

// CandleSeries is a time-ascending, timestamp-unique sequence of candles for one pair.
type CandleSeries struct {
	Pair     string   `json:"pair"`
	Asset    string   `json:"asset"`
	Interval int      `json:"interval"`
	Candles  []Candle `json:"candles"`
}

// CandleSet is the outcome of a multi-pair candle fetch.
type CandleSet struct {
	Tenure   Tenure                  `json:"tenure"`
	Interval int                     `json:"interval"`
	Since    int64                   `json:"since"`
	Order    []string                `json:"order"`
	Series   map[string]CandleSeries `json:"series"`
	Skipped  []Skip                  `json:"skipped,omitempty"`
}
