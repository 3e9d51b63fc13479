package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerType is the kind of balance-affecting event.
type LedgerType string

const (
	LedgerTrade      LedgerType = "trade"
	LedgerDeposit    LedgerType = "deposit"
	LedgerWithdrawal LedgerType = "withdrawal"
	LedgerTransfer   LedgerType = "transfer"
	LedgerMargin     LedgerType = "margin"
	LedgerRollover   LedgerType = "rollover"
	LedgerSpend      LedgerType = "spend"
	LedgerReceive    LedgerType = "receive"
	LedgerSettled    LedgerType = "settled"
	LedgerAdjustment LedgerType = "adjustment"
	LedgerStaking    LedgerType = "staking"
)

// LedgerEntry is one immutable ledger record.
type LedgerEntry struct {
	ID      string          `json:"id"`
	RefID   string          `json:"ref_id"`
	Time    time.Time       `json:"time"`
	Asset   string          `json:"asset"`
	Amount  decimal.Decimal `json:"amount"`
	Balance decimal.Decimal `json:"balance"`
	Fee     decimal.Decimal `json:"fee"`
	Type    LedgerType      `json:"type"`
}

// LedgerQuery narrows a ledger fetch.
type LedgerQuery struct {
	Asset string
	Type  string
	Start time.Time
	End   time.Time
	Ofs   int
}

// RunningBalanceSeries is aligned 1:1 with the ledger feed it was derived from.
// An invalid cumulative value marks a position the reconstruction leaves undefined.
type RunningBalanceSeries struct {
	Entries       []LedgerEntry         `json:"entries"`
	Cumulative    []decimal.NullDecimal `json:"cumulative"`
	Chronological bool                  `json:"chronological"`
}

// Len returns the number of positions in the series.
func (s RunningBalanceSeries) Len() int { return len(s.Cumulative) }

// AssetLedger groups the ledger entries of one asset.
type AssetLedger struct {
	Asset   string        `json:"asset"`
	Entries []LedgerEntry `json:"entries"`
}

// LedgerBreakdown is the ledger split per non-fiat asset.
type LedgerBreakdown struct {
	Groups []AssetLedger `json:"groups"`
	Names  []string      `json:"names"`
}
