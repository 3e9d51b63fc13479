package repository

import (
	"context"

	"FolioPull/internal/domain/models"
)

// Exchange is the read-only exchange collaborator. Signing and transport live behind it.
type Exchange interface {
	ListAssetPairs(ctx context.Context) ([]models.AssetPair, error)
	GetTicker(ctx context.Context, pair string) (models.TickerSnapshot, error)
	GetCandles(ctx context.Context, pair string, intervalMinutes int, since int64) ([]models.RawCandle, error)
	GetBalances(ctx context.Context) ([]models.Balance, error)
	GetLedger(ctx context.Context, q models.LedgerQuery) ([]models.LedgerEntry, error)
	GetOpenOrders(ctx context.Context) ([]models.Order, error)
	GetTradesHistory(ctx context.Context) ([]models.Trade, error)
	GetTradeBalance(ctx context.Context, asset string) (models.TradeBalance, error)
}

// BatchTicker is implemented by exchanges that can fetch many tickers in one call.
// Pairs absent from the returned map were not delivered.
type BatchTicker interface {
	GetTickers(ctx context.Context, pairs []string) (map[string]models.TickerSnapshot, error)
}

// SnapshotSink records valuation snapshots downstream.
type SnapshotSink interface {
	Record(ctx context.Context, snap *models.ValuationSnapshot) error
	Close() error
}

type Metrics interface {
	RecordUpstream(op, result string)
	RecordSkip(stage string, n int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordPortfolioValue(currency string, value float64)
}
