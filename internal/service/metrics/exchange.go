// Package metrics instruments the exchange collaborator with call counters
// and latency histograms.
package metrics

import (
	"context"
	"errors"
	"time"

	"FolioPull/internal/domain/models"
	"FolioPull/internal/domain/repository"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

// Exchange decorates a repository.Exchange. It also implements
// repository.BatchTicker when the wrapped exchange does.
type Exchange struct {
	next    repository.Exchange
	metrics repository.Metrics
	now     func() time.Time
}

// Instrument wraps next. A nil recorder returns next unchanged.
func Instrument(next repository.Exchange, m repository.Metrics) repository.Exchange {
	if m == nil {
		return next
	}
	e := &Exchange{next: next, metrics: m, now: time.Now}
	if _, ok := next.(repository.BatchTicker); ok {
		return &batchExchange{Exchange: e}
	}
	return e
}

// ErrorKind classifies err for the errors_total counter.
func ErrorKind(err error) string {
	var (
		ue *models.UpstreamRequestError
		de *models.DataShapeError
		re *models.ResolutionError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &ue):
		return "upstream"
	case errors.As(err, &de):
		return "data_shape"
	case errors.As(err, &re):
		return "resolution"
	default:
		return "internal"
	}
}

func (e *Exchange) observe(op string, start time.Time, err error) {
	e.metrics.RecordLatency("exchange_"+op, e.now().Sub(start).Seconds())
	if err != nil {
		e.metrics.RecordUpstream(op, resultError)
		e.metrics.RecordError(ErrorKind(err))
		return
	}
	e.metrics.RecordUpstream(op, resultOK)
}

func (e *Exchange) ListAssetPairs(ctx context.Context) (out []models.AssetPair, err error) {
	defer func(start time.Time) { e.observe("asset_pairs", start, err) }(e.now())
	return e.next.ListAssetPairs(ctx)
}

func (e *Exchange) GetTicker(ctx context.Context, pair string) (out models.TickerSnapshot, err error) {
	defer func(start time.Time) { e.observe("ticker", start, err) }(e.now())
	return e.next.GetTicker(ctx, pair)
}

func (e *Exchange) GetCandles(ctx context.Context, pair string, interval int, since int64) (out []models.RawCandle, err error) {
	defer func(start time.Time) { e.observe("ohlc", start, err) }(e.now())
	return e.next.GetCandles(ctx, pair, interval, since)
}

func (e *Exchange) GetBalances(ctx context.Context) (out []models.Balance, err error) {
	defer func(start time.Time) { e.observe("balances", start, err) }(e.now())
	return e.next.GetBalances(ctx)
}

func (e *Exchange) GetLedger(ctx context.Context, q models.LedgerQuery) (out []models.LedgerEntry, err error) {
	defer func(start time.Time) { e.observe("ledger", start, err) }(e.now())
	return e.next.GetLedger(ctx, q)
}

func (e *Exchange) GetOpenOrders(ctx context.Context) (out []models.Order, err error) {
	defer func(start time.Time) { e.observe("open_orders", start, err) }(e.now())
	return e.next.GetOpenOrders(ctx)
}

func (e *Exchange) GetTradesHistory(ctx context.Context) (out []models.Trade, err error) {
	defer func(start time.Time) { e.observe("trades", start, err) }(e.now())
	return e.next.GetTradesHistory(ctx)
}

func (e *Exchange) GetTradeBalance(ctx context.Context, asset string) (out models.TradeBalance, err error) {
	defer func(start time.Time) { e.observe("trade_balance", start, err) }(e.now())
	return e.next.GetTradeBalance(ctx, asset)
}

type batchExchange struct {
	*Exchange
}

func (b *batchExchange) GetTickers(ctx context.Context, pairs []string) (out map[string]models.TickerSnapshot, err error) {
	defer func(start time.Time) { b.observe("ticker_batch", start, err) }(b.now())
	return b.next.(repository.BatchTicker).GetTickers(ctx, pairs)
}
