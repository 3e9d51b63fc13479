package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FolioPull/internal/domain/models"
	"FolioPull/internal/services/matcher"
	"FolioPull/internal/services/ohlc"
	"FolioPull/internal/services/pricing"
	"FolioPull/internal/services/resolver"
	"FolioPull/internal/services/valuation"
	"FolioPull/pkg/cache"
)

type fakeExchange struct {
	mu         sync.Mutex
	calls      map[string]int
	pairs      []models.AssetPair
	balances   []models.Balance
	tickers    map[string]models.TickerSnapshot
	candles    map[string][]models.RawCandle
	candleErrs map[string]error
	ledger     []models.LedgerEntry
}

func (f *fakeExchange) hit(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[op]++
}

func (f *fakeExchange) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeExchange) ListAssetPairs(context.Context) ([]models.AssetPair, error) {
	f.hit("asset_pairs")
	return f.pairs, nil
}

func (f *fakeExchange) GetTicker(_ context.Context, pair string) (models.TickerSnapshot, error) {
	f.hit("ticker")
	t, ok := f.tickers[pair]
	if !ok {
		return models.TickerSnapshot{}, &models.UpstreamRequestError{Op: "ticker", Err: errors.New("unknown pair")}
	}
	return t, nil
}

func (f *fakeExchange) GetCandles(_ context.Context, pair string, _ int, _ int64) ([]models.RawCandle, error) {
	f.hit("candles")
	if err := f.candleErrs[pair]; err != nil {
		return nil, err
	}
	return f.candles[pair], nil
}

func (f *fakeExchange) GetBalances(context.Context) ([]models.Balance, error) {
	f.hit("balances")
	return f.balances, nil
}

func (f *fakeExchange) GetLedger(context.Context, models.LedgerQuery) ([]models.LedgerEntry, error) {
	f.hit("ledger")
	return f.ledger, nil
}

func (f *fakeExchange) GetOpenOrders(context.Context) ([]models.Order, error) {
	return []models.Order{{ID: "O1", Pair: "XBTUSD"}}, nil
}

func (f *fakeExchange) GetTradesHistory(context.Context) ([]models.Trade, error) {
	return []models.Trade{{ID: "T1", Pair: "XBTUSD"}}, nil
}

func (f *fakeExchange) GetTradeBalance(_ context.Context, asset string) (models.TradeBalance, error) {
	return models.TradeBalance{Asset: asset}, nil
}

type recordingSink struct {
	mu    sync.Mutex
	snaps []*models.ValuationSnapshot
	err   error
}

func (s *recordingSink) Record(_ context.Context, snap *models.ValuationSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.snaps = append(s.snaps, snap)
	return nil
}

func (s *recordingSink) Close() error { return nil }

func last(v string) models.TickerSnapshot {
	return models.TickerSnapshot{Last: []string{v, "1"}}
}

func newFake() *fakeExchange {
	return &fakeExchange{
		pairs: []models.AssetPair{
			{Name: "XXBTZUSD", Altname: "XBTUSD", Base: "XXBT", Quote: "ZUSD"},
			{Name: "XETHZUSD", Altname: "ETHUSD", Base: "XETH", Quote: "ZUSD"},
			{Name: "ADAUSD", Altname: "ADAUSD", Base: "ADA", Quote: "ZUSD"},
			{Name: "GBPUSD", Altname: "GBPUSD", Base: "ZGBP", Quote: "ZUSD"},
		},
		balances: []models.Balance{
			{Asset: "XBT", Amount: decimal.RequireFromString("0.1")},
			{Asset: "ETH", Amount: decimal.RequireFromString("2.0")},
			{Asset: "ZGBP", Amount: decimal.RequireFromString("1000")},
			{Asset: "DOT", Amount: decimal.Zero},
		},
		tickers: map[string]models.TickerSnapshot{
			"XBTUSD": last("30000"),
			"ETHUSD": last("2000"),
			"ADAUSD": last("0.5"),
			"GBPUSD": last("1.27"),
		},
	}
}

func newTestSession(t *testing.T, ex *fakeExchange, opts ...SessionOption) *Session {
	t.Helper()
	store := cache.NewMemoryCache()
	t.Cleanup(func() { _ = store.Close() })
	return newTestSessionOn(t, store, ex, opts...)
}

func newTestSessionOn(t *testing.T, store cache.Service, ex *fakeExchange, opts ...SessionOption) *Session {
	t.Helper()

	names := matcher.NewRatio(matcher.DefaultCutoff)
	svc := Services{
		Resolver: resolver.New(names, resolver.WithQuote("USD")),
		Prices:   pricing.New(ex, pricing.WithQuote("USD")),
		Candles: ohlc.New(ex, ohlc.WithQuote("USD"), ohlc.WithClock(func() time.Time {
			return time.Unix(1_700_000_000, 0)
		})),
		Valuator: valuation.New("GBP"),
		Names:    names,
	}
	cfg := PortfolioConfig{
		DisplayCurrency:   "GBP",
		QuoteCurrency:     "USD",
		FXPair:            "GBPUSD",
		TradeBalanceAsset: "ZUSD",
	}
	s, err := NewSession(cfg, store, ex, svc, opts...)
	require.NoError(t, err)
	return s
}

func TestSession_ValuationTotalsRoundedRows(t *testing.T) {
	ex := newFake()
	sink := &recordingSink{}
	s := newTestSession(t, ex, WithRecorder(NewSnapshotRecorder(sink, nil, nil, time.Second)))

	res, err := s.Valuation(context.Background(), models.PriceSpot)
	require.NoError(t, err)

	table := res.Table
	require.Len(t, table.Rows, 3)
	want := map[string]string{"XBT": "3810", "ETH": "5080", "ZGBP": "1000"}
	for _, row := range table.Rows {
		assert.True(t, decimal.RequireFromString(want[row.Asset]).Equal(row.Value), row.Asset)
	}
	assert.True(t, decimal.RequireFromString("9890").Equal(table.Total.Value))
	assert.Equal(t, "£9,890.00", table.Total.Display)
	assert.Empty(t, table.Unpriced)
	assert.Empty(t, res.Skipped)

	require.Len(t, sink.snaps, 1)
	snap := sink.snaps[0]
	assert.Equal(t, s.ID(), snap.SessionID)
	assert.Equal(t, "GBP", snap.Currency)
	assert.Len(t, snap.Rows, 4)
}

func TestSession_SinkFailureDoesNotFailValuation(t *testing.T) {
	ex := newFake()
	sink := &recordingSink{err: errors.New("broker down")}
	s := newTestSession(t, ex, WithRecorder(NewSnapshotRecorder(sink, nil, nil, time.Second)))

	res, err := s.Valuation(context.Background(), models.PriceSpot)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("9890").Equal(res.Table.Total.Value))
}

func TestSession_UnresolvedAssetIsSkippedNotFatal(t *testing.T) {
	ex := newFake()
	ex.balances = append(ex.balances, models.Balance{Asset: "QQQQQQQ", Amount: decimal.NewFromInt(3)})
	s := newTestSession(t, ex)

	res, err := s.Valuation(context.Background(), models.PriceSpot)
	require.NoError(t, err)
	assert.Equal(t, []string{"QQQQQQQ"}, res.Table.Unpriced)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "QQQQQQQ", res.Skipped[0].ID)
	assert.True(t, decimal.RequireFromString("9890").Equal(res.Table.Total.Value))

	balances, err := s.Balances(context.Background())
	require.NoError(t, err)
	assert.Len(t, balances, 4)
}

func TestSession_ValuationKeepsFiatWhenNoCryptoIsPriced(t *testing.T) {
	ex := newFake()
	ex.balances = []models.Balance{
		{Asset: "XBT", Amount: decimal.RequireFromString("0.1")},
		{Asset: "ZGBP", Amount: decimal.RequireFromString("1000")},
	}
	delete(ex.tickers, "XBTUSD")
	s := newTestSession(t, ex)

	res, err := s.Valuation(context.Background(), models.PriceSpot)
	require.NoError(t, err)

	require.Len(t, res.Table.Rows, 1)
	assert.Equal(t, "ZGBP", res.Table.Rows[0].Asset)
	assert.True(t, decimal.RequireFromString("1000").Equal(res.Table.Rows[0].Value))
	assert.True(t, decimal.RequireFromString("1000").Equal(res.Table.Total.Value))
	assert.Equal(t, "£1,000.00", res.Table.Total.Display)
	assert.Equal(t, []string{"XBT"}, res.Table.Unpriced)

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "XBTUSD", res.Skipped[0].ID)
	assert.True(t, models.IsUpstream(res.Skipped[0].Err))
}

func TestSession_SnapshotIsCachedUntilRefresh(t *testing.T) {
	ctx := context.Background()
	ex := newFake()
	s := newTestSession(t, ex)

	for i := 0; i < 3; i++ {
		_, err := s.Valuation(ctx, models.PriceSpot)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, ex.count("balances"))
	assert.Equal(t, 1, ex.count("asset_pairs"))

	require.NoError(t, s.Refresh(ctx))
	_, err := s.Balances(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ex.count("balances"))
}

func TestSession_SnapshotDoesNotExpireWithTime(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := cache.NewMemoryCache(cache.WithMemoryClock(func() time.Time { return now }))
	defer store.Close()
	ex := newFake()
	s := newTestSessionOn(t, store, ex)

	first, err := s.Balances(ctx)
	require.NoError(t, err)
	_, err = s.FXRate(ctx)
	require.NoError(t, err)

	now = now.Add(72 * time.Hour)
	ex.mu.Lock()
	ex.balances = append(ex.balances, models.Balance{Asset: "ADA", Amount: decimal.NewFromInt(50)})
	ex.tickers["GBPUSD"] = last("1.30")
	ex.mu.Unlock()

	again, err := s.Balances(ctx)
	require.NoError(t, err)
	assert.Len(t, again, len(first))
	for _, b := range again {
		assert.NotEqual(t, "ADA", b.Asset)
	}
	fx, err := s.FXRate(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1.27").Equal(fx), fx.String())
	assert.Equal(t, 1, ex.count("balances"))

	require.NoError(t, s.Refresh(ctx))
	refreshed, err := s.Balances(ctx)
	require.NoError(t, err)
	assert.Len(t, refreshed, len(first)+1)
	assert.Equal(t, 2, ex.count("balances"))
}

func TestSession_FXRateIsOneForQuoteDisplay(t *testing.T) {
	ex := newFake()
	store := cache.NewMemoryCache()
	defer store.Close()
	names := matcher.NewRatio(0)
	s, err := NewSession(PortfolioConfig{DisplayCurrency: "USD", QuoteCurrency: "USD", FXPair: "GBPUSD"}, store, ex, Services{
		Resolver: resolver.New(names),
		Prices:   pricing.New(ex),
		Candles:  ohlc.New(ex),
		Valuator: valuation.New("USD"),
		Names:    names,
	})
	require.NoError(t, err)

	fx, err := s.FXRate(context.Background())
	require.NoError(t, err)
	assert.True(t, fx.Equal(decimal.NewFromInt(1)))
	assert.Zero(t, ex.count("ticker"))
}

func TestSession_PricesKeyedByAsset(t *testing.T) {
	s := newTestSession(t, newFake())

	res, err := s.Prices(context.Background(), models.PriceSpot)
	require.NoError(t, err)
	assert.Equal(t, []string{"XBT", "ETH"}, res.Prices.Assets())
	v, ok := res.Prices.Get("XBT")
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromInt(30000)))
}

func TestSession_CandlesSkipOneFailedPair(t *testing.T) {
	ex := newFake()
	ex.balances = []models.Balance{
		{Asset: "XBT", Amount: decimal.NewFromInt(1)},
		{Asset: "ETH", Amount: decimal.NewFromInt(1)},
		{Asset: "ADA", Amount: decimal.NewFromInt(1)},
	}
	row := func(ts int64, price string) models.RawCandle {
		return models.RawCandle{float64(ts), price, price, price, price, price, "1.5", float64(3)}
	}
	ex.candles = map[string][]models.RawCandle{
		"XBTUSD": {row(120, "100"), row(60, "100"), row(120, "100")},
		"ADAUSD": {row(60, "1")},
	}
	ex.candleErrs = map[string]error{"ETHUSD": errors.New("EGeneral:Internal error")}
	s := newTestSession(t, ex)

	set, err := s.Candles(context.Background(), models.Tenure7D)
	require.NoError(t, err)
	assert.Equal(t, 15, set.Interval)
	assert.Equal(t, []string{"XBTUSD", "ADAUSD"}, set.Order)
	require.Len(t, set.Skipped, 1)
	assert.Equal(t, "ETHUSD", set.Skipped[0].ID)

	xbt := set.Series["XBTUSD"]
	assert.Equal(t, "XBT", xbt.Asset)
	require.Len(t, xbt.Candles, 2)
	assert.True(t, xbt.Candles[0].Timestamp.Before(xbt.Candles[1].Timestamp))
	// 100 USD at 1.27 USD per GBP
	assert.True(t, decimal.RequireFromString("127").Equal(xbt.Candles[0].Close))
}

func TestSession_LedgerHistory(t *testing.T) {
	ex := newFake()
	ex.ledger = []models.LedgerEntry{
		{ID: "L3", Asset: "XXBT", Amount: decimal.NewFromInt(10), Balance: decimal.NewFromInt(480)},
		{ID: "L2", Asset: "XXBT", Amount: decimal.NewFromInt(-5)},
		{ID: "L1", Asset: "XXBT", Amount: decimal.NewFromInt(20)},
	}
	s := newTestSession(t, ex)
	ctx := context.Background()

	anchor := decimal.NewFromInt(500)
	series, err := s.LedgerHistory(ctx, models.LedgerQuery{}, &anchor, false)
	require.NoError(t, err)
	require.Equal(t, 3, series.Len())
	assert.True(t, series.Cumulative[0].Decimal.Equal(decimal.NewFromInt(500)))
	assert.True(t, series.Cumulative[1].Decimal.Equal(decimal.NewFromInt(505)))
	assert.False(t, series.Cumulative[2].Valid)

	series, err = s.LedgerHistory(ctx, models.LedgerQuery{}, nil, true)
	require.NoError(t, err)
	assert.True(t, series.Chronological)
	assert.Equal(t, "L1", series.Entries[0].ID)
	assert.False(t, series.Cumulative[0].Valid)
	assert.True(t, series.Cumulative[2].Decimal.Equal(decimal.NewFromInt(480)))

	assert.Equal(t, 1, ex.count("ledger"))
}

func TestSession_BreakdownAndAccountViews(t *testing.T) {
	ex := newFake()
	ex.ledger = []models.LedgerEntry{
		{ID: "L4", Asset: "XXBT", Amount: decimal.NewFromInt(1)},
		{ID: "L3", Asset: "ZGBP", Amount: decimal.NewFromInt(-100)},
		{ID: "L2", Asset: "XETH", Amount: decimal.NewFromInt(2)},
		{ID: "L1", Asset: "XXBT", Amount: decimal.NewFromInt(1)},
	}
	s := newTestSession(t, ex)
	ctx := context.Background()

	b, err := s.Breakdown(ctx)
	require.NoError(t, err)
	require.Len(t, b.Groups, 2)
	assert.Equal(t, "XXBT", b.Groups[0].Asset)
	assert.Len(t, b.Groups[0].Entries, 2)
	assert.Equal(t, "XETH", b.Groups[1].Asset)

	orders, err := s.OpenOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	trades, err := s.Trades(ctx)
	require.NoError(t, err)
	assert.Len(t, trades, 1)

	tb, err := s.TradeBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ZUSD", tb.Asset)
}

func TestSession_RefreshRejectsConcurrentRefresh(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, newFake())

	ok, err := s.cache.TryLock(ctx, refreshLock, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	assert.ErrorIs(t, s.Refresh(ctx), ErrRefreshInProgress)
}
