package pricing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FolioPull/internal/domain/models"
	"FolioPull/internal/domain/repository"
)

type tickerExchange struct {
	repository.Exchange

	mu      sync.Mutex
	tickers map[string]models.TickerSnapshot
	calls   []string
}

func (f *tickerExchange) GetTicker(_ context.Context, pair string) (models.TickerSnapshot, error) {
	f.mu.Lock()
	f.calls = append(f.calls, pair)
	f.mu.Unlock()
	t, ok := f.tickers[pair]
	if !ok {
		return models.TickerSnapshot{}, errors.New("EQuery:Unknown asset pair")
	}
	return t, nil
}

type batchExchange struct {
	*tickerExchange
	err     error
	batches int
}

func (b *batchExchange) GetTickers(_ context.Context, pairs []string) (map[string]models.TickerSnapshot, error) {
	b.batches++
	if b.err != nil {
		return nil, b.err
	}
	out := make(map[string]models.TickerSnapshot)
	for _, p := range pairs {
		if t, ok := b.tickers[p]; ok {
			out[p] = t
		}
	}
	return out, nil
}

type skipMetrics struct {
	repository.Metrics
	skips map[string]int
}

func (m *skipMetrics) RecordSkip(stage string, n int)       { m.skips[stage] += n }
func (m *skipMetrics) RecordLatency(string, float64)        {}
func (m *skipMetrics) RecordPortfolioValue(string, float64) {}

func last(v string) models.TickerSnapshot {
	return models.TickerSnapshot{Last: []string{v, "0.1"}}
}

func full() models.TickerSnapshot {
	return models.TickerSnapshot{
		Ask:  []string{"101.0", "1", "1.000"},
		Bid:  []string{"99.0", "1", "1.000"},
		Last: []string{"100.5", "0.2"},
		VWAP: []string{"98.25", "97.5"},
		Low:  []string{"95.0", "94.0"},
		High: []string{"104.0", "106.0"},
		Open: "97.0",
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestExtract(t *testing.T) {
	tests := []struct {
		kind models.PriceKind
		want string
	}{
		{models.PriceSpot, "100.5"},
		{models.PriceMid, "100"},
		{models.PriceVWAP, "98.25"},
		{models.PriceMax, "104"},
		{models.PriceMin, "95"},
		{models.PriceOpen, "97"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got, err := Extract("XBTUSD", full(), tt.kind)
			require.NoError(t, err)
			assert.True(t, dec(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestExtract_Errors(t *testing.T) {
	var shape *models.DataShapeError

	_, err := Extract("XBTUSD", models.TickerSnapshot{Ask: []string{"1"}}, models.PriceMid)
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, "b", shape.Field)

	_, err = Extract("XBTUSD", last("n/a"), models.PriceSpot)
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, "c", shape.Field)
	assert.Error(t, shape.Err)

	_, err = Extract("XBTUSD", models.TickerSnapshot{}, models.PriceOpen)
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, "o", shape.Field)

	_, err = Extract("XBTUSD", full(), models.PriceKind("median"))
	require.ErrorAs(t, err, &shape)
}

func TestNormalizeAsset(t *testing.T) {
	assert.Equal(t, "XBT", NormalizeAsset("XBTUSD", "USD"))
	assert.Equal(t, "EUR", NormalizeAsset("ZEURZUSD", "USD"))
	assert.Equal(t, "USD", NormalizeAsset("USD", "USD"))
	assert.Equal(t, "DOT", NormalizeAsset("DOT", ""))
	assert.Equal(t, "Z", NormalizeAsset("Z", "USD"))
}

func TestNormalizeKeys_FiatWrappedLast(t *testing.T) {
	in := []models.PricePoint{
		{Asset: "ZEURZUSD", Value: dec("1.08")},
		{Asset: "XBTUSD", Value: dec("30000")},
		{Asset: "DOT", Value: dec("5")},
	}
	out := NormalizeKeys(in, "USD")

	assert.Equal(t, []string{"DOT", "XBT", "EUR"}, models.Prices{Points: out}.Assets())
	assert.Equal(t, "ZEURZUSD", in[0].Asset, "input must not be mutated")
}

func TestPrices_PerPair(t *testing.T) {
	ex := &tickerExchange{tickers: map[string]models.TickerSnapshot{
		"XBTUSD": last("30000"),
		"ETHUSD": last("2000"),
		"GBPUSD": last("1.27"),
	}}
	m := &skipMetrics{skips: map[string]int{}}
	a := New(ex, WithConcurrency(2), WithMetrics(m))

	got, err := a.Prices(context.Background(), []string{"XBTUSD", "ETHUSD", "GBPUSD", "XBTUSD", "DOTUSD"}, models.PriceSpot)
	require.NoError(t, err)

	assert.Equal(t, []string{"XBT", "ETH"}, got.Assets())
	v, ok := got.Get("XBT")
	require.True(t, ok)
	assert.True(t, dec("30000").Equal(v))

	require.Len(t, got.Skipped, 1)
	assert.Equal(t, "DOTUSD", got.Skipped[0].ID)
	assert.True(t, models.IsUpstream(got.Skipped[0].Err))

	assert.ElementsMatch(t, []string{"XBTUSD", "ETHUSD", "DOTUSD"}, ex.calls)
	assert.Equal(t, 1, m.skips["prices"])
}

func TestPrices_BadPayloadIsSkipped(t *testing.T) {
	ex := &tickerExchange{tickers: map[string]models.TickerSnapshot{
		"XBTUSD": last("30000"),
		"ETHUSD": {},
	}}
	got, err := New(ex).Prices(context.Background(), []string{"XBTUSD", "ETHUSD"}, models.PriceSpot)
	require.NoError(t, err)

	assert.Equal(t, []string{"XBT"}, got.Assets())
	require.Len(t, got.Skipped, 1)
	var shape *models.DataShapeError
	assert.ErrorAs(t, got.Skipped[0].Err, &shape)
}

func TestPrices_AllFailedIsContained(t *testing.T) {
	ex := &tickerExchange{}
	got, err := New(ex).Prices(context.Background(), []string{"XBTUSD", "ETHUSD"}, models.PriceSpot)

	require.NoError(t, err)
	assert.Empty(t, got.Points)
	require.Len(t, got.Skipped, 2)
	for _, sk := range got.Skipped {
		assert.True(t, models.IsUpstream(sk.Err), sk.ID)
	}
	var partial *models.PartialBatchFailure
	require.ErrorAs(t, models.AsPartial(got.Skipped), &partial)
	assert.Len(t, partial.Skipped, 2)
}

func TestPrices_OnlyFiat(t *testing.T) {
	ex := &tickerExchange{}
	got, err := New(ex, WithFiatCurrencies([]string{"EUR"})).Prices(context.Background(), []string{"EURUSD"}, models.PriceSpot)
	require.NoError(t, err)
	assert.Empty(t, got.Points)
	assert.Empty(t, ex.calls)
}

func TestPrices_Batched(t *testing.T) {
	ex := &batchExchange{tickerExchange: &tickerExchange{tickers: map[string]models.TickerSnapshot{
		"XBTUSD": full(),
	}}}
	got, err := New(ex).Prices(context.Background(), []string{"XBTUSD", "DOTUSD"}, models.PriceMid)
	require.NoError(t, err)

	assert.Equal(t, 1, ex.batches)
	assert.Empty(t, ex.calls)
	assert.Equal(t, []string{"XBT"}, got.Assets())
	assert.Equal(t, models.PriceMid, got.Points[0].Kind)
	require.Len(t, got.Skipped, 1)
	assert.Equal(t, "DOTUSD", got.Skipped[0].ID)
}

func TestPrices_BatchFailureFallsBackToPerPair(t *testing.T) {
	ex := &batchExchange{
		tickerExchange: &tickerExchange{tickers: map[string]models.TickerSnapshot{"XBTUSD": last("30000")}},
		err:            errors.New("EGeneral:Too many requests"),
	}
	got, err := New(ex).Prices(context.Background(), []string{"XBTUSD"}, models.PriceSpot)
	require.NoError(t, err)
	assert.Equal(t, []string{"XBTUSD"}, ex.calls)
	assert.Equal(t, []string{"XBT"}, got.Assets())
}

func TestPrices_UnknownKind(t *testing.T) {
	ex := &tickerExchange{tickers: map[string]models.TickerSnapshot{"XBTUSD": last("30000")}}
	_, err := New(ex).Prices(context.Background(), []string{"XBTUSD"}, models.PriceKind("median"))
	assert.Error(t, err)
	assert.Empty(t, ex.calls)
}

func TestPrices_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ex := &tickerExchange{tickers: map[string]models.TickerSnapshot{"XBTUSD": last("30000")}}

	_, err := New(ex).Prices(ctx, []string{"XBTUSD"}, models.PriceSpot)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFXRate(t *testing.T) {
	ex := &tickerExchange{tickers: map[string]models.TickerSnapshot{
		"GBPUSD": last("1.25"),
		"ZERO":   last("0"),
	}}

	rate, err := FXRate(context.Background(), ex, "GBPUSD", false)
	require.NoError(t, err)
	assert.True(t, dec("1.25").Equal(rate))

	rate, err = FXRate(context.Background(), ex, "GBPUSD", true)
	require.NoError(t, err)
	assert.True(t, dec("0.8").Equal(rate), "got %s", rate)

	_, err = FXRate(context.Background(), ex, "ZERO", true)
	var shape *models.DataShapeError
	assert.ErrorAs(t, err, &shape)

	_, err = FXRate(context.Background(), ex, "EURUSD", false)
	assert.Error(t, err)
}
