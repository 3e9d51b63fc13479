package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"FolioPull/internal/domain/models"
	"FolioPull/internal/domain/repository"
	xlogger "FolioPull/pkg/logger"
)

// DefaultFiatCurrencies are never priced as the base of a pair.
var DefaultFiatCurrencies = []string{"GBP", "USD", "EUR"}

// Aggregator extracts one price point per pair from ticker snapshots.
type Aggregator struct {
	exchange    repository.Exchange
	quote       string
	fiat        map[string]struct{}
	concurrency int
	logger      *xlogger.Logger
	metrics     repository.Metrics
}

// Option configures Aggregator.
type Option func(*Aggregator)

// WithQuote sets the quote suffix stripped from result keys.
func WithQuote(quote string) Option {
	return func(a *Aggregator) { a.quote = quote }
}

// WithFiatCurrencies replaces the fiat currency list.
func WithFiatCurrencies(codes []string) Option {
	return func(a *Aggregator) {
		a.fiat = make(map[string]struct{}, len(codes))
		for _, c := range codes {
			a.fiat[c] = struct{}{}
		}
	}
}

// WithConcurrency bounds parallel per-pair ticker requests.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

func WithLogger(l *xlogger.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

func WithMetrics(m repository.Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

func New(exchange repository.Exchange, opts ...Option) *Aggregator {
	a := &Aggregator{
		exchange:    exchange,
		quote:       "USD",
		concurrency: 4,
		logger:      xlogger.Nop(),
	}
	WithFiatCurrencies(DefaultFiatCurrencies)(a)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Prices returns one price per priceable pair keyed by plain asset code.
// Pairs that fail to fetch or parse are listed in Skipped, even when that is
// every pair. The error is non-nil only for an unknown kind or an ended context.
func (a *Aggregator) Prices(ctx context.Context, pairs []string, kind models.PriceKind) (models.Prices, error) {
	if _, err := models.ParsePriceKind(string(kind)); err != nil {
		return models.Prices{}, err
	}
	start := time.Now()
	wanted := a.priceable(pairs)
	if len(wanted) == 0 {
		return models.Prices{}, nil
	}

	snaps, skipped := a.fetch(ctx, wanted)
	if err := ctx.Err(); err != nil {
		return models.Prices{}, err
	}

	var out models.Prices
	raw := make([]models.PricePoint, 0, len(wanted))
	for _, pair := range wanted {
		snap, ok := snaps[pair]
		if !ok {
			continue
		}
		v, err := Extract(pair, snap, kind)
		if err != nil {
			a.logger.Warn("ticker payload rejected", xlogger.String("pair", pair), xlogger.Error(err))
			skipped = append(skipped, models.NewSkip(pair, err))
			continue
		}
		raw = append(raw, models.PricePoint{Asset: pair, Kind: kind, Value: v})
	}
	out.Points = NormalizeKeys(raw, a.quote)
	out.Skipped = skipped

	if a.metrics != nil {
		a.metrics.RecordSkip("prices", len(skipped))
		a.metrics.RecordLatency("prices", time.Since(start).Seconds())
	}
	if len(snaps) == 0 {
		a.logger.Error("no ticker delivered", xlogger.Int("pairs", len(wanted)))
	}
	return out, nil
}

// priceable drops duplicates and pairs whose three-letter prefix is a fiat currency.
func (a *Aggregator) priceable(pairs []string) []string {
	seen := make(map[string]struct{}, len(pairs))
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		if len(p) >= 3 {
			if _, isFiat := a.fiat[p[:3]]; isFiat {
				a.logger.Debug("fiat pair not priced", xlogger.String("pair", p))
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

func (a *Aggregator) fetch(ctx context.Context, pairs []string) (map[string]models.TickerSnapshot, []models.Skip) {
	if bt, ok := a.exchange.(repository.BatchTicker); ok {
		got, err := bt.GetTickers(ctx, pairs)
		if err == nil {
			var skipped []models.Skip
			for _, p := range pairs {
				if _, ok := got[p]; !ok {
					err := &models.UpstreamRequestError{Op: "ticker", Err: fmt.Errorf("pair %s not delivered", p)}
					a.logger.Warn("ticker skipped", xlogger.String("pair", p), xlogger.Error(err))
					skipped = append(skipped, models.NewSkip(p, err))
				}
			}
			return got, skipped
		}
		a.logger.Warn("batched ticker failed, falling back to per-pair requests", xlogger.Error(err))
	}
	return a.fetchEach(ctx, pairs)
}

func (a *Aggregator) fetchEach(ctx context.Context, pairs []string) (map[string]models.TickerSnapshot, []models.Skip) {
	type result struct {
		snap models.TickerSnapshot
		err  error
	}
	results := make([]result, len(pairs))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, pair := range pairs {
		i, pair := i, pair
		g.Go(func() error {
			snap, err := a.exchange.GetTicker(ctx, pair)
			results[i] = result{snap: snap, err: err}
			return nil
		})
	}
	_ = g.Wait()

	snaps := make(map[string]models.TickerSnapshot, len(pairs))
	var skipped []models.Skip
	for i, pair := range pairs {
		if err := results[i].err; err != nil {
			var ue *models.UpstreamRequestError
			if !errors.As(err, &ue) {
				err = &models.UpstreamRequestError{Op: "ticker", Err: err}
			}
			a.logger.Warn("ticker skipped", xlogger.String("pair", pair), xlogger.Error(err))
			skipped = append(skipped, models.NewSkip(pair, err))
			continue
		}
		snaps[pair] = results[i].snap
	}
	return snaps, skipped
}
