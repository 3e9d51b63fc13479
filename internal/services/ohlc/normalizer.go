package ohlc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"FolioPull/internal/domain/models"
	"FolioPull/internal/domain/repository"
	domsvc "FolioPull/internal/domain/service"
	"FolioPull/internal/services/matcher"
	"FolioPull/internal/services/pricing"
	xlogger "FolioPull/pkg/logger"
)

// cryptoMarker prefixes canonical crypto asset codes (XXBT, XETH).
const cryptoMarker = "X"

// DefaultExclusions are never fetched: a stable-coin self pair and the fiat cross.
var DefaultExclusions = []string{"USDTUSD", "ZGBPZUSD"}

// Normalizer fetches candle history per pair and converts it into the display currency.
type Normalizer struct {
	exchange   repository.Exchange
	alias      domsvc.AssetMatcher
	quote      string
	exclusions map[string]struct{}
	now        func() time.Time
	logger     *xlogger.Logger
	metrics    repository.Metrics
}

// Option configures Normalizer.
type Option func(*Normalizer)

func WithQuote(quote string) Option {
	return func(n *Normalizer) { n.quote = quote }
}

// WithExclusions replaces the list of pairs never fetched.
func WithExclusions(pairs []string) Option {
	return func(n *Normalizer) {
		n.exclusions = make(map[string]struct{}, len(pairs))
		for _, p := range pairs {
			n.exclusions[p] = struct{}{}
		}
	}
}

// WithAliasMatcher sets the matcher guarding against aliased duplicate fetches.
func WithAliasMatcher(m domsvc.AssetMatcher) Option {
	return func(n *Normalizer) { n.alias = m }
}

// WithClock overrides the time source used for the window start.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

func WithLogger(l *xlogger.Logger) Option {
	return func(n *Normalizer) { n.logger = l }
}

func WithMetrics(m repository.Metrics) Option {
	return func(n *Normalizer) { n.metrics = m }
}

func New(exchange repository.Exchange, opts ...Option) *Normalizer {
	n := &Normalizer{
		exchange: exchange,
		alias:    matcher.NewRatio(matcher.DefaultCutoff),
		quote:    "USD",
		now:      time.Now,
		logger:   xlogger.Nop(),
	}
	WithExclusions(DefaultExclusions)(n)
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Candles fetches and converts the series of every eligible pair over tenure.
// A pair that fails is recorded in Skipped and the rest continue. The error is
// non-nil only for an invalid tenure or an ended context.
func (n *Normalizer) Candles(ctx context.Context, pairs []string, tenure models.Tenure, fxRate decimal.Decimal) (models.CandleSet, error) {
	if !tenure.Valid() {
		return models.CandleSet{}, errors.New("ohlc: unknown tenure " + string(tenure))
	}
	start := time.Now()
	set := models.CandleSet{
		Tenure:   tenure,
		Interval: SelectInterval(tenure),
		Since:    Since(n.now(), tenure),
		Series:   make(map[string]models.CandleSeries),
	}

	attempted := 0
	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return set, err
		}
		if !n.eligible(pair, set) {
			continue
		}

		attempted++
		rows, err := n.exchange.GetCandles(ctx, pair, set.Interval, set.Since)
		if err != nil {
			var ue *models.UpstreamRequestError
			if !errors.As(err, &ue) {
				err = &models.UpstreamRequestError{Op: "ohlc", Err: err}
			}
			n.logger.Warn("candles skipped", xlogger.String("pair", pair), xlogger.Error(err))
			set.Skipped = append(set.Skipped, models.NewSkip(pair, err))
			continue
		}
		candles, err := Convert(pair, rows, fxRate)
		if err != nil {
			n.logger.Warn("candle payload rejected", xlogger.String("pair", pair), xlogger.Error(err))
			set.Skipped = append(set.Skipped, models.NewSkip(pair, err))
			continue
		}

		set.Order = append(set.Order, pair)
		set.Series[pair] = models.CandleSeries{
			Pair:     pair,
			Asset:    pricing.NormalizeAsset(pair, n.quote),
			Interval: set.Interval,
			Candles:  candles,
		}
	}

	if n.metrics != nil {
		n.metrics.RecordSkip("candles", len(set.Skipped))
		n.metrics.RecordLatency("candles", time.Since(start).Seconds())
	}
	if attempted > 0 && len(set.Order) == 0 {
		n.logger.Error("no candle series delivered", xlogger.Int("attempted", attempted))
	}
	return set, nil
}

func (n *Normalizer) eligible(pair string, set models.CandleSet) bool {
	if !strings.HasSuffix(pair, n.quote) {
		n.logger.Debug("pair not quoted in quote currency", xlogger.String("pair", pair))
		return false
	}
	if _, excluded := n.exclusions[pair]; excluded {
		n.logger.Info("pair excluded from candles", xlogger.String("pair", pair))
		return false
	}
	if _, dup := set.Series[pair]; dup {
		return false
	}
	if len(pair) >= 3 && len(set.Order) > 0 {
		probe := cryptoMarker + pair[:3] + models.FiatMarker
		if match, _, ok := n.alias.Match(probe, set.Order); ok {
			n.logger.Info("pair already fetched under another name",
				xlogger.String("pair", pair),
				xlogger.String("fetched", match),
			)
			return false
		}
	}
	return true
}
