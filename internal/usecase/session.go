package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"FolioPull/internal/domain/models"
	drepo "FolioPull/internal/domain/repository"
	domsvc "FolioPull/internal/domain/service"
	sessioncache "FolioPull/internal/service/cache"
	"FolioPull/internal/services/ledger"
	"FolioPull/internal/services/ohlc"
	"FolioPull/internal/services/pricing"
	"FolioPull/internal/services/resolver"
	"FolioPull/internal/services/valuation"
	"FolioPull/pkg/cache"
	xlogger "FolioPull/pkg/logger"
)

// Cached snapshot operations.
const (
	OpAssetPairs = "asset_pairs"
	OpBalances   = "balances"
	OpFXRate     = "fx_rate"
	OpLedger     = "ledger"
)

const refreshLock = "refresh"

// ErrRefreshInProgress is returned when another refresh holds the session lock.
var ErrRefreshInProgress = errors.New("session refresh already in progress")

// PortfolioConfig carries the currency settings of one session.
type PortfolioConfig struct {
	DisplayCurrency   string
	QuoteCurrency     string
	FXPair            string
	FXInvert          bool
	TradeBalanceAsset string
}

// Services bundles the pure engines a session orchestrates.
type Services struct {
	Resolver *resolver.Resolver
	Prices   *pricing.Aggregator
	Candles  *ohlc.Normalizer
	Valuator *valuation.Valuator
	// Names folds near-duplicate asset names in the ledger breakdown.
	Names domsvc.AssetMatcher
}

// PriceResult is a price list for the resolved holdings of a snapshot.
type PriceResult struct {
	Kind   models.PriceKind `json:"kind"`
	Prices models.Prices    `json:"prices"`
}

// ValuationResult is a valuation table plus every item left out of it.
type ValuationResult struct {
	Table   models.ValuationTable `json:"table"`
	Skipped []models.Skip         `json:"skipped,omitempty"`
}

// Session ties one snapshot of the account (instrument universe, balances,
// FX rate, ledger) to a cache namespace. Derived views are recomputed on demand.
type Session struct {
	id       string
	cfg      PortfolioConfig
	cache    *sessioncache.Session
	exchange drepo.Exchange
	svc      Services
	recorder *SnapshotRecorder
	metrics  drepo.Metrics
	logger   *xlogger.Logger
	now      func() time.Time
}

type SessionOption func(*Session)

// WithSessionID fixes the session id instead of generating one.
func WithSessionID(id string) SessionOption {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

func WithRecorder(r *SnapshotRecorder) SessionOption {
	return func(s *Session) { s.recorder = r }
}

func WithSessionMetrics(m drepo.Metrics) SessionOption {
	return func(s *Session) { s.metrics = m }
}

func WithSessionLogger(l *xlogger.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// NewSession opens a session over store. The namespace of its cached entries
// is derived from the session id.
func NewSession(
	cfg PortfolioConfig,
	store cache.Service,
	exchange drepo.Exchange,
	svc Services,
	opts ...SessionOption,
) (*Session, error) {
	if store == nil {
		return nil, fmt.Errorf("session: cache store is nil")
	}
	if exchange == nil {
		return nil, fmt.Errorf("session: exchange is nil")
	}
	if svc.Resolver == nil || svc.Prices == nil || svc.Candles == nil || svc.Valuator == nil || svc.Names == nil {
		return nil, fmt.Errorf("session: incomplete services")
	}
	if cfg.QuoteCurrency == "" {
		cfg.QuoteCurrency = resolver.DefaultQuote
	}
	if cfg.DisplayCurrency == "" {
		cfg.DisplayCurrency = cfg.QuoteCurrency
	}

	s := &Session{
		id:       uuid.NewString(),
		cfg:      cfg,
		exchange: exchange,
		svc:      svc,
		logger:   xlogger.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.recorder == nil {
		s.recorder = NewSnapshotRecorder(nil, s.metrics, s.logger, 0)
	}
	s.logger = s.logger.With(xlogger.String("session", s.id))
	s.cache = sessioncache.NewSession(store, s.id, sessioncache.WithLogger(s.logger))
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Currency returns the display currency.
func (s *Session) Currency() string { return s.cfg.DisplayCurrency }

// AssetPairs returns the instrument universe of the snapshot.
func (s *Session) AssetPairs(ctx context.Context) ([]models.AssetPair, error) {
	return sessioncache.Remember(ctx, s.cache, OpAssetPairs, "", s.exchange.ListAssetPairs)
}

// Balances returns the non-zero holdings of the snapshot.
func (s *Session) Balances(ctx context.Context) ([]models.Balance, error) {
	balances, err := sessioncache.Remember(ctx, s.cache, OpBalances, "", s.exchange.GetBalances)
	if err != nil {
		return nil, err
	}
	return models.NonZero(balances), nil
}

// Resolve binds every held asset to a tradable pair.
func (s *Session) Resolve(ctx context.Context) (models.ResolvedBalances, error) {
	balances, err := s.Balances(ctx)
	if err != nil {
		return models.ResolvedBalances{}, fmt.Errorf("balances: %w", err)
	}
	universe, err := s.AssetPairs(ctx)
	if err != nil {
		return models.ResolvedBalances{}, fmt.Errorf("asset pairs: %w", err)
	}
	resolved := s.svc.Resolver.ResolveAll(balances, universe)
	s.recordSkip("resolve", len(resolved.Skipped))
	return resolved, nil
}

// FXRate returns the quote -> display multiplier, 1 when both currencies agree.
func (s *Session) FXRate(ctx context.Context) (decimal.Decimal, error) {
	if s.cfg.DisplayCurrency == s.cfg.QuoteCurrency || s.cfg.FXPair == "" {
		return decimal.NewFromInt(1), nil
	}
	return sessioncache.Remember(ctx, s.cache, OpFXRate, s.cfg.FXPair, func(ctx context.Context) (decimal.Decimal, error) {
		return pricing.FXRate(ctx, s.exchange, s.cfg.FXPair, s.cfg.FXInvert)
	})
}

// Prices extracts one price of the requested kind per resolved holding.
// Unresolved holdings are reported among the skipped items.
func (s *Session) Prices(ctx context.Context, kind models.PriceKind) (PriceResult, error) {
	resolved, err := s.Resolve(ctx)
	if err != nil {
		return PriceResult{}, err
	}
	prices, err := s.svc.Prices.Prices(ctx, resolved.Pairs(), kind)
	if err != nil {
		return PriceResult{}, fmt.Errorf("prices: %w", err)
	}
	prices.Skipped = append(append([]models.Skip(nil), resolved.Skipped...), prices.Skipped...)
	return PriceResult{Kind: kind, Prices: prices}, nil
}

// Valuation values every holding in the display currency and records the
// resulting snapshot. Holdings that cannot be priced are listed as unpriced and
// skipped while fiat rows still pass through. A failing sink never fails the
// valuation.
func (s *Session) Valuation(ctx context.Context, kind models.PriceKind) (ValuationResult, error) {
	balances, err := s.Balances(ctx)
	if err != nil {
		return ValuationResult{}, fmt.Errorf("balances: %w", err)
	}
	universe, err := s.AssetPairs(ctx)
	if err != nil {
		return ValuationResult{}, fmt.Errorf("asset pairs: %w", err)
	}
	resolved := s.svc.Resolver.ResolveAll(balances, universe)
	s.recordSkip("resolve", len(resolved.Skipped))

	prices, err := s.svc.Prices.Prices(ctx, resolved.Pairs(), kind)
	if err != nil {
		return ValuationResult{}, fmt.Errorf("prices: %w", err)
	}
	fx, err := s.FXRate(ctx)
	if err != nil {
		return ValuationResult{}, fmt.Errorf("fx rate: %w", err)
	}

	table := s.svc.Valuator.Value(balances, byHolding(resolved, prices, kind, s.cfg.QuoteCurrency), fx)
	result := ValuationResult{
		Table:   table,
		Skipped: append(append([]models.Skip(nil), resolved.Skipped...), prices.Skipped...),
	}

	if s.metrics != nil {
		s.metrics.RecordPortfolioValue(table.Currency, table.Total.Value.InexactFloat64())
	}
	if err := models.AsPartial(result.Skipped); err != nil {
		s.logger.Warn("valuation incomplete", xlogger.Error(err))
	}
	s.logger.Info("portfolio valued",
		xlogger.String("kind", string(kind)),
		xlogger.Decimal("total", table.Total.Value),
		xlogger.Decimal("fx_rate", fx),
		xlogger.Int("rows", len(table.Rows)),
		xlogger.Int("skipped", len(result.Skipped)),
	)
	snap := &models.ValuationSnapshot{
		SessionID: s.id,
		TakenAt:   s.now().UTC(),
		Currency:  table.Currency,
		FXRate:    table.FXRate,
		Total:     table.Total.Value,
		Rows:      table.AllRows(),
	}
	if err := s.recorder.Record(ctx, snap); err != nil {
		s.logger.Debug("valuation returned without snapshot", xlogger.Error(err))
	}
	return result, nil
}

// byHolding re-keys prices from normalized pair codes to the raw asset codes
// of the balances they price.
func byHolding(resolved models.ResolvedBalances, prices models.Prices, kind models.PriceKind, quote string) models.Prices {
	out := models.Prices{Skipped: prices.Skipped}
	for _, rb := range resolved.Resolved {
		if rb.Pair == nil {
			continue
		}
		// several holdings may share one pair
		v, ok := prices.Get(pricing.NormalizeAsset(rb.Pair.Altname, quote))
		if !ok {
			continue
		}
		out.Points = append(out.Points, models.PricePoint{Asset: rb.Asset, Kind: kind, Value: v})
	}
	return out
}

// Candles returns the display-currency candle history of every resolved holding.
func (s *Session) Candles(ctx context.Context, tenure models.Tenure) (models.CandleSet, error) {
	resolved, err := s.Resolve(ctx)
	if err != nil {
		return models.CandleSet{}, err
	}
	fx, err := s.FXRate(ctx)
	if err != nil {
		return models.CandleSet{}, fmt.Errorf("fx rate: %w", err)
	}
	set, err := s.svc.Candles.Candles(ctx, resolved.Pairs(), tenure, fx)
	if err != nil {
		return set, fmt.Errorf("candles: %w", err)
	}
	return set, nil
}

// Ledger returns the newest-first ledger feed matching q.
func (s *Session) Ledger(ctx context.Context, q models.LedgerQuery) ([]models.LedgerEntry, error) {
	return sessioncache.Remember(ctx, s.cache, OpLedger, ledgerKey(q), func(ctx context.Context) ([]models.LedgerEntry, error) {
		return s.exchange.GetLedger(ctx, q)
	})
}

func ledgerKey(q models.LedgerQuery) string {
	unix := func(t time.Time) int64 {
		if t.IsZero() {
			return 0
		}
		return t.Unix()
	}
	return fmt.Sprintf("%s|%s|%d|%d|%d", q.Asset, q.Type, unix(q.Start), unix(q.End), q.Ofs)
}

// LedgerHistory reconstructs running balances over the ledger feed, walking
// back from anchor. A nil anchor uses the post-entry balance the exchange
// reports for the newest entry.
func (s *Session) LedgerHistory(ctx context.Context, q models.LedgerQuery, anchor *decimal.Decimal, chronological bool) (models.RunningBalanceSeries, error) {
	entries, err := s.Ledger(ctx, q)
	if err != nil {
		return models.RunningBalanceSeries{}, fmt.Errorf("ledger: %w", err)
	}

	a := decimal.Zero
	switch {
	case anchor != nil:
		a = *anchor
	case len(entries) > 0:
		a = entries[0].Balance
	}

	series := ledger.Reconstruct(entries, a)
	if chronological {
		series = ledger.Chronological(series)
	}
	return series, nil
}

// Breakdown groups the full ledger per non-fiat asset.
func (s *Session) Breakdown(ctx context.Context) (models.LedgerBreakdown, error) {
	entries, err := s.Ledger(ctx, models.LedgerQuery{})
	if err != nil {
		return models.LedgerBreakdown{}, fmt.Errorf("ledger: %w", err)
	}
	return ledger.Breakdown(entries, s.svc.Names), nil
}

// OpenOrders lists open orders. They are never acted upon.
func (s *Session) OpenOrders(ctx context.Context) ([]models.Order, error) {
	return s.exchange.GetOpenOrders(ctx)
}

func (s *Session) Trades(ctx context.Context) ([]models.Trade, error) {
	return s.exchange.GetTradesHistory(ctx)
}

func (s *Session) TradeBalance(ctx context.Context) (models.TradeBalance, error) {
	return s.exchange.GetTradeBalance(ctx, s.cfg.TradeBalanceAsset)
}

// Refresh drops the cached snapshot so the next read fetches a new one.
func (s *Session) Refresh(ctx context.Context) error {
	ok, err := s.cache.TryLock(ctx, refreshLock, 30*time.Second)
	if err != nil {
		return fmt.Errorf("refresh lock: %w", err)
	}
	if !ok {
		return ErrRefreshInProgress
	}
	defer func() {
		if err := s.cache.Unlock(ctx, refreshLock); err != nil {
			s.logger.Warn("refresh lock not released", xlogger.Error(err))
		}
	}()

	if err := s.cache.Invalidate(ctx, OpAssetPairs, OpBalances, OpFXRate, OpLedger); err != nil {
		return fmt.Errorf("invalidate snapshot: %w", err)
	}
	s.logger.Info("session snapshot refreshed")
	return nil
}

// Close drops the session namespace and closes the snapshot sink.
func (s *Session) Close(ctx context.Context) error {
	return errors.Join(s.cache.Close(ctx), s.recorder.Close())
}

func (s *Session) recordSkip(stage string, n int) {
	if s.metrics != nil {
		s.metrics.RecordSkip(stage, n)
	}
}
