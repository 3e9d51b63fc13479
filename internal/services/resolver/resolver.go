package resolver

import (
	"FolioPull/internal/domain/models"
	domsvc "FolioPull/internal/domain/service"
	xlogger "FolioPull/pkg/logger"
)

// DefaultQuote is appended to an asset code to form the match probe.
const DefaultQuote = "USD"

// Resolver maps held asset codes to tradable pairs of the instrument universe.
type Resolver struct {
	matcher domsvc.AssetMatcher
	quote   string
	logger  *xlogger.Logger
}

// Option configures Resolver.
type Option func(*Resolver)

// WithQuote sets the quote currency appended to probes.
func WithQuote(quote string) Option {
	return func(r *Resolver) {
		if quote != "" {
			r.quote = quote
		}
	}
}

// WithLogger sets the logger used for skipped assets.
func WithLogger(l *xlogger.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

func New(matcher domsvc.AssetMatcher, opts ...Option) *Resolver {
	r := &Resolver{matcher: matcher, quote: DefaultQuote, logger: xlogger.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Quote returns the quote currency used for probes.
func (r *Resolver) Quote() string { return r.quote }

// Resolve returns the pair for asset, nil for fiat assets, or a *models.ResolutionError.
func (r *Resolver) Resolve(asset string, universe []models.AssetPair) (*models.AssetPair, error) {
	if models.IsFiatCode(asset) {
		return nil, nil
	}

	probe := asset + r.quote
	altname, _, ok := r.matcher.Match(probe, models.Altnames(universe))
	if !ok {
		return nil, &models.ResolutionError{Asset: asset, Probe: probe}
	}
	for i := range universe {
		if universe[i].Altname == altname {
			p := universe[i]
			return &p, nil
		}
	}
	return nil, &models.ResolutionError{Asset: asset, Probe: probe}
}

// ResolveAll resolves every non-zero balance. Unmatched assets are kept in
// Unresolved and reported in Skipped; they never abort the others.
func (r *Resolver) ResolveAll(balances []models.Balance, universe []models.AssetPair) models.ResolvedBalances {
	var out models.ResolvedBalances
	for _, b := range models.NonZero(balances) {
		pair, err := r.Resolve(b.Asset, universe)
		if err != nil {
			r.logger.Warn("asset skipped from pricing",
				xlogger.String("asset", b.Asset),
				xlogger.Error(err),
			)
			out.Unresolved = append(out.Unresolved, b)
			out.Skipped = append(out.Skipped, models.NewSkip(b.Asset, err))
			continue
		}
		out.Resolved = append(out.Resolved, models.ResolvedBalance{Balance: b, Pair: pair})
	}
	return out
}
