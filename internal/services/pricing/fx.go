package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"FolioPull/internal/domain/models"
	"FolioPull/internal/domain/repository"
)

// FXRate returns the multiplier converting quote-currency amounts into the
// display currency, read from the last trade of the FX pair. With invert the
// pair is quoted the other way round (GBPUSD for a USD -> GBP rate).
func FXRate(ctx context.Context, ex repository.Exchange, pair string, invert bool) (decimal.Decimal, error) {
	snap, err := ex.GetTicker(ctx, pair)
	if err != nil {
		return decimal.Decimal{}, err
	}
	last, err := Extract(pair, snap, models.PriceSpot)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !invert {
		return last, nil
	}
	if last.IsZero() {
		return decimal.Decimal{}, &models.DataShapeError{Item: pair, Field: "c"}
	}
	return decimal.NewFromInt(1).Div(last), nil
}
