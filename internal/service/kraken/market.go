package kraken

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"FolioPull/internal/domain/models"
	xlogger "FolioPull/pkg/logger"
)

type assetPairInfo struct {
	Altname string `json:"altname"`
	Base    string `json:"base"`
	Quote   string `json:"quote"`
}

// ListAssetPairs returns the instrument universe ordered by pair name.
func (c *Client) ListAssetPairs(ctx context.Context) ([]models.AssetPair, error) {
	var res map[string]assetPairInfo
	if err := c.public(ctx, "asset_pairs", "AssetPairs", nil, &res); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(res))
	for name := range res {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]models.AssetPair, 0, len(names))
	for _, name := range names {
		info := res[name]
		alt := info.Altname
		if alt == "" {
			alt = name
		}
		pairs = append(pairs, models.AssetPair{Name: name, Altname: alt, Base: info.Base, Quote: info.Quote})
	}
	c.rememberAltnames(pairs)
	return pairs, nil
}

// GetTicker fetches the snapshot of one pair.
func (c *Client) GetTicker(ctx context.Context, pair string) (models.TickerSnapshot, error) {
	got, err := c.GetTickers(ctx, []string{pair})
	if err != nil {
		return models.TickerSnapshot{}, err
	}
	snap, ok := got[pair]
	if !ok {
		return models.TickerSnapshot{}, &models.DataShapeError{Item: pair, Field: "ticker"}
	}
	return snap, nil
}

// GetTickers fetches many pairs in one request. The exchange keys results by
// canonical pair name, so keys are mapped back to the requested ids; pairs it
// did not return are absent from the map.
func (c *Client) GetTickers(ctx context.Context, pairs []string) (map[string]models.TickerSnapshot, error) {
	if len(pairs) == 0 {
		return map[string]models.TickerSnapshot{}, nil
	}
	var res map[string]models.TickerSnapshot
	q := url.Values{"pair": {strings.Join(pairs, ",")}}
	if err := c.public(ctx, "ticker", "Ticker", q, &res); err != nil {
		return nil, err
	}

	if len(pairs) == 1 && len(res) == 1 {
		for _, snap := range res {
			return map[string]models.TickerSnapshot{pairs[0]: snap}, nil
		}
	}

	wanted := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		wanted[p] = struct{}{}
	}
	if !c.knowsAltnames() {
		if _, err := c.ListAssetPairs(ctx); err != nil {
			c.logger.Warn("altname index unavailable for ticker keys", xlogger.Error(err))
		}
	}

	out := make(map[string]models.TickerSnapshot, len(res))
	for key, snap := range res {
		if _, ok := wanted[key]; ok {
			out[key] = snap
			continue
		}
		if alt, ok := c.altname(key); ok {
			if _, ok := wanted[alt]; ok {
				out[alt] = snap
			}
		}
	}
	return out, nil
}

// GetCandles returns the raw OHLC rows of pair from since at the given interval.
func (c *Client) GetCandles(ctx context.Context, pair string, intervalMinutes int, since int64) ([]models.RawCandle, error) {
	var res map[string]any
	q := url.Values{
		"pair":     {pair},
		"interval": {strconv.Itoa(intervalMinutes)},
		"since":    {strconv.FormatInt(since, 10)},
	}
	if err := c.public(ctx, "ohlc", "OHLC", q, &res); err != nil {
		return nil, err
	}

	for key, v := range res {
		if key == "last" {
			continue
		}
		rows, ok := v.([]any)
		if !ok {
			return nil, &models.DataShapeError{Item: pair, Field: key, Err: fmt.Errorf("expected array, got %T", v)}
		}
		out := make([]models.RawCandle, 0, len(rows))
		for i, r := range rows {
			row, ok := r.([]any)
			if !ok {
				return nil, &models.DataShapeError{Item: pair, Field: fmt.Sprintf("%s[%d]", key, i)}
			}
			out = append(out, models.RawCandle(row))
		}
		return out, nil
	}
	return nil, &models.DataShapeError{Item: pair, Field: "ohlc"}
}
