package ohlc

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"FolioPull/internal/domain/models"
)

const rowFields = 8

// Convert parses raw rows, converts open/high/low/close into the display
// currency rounded to 2 places, and returns them time-ascending with unique
// timestamps. A later row for the same timestamp replaces the earlier one.
func Convert(pair string, rows []models.RawCandle, fxRate decimal.Decimal) ([]models.Candle, error) {
	byTS := make(map[int64]models.Candle, len(rows))
	for i, row := range rows {
		c, err := parseRow(row)
		if err != nil {
			return nil, &models.DataShapeError{Item: pair, Field: fmt.Sprintf("row %d", i), Err: err}
		}
		c.Open = c.Open.Mul(fxRate).Round(2)
		c.High = c.High.Mul(fxRate).Round(2)
		c.Low = c.Low.Mul(fxRate).Round(2)
		c.Close = c.Close.Mul(fxRate).Round(2)
		byTS[c.Timestamp.Unix()] = c
	}

	out := make([]models.Candle, 0, len(byTS))
	for _, c := range byTS {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func parseRow(row models.RawCandle) (models.Candle, error) {
	if len(row) < rowFields {
		return models.Candle{}, fmt.Errorf("want %d fields, got %d", rowFields, len(row))
	}
	ts, err := toInt64(row[0])
	if err != nil {
		return models.Candle{}, fmt.Errorf("time: %w", err)
	}
	var c models.Candle
	c.Timestamp = time.Unix(ts, 0).UTC()
	for _, f := range []struct {
		dst *decimal.Decimal
		idx int
	}{{&c.Open, 1}, {&c.High, 2}, {&c.Low, 3}, {&c.Close, 4}, {&c.Volume, 6}} {
		if *f.dst, err = toDecimal(row[f.idx]); err != nil {
			return models.Candle{}, fmt.Errorf("field %d: %w", f.idx, err)
		}
	}
	if c.TradeCount, err = toInt64(row[7]); err != nil {
		return models.Candle{}, fmt.Errorf("count: %w", err)
	}
	return c, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case string:
		return decimal.NewFromString(x)
	case float64:
		return decimal.NewFromFloat(x), nil
	case json.Number:
		return decimal.NewFromString(x.String())
	case int64:
		return decimal.NewFromInt(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unexpected type %T", v)
	}
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case float64:
		return int64(x), nil
	case json.Number:
		return x.Int64()
	case string:
		return strconv.ParseInt(x, 10, 64)
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
