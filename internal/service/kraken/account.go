package kraken

import (
	"context"
	"encoding/json"
	"math"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"FolioPull/internal/domain/models"
)

// DefaultTradeBalanceAsset is the asset trade balances are expressed in.
const DefaultTradeBalanceAsset = "ZUSD"

type balanceEx struct {
	Balance   string `json:"balance"`
	HoldTrade string `json:"hold_trade"`
}

// GetBalances returns the non-zero balances ordered by asset code.
func (c *Client) GetBalances(ctx context.Context) ([]models.Balance, error) {
	var res map[string]balanceEx
	if err := c.private(ctx, "balances", "BalanceEx", nil, &res); err != nil {
		return nil, err
	}

	out := make([]models.Balance, 0, len(res))
	for asset, b := range res {
		amount, err := decimal.NewFromString(b.Balance)
		if err != nil {
			return nil, &models.DataShapeError{Item: asset, Field: "balance", Err: err}
		}
		out = append(out, models.Balance{Asset: asset, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return models.NonZero(out), nil
}

type ledgerInfo struct {
	RefID   string      `json:"refid"`
	Time    json.Number `json:"time"`
	Type    string      `json:"type"`
	Asset   string      `json:"asset"`
	Amount  string      `json:"amount"`
	Fee     string      `json:"fee"`
	Balance string      `json:"balance"`
}

// GetLedger returns ledger entries newest first.
func (c *Client) GetLedger(ctx context.Context, q models.LedgerQuery) ([]models.LedgerEntry, error) {
	form := url.Values{}
	if q.Asset != "" {
		form.Set("asset", q.Asset)
	}
	if q.Type != "" {
		form.Set("type", q.Type)
	}
	if !q.Start.IsZero() {
		form.Set("start", strconv.FormatInt(q.Start.Unix(), 10))
	}
	if !q.End.IsZero() {
		form.Set("end", strconv.FormatInt(q.End.Unix(), 10))
	}
	if q.Ofs > 0 {
		form.Set("ofs", strconv.Itoa(q.Ofs))
	}

	var res struct {
		Ledger map[string]ledgerInfo `json:"ledger"`
	}
	if err := c.private(ctx, "ledger", "Ledgers", form, &res); err != nil {
		return nil, err
	}

	out := make([]models.LedgerEntry, 0, len(res.Ledger))
	for id, l := range res.Ledger {
		e := models.LedgerEntry{ID: id, RefID: l.RefID, Asset: l.Asset, Type: models.LedgerType(l.Type)}
		var err error
		if e.Time, err = unixTime(l.Time); err != nil {
			return nil, &models.DataShapeError{Item: id, Field: "time", Err: err}
		}
		if e.Amount, err = decimal.NewFromString(l.Amount); err != nil {
			return nil, &models.DataShapeError{Item: id, Field: "amount", Err: err}
		}
		if e.Fee, err = optionalDecimal(l.Fee); err != nil {
			return nil, &models.DataShapeError{Item: id, Field: "fee", Err: err}
		}
		if e.Balance, err = optionalDecimal(l.Balance); err != nil {
			return nil, &models.DataShapeError{Item: id, Field: "balance", Err: err}
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Time.Equal(out[j].Time) {
			return out[i].Time.After(out[j].Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

type orderInfo struct {
	Status  string      `json:"status"`
	OpenTm  json.Number `json:"opentm"`
	Vol     string      `json:"vol"`
	VolExec string      `json:"vol_exec"`
	Price   string      `json:"price"`
	Descr   struct {
		Pair      string `json:"pair"`
		Type      string `json:"type"`
		OrderType string `json:"ordertype"`
		Price     string `json:"price"`
		Order     string `json:"order"`
	} `json:"descr"`
}

// GetOpenOrders lists open orders, newest first.
func (c *Client) GetOpenOrders(ctx context.Context) ([]models.Order, error) {
	var res struct {
		Open map[string]orderInfo `json:"open"`
	}
	if err := c.private(ctx, "open_orders", "OpenOrders", nil, &res); err != nil {
		return nil, err
	}

	out := make([]models.Order, 0, len(res.Open))
	for id, o := range res.Open {
		ord := models.Order{
			ID:        id,
			Pair:      o.Descr.Pair,
			Side:      o.Descr.Type,
			OrderType: o.Descr.OrderType,
			Status:    o.Status,
			Desc:      o.Descr.Order,
		}
		price := o.Descr.Price
		if price == "" || price == "0" {
			price = o.Price
		}
		var err error
		if ord.Price, err = optionalDecimal(price); err != nil {
			return nil, &models.DataShapeError{Item: id, Field: "price", Err: err}
		}
		if ord.Volume, err = optionalDecimal(o.Vol); err != nil {
			return nil, &models.DataShapeError{Item: id, Field: "vol", Err: err}
		}
		if ord.Executed, err = optionalDecimal(o.VolExec); err != nil {
			return nil, &models.DataShapeError{Item: id, Field: "vol_exec", Err: err}
		}
		if ord.OpenedAt, err = unixTime(o.OpenTm); err != nil {
			return nil, &models.DataShapeError{Item: id, Field: "opentm", Err: err}
		}
		out = append(out, ord)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.After(out[j].OpenedAt) })
	return out, nil
}

type tradeInfo struct {
	OrderTxID string      `json:"ordertxid"`
	Pair      string      `json:"pair"`
	Time      json.Number `json:"time"`
	Type      string      `json:"type"`
	Price     string      `json:"price"`
	Cost      string      `json:"cost"`
	Fee       string      `json:"fee"`
	Vol       string      `json:"vol"`
}

// GetTradesHistory lists past fills, newest first.
func (c *Client) GetTradesHistory(ctx context.Context) ([]models.Trade, error) {
	var res struct {
		Trades map[string]tradeInfo `json:"trades"`
	}
	if err := c.private(ctx, "trades", "TradesHistory", nil, &res); err != nil {
		return nil, err
	}

	out := make([]models.Trade, 0, len(res.Trades))
	for id, t := range res.Trades {
		tr := models.Trade{ID: id, OrderID: t.OrderTxID, Pair: t.Pair, Side: t.Type}
		var err error
		if tr.Time, err = unixTime(t.Time); err != nil {
			return nil, &models.DataShapeError{Item: id, Field: "time", Err: err}
		}
		for _, f := range []struct {
			name string
			raw  string
			dst  *decimal.Decimal
		}{
			{"price", t.Price, &tr.Price},
			{"cost", t.Cost, &tr.Cost},
			{"fee", t.Fee, &tr.Fee},
			{"vol", t.Vol, &tr.Volume},
		} {
			if *f.dst, err = optionalDecimal(f.raw); err != nil {
				return nil, &models.DataShapeError{Item: id, Field: f.name, Err: err}
			}
		}
		out = append(out, tr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.After(out[j].Time) })
	return out, nil
}

type tradeBalanceInfo struct {
	EB string `json:"eb"`
	TB string `json:"tb"`
	M  string `json:"m"`
	N  string `json:"n"`
	C  string `json:"c"`
	V  string `json:"v"`
	E  string `json:"e"`
	MF string `json:"mf"`
	ML string `json:"ml"`
	UV string `json:"uv"`
}

// GetTradeBalance returns the margin account summary in asset (ZUSD when empty).
func (c *Client) GetTradeBalance(ctx context.Context, asset string) (models.TradeBalance, error) {
	if asset == "" {
		asset = DefaultTradeBalanceAsset
	}
	var res tradeBalanceInfo
	if err := c.private(ctx, "trade_balance", "TradeBalance", url.Values{"asset": {asset}}, &res); err != nil {
		return models.TradeBalance{}, err
	}

	tb := models.TradeBalance{Asset: asset}
	for _, f := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"eb", res.EB, &tb.EquivalentBalance},
		{"tb", res.TB, &tb.TradeBalance},
		{"m", res.M, &tb.MarginAmount},
		{"n", res.N, &tb.UnrealizedPnL},
		{"c", res.C, &tb.CostBasis},
		{"v", res.V, &tb.FloatingValuation},
		{"e", res.E, &tb.Equity},
		{"mf", res.MF, &tb.FreeMargin},
		{"ml", res.ML, &tb.MarginLevel},
		{"uv", res.UV, &tb.UnexecutedValue},
	} {
		d, err := optionalDecimal(f.raw)
		if err != nil {
			return models.TradeBalance{}, &models.DataShapeError{Item: "trade_balance", Field: f.name, Err: err}
		}
		*f.dst = d
	}
	return tb, nil
}

func optionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// unixTime converts fractional epoch seconds.
func unixTime(n json.Number) (time.Time, error) {
	if n == "" {
		return time.Time{}, nil
	}
	f, err := n.Float64()
	if err != nil {
		return time.Time{}, err
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(math.Round(frac*1e6))*1e3).UTC(), nil
}
