package api

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"FolioPull/internal/domain/models"
	"FolioPull/internal/usecase"
	xhttp "FolioPull/pkg/http"
	xlogger "FolioPull/pkg/logger"
)

// Portfolio is the session surface the HTTP layer reads from.
type Portfolio interface {
	Balances(ctx context.Context) ([]models.Balance, error)
	Prices(ctx context.Context, kind models.PriceKind) (usecase.PriceResult, error)
	Valuation(ctx context.Context, kind models.PriceKind) (usecase.ValuationResult, error)
	Candles(ctx context.Context, tenure models.Tenure) (models.CandleSet, error)
	LedgerHistory(ctx context.Context, q models.LedgerQuery, anchor *decimal.Decimal, chronological bool) (models.RunningBalanceSeries, error)
	Breakdown(ctx context.Context) (models.LedgerBreakdown, error)
	OpenOrders(ctx context.Context) ([]models.Order, error)
	Trades(ctx context.Context) ([]models.Trade, error)
	TradeBalance(ctx context.Context) (models.TradeBalance, error)
	Refresh(ctx context.Context) error
}

// PortfolioEchoHandler serves the read-only portfolio views.
type PortfolioEchoHandler struct {
	logger    *xlogger.Logger
	portfolio Portfolio
}

func NewPortfolioEchoHandler(logger *xlogger.Logger, portfolio Portfolio) *PortfolioEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &PortfolioEchoHandler{logger: logger, portfolio: portfolio}
}

func (h *PortfolioEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/balances", h.Balances)
	g.GET("/prices", h.Prices)
	g.GET("/valuation", h.Valuation)
	g.GET("/candles", h.Candles)
	g.GET("/ledger", h.Ledger)
	g.GET("/ledger/breakdown", h.Breakdown)
	g.GET("/orders", h.Orders)
	g.GET("/trades", h.Trades)
	g.GET("/trade-balance", h.TradeBalance)
	g.POST("/session/refresh", h.Refresh)
}

func (h *PortfolioEchoHandler) Balances(c echo.Context) error {
	res, err := h.portfolio.Balances(c.Request().Context())
	if err != nil {
		return h.fail(c, "balances", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PortfolioEchoHandler) Prices(c echo.Context) error {
	req := &models.PricesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.portfolio.Prices(c.Request().Context(), models.PriceKind(req.Kind))
	if err != nil {
		return h.fail(c, "prices", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PortfolioEchoHandler) Valuation(c echo.Context) error {
	req := &models.PricesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.portfolio.Valuation(c.Request().Context(), models.PriceKind(req.Kind))
	if err != nil {
		return h.fail(c, "valuation", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PortfolioEchoHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.portfolio.Candles(c.Request().Context(), models.Tenure(req.Tenure))
	if err != nil {
		return h.fail(c, "candles", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PortfolioEchoHandler) Ledger(c echo.Context) error {
	req := &models.LedgerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	q := models.LedgerQuery{Asset: req.Asset, Type: req.Type, Ofs: req.Ofs}
	var ok bool
	if q.Start, ok = parseBound(req.Start); !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("start must be RFC3339, a date or unix seconds"))
	}
	if q.End, ok = parseBound(req.End); !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("end must be RFC3339, a date or unix seconds"))
	}

	var anchor *decimal.Decimal
	if req.Anchor != "" {
		a, err := decimal.NewFromString(req.Anchor)
		if err != nil {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("anchor must be a decimal number").WithError(err))
		}
		anchor = &a
	}

	res, err := h.portfolio.LedgerHistory(c.Request().Context(), q, anchor, req.Order == "chronological")
	if err != nil {
		return h.fail(c, "ledger", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// parseBound treats an empty bound as open.
func parseBound(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	return xhttp.ParseTime(raw)
}

func (h *PortfolioEchoHandler) Breakdown(c echo.Context) error {
	res, err := h.portfolio.Breakdown(c.Request().Context())
	if err != nil {
		return h.fail(c, "ledger breakdown", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PortfolioEchoHandler) Orders(c echo.Context) error {
	res, err := h.portfolio.OpenOrders(c.Request().Context())
	if err != nil {
		return h.fail(c, "open orders", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PortfolioEchoHandler) Trades(c echo.Context) error {
	res, err := h.portfolio.Trades(c.Request().Context())
	if err != nil {
		return h.fail(c, "trades", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PortfolioEchoHandler) TradeBalance(c echo.Context) error {
	res, err := h.portfolio.TradeBalance(c.Request().Context())
	if err != nil {
		return h.fail(c, "trade balance", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PortfolioEchoHandler) Refresh(c echo.Context) error {
	if err := h.portfolio.Refresh(c.Request().Context()); err != nil {
		return h.fail(c, "refresh", err)
	}
	return xhttp.SuccessResponse(c, map[string]bool{"refreshed": true})
}

func (h *PortfolioEchoHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(op, err)
	if appErr.Status >= 500 {
		h.logger.Error(op+" failed", xlogger.Error(err))
	} else {
		h.logger.Warn(op+" rejected", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func toAppError(op string, err error) *xhttp.AppError {
	var ue *models.UpstreamRequestError
	switch {
	case errors.Is(err, usecase.ErrRefreshInProgress):
		return xhttp.ConflictError(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.GatewayTimeoutError(op + " timed out").WithError(err)
	case errors.As(err, &ue):
		return xhttp.BadGatewayError(op+": exchange request failed").WithParam("operation", ue.Op).WithError(err)
	default:
		return xhttp.InternalError(op + " failed").WithError(err)
	}
}
