package http

import (
	"context"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"fxdesk/internal/delivery/http/dto"
	"fxdesk/internal/domain"
	"fxdesk/internal/stats"
)

// chartCandles is the number of candles the chart shows
const chartCandles = 20

// MarketHandler serves the market overview, charts and pair analysis
type MarketHandler struct {
	collections Collections
	data        domain.MarketDataService
}

// NewMarketHandler creates a new MarketHandler. data may be nil when no
// engine serves chart data.
func NewMarketHandler(collections Collections, data domain.MarketDataService) *MarketHandler {
	return &MarketHandler{collections: collections, data: data}
}

func pairParam(c echo.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.Param("pair")))
}

// Overview returns the snapshot of every configured pair
// GET /api/markets
func (h *MarketHandler) Overview(c echo.Context) error {
	sync := h.collections.Market()
	if refreshRequested(c) {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
		defer cancel()
		_ = sync.Refetch(ctx)
	}
	state := sync.State()
	return SnapshotResponse(c, dto.ToMarketOutputs(state.Items), state.Err)
}

// Chart returns the last candles of a pair and the latest close-to-close move
// GET /api/markets/:pair/chart?timeframe=H4
func (h *MarketHandler) Chart(c echo.Context) error {
	if h.data == nil {
		return ServiceUnavailableResponse(c, "Chart data is not available", nil)
	}
	pair := pairParam(c)
	timeframe := c.QueryParam("timeframe")
	if timeframe == "" {
		timeframe = "H4"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	candles, err := h.data.OHLC(ctx, pair, timeframe)
	if err != nil {
		return ActionErrorResponse(c, "load chart data", err)
	}

	out := dto.ChartOutput{
		Pair:      pair,
		Timeframe: timeframe,
		Candles:   stats.RecentCandles(candles, chartCandles),
		Change:    stats.LatestCandleChange(candles),
	}
	if n := len(candles); n > 0 {
		latest := candles[n-1]
		out.Latest = &latest
	}
	return SuccessResponse(c, out)
}

// Indicators returns the engine's live indicators for a pair
// GET /api/markets/:pair/indicators?timeframe=H4
func (h *MarketHandler) Indicators(c echo.Context) error {
	if h.data == nil {
		return ServiceUnavailableResponse(c, "Indicator data is not available", nil)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	ind, err := h.data.Indicators(ctx, pairParam(c), c.QueryParam("timeframe"))
	if err != nil {
		return ActionErrorResponse(c, "load indicators", err)
	}
	return SuccessResponse(c, ind)
}

// Analysis returns the engine's detailed analysis of a pair with gap and
// liquidity zone counts
// GET /api/markets/:pair/analysis
func (h *MarketHandler) Analysis(c echo.Context) error {
	if h.data == nil {
		return ServiceUnavailableResponse(c, "Pair analysis is not available", nil)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	analysis, err := h.data.PairAnalysis(ctx, pairParam(c))
	if err != nil {
		return ActionErrorResponse(c, "load analysis", err)
	}

	counts := stats.FVGCountsByTimeframe(analysis.DetectedFVGs)
	total := 0
	for _, gaps := range analysis.DetectedFVGs {
		total += len(gaps)
	}
	return SuccessResponse(c, dto.PairAnalysisOutput{
		PairAnalysis:   analysis,
		TotalFVGs:      total,
		FVGCounts:      counts,
		LiquidityZones: stats.CountLiquidityZones(analysis.DetectedLiquidityZones),
	})
}

// Predictions returns the engine's ML predictions for the requested pairs
// GET /api/predictions?pairs=EURUSD,GBPUSD
func (h *MarketHandler) Predictions(c echo.Context) error {
	if h.data == nil {
		return ServiceUnavailableResponse(c, "Predictions are not available", nil)
	}

	var pairs []string
	for _, p := range strings.Split(c.QueryParam("pairs"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			pairs = append(pairs, p)
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	preds, err := h.data.Predictions(ctx, pairs)
	if err != nil {
		return ActionErrorResponse(c, "load predictions", err)
	}
	return SuccessResponse(c, preds)
}
