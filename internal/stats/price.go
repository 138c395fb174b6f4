package stats

import (
	"strings"

	"fxdesk/internal/domain"
)

// ComputeRiskReward returns (takeProfit-entry)/(entry-stop).
//
// The division is not guarded: entry == stop yields +Inf, -Inf or NaN.
// Callers rendering the value must check math.IsInf/math.IsNaN.
func ComputeRiskReward(entry, stop, takeProfit float64) float64 {
	return (takeProfit - entry) / (entry - stop)
}

// RiskRewardOf applies ComputeRiskReward to a signal's prices
func RiskRewardOf(s *domain.TradeSignal) float64 {
	return ComputeRiskReward(s.EntryPrice, s.StopLoss, s.TakeProfit)
}

// CandleChange is the close-to-close move between two candles
type CandleChange struct {
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// ComputeCandleChange compares the latest close with the previous one. A
// missing candle on either side yields a zero change.
func ComputeCandleChange(latest, previous *domain.Candle) CandleChange {
	if latest == nil || previous == nil {
		return CandleChange{}
	}
	change := latest.Close - previous.Close
	out := CandleChange{Change: change}
	if previous.Close != 0 {
		out.ChangePercent = change / previous.Close * 100
	}
	return out
}

// LatestCandleChange applies ComputeCandleChange to the last two candles of
// an oldest-first series
func LatestCandleChange(candles []domain.Candle) CandleChange {
	switch n := len(candles); {
	case n == 0:
		return CandleChange{}
	case n == 1:
		return ComputeCandleChange(&candles[0], nil)
	default:
		return ComputeCandleChange(&candles[n-1], &candles[n-2])
	}
}

// RecentCandles returns at most the last n candles. The result shares the
// input's backing array and must not be modified.
func RecentCandles(candles []domain.Candle, n int) []domain.Candle {
	if n <= 0 || len(candles) <= n {
		return candles
	}
	return candles[len(candles)-n:]
}

// Bias is the coarse direction of a recommendation
type Bias string

const (
	BiasBullish Bias = "bullish"
	BiasBearish Bias = "bearish"
	BiasNeutral Bias = "neutral"
)

// RecommendationBias maps a prediction verdict to a display bias. Unknown
// verdicts are neutral.
func RecommendationBias(r domain.Recommendation) Bias {
	switch r {
	case domain.RecommendationStrongBuy, domain.RecommendationBuy:
		return BiasBullish
	case domain.RecommendationStrongSell, domain.RecommendationSell:
		return BiasBearish
	}
	return BiasNeutral
}

// GapCounts holds the number of gaps per direction
type GapCounts struct {
	Bullish int `json:"bullish"`
	Bearish int `json:"bearish"`
}

// CountFVGsByType counts gaps per direction, ignoring unknown directions
func CountFVGsByType(gaps []domain.FairValueGap) GapCounts {
	var c GapCounts
	for _, g := range gaps {
		switch g.GapType {
		case domain.GapBullish:
			c.Bullish++
		case domain.GapBearish:
			c.Bearish++
		}
	}
	return c
}

// ZoneCounts holds the number of liquidity zones per side
type ZoneCounts struct {
	BuySide  int `json:"buy_side"`
	SellSide int `json:"sell_side"`
}

// CountLiquidityZones counts zones per side, ignoring unknown sides
func CountLiquidityZones(zones []domain.LiquidityZone) ZoneCounts {
	var c ZoneCounts
	for _, z := range zones {
		switch z.ZoneType {
		case domain.ZoneBuySide:
			c.BuySide++
		case domain.ZoneSellSide:
			c.SellSide++
		}
	}
	return c
}

// FVGCountsByTimeframe counts gaps per direction for each timeframe key of a
// pair analysis. Keys are lower-cased.
func FVGCountsByTimeframe(detected map[string][]domain.FairValueGap) map[string]GapCounts {
	out := make(map[string]GapCounts, len(detected))
	for tf, gaps := range detected {
		out[strings.ToLower(tf)] = CountFVGsByType(gaps)
	}
	return out
}
