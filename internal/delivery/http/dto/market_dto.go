package dto

import (
	"fxdesk/internal/domain"
	"fxdesk/internal/stats"
)

// MarketOutput is one pair of the market overview
type MarketOutput struct {
	*domain.MarketSnapshot
	Bias stats.Bias `json:"bias"`
}

// ToMarketOutputs converts snapshots for output, preserving order
func ToMarketOutputs(snaps []*domain.MarketSnapshot) []MarketOutput {
	out := make([]MarketOutput, 0, len(snaps))
	for _, s := range snaps {
		if s == nil {
			continue
		}
		bias := stats.BiasNeutral
		if s.Prediction != nil {
			bias = stats.RecommendationBias(s.Prediction.Recommendation)
		}
		out = append(out, MarketOutput{MarketSnapshot: s, Bias: bias})
	}
	return out
}

// ChartOutput is the chart screen payload
type ChartOutput struct {
	Pair      string             `json:"pair"`
	Timeframe string             `json:"timeframe"`
	Candles   []domain.Candle    `json:"candles"`
	Latest    *domain.Candle     `json:"latest,omitempty"`
	Change    stats.CandleChange `json:"change"`
}

// PairAnalysisOutput is the pair analysis screen payload
type PairAnalysisOutput struct {
	*domain.PairAnalysis
	TotalFVGs      int                        `json:"total_fvgs"`
	FVGCounts      map[string]stats.GapCounts `json:"fvg_counts"`
	LiquidityZones stats.ZoneCounts           `json:"liquidity_zone_counts"`
}

// AnalyzeRequest triggers analysis of one pair
type AnalyzeRequest struct {
	Pair       string   `json:"pair"`
	Timeframes []string `json:"timeframes"`
}

// AnalysisStateOutput reports the coordinator's state
type AnalysisStateOutput struct {
	Analyzing bool                   `json:"analyzing"`
	LastError string                 `json:"last_error,omitempty"`
	Backend   *domain.AnalysisStatus `json:"backend,omitempty"`
}
