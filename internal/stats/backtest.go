package stats

import (
	"fxdesk/internal/domain"
)

// BacktestSummary is the card shown for one backtest run
type BacktestSummary struct {
	Run        *domain.BacktestRun   `json:"run"`
	HasResults bool                  `json:"has_results"`
	Result     domain.BacktestResult `json:"result"`
}

// SummarizeBacktest pairs a run with its result. A run without a result
// reports zero-valued statistics.
func SummarizeBacktest(run *domain.BacktestRun) BacktestSummary {
	s := BacktestSummary{Run: run}
	if run != nil && run.Result != nil {
		s.HasResults = true
		s.Result = *run.Result
	}
	return s
}

// SummarizeBacktests applies SummarizeBacktest to every run, preserving order
func SummarizeBacktests(runs []*domain.BacktestRun) []BacktestSummary {
	out := make([]BacktestSummary, 0, len(runs))
	for _, r := range runs {
		out = append(out, SummarizeBacktest(r))
	}
	return out
}

// RiskPercentDisplay converts a stored risk fraction (0.01) to a percentage (1)
func RiskPercentDisplay(riskFraction float64) float64 {
	return riskFraction * 100
}

// PositionRisk is the money at risk per trade for the user's settings.
// Nil settings yield zero.
func PositionRisk(settings *domain.UserSettings) float64 {
	if settings == nil {
		return 0
	}
	return settings.Equity * settings.RiskPercent
}
