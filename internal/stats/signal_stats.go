// Package stats reduces fetched record collections into display statistics.
// Every function is pure: inputs are never mutated and an empty collection
// always yields zero-valued statistics.
package stats

import (
	"github.com/shopspring/decimal"

	"fxdesk/internal/domain"
)

// SignalStats summarizes a signal collection for the dashboard
type SignalStats struct {
	Total       int     `json:"total_signals"`
	Active      int     `json:"active_signals"`
	Completed   int     `json:"completed_signals"`
	Wins        int     `json:"wins"`
	WinRate     float64 `json:"win_rate"`
	TotalProfit float64 `json:"total_profit"`
}

// ComputeSignalStats counts active and completed signals. Win rate and total
// profit only consider completed signals; a missing profit counts as zero.
func ComputeSignalStats(signals []*domain.TradeSignal) SignalStats {
	stats := SignalStats{Total: len(signals)}
	profit := decimal.Zero

	for _, s := range signals {
		if s == nil {
			continue
		}
		switch s.Status {
		case domain.SignalActive:
			stats.Active++
		case domain.SignalCompleted:
			stats.Completed++
			pnl := s.RealizedPnL()
			if pnl > 0 {
				stats.Wins++
			}
			profit = profit.Add(decimal.NewFromFloat(pnl))
		}
	}

	if stats.Completed > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.Completed) * 100
	}
	stats.TotalProfit = profit.InexactFloat64()
	return stats
}

// FilterByStatus returns the signals with the given status, preserving order
func FilterByStatus(signals []*domain.TradeSignal, status domain.SignalStatus) []*domain.TradeSignal {
	out := make([]*domain.TradeSignal, 0, len(signals))
	for _, s := range signals {
		if s != nil && s.Status == status {
			out = append(out, s)
		}
	}
	return out
}
