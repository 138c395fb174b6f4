package stats

import (
	"github.com/shopspring/decimal"

	"fxdesk/internal/domain"
)

// JournalStats summarizes a user's journal
type JournalStats struct {
	Total       int     `json:"total_entries"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	Breakeven   int     `json:"breakeven"`
	Pending     int     `json:"pending"`
	Unrecorded  int     `json:"unrecorded"`
	WinRate     float64 `json:"win_rate"`
	TotalPnL    float64 `json:"total_profit_loss"`
	AverageWin  float64 `json:"average_win"`
	AverageLoss float64 `json:"average_loss"`
}

// ComputeJournalStats counts entries per outcome. Win rate is taken over
// decided trades (win, loss, breakeven). Total P/L sums every recorded
// profit_loss; averages only consider wins and losses that carry one.
func ComputeJournalStats(entries []*domain.JournalEntry) JournalStats {
	stats := JournalStats{Total: len(entries)}
	total := decimal.Zero
	winSum, lossSum := decimal.Zero, decimal.Zero
	var winCount, lossCount int64

	for _, e := range entries {
		if e == nil {
			continue
		}
		switch e.Outcome {
		case domain.OutcomeWin:
			stats.Wins++
		case domain.OutcomeLoss:
			stats.Losses++
		case domain.OutcomeBreakeven:
			stats.Breakeven++
		case domain.OutcomePending:
			stats.Pending++
		default:
			stats.Unrecorded++
		}

		if e.ProfitLoss == nil {
			continue
		}
		pnl := decimal.NewFromFloat(*e.ProfitLoss)
		total = total.Add(pnl)
		switch e.Outcome {
		case domain.OutcomeWin:
			winSum = winSum.Add(pnl)
			winCount++
		case domain.OutcomeLoss:
			lossSum = lossSum.Add(pnl)
			lossCount++
		}
	}

	if decided := stats.Wins + stats.Losses + stats.Breakeven; decided > 0 {
		stats.WinRate = float64(stats.Wins) / float64(decided) * 100
	}
	if winCount > 0 {
		stats.AverageWin = winSum.Div(decimal.NewFromInt(winCount)).InexactFloat64()
	}
	if lossCount > 0 {
		stats.AverageLoss = lossSum.Div(decimal.NewFromInt(lossCount)).InexactFloat64()
	}
	stats.TotalPnL = total.InexactFloat64()
	return stats
}
