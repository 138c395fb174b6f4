package dto

import (
	"math"

	"fxdesk/internal/domain"
	"fxdesk/internal/stats"
)

// SignalOutput is a trade signal with its risk/reward ratio. RiskReward is
// null when entry equals stop loss.
type SignalOutput struct {
	*domain.TradeSignal
	RiskReward *float64 `json:"risk_reward"`
}

// ToSignalOutput converts a signal for output
func ToSignalOutput(s *domain.TradeSignal) SignalOutput {
	out := SignalOutput{TradeSignal: s}
	if rr := stats.RiskRewardOf(s); !math.IsInf(rr, 0) && !math.IsNaN(rr) {
		out.RiskReward = &rr
	}
	return out
}

// ToSignalOutputs converts signals for output, preserving order
func ToSignalOutputs(signals []*domain.TradeSignal) []SignalOutput {
	out := make([]SignalOutput, 0, len(signals))
	for _, s := range signals {
		if s == nil {
			continue
		}
		out = append(out, ToSignalOutput(s))
	}
	return out
}

// SignalListOutput is the signal list screen payload
type SignalListOutput struct {
	Filter  string            `json:"filter"`
	Loading bool              `json:"loading"`
	Signals []SignalOutput    `json:"signals"`
	Stats   stats.SignalStats `json:"stats"`
}

// DashboardOutput is the dashboard screen payload
type DashboardOutput struct {
	Stats         stats.SignalStats `json:"stats"`
	ActiveSignals []SignalOutput    `json:"active_signals"`
	Settings      *SettingsOutput   `json:"settings,omitempty"`
}
