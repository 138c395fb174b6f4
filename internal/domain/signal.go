package domain

import (
	"time"

	"github.com/google/uuid"
)

// TradeSignal is a signal produced by the analysis service. Read-only here.
type TradeSignal struct {
	ID              uuid.UUID       `json:"id"`
	UserID          *uuid.UUID      `json:"user_id,omitempty"`
	Pair            string          `json:"pair"`
	Side            Side            `json:"side"`
	EntryPrice      float64         `json:"entry_price"`
	StopLoss        float64         `json:"stop_loss"`
	TakeProfit      float64         `json:"take_profit"`
	StopPips        *float64        `json:"stop_pips,omitempty"`
	LotSize         *float64        `json:"lot_size,omitempty"`
	RiskUSD         *float64        `json:"risk_usd,omitempty"`
	ReversalPattern *string         `json:"reversal_pattern,omitempty"`
	ConfidenceScore *float64        `json:"confidence_score,omitempty"`
	ConfidenceLabel ConfidenceLabel `json:"confidence_label,omitempty"`
	Status          SignalStatus    `json:"status"`
	HTFTimeframe    *string         `json:"htf_timeframe,omitempty"`
	LTFTimeframe    *string         `json:"ltf_timeframe,omitempty"`
	ExitPrice       *float64        `json:"exit_price,omitempty"`
	ProfitLoss      *float64        `json:"profit_loss,omitempty"`
	ProfitPips      *float64        `json:"profit_pips,omitempty"`
	ClosedAt        *time.Time      `json:"closed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// SignalFilter narrows a signal query. A nil Status means all statuses.
type SignalFilter struct {
	Status *SignalStatus
	Limit  int
}

// RealizedPnL returns the recorded profit or loss, zero when absent
func (s *TradeSignal) RealizedPnL() float64 {
	if s.ProfitLoss == nil {
		return 0
	}
	return *s.ProfitLoss
}
