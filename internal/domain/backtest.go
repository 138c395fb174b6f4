package domain

import (
	"time"

	"github.com/google/uuid"
)

// BacktestRun holds the parameters of a backtest. Result is nil until the
// external engine has stored statistics for the run.
type BacktestRun struct {
	ID             uuid.UUID       `json:"id"`
	UserID         *uuid.UUID      `json:"user_id,omitempty"`
	Name           string          `json:"backtest_name"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	Pairs          string          `json:"pairs"`
	InitialCapital float64         `json:"initial_capital"`
	RiskPercent    float64         `json:"risk_percent"`
	Notes          *string         `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Result         *BacktestResult `json:"result,omitempty"`
}

// BacktestResult holds statistics computed by the external backtest engine.
// The values are displayed as-is.
type BacktestResult struct {
	ID                        uuid.UUID `json:"id"`
	BacktestID                uuid.UUID `json:"backtest_id"`
	TotalTrades               int       `json:"total_trades"`
	WinningTrades             int       `json:"winning_trades"`
	LosingTrades              int       `json:"losing_trades"`
	BreakevenTrades           int       `json:"breakeven_trades"`
	WinRate                   float64   `json:"win_rate"`
	TotalProfit               float64   `json:"total_profit"`
	TotalLoss                 float64   `json:"total_loss"`
	NetProfit                 float64   `json:"net_profit"`
	MaxDrawdown               float64   `json:"max_drawdown"`
	MaxDrawdownPercent        float64   `json:"max_drawdown_percent"`
	AverageWin                float64   `json:"average_win"`
	AverageLoss               float64   `json:"average_loss"`
	ProfitFactor              float64   `json:"profit_factor"`
	Expectancy                float64   `json:"expectancy"`
	SharpeRatio               float64   `json:"sharpe_ratio"`
	AverageRR                 float64   `json:"average_rr"`
	BestTrade                 float64   `json:"best_trade"`
	WorstTrade                float64   `json:"worst_trade"`
	AverageTradeDurationHours float64   `json:"average_trade_duration_hours"`
	CreatedAt                 time.Time `json:"created_at"`
}
