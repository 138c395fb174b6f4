package domain

import (
	"context"
	"encoding/json"
	"time"
)

// DefaultTimeframes are analyzed when a trigger names none
var DefaultTimeframes = []string{"30m", "4H", "1D"}

// AnalyzeRequest asks the analysis service to analyze one pair
type AnalyzeRequest struct {
	Pair         string   `json:"pair"`
	Timeframes   []string `json:"timeframes"`
	ForceRefresh bool     `json:"forceRefresh"`
}

// AnalysisResult is the envelope every analysis backend is normalized to
type AnalysisResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// AnalysisStatus reports whether a backend sweep is running
type AnalysisStatus struct {
	IsRunning bool       `json:"isRunning"`
	LastRun   *time.Time `json:"lastRun,omitempty"`
	NextRun   *time.Time `json:"nextRun,omitempty"`
}

// AnalysisBackend is the capability shared by the analysis services. The
// analysis itself runs remotely and completes asynchronously.
type AnalysisBackend interface {
	// AnalyzePair triggers analysis of a single pair
	AnalyzePair(ctx context.Context, req AnalyzeRequest) (*AnalysisResult, error)

	// RunMarketAnalysis triggers a sweep over all pairs
	RunMarketAnalysis(ctx context.Context) (*AnalysisResult, error)

	// Status reports the backend's sweep state
	Status(ctx context.Context) (*AnalysisStatus, error)
}

// MarketDataService serves chart and indicator data computed by the engine
type MarketDataService interface {
	// OHLC returns candles for a pair, oldest first
	OHLC(ctx context.Context, pair, timeframe string) ([]Candle, error)

	// Predictions returns the engine's current ML predictions
	Predictions(ctx context.Context, pairs []string) ([]EnginePrediction, error)

	// PairAnalysis returns the engine's detailed analysis of a pair
	PairAnalysis(ctx context.Context, pair string) (*PairAnalysis, error)

	// Indicators returns the engine's current indicator values
	Indicators(ctx context.Context, pair, timeframe string) (*EngineIndicators, error)
}

// EngineHealth is the engine's health report
type EngineHealth struct {
	Status         string `json:"status"`
	StrategyEngine string `json:"strategy_engine"`
	DataLoader     string `json:"data_loader"`
}

// Healthy reports whether the engine answered as healthy
func (h *EngineHealth) Healthy() bool {
	return h != nil && (h.Status == "healthy" || h.Status == "ok")
}

// MACD holds MACD line values
type MACD struct {
	Value     float64 `json:"value"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// Bands holds Bollinger band levels
type Bands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// Stochastic holds stochastic oscillator values
type Stochastic struct {
	K float64 `json:"k"`
	D float64 `json:"d"`
}

// EngineIndicators are indicator values computed live by the engine
type EngineIndicators struct {
	Pair       string     `json:"pair"`
	Timeframe  string     `json:"timeframe"`
	Timestamp  time.Time  `json:"timestamp"`
	RSI14      float64    `json:"rsi_14"`
	MACD       MACD       `json:"macd"`
	BB         Bands      `json:"bb"`
	ATR14      float64    `json:"atr_14"`
	ADX14      float64    `json:"adx_14"`
	EMA20      float64    `json:"ema_20"`
	EMA50      float64    `json:"ema_50"`
	EMA200     float64    `json:"ema_200"`
	Stochastic Stochastic `json:"stochastic"`
}

// EngineSignal is a recent signal as reported by the engine
type EngineSignal struct {
	ID              string       `json:"id"`
	Pair            string       `json:"pair"`
	Side            Side         `json:"side"`
	EntryPrice      float64      `json:"entry_price"`
	StopLoss        float64      `json:"stop_loss"`
	TakeProfit      float64      `json:"take_profit"`
	CreatedAt       time.Time    `json:"created_at"`
	Status          SignalStatus `json:"status"`
	ConfidenceScore float64      `json:"confidence_score"`
}

// EnginePrediction is a prediction served directly by the engine
type EnginePrediction struct {
	Pair           string          `json:"pair"`
	WinProbability float64         `json:"win_probability"`
	ExpectedRR     float64         `json:"expected_rr"`
	Confidence     ConfidenceLabel `json:"confidence"`
	Recommendation Recommendation  `json:"recommendation"`
}

// AnalysisStep is one stage of the engine's pair analysis
type AnalysisStep struct {
	StepNumber int      `json:"step_number"`
	Title      string   `json:"title"`
	Status     string   `json:"status"`
	Details    []string `json:"details"`
}

// PairAnalysis is the engine's detailed analysis of one pair
type PairAnalysis struct {
	Pair                   string                    `json:"pair"`
	CurrentPrice           float64                   `json:"current_price"`
	Recommendation         string                    `json:"recommendation"`
	Side                   string                    `json:"side"`
	EntryPrice             float64                   `json:"entry_price"`
	StopLoss               float64                   `json:"stop_loss"`
	TakeProfit             float64                   `json:"take_profit"`
	RiskReward             float64                   `json:"risk_reward"`
	Confidence             float64                   `json:"confidence"`
	SetupsFound            int                       `json:"setups_found"`
	AnalysisSteps          []AnalysisStep            `json:"analysis_steps,omitempty"`
	DetectedFVGs           map[string][]FairValueGap `json:"detected_fvgs,omitempty"`
	DetectedLiquidityZones []LiquidityZone           `json:"detected_liquidity_zones,omitempty"`
}
