package domain

import (
	"time"

	"github.com/google/uuid"
)

// AIPrediction is the latest ML verdict for a pair
type AIPrediction struct {
	ID             uuid.UUID       `json:"id"`
	Pair           string          `json:"pair"`
	WinProbability float64         `json:"win_probability"`
	ExpectedRR     float64         `json:"expected_rr"`
	Confidence     ConfidenceLabel `json:"confidence"`
	Recommendation Recommendation  `json:"recommendation"`
	PredictedAt    time.Time       `json:"predicted_at"`
	ModelVersion   *string         `json:"model_version,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TechnicalIndicators is a stored indicator row. Every value is optional.
type TechnicalIndicators struct {
	ID                 uuid.UUID `json:"id"`
	Pair               string    `json:"pair"`
	Timeframe          string    `json:"timeframe"`
	IndicatorTimestamp time.Time `json:"indicator_timestamp"`
	RSI14              *float64  `json:"rsi_14,omitempty"`
	MACDValue          *float64  `json:"macd_value,omitempty"`
	MACDSignal         *float64  `json:"macd_signal,omitempty"`
	MACDHistogram      *float64  `json:"macd_histogram,omitempty"`
	ADX14              *float64  `json:"adx_14,omitempty"`
	StochasticK        *float64  `json:"stochastic_k,omitempty"`
	BBUpper            *float64  `json:"bb_upper,omitempty"`
	BBMiddle           *float64  `json:"bb_middle,omitempty"`
	BBLower            *float64  `json:"bb_lower,omitempty"`
	ATR14              *float64  `json:"atr_14,omitempty"`
	EMA20              *float64  `json:"ema_20,omitempty"`
	EMA50              *float64  `json:"ema_50,omitempty"`
	EMA200             *float64  `json:"ema_200,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// FairValueGap is an externally detected price imbalance zone
type FairValueGap struct {
	ID          uuid.UUID  `json:"id"`
	Pair        string     `json:"pair"`
	Timeframe   string     `json:"timeframe"`
	GapType     GapType    `json:"gap_type"`
	Top         float64    `json:"top"`
	Bottom      float64    `json:"bottom"`
	FormedAt    time.Time  `json:"formed_at"`
	CandleIndex int        `json:"candle_index"`
	IsFilled    bool       `json:"is_filled"`
	FilledAt    *time.Time `json:"filled_at,omitempty"`
	Strength    float64    `json:"strength"`
	CreatedAt   time.Time  `json:"created_at"`
}

// LiquidityZone is an externally detected resting-liquidity level
type LiquidityZone struct {
	Pair       string   `json:"pair"`
	Timeframe  string   `json:"timeframe"`
	ZoneType   ZoneType `json:"zone_type"`
	Level      float64  `json:"level"`
	TouchCount int      `json:"touch_count"`
	IsSwept    bool     `json:"is_swept"`
}

// MarketSnapshot is assembled per pair from three independent queries. It is
// never persisted.
type MarketSnapshot struct {
	Pair       string               `json:"pair"`
	Prediction *AIPrediction        `json:"prediction,omitempty"`
	Indicators *TechnicalIndicators `json:"indicators,omitempty"`
	ActiveFVGs int                  `json:"active_fvgs"`
}

// Candle is one OHLC bar served by the analysis engine
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume *float64  `json:"volume,omitempty"`
}
