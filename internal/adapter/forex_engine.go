package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fxdesk/internal/domain"
	apperrors "fxdesk/pkg/errors"
)

// DefaultChartTimeframe is used when a chart request names none
const DefaultChartTimeframe = "H4"

// ForexEngine talks to the FastAPI forex engine. Its endpoints answer with
// bare payloads; trigger responses are normalized into the analysis envelope.
type ForexEngine struct {
	client *engineClient
}

// NewForexEngine creates a client for the forex engine
func NewForexEngine(baseURL string, timeout time.Duration, requestsPerMin int) *ForexEngine {
	return &ForexEngine{client: newEngineClient("forex", baseURL, timeout, requestsPerMin)}
}

// AnalyzePair runs the engine's analysis of one pair. The engine analyzes
// its own timeframe set, so req.Timeframes is not forwarded.
func (e *ForexEngine) AnalyzePair(ctx context.Context, req domain.AnalyzeRequest) (*domain.AnalysisResult, error) {
	pair := normalizePair(req.Pair)
	if pair == "" {
		return nil, apperrors.NewValidationError("pair", "is required", req.Pair)
	}

	var raw json.RawMessage
	if err := e.client.do(ctx, "/api/analyze/{pair}", http.MethodGet, "/api/analyze/"+url.PathEscape(pair), nil, &raw); err != nil {
		return nil, err
	}
	return &domain.AnalysisResult{
		Success: true,
		Message: fmt.Sprintf("Analysis completed for %s", pair),
		Data:    raw,
	}, nil
}

// RunMarketAnalysis asks the engine to scan every pair
func (e *ForexEngine) RunMarketAnalysis(ctx context.Context) (*domain.AnalysisResult, error) {
	var raw json.RawMessage
	if err := e.client.do(ctx, "/api/scan-all", http.MethodPost, "/api/scan-all", struct{}{}, &raw); err != nil {
		return nil, err
	}

	var payload struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, apperrors.NewRemoteError("scan all", 0, "invalid response body: "+err.Error())
	}

	switch strings.ToLower(payload.Status) {
	case "error", "failed", "failure":
		return nil, apperrors.NewRemoteError("scan all", 0, messageOr(payload.Message, "Market analysis failed"))
	}
	return &domain.AnalysisResult{
		Success: true,
		Message: messageOr(payload.Message, "Market scan started"),
		Data:    raw,
	}, nil
}

// Status maps the engine health check to a sweep status. The engine does
// not report sweep progress, so IsRunning is always false.
func (e *ForexEngine) Status(ctx context.Context) (*domain.AnalysisStatus, error) {
	health, err := e.Health(ctx)
	if err != nil {
		return nil, err
	}
	if !health.Healthy() {
		return nil, apperrors.NewRemoteError("analysis status", 0, "engine status: "+health.Status)
	}
	return &domain.AnalysisStatus{}, nil
}

// Health returns the engine health report
func (e *ForexEngine) Health(ctx context.Context) (*domain.EngineHealth, error) {
	var health domain.EngineHealth
	if err := e.client.do(ctx, "/api/health", http.MethodGet, "/api/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

type ohlcBar struct {
	Time   FlexibleTime `json:"time"`
	Open   float64      `json:"open"`
	High   float64      `json:"high"`
	Low    float64      `json:"low"`
	Close  float64      `json:"close"`
	Volume *float64     `json:"volume"`
}

// OHLC returns candles for a pair, oldest first
func (e *ForexEngine) OHLC(ctx context.Context, pair, timeframe string) ([]domain.Candle, error) {
	if timeframe == "" {
		timeframe = DefaultChartTimeframe
	}

	var payload struct {
		Data []ohlcBar `json:"data"`
	}
	path := "/api/ohlc/" + url.PathEscape(normalizePair(pair)) + "?" + url.Values{"timeframe": {timeframe}}.Encode()
	if err := e.client.do(ctx, "/api/ohlc/{pair}", http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}

	candles := make([]domain.Candle, 0, len(payload.Data))
	for _, bar := range payload.Data {
		candles = append(candles, domain.Candle{
			Time:   bar.Time.Time,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		})
	}
	return candles, nil
}

type indicatorsBody struct {
	domain.EngineIndicators
	Timestamp FlexibleTime `json:"timestamp"`
}

// Indicators returns live indicator values for a pair
func (e *ForexEngine) Indicators(ctx context.Context, pair, timeframe string) (*domain.EngineIndicators, error) {
	if timeframe == "" {
		timeframe = DefaultChartTimeframe
	}

	var body indicatorsBody
	path := "/api/indicators/" + url.PathEscape(normalizePair(pair)) + "?" + url.Values{"timeframe": {timeframe}}.Encode()
	if err := e.client.do(ctx, "/api/indicators/{pair}", http.MethodGet, path, nil, &body); err != nil {
		return nil, err
	}

	out := body.EngineIndicators
	out.Timestamp = body.Timestamp.Time
	return &out, nil
}

// Predictions returns ML predictions, for every pair when pairs is empty
func (e *ForexEngine) Predictions(ctx context.Context, pairs []string) ([]domain.EnginePrediction, error) {
	path := "/api/predictions"
	if len(pairs) > 0 {
		normalized := make([]string, 0, len(pairs))
		for _, p := range pairs {
			normalized = append(normalized, normalizePair(p))
		}
		path += "?" + url.Values{"pairs": {strings.Join(normalized, ",")}}.Encode()
	}

	var payload struct {
		Predictions []domain.EnginePrediction `json:"predictions"`
	}
	if err := e.client.do(ctx, "/api/predictions", http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	if payload.Predictions == nil {
		return []domain.EnginePrediction{}, nil
	}
	return payload.Predictions, nil
}

type signalBody struct {
	domain.EngineSignal
	CreatedAt FlexibleTime `json:"created_at"`
}

// RecentSignals returns the engine's most recent signals
func (e *ForexEngine) RecentSignals(ctx context.Context, limit int) ([]domain.EngineSignal, error) {
	if limit <= 0 {
		limit = 10
	}

	var payload struct {
		Signals []signalBody `json:"signals"`
	}
	path := "/api/signals/recent?limit=" + strconv.Itoa(limit)
	if err := e.client.do(ctx, "/api/signals/recent", http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}

	signals := make([]domain.EngineSignal, 0, len(payload.Signals))
	for _, s := range payload.Signals {
		sig := s.EngineSignal
		sig.CreatedAt = s.CreatedAt.Time
		signals = append(signals, sig)
	}
	return signals, nil
}

type gapBody struct {
	domain.FairValueGap
	FormedAt FlexibleTime `json:"formed_at"`
	FilledAt FlexibleTime `json:"filled_at"`
}

type pairAnalysisBody struct {
	domain.PairAnalysis
	DetectedFVGs map[string][]gapBody `json:"detected_fvgs"`
}

// PairAnalysis returns the engine's detailed analysis of a pair
func (e *ForexEngine) PairAnalysis(ctx context.Context, pair string) (*domain.PairAnalysis, error) {
	pair = normalizePair(pair)
	if pair == "" {
		return nil, apperrors.NewValidationError("pair", "is required", pair)
	}

	var body pairAnalysisBody
	if err := e.client.do(ctx, "/api/analyze/{pair}", http.MethodGet, "/api/analyze/"+url.PathEscape(pair), nil, &body); err != nil {
		return nil, err
	}

	out := body.PairAnalysis
	if out.Pair == "" {
		out.Pair = pair
	}
	if len(body.DetectedFVGs) > 0 {
		out.DetectedFVGs = make(map[string][]domain.FairValueGap, len(body.DetectedFVGs))
		for tf, gaps := range body.DetectedFVGs {
			converted := make([]domain.FairValueGap, 0, len(gaps))
			for _, g := range gaps {
				gap := g.FairValueGap
				gap.FormedAt = g.FormedAt.Time
				gap.FilledAt = g.FilledAt.Ptr()
				converted = append(converted, gap)
			}
			out.DetectedFVGs[tf] = converted
		}
	}
	return &out, nil
}

func normalizePair(pair string) string {
	return strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(pair, "/", "")))
}
