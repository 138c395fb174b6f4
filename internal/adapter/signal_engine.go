package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"fxdesk/internal/domain"
	apperrors "fxdesk/pkg/errors"
)

// SignalEngine talks to the signal analysis API. Every response is wrapped
// in a {success, message, data} envelope.
type SignalEngine struct {
	client *engineClient
}

// NewSignalEngine creates a client for the signal analysis API
func NewSignalEngine(baseURL string, timeout time.Duration, requestsPerMin int) *SignalEngine {
	return &SignalEngine{client: newEngineClient("signal", baseURL, timeout, requestsPerMin)}
}

// AnalyzePair triggers analysis of one pair
func (e *SignalEngine) AnalyzePair(ctx context.Context, req domain.AnalyzeRequest) (*domain.AnalysisResult, error) {
	if len(req.Timeframes) == 0 {
		req.Timeframes = domain.DefaultTimeframes
	}

	var result domain.AnalysisResult
	if err := e.client.do(ctx, "/api/analyze", http.MethodPost, "/api/analyze", req, &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, apperrors.NewRemoteError("analyze pair", 0, messageOr(result.Message, "Analysis failed"))
	}
	return &result, nil
}

// RunMarketAnalysis triggers a sweep over all pairs
func (e *SignalEngine) RunMarketAnalysis(ctx context.Context) (*domain.AnalysisResult, error) {
	var result domain.AnalysisResult
	if err := e.client.do(ctx, "/api/analyze/market", http.MethodPost, "/api/analyze/market", struct{}{}, &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, apperrors.NewRemoteError("market analysis", 0, messageOr(result.Message, "Market analysis failed"))
	}
	return &result, nil
}

type statusBody struct {
	IsRunning bool         `json:"isRunning"`
	LastRun   FlexibleTime `json:"lastRun"`
	NextRun   FlexibleTime `json:"nextRun"`
}

func (s statusBody) toDomain() *domain.AnalysisStatus {
	return &domain.AnalysisStatus{
		IsRunning: s.IsRunning,
		LastRun:   s.LastRun.Ptr(),
		NextRun:   s.NextRun.Ptr(),
	}
}

// Status reports whether a sweep is running. The body may come bare or
// inside the envelope's data field.
func (e *SignalEngine) Status(ctx context.Context) (*domain.AnalysisStatus, error) {
	var payload struct {
		statusBody
		Success *bool           `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := e.client.do(ctx, "/api/analyze/status", http.MethodGet, "/api/analyze/status", nil, &payload); err != nil {
		return nil, err
	}
	if payload.Success != nil && !*payload.Success {
		return nil, apperrors.NewRemoteError("analysis status", 0, messageOr(payload.Message, "Status unavailable"))
	}

	if len(payload.Data) > 0 && string(payload.Data) != "null" {
		var inner statusBody
		if err := json.Unmarshal(payload.Data, &inner); err != nil {
			return nil, apperrors.NewRemoteError("analysis status", 0, "invalid status payload: "+err.Error())
		}
		return inner.toDomain(), nil
	}
	return payload.statusBody.toDomain(), nil
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
