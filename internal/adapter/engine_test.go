package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxdesk/internal/domain"
	apperrors "fxdesk/pkg/errors"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestFlexibleTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"rfc3339", `"2024-03-01T10:00:00Z"`, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), false},
		{"python naive", `"2024-03-01T10:00:00.123456"`, time.Date(2024, 3, 1, 10, 0, 0, 123456000, time.UTC), false},
		{"datetime", `"2024-03-01 10:00:00"`, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), false},
		{"null", `null`, time.Time{}, false},
		{"garbage", `"yesterday"`, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ft FlexibleTime
			err := json.Unmarshal([]byte(tt.input), &ft)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(ft.Time), "got %v", ft.Time)
		})
	}

	assert.Nil(t, FlexibleTime{}.Ptr())
}

func TestSignalEngineAnalyzePair(t *testing.T) {
	var got domain.AnalyzeRequest
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/analyze", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"success":true,"message":"queued","data":{"job":"a1"}}`)
	})

	engine := NewSignalEngine(srv.URL, time.Second, 0)
	result, err := engine.AnalyzePair(context.Background(), domain.AnalyzeRequest{Pair: "EURUSD", ForceRefresh: true})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "queued", result.Message)
	assert.JSONEq(t, `{"job":"a1"}`, string(result.Data))

	assert.Equal(t, "EURUSD", got.Pair)
	assert.Equal(t, []string{"30m", "4H", "1D"}, got.Timeframes)
	assert.True(t, got.ForceRefresh)
}

func TestSignalEngineUnsuccessfulEnvelope(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"message":""}`)
	})

	engine := NewSignalEngine(srv.URL, time.Second, 0)
	_, err := engine.AnalyzePair(context.Background(), domain.AnalyzeRequest{Pair: "EURUSD"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRemote)
	assert.Contains(t, err.Error(), "Analysis failed")

	_, err = engine.RunMarketAnalysis(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Market analysis failed")
}

func TestSignalEngineHTTPError(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"detail":"engine warming up"}`)
	})

	engine := NewSignalEngine(srv.URL, time.Second, 0)
	_, err := engine.RunMarketAnalysis(context.Background())
	require.Error(t, err)

	var remote *apperrors.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusServiceUnavailable, remote.Status)
	assert.Equal(t, "engine warming up", remote.Message)
}

func TestSignalEngineNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	engine := NewSignalEngine(url, time.Second, 0)
	_, err := engine.AnalyzePair(context.Background(), domain.AnalyzeRequest{Pair: "EURUSD"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNetwork)
	assert.NotErrorIs(t, err, apperrors.ErrRemote)
}

func TestSignalEngineStatus(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		running bool
		lastRun bool
	}{
		{"bare", `{"isRunning":true,"lastRun":"2024-03-01T10:00:00Z"}`, true, true},
		{"enveloped", `{"success":true,"data":{"isRunning":false,"nextRun":"2024-03-01T10:05:00"}}`, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/analyze/status", r.URL.Path)
				_, _ = io.WriteString(w, tt.body)
			})

			status, err := NewSignalEngine(srv.URL, time.Second, 0).Status(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.running, status.IsRunning)
			assert.Equal(t, tt.lastRun, status.LastRun != nil)
		})
	}
}

func TestForexEngineTriggers(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/analyze/GBPUSD":
			_, _ = io.WriteString(w, `{"pair":"GBPUSD","recommendation":"buy","risk_reward":2.1}`)
		case r.Method == http.MethodPost && r.URL.Path == "/api/scan-all":
			_, _ = io.WriteString(w, `{"status":"started","message":"Scanning 6 pairs"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	engine := NewForexEngine(srv.URL, time.Second, 0)

	result, err := engine.AnalyzePair(context.Background(), domain.AnalyzeRequest{Pair: "gbp/usd"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Analysis completed for GBPUSD", result.Message)
	assert.Contains(t, string(result.Data), `"recommendation":"buy"`)

	result, err = engine.RunMarketAnalysis(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Scanning 6 pairs", result.Message)

	_, err = engine.AnalyzePair(context.Background(), domain.AnalyzeRequest{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestForexEngineScanFailure(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"error","message":"data loader offline"}`)
	})

	_, err := NewForexEngine(srv.URL, time.Second, 0).RunMarketAnalysis(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRemote)
	assert.Contains(t, err.Error(), "data loader offline")
}

func TestForexEngineMarketData(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/ohlc/EURUSD":
			assert.Equal(t, "H4", r.URL.Query().Get("timeframe"))
			_, _ = io.WriteString(w, `{"data":[
				{"time":"2024-03-01T08:00:00","open":1.08,"high":1.09,"low":1.07,"close":1.085},
				{"time":"2024-03-01T12:00:00","open":1.085,"high":1.1,"low":1.08,"close":1.095,"volume":1200}
			]}`)
		case "/api/predictions":
			assert.Equal(t, "EURUSD,GBPUSD", r.URL.Query().Get("pairs"))
			_, _ = io.WriteString(w, `{"predictions":[{"pair":"EURUSD","win_probability":0.62,"expected_rr":1.8,"confidence":"high","recommendation":"strong_buy"},
				{"pair":"GBPUSD","confidence":"extreme","recommendation":"hold"}]}`)
		case "/api/indicators/EURUSD":
			assert.Equal(t, "D1", r.URL.Query().Get("timeframe"))
			_, _ = io.WriteString(w, `{"pair":"EURUSD","timeframe":"D1","timestamp":"2024-03-01T00:00:00","rsi_14":55.2,"macd":{"value":0.001,"signal":0.0008,"histogram":0.0002}}`)
		case "/api/signals/recent":
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			_, _ = io.WriteString(w, `{"signals":[{"id":"s1","pair":"EURUSD","side":"sell","status":"active","created_at":"2024-03-01T09:30:00.5"}]}`)
		case "/api/health":
			_, _ = io.WriteString(w, `{"status":"healthy","strategy_engine":"ready","data_loader":"ready"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	engine := NewForexEngine(srv.URL, time.Second, 0)
	ctx := context.Background()

	candles, err := engine.OHLC(ctx, "EURUSD", "")
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, 12, candles[1].Time.Hour())
	assert.Nil(t, candles[0].Volume)
	require.NotNil(t, candles[1].Volume)
	assert.Equal(t, 1200.0, *candles[1].Volume)

	preds, err := engine.Predictions(ctx, []string{"eurusd", "GBPUSD"})
	require.NoError(t, err)
	require.Len(t, preds, 2)
	assert.Equal(t, domain.RecommendationStrongBuy, preds[0].Recommendation)
	assert.Equal(t, domain.ConfidenceUnknown, preds[1].Confidence)
	assert.Equal(t, domain.RecommendationUnknown, preds[1].Recommendation)

	ind, err := engine.Indicators(ctx, "EURUSD", "D1")
	require.NoError(t, err)
	assert.Equal(t, 55.2, ind.RSI14)
	assert.Equal(t, 0.0002, ind.MACD.Histogram)
	assert.Equal(t, 2024, ind.Timestamp.Year())

	signals, err := engine.RecentSignals(ctx, 5)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, domain.SideSell, signals[0].Side)
	assert.Equal(t, domain.SignalActive, signals[0].Status)
	assert.Equal(t, 30, signals[0].CreatedAt.Minute())

	status, err := engine.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.IsRunning)

	_, err = engine.OHLC(ctx, "XAUUSD", "H1")
	var remote *apperrors.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusNotFound, remote.Status)
}

func TestForexEnginePairAnalysis(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analyze/USDJPY", r.URL.Path)
		_, _ = io.WriteString(w, `{
			"pair":"USDJPY","current_price":151.2,"setups_found":2,
			"analysis_steps":[{"step_number":1,"title":"Trend","status":"success","details":["HTF bullish"]}],
			"detected_fvgs":{
				"4h":[{"pair":"USDJPY","timeframe":"4h","gap_type":"bullish","top":151.5,"bottom":151.1,"strength":0.7,"is_filled":false,"formed_at":"2024-03-01T08:00:00"}],
				"daily":[{"gap_type":"bearish","top":152,"bottom":151.8,"is_filled":true}]
			},
			"detected_liquidity_zones":[{"zone_type":"buy_side","level":152.3,"touch_count":3,"is_swept":false}]
		}`)
	})

	analysis, err := NewForexEngine(srv.URL, time.Second, 0).PairAnalysis(context.Background(), "usdjpy")
	require.NoError(t, err)
	assert.Equal(t, "USDJPY", analysis.Pair)
	assert.Equal(t, 2, analysis.SetupsFound)
	require.Len(t, analysis.AnalysisSteps, 1)
	require.Len(t, analysis.DetectedFVGs["4h"], 1)
	assert.Equal(t, domain.GapBullish, analysis.DetectedFVGs["4h"][0].GapType)
	assert.Equal(t, 8, analysis.DetectedFVGs["4h"][0].FormedAt.Hour())
	assert.True(t, analysis.DetectedFVGs["daily"][0].IsFilled)
	require.Len(t, analysis.DetectedLiquidityZones, 1)
	assert.Equal(t, domain.ZoneBuySide, analysis.DetectedLiquidityZones[0].ZoneType)
}

func TestRateLimiterHonorsContext(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"healthy"}`)
	})

	engine := NewForexEngine(srv.URL, time.Second, 1)
	_, err := engine.Health(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = engine.Health(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNetwork)
}
