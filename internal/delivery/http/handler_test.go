package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxdesk/internal/auth"
	"fxdesk/internal/datasync"
	"fxdesk/internal/domain"
	"fxdesk/internal/infra"
	"fxdesk/internal/middleware"
	"fxdesk/internal/realtime"
	"fxdesk/internal/testutil"
	"fxdesk/internal/usecase"
	apperrors "fxdesk/pkg/errors"
	"fxdesk/pkg/logger"
)

type fakeTrigger struct {
	analyzing bool
	lastErr   error
	err       error
	pairs     []string
}

func (f *fakeTrigger) AnalyzePair(_ context.Context, pair string, _ ...string) (*domain.AnalysisResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.pairs = append(f.pairs, pair)
	return &domain.AnalysisResult{Success: true, Message: "Analysis queued for " + pair}, nil
}

func (f *fakeTrigger) RunMarketAnalysis(context.Context) (*domain.AnalysisResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.AnalysisResult{Success: true, Message: "Sweep started"}, nil
}

func (f *fakeTrigger) Status(context.Context) (*domain.AnalysisStatus, error) {
	return &domain.AnalysisStatus{IsRunning: true}, nil
}

func (f *fakeTrigger) Analyzing() bool  { return f.analyzing }
func (f *fakeTrigger) LastError() error { return f.lastErr }

type fakeMarketData struct{}

func (fakeMarketData) OHLC(_ context.Context, pair, _ string) ([]domain.Candle, error) {
	if pair == "XAUUSD" {
		return nil, apperrors.NewRemoteError("GET /api/ohlc/{pair}", http.StatusNotFound, "unknown pair")
	}
	candles := make([]domain.Candle, 25)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		candles[i] = domain.Candle{Time: start.Add(time.Duration(i) * 4 * time.Hour), Close: 1.0 + float64(i)*0.01}
	}
	return candles, nil
}

func (fakeMarketData) Predictions(_ context.Context, pairs []string) ([]domain.EnginePrediction, error) {
	out := make([]domain.EnginePrediction, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, domain.EnginePrediction{Pair: p, Recommendation: domain.RecommendationBuy})
	}
	return out, nil
}

func (fakeMarketData) PairAnalysis(_ context.Context, pair string) (*domain.PairAnalysis, error) {
	return &domain.PairAnalysis{
		Pair: pair,
		DetectedFVGs: map[string][]domain.FairValueGap{
			"4h":    {{GapType: domain.GapBullish}, {GapType: domain.GapBearish}},
			"daily": {{GapType: domain.GapBullish}},
		},
		DetectedLiquidityZones: []domain.LiquidityZone{{ZoneType: domain.ZoneSellSide}},
	}, nil
}

func (fakeMarketData) Indicators(_ context.Context, pair, timeframe string) (*domain.EngineIndicators, error) {
	return &domain.EngineIndicators{Pair: pair, Timeframe: timeframe, RSI14: 48.5}, nil
}

type testServer struct {
	e       *echo.Echo
	store   *testutil.Store
	desk    *usecase.Desk
	trigger *fakeTrigger
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   any             `json:"error"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := testutil.NewStore()
	hub := realtime.NewHub()
	desk := usecase.NewDesk(usecase.Repositories{
		Signals:   store.Signals(),
		Journal:   store.Journal(),
		Backtests: store.Backtests(),
		Settings:  store.Settings(),
		Market:    store.Market(),
	}, hub, []string{"EURUSD", "GBPUSD"}, datasync.WithLogger(logger.Nop()))
	t.Cleanup(desk.Close)

	provider := auth.NewProvider(store.UserRepo(), auth.NewTokenManager("test-secret", time.Hour), nil)
	provider.OnSession(desk)

	health := infra.NewHealth(time.Second)
	health.Register("store", func(context.Context) error { return nil })

	trigger := &fakeTrigger{}
	e := echo.New()
	SetupRoutes(e, &RouterConfig{
		AuthHandler:      NewAuthHandler(provider, false),
		SignalHandler:    NewSignalHandler(desk),
		WorkspaceHandler: NewWorkspaceHandler(desk),
		MarketHandler:    NewMarketHandler(desk, fakeMarketData{}),
		AnalysisHandler:  NewAnalysisHandler(trigger, time.Second),
		StreamHandler:    NewStreamHandler(hub),
		Health:           health,
		RequireAuth:      middleware.Auth(provider),
	})

	return &testServer{e: e, store: store, desk: desk, trigger: trigger}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var payload *strings.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		payload = strings.NewReader(string(b))
	} else {
		payload = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, payload)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func (s *testServer) signUp(t *testing.T, email string) string {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": email, "password": "secret123", "full_name": "Test Trader",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(t, session.Token)
	return session.Token
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp(t, "Trader@Example.com")
	assert.Equal(t, 1, s.desk.ActiveWorkspaces())

	rec, env := s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"email":"trader@example.com"`)

	rec, _ = s.do(t, http.MethodPost, "/api/auth/signin", "", map[string]string{"email": "trader@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "trader@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/auth/signout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, s.desk.ActiveWorkspaces())

	rec, _ = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/signals", "/api/journal", "/api/markets", "/api/analysis/status"} {
		rec, _ := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec, _ := s.do(t, http.MethodGet, "/api/signals", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignalList(t *testing.T) {
	s := newTestServer(t)
	now := time.Now()
	profit := 120.0
	s.store.AddSignal(&domain.TradeSignal{ID: uuid.New(), Pair: "EURUSD", Side: domain.SideBuy, EntryPrice: 1.1, StopLoss: 1.09, TakeProfit: 1.12, Status: domain.SignalActive, CreatedAt: now})
	s.store.AddSignal(&domain.TradeSignal{ID: uuid.New(), Pair: "GBPUSD", Side: domain.SideSell, EntryPrice: 1.3, StopLoss: 1.3, TakeProfit: 1.28, Status: domain.SignalCompleted, ProfitLoss: &profit, CreatedAt: now.Add(-time.Hour)})
	s.desk.Start(context.Background())
	token := s.signUp(t, "signals@example.com")

	rec, env := s.do(t, http.MethodGet, "/api/signals", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env.Status)

	var list struct {
		Filter  string `json:"filter"`
		Signals []struct {
			Pair       string   `json:"pair"`
			RiskReward *float64 `json:"risk_reward"`
		} `json:"signals"`
		Stats struct {
			Total   int     `json:"total_signals"`
			WinRate float64 `json:"win_rate"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, "all", list.Filter)
	require.Len(t, list.Signals, 2)
	assert.Equal(t, "EURUSD", list.Signals[0].Pair)
	require.NotNil(t, list.Signals[0].RiskReward)
	assert.InDelta(t, 2.0, *list.Signals[0].RiskReward, 1e-9)
	assert.Nil(t, list.Signals[1].RiskReward)
	assert.Equal(t, 2, list.Stats.Total)
	assert.Equal(t, 100.0, list.Stats.WinRate)

	rec, env = s.do(t, http.MethodGet, "/api/signals?status=active", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, "active", list.Filter)
	assert.Len(t, list.Signals, 1)

	rec, _ = s.do(t, http.MethodGet, "/api/signals?status=expired", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/signals/"+uuid.NewString(), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFetchErrorReturnsStaleSnapshot(t *testing.T) {
	s := newTestServer(t)
	s.store.AddSignal(&domain.TradeSignal{ID: uuid.New(), Pair: "EURUSD", Status: domain.SignalActive})
	s.desk.Start(context.Background())
	token := s.signUp(t, "stale@example.com")

	s.store.SetFail(apperrors.NetworkError("query trade signals", errors.New("connection reset")))
	rec, env := s.do(t, http.MethodGet, "/api/signals?refresh=true", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stale", env.Status)
	assert.Contains(t, fmt.Sprint(env.Error), "connection reset")
	assert.Contains(t, string(env.Data), `"pair":"EURUSD"`)

	s.store.SetFail(nil)
	_, env = s.do(t, http.MethodGet, "/api/signals?refresh=true", token, nil)
	assert.Equal(t, "success", env.Status)
	assert.Nil(t, env.Error)
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t)
	s.store.AddSignal(&domain.TradeSignal{ID: uuid.New(), Status: domain.SignalActive, EntryPrice: 1, StopLoss: 0.9, TakeProfit: 1.2})
	s.store.AddSignal(&domain.TradeSignal{ID: uuid.New(), Status: domain.SignalPending})
	s.desk.Start(context.Background())
	token := s.signUp(t, "dash@example.com")

	_, env := s.do(t, http.MethodPut, "/api/settings", token, map[string]any{"equity": 5000, "risk_percent": 0.02})
	require.Equal(t, "success", env.Status)

	rec, env := s.do(t, http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var dash struct {
		Stats struct {
			Total  int `json:"total_signals"`
			Active int `json:"active_signals"`
		} `json:"stats"`
		ActiveSignals []json.RawMessage `json:"active_signals"`
		Settings      *struct {
			RiskPercentDisplay float64 `json:"risk_percent_display"`
			RiskPerTrade       float64 `json:"risk_per_trade"`
		} `json:"settings"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.Equal(t, 2, dash.Stats.Total)
	assert.Equal(t, 1, dash.Stats.Active)
	assert.Len(t, dash.ActiveSignals, 1)
	require.NotNil(t, dash.Settings)
	assert.InDelta(t, 2.0, dash.Settings.RiskPercentDisplay, 1e-9)
	assert.InDelta(t, 100.0, dash.Settings.RiskPerTrade, 1e-9)
}

func TestJournalCRUD(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp(t, "journal@example.com")

	rec, env := s.do(t, http.MethodPost, "/api/journal", token, map[string]any{"pair": "eurusd", "side": "buy", "entry_price": 1.1, "outcome": "win", "profit_loss": 50})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created domain.JournalEntry
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "EURUSD", created.Pair)

	rec, env = s.do(t, http.MethodPost, "/api/journal", token, map[string]any{"pair": "EURUSD", "side": "long", "entry_price": 1.1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Failed to save journal entry", env.Message)

	rec, _ = s.do(t, http.MethodGet, "/api/journal?refresh=true", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_entries":1`)
	assert.Contains(t, rec.Body.String(), `"wins":1`)

	rec, _ = s.do(t, http.MethodPut, "/api/journal/"+created.ID.String(), token, map[string]any{"pair": "EURUSD", "side": "buy", "entry_price": 1.1, "outcome": "loss"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = s.do(t, http.MethodDelete, "/api/journal/"+uuid.NewString(), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Failed to delete journal entry", env.Message)

	rec, _ = s.do(t, http.MethodDelete, "/api/journal/"+created.ID.String(), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSettings(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp(t, "settings@example.com")

	rec, env := s.do(t, http.MethodGet, "/api/settings", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, "null", string(env.Data))

	rec, env = s.do(t, http.MethodPut, "/api/settings", token, map[string]any{"risk_percent": 5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Failed to update settings", env.Message)

	rec, _ = s.do(t, http.MethodPut, "/api/settings", token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.do(t, http.MethodPut, "/api/settings", token, map[string]any{"preferred_pairs": "EURUSD"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"preferred_pairs":"EURUSD"`)

	_, env = s.do(t, http.MethodGet, "/api/settings", token, nil)
	assert.Contains(t, string(env.Data), `"equity":10000`)
}

func TestBacktests(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp(t, "backtest@example.com")

	rec, env := s.do(t, http.MethodGet, "/api/backtests", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestMarkets(t *testing.T) {
	s := newTestServer(t)
	s.store.Predictions["EURUSD"] = &domain.AIPrediction{Pair: "EURUSD", Recommendation: domain.RecommendationStrongSell}
	s.store.Gaps["EURUSD"] = []*domain.FairValueGap{{IsFilled: false}, {IsFilled: true}}
	s.desk.Start(context.Background())
	token := s.signUp(t, "markets@example.com")

	rec, env := s.do(t, http.MethodGet, "/api/markets", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var markets []struct {
		Pair       string `json:"pair"`
		Bias       string `json:"bias"`
		ActiveFVGs int    `json:"active_fvgs"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &markets))
	require.Len(t, markets, 2)
	assert.Equal(t, "bearish", markets[0].Bias)
	assert.Equal(t, 1, markets[0].ActiveFVGs)
	assert.Equal(t, "neutral", markets[1].Bias)

	rec, env = s.do(t, http.MethodGet, "/api/markets/eurusd/chart", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var chart struct {
		Pair      string `json:"pair"`
		Timeframe string `json:"timeframe"`
		Candles   []json.RawMessage
		Change    struct {
			Change float64 `json:"change"`
		} `json:"change"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &chart))
	assert.Equal(t, "EURUSD", chart.Pair)
	assert.Equal(t, "H4", chart.Timeframe)
	assert.Len(t, chart.Candles, 20)
	assert.InDelta(t, 0.01, chart.Change.Change, 1e-9)

	rec, env = s.do(t, http.MethodGet, "/api/markets/XAUUSD/chart", token, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Failed to load chart data", env.Message)

	rec, env = s.do(t, http.MethodGet, "/api/markets/GBPUSD/analysis", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"total_fvgs":3`)
	assert.Contains(t, string(env.Data), `"4h":{"bullish":1,"bearish":1}`)
	assert.Contains(t, string(env.Data), `"liquidity_zone_counts":{"buy_side":0,"sell_side":1}`)

	rec, env = s.do(t, http.MethodGet, "/api/predictions?pairs=EURUSD,%20GBPUSD", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"pair":"GBPUSD"`)
}

func TestAnalysisTriggers(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp(t, "analysis@example.com")

	rec, env := s.do(t, http.MethodPost, "/api/analysis/pair", token, map[string]any{"pair": "EURUSD"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Analysis queued for EURUSD", env.Message)
	assert.Equal(t, []string{"EURUSD"}, s.trigger.pairs)

	rec, _ = s.do(t, http.MethodPost, "/api/analysis/pair", token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.trigger.err = apperrors.ErrAnalysisInProgress
	rec, env = s.do(t, http.MethodPost, "/api/analysis/market", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Failed to run market analysis", env.Message)

	s.trigger.err = nil
	s.trigger.analyzing = true
	s.trigger.lastErr = errors.New("engine timeout")
	rec, env = s.do(t, http.MethodGet, "/api/analysis/status", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"analyzing":true`)
	assert.Contains(t, string(env.Data), `"last_error":"engine timeout"`)
	assert.Contains(t, string(env.Data), `"isRunning":true`)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec, env := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"store":"ok"`)
}

func TestParseTables(t *testing.T) {
	tables, ok := parseTables("")
	assert.True(t, ok)
	assert.Equal(t, StreamTables, tables)

	tables, ok = parseTables("trade_signals, trade_journal")
	assert.True(t, ok)
	assert.Equal(t, []string{"trade_signals", "trade_journal"}, tables)

	_, ok = parseTables("trade_signals,pg_authid")
	assert.False(t, ok)
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperrors.NewValidationError("pair", "is required", ""), http.StatusBadRequest},
		{apperrors.ErrUnauthorized, http.StatusUnauthorized},
		{apperrors.Wrap(apperrors.ErrNotFound, "journal entry"), http.StatusNotFound},
		{apperrors.ErrAnalysisInProgress, http.StatusConflict},
		{apperrors.NewRemoteError("op", 500, "boom"), http.StatusBadGateway},
		{apperrors.NetworkError("op", errors.New("refused")), http.StatusServiceUnavailable},
		{errors.New("odd"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorStatus(tt.err), tt.err.Error())
	}
}
