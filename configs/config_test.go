package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "MARKET_PAIRS", "ANALYSIS_TIMEOUT", "SYNC_SEQUENCED", "ANALYSIS_API_KIND"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DefaultPairs, cfg.Markets.Pairs)
	assert.Equal(t, 120*time.Second, cfg.Analysis.Timeout)
	assert.Equal(t, 3*time.Second, cfg.Analysis.PairRefetchDelay)
	assert.Equal(t, 5*time.Second, cfg.Analysis.SweepRefetchDelay)
	assert.Equal(t, "signal", cfg.Analysis.Kind)
	assert.False(t, cfg.Sync.Sequenced)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("MARKET_PAIRS", " eurusd, ,gbpjpy ")
	t.Setenv("ANALYSIS_TIMEOUT", "30s")
	t.Setenv("SYNC_SEQUENCED", "true")
	t.Setenv("ANALYSIS_RATE_PER_MIN", "not-a-number")

	cfg := Load()

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, []string{"EURUSD", "GBPJPY"}, cfg.Markets.Pairs)
	assert.Equal(t, 30*time.Second, cfg.Analysis.Timeout)
	assert.True(t, cfg.Sync.Sequenced)
	assert.Equal(t, 30, cfg.Analysis.RequestsPerMin)
}

func TestDefaultPairsNotAliased(t *testing.T) {
	t.Setenv("MARKET_PAIRS", "")
	cfg := Load()
	cfg.Markets.Pairs[0] = "XAUUSD"
	assert.Equal(t, "EURUSD", DefaultPairs[0])
}

func TestMarketDataBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  AnalysisConfig
		want string
	}{
		{"signal backend without data engine", AnalysisConfig{Kind: "signal", URL: "http://signal:8000"}, ""},
		{"forex backend serves data", AnalysisConfig{Kind: "forex", URL: "http://forex:8000"}, "http://forex:8000"},
		{"explicit data engine", AnalysisConfig{Kind: "signal", URL: "http://signal:8000", MarketDataURL: "http://forex:8001"}, "http://forex:8001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.MarketDataBaseURL())
		})
	}
}
