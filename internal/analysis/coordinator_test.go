package analysis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxdesk/internal/domain"
	apperrors "fxdesk/pkg/errors"
	"fxdesk/pkg/logger"
)

type fakeBackend struct {
	mu       sync.Mutex
	requests []domain.AnalyzeRequest
	gate     chan struct{}
	result   *domain.AnalysisResult
	err      error
	status   *domain.AnalysisStatus
}

func (f *fakeBackend) wait(ctx context.Context) error {
	if f.gate == nil {
		return nil
	}
	select {
	case <-f.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeBackend) AnalyzePair(ctx context.Context, req domain.AnalyzeRequest) (*domain.AnalysisResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.result, f.err
}

func (f *fakeBackend) RunMarketAnalysis(ctx context.Context) (*domain.AnalysisResult, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.result, f.err
}

func (f *fakeBackend) Status(context.Context) (*domain.AnalysisStatus, error) {
	return f.status, f.err
}

type countingRefetcher struct {
	calls atomic.Int32
}

func (r *countingRefetcher) Refetch(context.Context) error {
	r.calls.Add(1)
	return nil
}

func ok(msg string) *domain.AnalysisResult {
	return &domain.AnalysisResult{Success: true, Message: msg}
}

func newTestCoordinator(backend domain.AnalysisBackend, targets ...Refetcher) *Coordinator {
	return NewCoordinator(backend, targets,
		WithRefetchDelays(10*time.Millisecond, 20*time.Millisecond),
		WithLogger(logger.Nop()),
	)
}

func TestAnalyzePairDefaults(t *testing.T) {
	backend := &fakeBackend{result: ok("queued")}
	c := newTestCoordinator(backend)

	result, err := c.AnalyzePair(context.Background(), " eurusd ")
	require.NoError(t, err)
	assert.Equal(t, "queued", result.Message)

	require.Len(t, backend.requests, 1)
	req := backend.requests[0]
	assert.Equal(t, "EURUSD", req.Pair)
	assert.Equal(t, []string{"30m", "4H", "1D"}, req.Timeframes)
	assert.True(t, req.ForceRefresh)

	_, err = c.AnalyzePair(context.Background(), "GBPUSD", "1H")
	require.NoError(t, err)
	assert.Equal(t, []string{"1H"}, backend.requests[1].Timeframes)

	_, err = c.AnalyzePair(context.Background(), "  ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Len(t, backend.requests, 2)
}

func TestTriggerRefetchesAfterDelay(t *testing.T) {
	backend := &fakeBackend{result: ok("started")}
	target := &countingRefetcher{}
	c := newTestCoordinator(backend, target)

	var delays []time.Duration
	c.afterFunc = func(d time.Duration, f func()) *time.Timer {
		delays = append(delays, d)
		return time.AfterFunc(0, f)
	}

	_, err := c.AnalyzePair(context.Background(), "EURUSD")
	require.NoError(t, err)
	_, err = c.RunMarketAnalysis(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, delays)
	assert.Eventually(t, func() bool { return target.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return c.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestDefaultDelays(t *testing.T) {
	c := NewCoordinator(&fakeBackend{}, nil)
	assert.Equal(t, 3*time.Second, c.pairDelay)
	assert.Equal(t, 5*time.Second, c.sweepDelay)
}

func TestFailureSetsLastErrorWithoutRefetch(t *testing.T) {
	tests := []struct {
		name    string
		backend *fakeBackend
		message string
	}{
		{"remote error", &fakeBackend{err: apperrors.NewRemoteError("analyze pair", 502, "bad gateway")}, "bad gateway"},
		{"unsuccessful result", &fakeBackend{result: &domain.AnalysisResult{Success: false}}, "Analysis failed"},
		{"unsuccessful with message", &fakeBackend{result: &domain.AnalysisResult{Message: "pair not supported"}}, "pair not supported"},
		{"nil result", &fakeBackend{}, "Analysis failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := &countingRefetcher{}
			c := newTestCoordinator(tt.backend, target)

			_, err := c.AnalyzePair(context.Background(), "EURUSD")
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrRemote)
			assert.Contains(t, err.Error(), tt.message)
			assert.Equal(t, err, c.LastError())
			assert.False(t, c.Analyzing())

			time.Sleep(30 * time.Millisecond)
			assert.Zero(t, target.calls.Load())
			assert.Zero(t, c.Pending())
		})
	}
}

func TestLastErrorClearedOnNextTrigger(t *testing.T) {
	backend := &fakeBackend{err: apperrors.NetworkError("POST /api/analyze", errors.New("connection refused"))}
	c := newTestCoordinator(backend)

	_, err := c.RunMarketAnalysis(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, c.LastError(), apperrors.ErrNetwork)

	backend.err = nil
	backend.result = ok("started")
	_, err = c.RunMarketAnalysis(context.Background())
	require.NoError(t, err)
	assert.NoError(t, c.LastError())
}

func TestMutualExclusion(t *testing.T) {
	backend := &fakeBackend{result: ok("done"), gate: make(chan struct{})}
	c := newTestCoordinator(backend)

	done := make(chan error, 1)
	go func() {
		_, err := c.AnalyzePair(context.Background(), "EURUSD")
		done <- err
	}()

	require.Eventually(t, c.Analyzing, time.Second, time.Millisecond)

	_, err := c.RunMarketAnalysis(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrAnalysisInProgress)
	_, err = c.AnalyzePair(context.Background(), "GBPUSD")
	assert.ErrorIs(t, err, apperrors.ErrAnalysisInProgress)
	assert.NoError(t, c.LastError())

	close(backend.gate)
	require.NoError(t, <-done)
	assert.False(t, c.Analyzing())

	_, err = c.RunMarketAnalysis(context.Background())
	assert.NoError(t, err)
}

func TestCloseCancelsPendingRefetch(t *testing.T) {
	backend := &fakeBackend{result: ok("started")}
	target := &countingRefetcher{}
	c := NewCoordinator(backend, []Refetcher{target},
		WithRefetchDelays(50*time.Millisecond, 50*time.Millisecond),
		WithLogger(logger.Nop()),
	)

	_, err := c.AnalyzePair(context.Background(), "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Pending())

	c.Close()
	assert.Zero(t, c.Pending())
	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, target.calls.Load())

	_, err = c.AnalyzePair(context.Background(), "EURUSD")
	require.NoError(t, err)
	assert.Zero(t, c.Pending())
}

func TestStatusPassthrough(t *testing.T) {
	now := time.Now()
	backend := &fakeBackend{status: &domain.AnalysisStatus{IsRunning: true, LastRun: &now}}
	c := newTestCoordinator(backend)

	status, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.IsRunning)
	assert.Equal(t, &now, status.LastRun)
}
