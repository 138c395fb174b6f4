// Package analysis triggers remote analysis runs and refreshes the affected
// collections once the backend has had time to write its results.
package analysis

import (
	"context"
	"strings"
	"sync"
	"time"

	"fxdesk/internal/domain"
	"fxdesk/internal/metrics"
	apperrors "fxdesk/pkg/errors"
	"fxdesk/pkg/logger"
)

const (
	// DefaultPairRefetchDelay is the wait after a pair analysis before refetching
	DefaultPairRefetchDelay = 3 * time.Second
	// DefaultSweepRefetchDelay is the wait after a market sweep before refetching
	DefaultSweepRefetchDelay = 5 * time.Second

	refetchTimeout = 30 * time.Second
)

// Refetcher is anything that can reload itself, typically a datasync collection
type Refetcher interface {
	Refetch(ctx context.Context) error
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithRefetchDelays overrides the delays before the post-trigger refetch
func WithRefetchDelays(pair, sweep time.Duration) Option {
	return func(c *Coordinator) {
		c.pairDelay = pair
		c.sweepDelay = sweep
	}
}

// WithLogger overrides the coordinator's logger
func WithLogger(l *logger.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// Coordinator runs at most one analysis trigger at a time
type Coordinator struct {
	backend    domain.AnalysisBackend
	targets    []Refetcher
	pairDelay  time.Duration
	sweepDelay time.Duration
	afterFunc  func(time.Duration, func()) *time.Timer
	log        *logger.Logger

	mu        sync.Mutex
	analyzing bool
	lastErr   error
	pending   map[*time.Timer]struct{}
	closed    bool
}

// NewCoordinator creates a coordinator that refetches targets after each
// successful trigger
func NewCoordinator(backend domain.AnalysisBackend, targets []Refetcher, opts ...Option) *Coordinator {
	c := &Coordinator{
		backend:    backend,
		targets:    targets,
		pairDelay:  DefaultPairRefetchDelay,
		sweepDelay: DefaultSweepRefetchDelay,
		afterFunc:  time.AfterFunc,
		log:        logger.Get(),
		pending:    make(map[*time.Timer]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "analysis")
	return c
}

// Analyzing reports whether a trigger is in flight
func (c *Coordinator) Analyzing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.analyzing
}

// LastError returns the error of the last trigger, nil if it succeeded
func (c *Coordinator) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// AnalyzePair analyzes one pair. Timeframes default to 30m, 4H and 1D and
// cached results are always bypassed.
func (c *Coordinator) AnalyzePair(ctx context.Context, pair string, timeframes ...string) (*domain.AnalysisResult, error) {
	pair = strings.ToUpper(strings.TrimSpace(pair))
	if pair == "" {
		return nil, apperrors.NewValidationError("pair", "is required", pair)
	}
	if len(timeframes) == 0 {
		timeframes = append([]string(nil), domain.DefaultTimeframes...)
	}

	req := domain.AnalyzeRequest{Pair: pair, Timeframes: timeframes, ForceRefresh: true}
	return c.trigger(ctx, "pair", "Analysis failed", c.pairDelay, func(ctx context.Context) (*domain.AnalysisResult, error) {
		return c.backend.AnalyzePair(ctx, req)
	})
}

// RunMarketAnalysis sweeps every pair
func (c *Coordinator) RunMarketAnalysis(ctx context.Context) (*domain.AnalysisResult, error) {
	return c.trigger(ctx, "market", "Market analysis failed", c.sweepDelay, c.backend.RunMarketAnalysis)
}

// Status passes the backend's sweep status through
func (c *Coordinator) Status(ctx context.Context) (*domain.AnalysisStatus, error) {
	return c.backend.Status(ctx)
}

func (c *Coordinator) trigger(ctx context.Context, kind, failure string, delay time.Duration, call func(context.Context) (*domain.AnalysisResult, error)) (*domain.AnalysisResult, error) {
	c.mu.Lock()
	if c.analyzing {
		c.mu.Unlock()
		metrics.RecordAnalysisTrigger(kind, "rejected")
		return nil, apperrors.ErrAnalysisInProgress
	}
	c.analyzing = true
	c.lastErr = nil
	c.mu.Unlock()

	result, err := call(ctx)
	if err == nil && (result == nil || !result.Success) {
		msg := failure
		if result != nil && result.Message != "" {
			msg = result.Message
		}
		err = apperrors.NewRemoteError(kind+" analysis", 0, msg)
	}

	c.mu.Lock()
	c.analyzing = false
	c.lastErr = err
	c.mu.Unlock()

	if err != nil {
		metrics.RecordAnalysisTrigger(kind, "error")
		c.log.Warnf("%s analysis failed: %v", kind, err)
		return nil, err
	}

	metrics.RecordAnalysisTrigger(kind, "success")
	c.log.Infof("[OK] %s analysis accepted: %s", kind, result.Message)
	c.scheduleRefetch(delay)
	return result, nil
}

// scheduleRefetch reloads every target once delay has passed
func (c *Coordinator) scheduleRefetch(delay time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || len(c.targets) == 0 {
		return
	}

	var timer *time.Timer
	timer = c.afterFunc(delay, func() {
		c.mu.Lock()
		delete(c.pending, timer)
		c.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), refetchTimeout)
		defer cancel()
		for _, t := range c.targets {
			if err := t.Refetch(ctx); err != nil {
				c.log.Warnf("refetch after analysis failed: %v", err)
			}
		}
	})
	c.pending[timer] = struct{}{}
}

// Pending returns the number of scheduled refetches not yet run
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close cancels scheduled refetches
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for t := range c.pending {
		t.Stop()
	}
	clear(c.pending)
}
