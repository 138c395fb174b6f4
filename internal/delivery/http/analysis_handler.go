package http

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"fxdesk/internal/delivery/http/dto"
	"fxdesk/internal/domain"
)

// AnalysisTrigger starts remote analysis runs
type AnalysisTrigger interface {
	AnalyzePair(ctx context.Context, pair string, timeframes ...string) (*domain.AnalysisResult, error)
	RunMarketAnalysis(ctx context.Context) (*domain.AnalysisResult, error)
	Status(ctx context.Context) (*domain.AnalysisStatus, error)
	Analyzing() bool
	LastError() error
}

// AnalysisHandler handles analysis triggers
type AnalysisHandler struct {
	trigger AnalysisTrigger
	timeout time.Duration
}

// NewAnalysisHandler creates a new AnalysisHandler. timeout bounds a trigger
// call and should exceed the analysis client's own timeout.
func NewAnalysisHandler(trigger AnalysisTrigger, timeout time.Duration) *AnalysisHandler {
	if timeout <= 0 {
		timeout = 150 * time.Second
	}
	return &AnalysisHandler{trigger: trigger, timeout: timeout}
}

// AnalyzePair triggers analysis of one pair
// POST /api/analysis/pair
func (h *AnalysisHandler) AnalyzePair(c echo.Context) error {
	var req dto.AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if req.Pair == "" {
		return BadRequestResponse(c, "Pair is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.trigger.AnalyzePair(ctx, req.Pair, req.Timeframes...)
	if err != nil {
		return ActionErrorResponse(c, "analyze "+req.Pair, err)
	}
	return SuccessMessageResponse(c, result.Message, result)
}

// RunMarketAnalysis triggers a sweep over all pairs
// POST /api/analysis/market
func (h *AnalysisHandler) RunMarketAnalysis(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.trigger.RunMarketAnalysis(ctx)
	if err != nil {
		return ActionErrorResponse(c, "run market analysis", err)
	}
	return SuccessMessageResponse(c, result.Message, result)
}

// Status reports the local trigger state and the backend's sweep status. A
// backend failure is reported alongside the local state.
// GET /api/analysis/status
func (h *AnalysisHandler) Status(c echo.Context) error {
	out := dto.AnalysisStateOutput{Analyzing: h.trigger.Analyzing()}
	if err := h.trigger.LastError(); err != nil {
		out.LastError = err.Error()
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	status, err := h.trigger.Status(ctx)
	out.Backend = status
	return SnapshotResponse(c, out, err)
}
