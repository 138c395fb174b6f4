package http

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"fxdesk/internal/auth"
	"fxdesk/internal/datasync"
	"fxdesk/internal/delivery/http/dto"
	"fxdesk/internal/domain"
	"fxdesk/internal/middleware"
	"fxdesk/internal/stats"
	"fxdesk/internal/usecase"
)

// Collections gives handlers the live collections
type Collections interface {
	Signals() *datasync.SignalSync
	SignalsFor(ctx context.Context, status *domain.SignalStatus) *datasync.SignalSync
	Market() *datasync.MarketSync
	Workspace(ctx context.Context, s *auth.Session) (*usecase.Workspace, bool)
}

// refreshRequested reports whether the client asked for a pull-to-refresh
func refreshRequested(c echo.Context) bool {
	v, _ := strconv.ParseBool(c.QueryParam("refresh"))
	return v
}

// SignalHandler serves the signal list and dashboard
type SignalHandler struct {
	collections Collections
}

// NewSignalHandler creates a new SignalHandler
func NewSignalHandler(collections Collections) *SignalHandler {
	return &SignalHandler{collections: collections}
}

// List returns signals, optionally filtered by status
// GET /api/signals?status=active&refresh=true
func (h *SignalHandler) List(c echo.Context) error {
	status, err := datasync.ParseStatusFilter(c.QueryParam("status"))
	if err != nil {
		return BadRequestResponse(c, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sync := h.collections.SignalsFor(ctx, status)
	if refreshRequested(c) {
		_ = sync.Refetch(ctx)
	}

	state := sync.State()
	filter := "all"
	if status != nil {
		filter = string(*status)
	}
	return SnapshotResponse(c, dto.SignalListOutput{
		Filter:  filter,
		Loading: state.Loading,
		Signals: dto.ToSignalOutputs(state.Items),
		Stats:   stats.ComputeSignalStats(state.Items),
	}, state.Err)
}

// Get returns one signal from the live snapshot
// GET /api/signals/:id
func (h *SignalHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid signal ID")
	}

	sync := h.collections.Signals()
	for _, s := range sync.Items() {
		if s.ID == id {
			return SnapshotResponse(c, dto.ToSignalOutput(s), sync.Err())
		}
	}
	return NotFoundResponse(c, "Signal not found")
}

// Stats returns statistics over every signal
// GET /api/signals/stats
func (h *SignalHandler) Stats(c echo.Context) error {
	sync := h.collections.Signals()
	if refreshRequested(c) {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		_ = sync.Refetch(ctx)
	}
	state := sync.State()
	return SnapshotResponse(c, stats.ComputeSignalStats(state.Items), state.Err)
}

// Dashboard returns overall statistics, the active signals and the user's
// settings
// GET /api/dashboard
func (h *SignalHandler) Dashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	all := h.collections.Signals()
	active := domain.SignalActive
	activeSync := h.collections.SignalsFor(ctx, &active)
	if refreshRequested(c) {
		_ = all.Refetch(ctx)
		_ = activeSync.Refetch(ctx)
	}

	allState := all.State()
	activeState := activeSync.State()
	out := dto.DashboardOutput{
		Stats:         stats.ComputeSignalStats(allState.Items),
		ActiveSignals: dto.ToSignalOutputs(activeState.Items),
	}

	fetchErr := allState.Err
	if fetchErr == nil {
		fetchErr = activeState.Err
	}

	if s, err := middleware.GetSession(c); err == nil {
		if w, ok := h.collections.Workspace(ctx, s); ok {
			out.Settings = settingsOutput(w.Settings.Settings())
		}
	}

	return SnapshotResponse(c, out, fetchErr)
}

func settingsOutput(s *domain.UserSettings) *dto.SettingsOutput {
	if s == nil {
		return nil
	}
	return &dto.SettingsOutput{
		UserSettings:       s,
		RiskPercentDisplay: stats.RiskPercentDisplay(s.RiskPercent),
		RiskPerTrade:       stats.PositionRisk(s),
	}
}
