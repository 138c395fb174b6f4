package http

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"fxdesk/internal/datasync"
	"fxdesk/internal/domain"
	"fxdesk/internal/middleware"
	"fxdesk/internal/stats"
	"fxdesk/internal/usecase"
)

// JournalOutput is the journal screen payload
type JournalOutput struct {
	Entries []*domain.JournalEntry `json:"entries"`
	Stats   stats.JournalStats     `json:"stats"`
	Loading bool                   `json:"loading"`
}

// WorkspaceHandler serves the per-user collections: journal, backtests and
// settings
type WorkspaceHandler struct {
	collections Collections
}

// NewWorkspaceHandler creates a new WorkspaceHandler
func NewWorkspaceHandler(collections Collections) *WorkspaceHandler {
	return &WorkspaceHandler{collections: collections}
}

func (h *WorkspaceHandler) workspace(ctx context.Context, c echo.Context) (*usecase.Workspace, bool) {
	s, err := middleware.GetSession(c)
	if err != nil {
		return nil, false
	}
	return h.collections.Workspace(ctx, s)
}

// ListJournal returns the user's journal and its statistics
// GET /api/journal
func (h *WorkspaceHandler) ListJournal(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	w, ok := h.workspace(ctx, c)
	if !ok {
		return UnauthorizedResponse(c, "User not authenticated")
	}
	if refreshRequested(c) {
		_ = w.Journal.Refetch(ctx)
	}

	state := w.Journal.State()
	return SnapshotResponse(c, JournalOutput{
		Entries: state.Items,
		Stats:   stats.ComputeJournalStats(state.Items),
		Loading: state.Loading,
	}, state.Err)
}

// CreateJournalEntry records a new entry
// POST /api/journal
func (h *WorkspaceHandler) CreateJournalEntry(c echo.Context) error {
	var in datasync.JournalInput
	if err := c.Bind(&in); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	w, ok := h.workspace(ctx, c)
	if !ok {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	entry, err := w.Journal.Create(ctx, in)
	if err != nil {
		return ActionErrorResponse(c, "save journal entry", err)
	}
	return CreatedResponse(c, entry)
}

// UpdateJournalEntry overwrites an entry
// PUT /api/journal/:id
func (h *WorkspaceHandler) UpdateJournalEntry(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid journal entry ID")
	}

	var in datasync.JournalInput
	if err := c.Bind(&in); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	w, ok := h.workspace(ctx, c)
	if !ok {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	entry, err := w.Journal.Update(ctx, id, in)
	if err != nil {
		return ActionErrorResponse(c, "save journal entry", err)
	}
	return SuccessResponse(c, entry)
}

// DeleteJournalEntry removes an entry
// DELETE /api/journal/:id
func (h *WorkspaceHandler) DeleteJournalEntry(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid journal entry ID")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	w, ok := h.workspace(ctx, c)
	if !ok {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	if err := w.Journal.Delete(ctx, id); err != nil {
		return ActionErrorResponse(c, "delete journal entry", err)
	}
	return SuccessMessageResponse(c, "Journal entry deleted", nil)
}

// ListBacktests returns the user's backtest runs with their results
// GET /api/backtests
func (h *WorkspaceHandler) ListBacktests(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	w, ok := h.workspace(ctx, c)
	if !ok {
		return UnauthorizedResponse(c, "User not authenticated")
	}
	if refreshRequested(c) {
		_ = w.Backtests.Refetch(ctx)
	}

	state := w.Backtests.State()
	return SnapshotResponse(c, stats.SummarizeBacktests(state.Items), state.Err)
}

// GetSettings returns the user's settings, null when none are stored
// GET /api/settings
func (h *WorkspaceHandler) GetSettings(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	w, ok := h.workspace(ctx, c)
	if !ok {
		return UnauthorizedResponse(c, "User not authenticated")
	}
	if refreshRequested(c) {
		_ = w.Settings.Refetch(ctx)
	}

	return SnapshotResponse(c, settingsOutput(w.Settings.Settings()), w.Settings.Err())
}

// UpdateSettings upserts the user's settings
// PUT /api/settings
func (h *WorkspaceHandler) UpdateSettings(c echo.Context) error {
	var update domain.SettingsUpdate
	if err := c.Bind(&update); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if update.Empty() {
		return BadRequestResponse(c, "No settings to update")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	w, ok := h.workspace(ctx, c)
	if !ok {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	saved, err := w.Settings.Update(ctx, update)
	if err != nil {
		return ActionErrorResponse(c, "update settings", err)
	}
	return SuccessResponse(c, settingsOutput(saved))
}
