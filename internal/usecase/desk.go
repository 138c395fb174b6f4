package usecase

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"fxdesk/internal/auth"
	"fxdesk/internal/datasync"
	"fxdesk/internal/domain"
	"fxdesk/internal/metrics"
	"fxdesk/internal/realtime"
	"fxdesk/pkg/logger"
)

// Repositories groups the stores the desk reads from
type Repositories struct {
	Signals   domain.SignalRepository
	Journal   domain.JournalRepository
	Backtests domain.BacktestRepository
	Settings  domain.SettingsRepository
	Market    domain.MarketRepository
}

// Workspace holds one signed-in user's live collections
type Workspace struct {
	UserID    uuid.UUID
	Journal   *datasync.JournalSync
	Backtests *datasync.BacktestSync
	Settings  *datasync.SettingsSync

	tokens map[string]struct{}
}

func (w *Workspace) close() {
	_ = w.Journal.Close()
	_ = w.Backtests.Close()
	_ = w.Settings.Close()
}

// Desk owns every live collection: the shared signal and market collections,
// plus one workspace per signed-in user. It implements auth.SessionListener so
// workspaces follow sign-in and sign-out.
type Desk struct {
	repos Repositories
	feed  realtime.Feed
	opts  []datasync.Option
	log   *logger.Logger

	signals *datasync.SignalSync
	market  *datasync.MarketSync

	mu         sync.Mutex
	filtered   map[domain.SignalStatus]*datasync.SignalSync
	workspaces map[uuid.UUID]*Workspace
	closed     bool
}

// NewDesk creates a desk. Nothing is fetched until Start.
func NewDesk(repos Repositories, feed realtime.Feed, pairs []string, opts ...datasync.Option) *Desk {
	return &Desk{
		repos:      repos,
		feed:       feed,
		opts:       opts,
		log:        logger.Get().With("component", "desk"),
		signals:    datasync.NewSignalSync(repos.Signals, feed, domain.SignalFilter{}, opts...),
		market:     datasync.NewMarketSync(repos.Market, feed, pairs, opts...),
		filtered:   make(map[domain.SignalStatus]*datasync.SignalSync),
		workspaces: make(map[uuid.UUID]*Workspace),
	}
}

// Start subscribes the shared collections and loads them. A failed initial
// load is logged; the collection keeps its subscription and recovers on the
// next change.
func (d *Desk) Start(ctx context.Context) {
	if err := d.signals.Start(ctx); err != nil {
		d.log.Warnf("initial signal load failed: %v", err)
	}
	if err := d.market.Start(ctx); err != nil {
		d.log.Warnf("initial market load failed: %v", err)
	}
	d.log.Infof("[OK] Desk started (%d pairs)", len(d.market.Pairs()))
}

// Signals returns the unfiltered signal collection
func (d *Desk) Signals() *datasync.SignalSync { return d.signals }

// Market returns the market overview collection
func (d *Desk) Market() *datasync.MarketSync { return d.market }

// SignalsFor returns the collection for a status filter, creating and
// starting it on first use. A nil status returns the unfiltered collection.
func (d *Desk) SignalsFor(ctx context.Context, status *domain.SignalStatus) *datasync.SignalSync {
	if status == nil {
		return d.signals
	}

	d.mu.Lock()
	s, ok := d.filtered[*status]
	if !ok {
		st := *status
		s = datasync.NewSignalSync(d.repos.Signals, d.feed, domain.SignalFilter{Status: &st}, d.opts...)
		d.filtered[st] = s
	}
	d.mu.Unlock()

	if !ok {
		if err := s.Start(ctx); err != nil {
			d.log.Warnf("initial load of %s failed: %v", s.Name(), err)
		}
	}
	return s
}

// Refetch reloads the shared collections. The analysis coordinator calls it
// after a trigger.
func (d *Desk) Refetch(ctx context.Context) error {
	d.mu.Lock()
	targets := make([]*datasync.SignalSync, 0, len(d.filtered)+1)
	targets = append(targets, d.signals)
	for _, s := range d.filtered {
		targets = append(targets, s)
	}
	d.mu.Unlock()

	var firstErr error
	for _, s := range targets {
		if err := s.Refetch(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := d.market.Refetch(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Workspace returns the user's workspace, acquiring it when the session was
// issued before this process started.
func (d *Desk) Workspace(ctx context.Context, s *auth.Session) (*Workspace, bool) {
	userID, ok := s.UserID()
	if !ok {
		return nil, false
	}

	d.mu.Lock()
	w, found := d.workspaces[userID]
	d.mu.Unlock()
	if found {
		return w, true
	}
	return d.acquire(ctx, s), true
}

// SessionStarted acquires the user's workspace
func (d *Desk) SessionStarted(ctx context.Context, s *auth.Session) {
	d.acquire(ctx, s)
}

// SessionEnded releases the session's hold on its workspace. The workspace
// is closed once its last session ends.
func (d *Desk) SessionEnded(_ context.Context, s *auth.Session) {
	userID, ok := s.UserID()
	if !ok {
		return
	}

	d.mu.Lock()
	w, found := d.workspaces[userID]
	if !found {
		d.mu.Unlock()
		return
	}
	delete(w.tokens, s.TokenID)
	last := len(w.tokens) == 0
	if last {
		delete(d.workspaces, userID)
	}
	metrics.ActiveWorkspaces.Set(float64(len(d.workspaces)))
	d.mu.Unlock()

	if last {
		w.close()
		d.log.Infof("Released workspace for %s", userID)
	}
}

func (d *Desk) acquire(ctx context.Context, s *auth.Session) *Workspace {
	userID, ok := s.UserID()
	if !ok {
		return nil
	}

	d.mu.Lock()
	if w, found := d.workspaces[userID]; found {
		w.tokens[s.TokenID] = struct{}{}
		d.mu.Unlock()
		return w
	}
	if d.closed {
		d.mu.Unlock()
		return d.newWorkspace(userID, s)
	}

	w := d.newWorkspace(userID, s)
	d.workspaces[userID] = w
	metrics.ActiveWorkspaces.Set(float64(len(d.workspaces)))
	d.mu.Unlock()

	for _, start := range []func(context.Context) error{w.Journal.Start, w.Backtests.Start, w.Settings.Start} {
		if err := start(ctx); err != nil {
			d.log.Warnf("initial workspace load for %s failed: %v", userID, err)
		}
	}
	d.log.Infof("[OK] Acquired workspace for %s", userID)
	return w
}

func (d *Desk) newWorkspace(userID uuid.UUID, s *auth.Session) *Workspace {
	return &Workspace{
		UserID:    userID,
		Journal:   datasync.NewJournalSync(d.repos.Journal, d.feed, s, d.opts...),
		Backtests: datasync.NewBacktestSync(d.repos.Backtests, d.feed, s, d.opts...),
		Settings:  datasync.NewSettingsSync(d.repos.Settings, d.feed, s, d.opts...),
		tokens:    map[string]struct{}{s.TokenID: {}},
	}
}

// ActiveWorkspaces returns the number of users with live collections
func (d *Desk) ActiveWorkspaces() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.workspaces)
}

// Close tears down every collection
func (d *Desk) Close() {
	d.mu.Lock()
	d.closed = true
	workspaces := d.workspaces
	d.workspaces = make(map[uuid.UUID]*Workspace)
	filtered := d.filtered
	d.filtered = make(map[domain.SignalStatus]*datasync.SignalSync)
	d.mu.Unlock()

	for _, w := range workspaces {
		w.close()
	}
	for _, s := range filtered {
		_ = s.Close()
	}
	_ = d.signals.Close()
	_ = d.market.Close()
	metrics.ActiveWorkspaces.Set(0)
	d.log.Infof("[OK] Desk closed")
}
