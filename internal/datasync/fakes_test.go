package datasync

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"fxdesk/internal/auth"
	"fxdesk/internal/domain"
	apperrors "fxdesk/pkg/errors"
)

type fakeSignalRepo struct {
	mu      sync.Mutex
	signals []*domain.TradeSignal
	err     error
	calls   atomic.Int32
	filters []domain.SignalFilter
}

func (r *fakeSignalRepo) List(_ context.Context, f domain.SignalFilter) ([]*domain.TradeSignal, error) {
	r.calls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters = append(r.filters, f)
	if r.err != nil {
		return nil, r.err
	}
	var out []*domain.TradeSignal
	for _, s := range r.signals {
		if f.Status == nil || s.Status == *f.Status {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSignalRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.TradeSignal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.signals {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeSignalRepo) set(signals []*domain.TradeSignal, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = signals
	r.err = err
}

type fakeJournalRepo struct {
	mu      sync.Mutex
	entries []*domain.JournalEntry
	calls   atomic.Int32
}

func (r *fakeJournalRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.JournalEntry, error) {
	r.calls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.JournalEntry
	for _, e := range r.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeJournalRepo) Create(_ context.Context, e *domain.JournalEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append([]*domain.JournalEntry{e}, r.entries...)
	return nil
}

func (r *fakeJournalRepo) Update(_ context.Context, e *domain.JournalEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.entries {
		if cur.ID == e.ID && cur.UserID == e.UserID {
			e.EntryDate = cur.EntryDate
			r.entries[i] = e
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (r *fakeJournalRepo) Delete(_ context.Context, userID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.entries {
		if cur.ID == id && cur.UserID == userID {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

type fakeBacktestRepo struct {
	runs  []*domain.BacktestRun
	calls atomic.Int32
}

func (r *fakeBacktestRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.BacktestRun, error) {
	r.calls.Add(1)
	var out []*domain.BacktestRun
	for _, run := range r.runs {
		if run.UserID != nil && *run.UserID == userID {
			out = append(out, run)
		}
	}
	return out, nil
}

type fakeSettingsRepo struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]*domain.UserSettings
	err   error
	calls atomic.Int32
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{rows: map[uuid.UUID]*domain.UserSettings{}}
}

func (r *fakeSettingsRepo) GetByUser(_ context.Context, userID uuid.UUID) (*domain.UserSettings, error) {
	r.calls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.rows[userID], nil
}

func (r *fakeSettingsRepo) Upsert(_ context.Context, userID uuid.UUID, u domain.SettingsUpdate) (*domain.UserSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[userID]
	if !ok {
		row = &domain.UserSettings{ID: uuid.New(), UserID: userID, Equity: 10000, RiskPercent: 0.01}
	}
	cp := *row
	if u.Equity != nil {
		cp.Equity = *u.Equity
	}
	if u.RiskPercent != nil {
		cp.RiskPercent = *u.RiskPercent
	}
	r.rows[userID] = &cp
	return &cp, nil
}

type fakeMarketRepo struct {
	predictions map[string]*domain.AIPrediction
	indicators  map[string]*domain.TechnicalIndicators
	fvgs        map[string]int
	failPair    string
}

func (r *fakeMarketRepo) LatestPrediction(_ context.Context, pair string) (*domain.AIPrediction, error) {
	if pair == r.failPair {
		return nil, apperrors.NewRemoteError("ai_predictions", 500, "boom")
	}
	return r.predictions[pair], nil
}

func (r *fakeMarketRepo) LatestIndicators(_ context.Context, pair string) (*domain.TechnicalIndicators, error) {
	return r.indicators[pair], nil
}

func (r *fakeMarketRepo) CountUnfilledFVGs(_ context.Context, pair string) (int, error) {
	return r.fvgs[pair], nil
}

func (r *fakeMarketRepo) ListUnfilledFVGs(_ context.Context, pair string) ([]*domain.FairValueGap, error) {
	return nil, nil
}

func sessionFor(id uuid.UUID) *auth.Session {
	return &auth.Session{User: &domain.User{ID: id, Email: "trader@example.com"}}
}
