// Package testutil provides in-memory stores for tests above the repository
// layer.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fxdesk/internal/domain"
	apperrors "fxdesk/pkg/errors"
)

// Store is an in-memory implementation of every repository interface
type Store struct {
	mu          sync.Mutex
	Users       map[uuid.UUID]*domain.User
	SignalRows  []*domain.TradeSignal
	JournalRows []*domain.JournalEntry
	Runs        []*domain.BacktestRun
	SettingRows map[uuid.UUID]*domain.UserSettings
	Predictions map[string]*domain.AIPrediction
	Indicators  map[string]*domain.TechnicalIndicators
	Gaps        map[string][]*domain.FairValueGap

	// Fail, when set, is returned by every read
	Fail error
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		Users:       map[uuid.UUID]*domain.User{},
		SettingRows: map[uuid.UUID]*domain.UserSettings{},
		Predictions: map[string]*domain.AIPrediction{},
		Indicators:  map[string]*domain.TechnicalIndicators{},
		Gaps:        map[string][]*domain.FairValueGap{},
	}
}

// SetFail sets the error returned by every read
func (s *Store) SetFail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fail = err
}

// AddSignal inserts a signal
func (s *Store) AddSignal(sig *domain.TradeSignal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SignalRows = append(s.SignalRows, sig)
}

// Signals returns the store as a SignalRepository
func (s *Store) Signals() domain.SignalRepository { return signalStore{s} }

// Journal returns the store as a JournalRepository
func (s *Store) Journal() domain.JournalRepository { return journalStore{s} }

// Backtests returns the store as a BacktestRepository
func (s *Store) Backtests() domain.BacktestRepository { return backtestStore{s} }

// Settings returns the store as a SettingsRepository
func (s *Store) Settings() domain.SettingsRepository { return settingsStore{s} }

// Market returns the store as a MarketRepository
func (s *Store) Market() domain.MarketRepository { return marketStore{s} }

// UserRepo returns the store as a UserRepository
func (s *Store) UserRepo() domain.UserRepository { return userStore{s} }

type signalStore struct{ *Store }

func (s signalStore) List(_ context.Context, f domain.SignalFilter) ([]*domain.TradeSignal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	out := []*domain.TradeSignal{}
	for _, sig := range s.SignalRows {
		if f.Status == nil || sig.Status == *f.Status {
			out = append(out, sig)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s signalStore) GetByID(_ context.Context, id uuid.UUID) (*domain.TradeSignal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sig := range s.SignalRows {
		if sig.ID == id {
			return sig, nil
		}
	}
	return nil, apperrors.Wrap(apperrors.ErrNotFound, "trade signal")
}

type journalStore struct{ *Store }

func (s journalStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	out := []*domain.JournalEntry{}
	for _, e := range s.JournalRows {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].EntryDate.Equal(out[j].EntryDate) {
			return out[i].EntryDate.After(out[j].EntryDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s journalStore) Create(_ context.Context, e *domain.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	e.CreatedAt, e.UpdatedAt = now, now
	s.JournalRows = append(s.JournalRows, e)
	return nil
}

func (s journalStore) Update(_ context.Context, e *domain.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.JournalRows {
		if cur.ID == e.ID && cur.UserID == e.UserID {
			e.EntryDate = cur.EntryDate
			e.CreatedAt = cur.CreatedAt
			e.UpdatedAt = time.Now()
			s.JournalRows[i] = e
			return nil
		}
	}
	return apperrors.Wrap(apperrors.ErrNotFound, "journal entry")
}

func (s journalStore) Delete(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.JournalRows {
		if cur.ID == id && cur.UserID == userID {
			s.JournalRows = append(s.JournalRows[:i], s.JournalRows[i+1:]...)
			return nil
		}
	}
	return apperrors.Wrap(apperrors.ErrNotFound, "journal entry")
}

type backtestStore struct{ *Store }

func (s backtestStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.BacktestRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	out := []*domain.BacktestRun{}
	for _, run := range s.Runs {
		if run.UserID != nil && *run.UserID == userID {
			out = append(out, run)
		}
	}
	return out, nil
}

type settingsStore struct{ *Store }

func (s settingsStore) GetByUser(_ context.Context, userID uuid.UUID) (*domain.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	return s.SettingRows[userID], nil
}

func (s settingsStore) Upsert(_ context.Context, userID uuid.UUID, u domain.SettingsUpdate) (*domain.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.SettingRows[userID]
	if !ok {
		row = &domain.UserSettings{
			ID:                        uuid.New(),
			UserID:                    userID,
			Equity:                    10000,
			RiskPercent:               0.01,
			PreferredPairs:            "EURUSD,GBPUSD,USDJPY",
			PreferredTimeframes:       "4H,1D",
			TradeNotificationsEnabled: true,
			MaxTradesPerDay:           3,
			AutoCloseHours:            48,
			CreatedAt:                 time.Now(),
		}
	}
	cp := *row
	if u.Equity != nil {
		cp.Equity = *u.Equity
	}
	if u.RiskPercent != nil {
		cp.RiskPercent = *u.RiskPercent
	}
	if u.PreferredPairs != nil {
		cp.PreferredPairs = *u.PreferredPairs
	}
	if u.PreferredTimeframes != nil {
		cp.PreferredTimeframes = *u.PreferredTimeframes
	}
	if u.TradeNotificationsEnabled != nil {
		cp.TradeNotificationsEnabled = *u.TradeNotificationsEnabled
	}
	if u.MaxTradesPerDay != nil {
		cp.MaxTradesPerDay = *u.MaxTradesPerDay
	}
	if u.AutoCloseHours != nil {
		cp.AutoCloseHours = *u.AutoCloseHours
	}
	cp.UpdatedAt = time.Now()
	s.SettingRows[userID] = &cp
	return &cp, nil
}

type marketStore struct{ *Store }

func (s marketStore) LatestPrediction(_ context.Context, pair string) (*domain.AIPrediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	return s.Predictions[pair], nil
}

func (s marketStore) LatestIndicators(_ context.Context, pair string) (*domain.TechnicalIndicators, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	return s.Indicators[pair], nil
}

func (s marketStore) CountUnfilledFVGs(ctx context.Context, pair string) (int, error) {
	gaps, err := s.ListUnfilledFVGs(ctx, pair)
	return len(gaps), err
}

func (s marketStore) ListUnfilledFVGs(_ context.Context, pair string) ([]*domain.FairValueGap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	out := []*domain.FairValueGap{}
	for _, g := range s.Gaps[pair] {
		if !g.IsFilled {
			out = append(out, g)
		}
	}
	return out, nil
}

type userStore struct{ *Store }

func (s userStore) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.Users {
		if existing.Email == u.Email {
			return apperrors.Wrap(apperrors.ErrAlreadyExists, "user_profiles_email_key")
		}
	}
	s.Users[u.ID] = u
	return nil
}

func (s userStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.Users[id]; ok {
		return u, nil
	}
	return nil, apperrors.Wrap(apperrors.ErrNotFound, "user")
}

func (s userStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.Users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.Wrap(apperrors.ErrNotFound, "user")
}
