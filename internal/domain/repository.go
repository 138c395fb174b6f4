package domain

import (
	"context"

	"github.com/google/uuid"
)

// SignalRepository defines read access to trade signals
type SignalRepository interface {
	// List retrieves signals newest-first, optionally filtered by status
	List(ctx context.Context, filter SignalFilter) ([]*TradeSignal, error)

	// GetByID retrieves a signal by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*TradeSignal, error)
}

// JournalRepository defines the interface for journal entry operations
type JournalRepository interface {
	// ListByUser retrieves a user's entries newest-first by entry date
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*JournalEntry, error)

	// Create inserts a new entry
	Create(ctx context.Context, entry *JournalEntry) error

	// Update overwrites an entry owned by entry.UserID
	Update(ctx context.Context, entry *JournalEntry) error

	// Delete removes an entry owned by userID
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// BacktestRepository defines read access to backtest runs and their results
type BacktestRepository interface {
	// ListByUser retrieves a user's runs newest-first, each joined with its result
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*BacktestRun, error)
}

// SettingsRepository defines the interface for user settings
type SettingsRepository interface {
	// GetByUser returns nil, nil when the user has no settings row yet
	GetByUser(ctx context.Context, userID uuid.UUID) (*UserSettings, error)

	// Upsert creates or updates the user's settings row and returns it
	Upsert(ctx context.Context, userID uuid.UUID, update SettingsUpdate) (*UserSettings, error)
}

// MarketRepository defines read access to the per-pair analysis tables
type MarketRepository interface {
	// LatestPrediction returns nil, nil when the pair has no prediction
	LatestPrediction(ctx context.Context, pair string) (*AIPrediction, error)

	// LatestIndicators returns nil, nil when the pair has no indicator row
	LatestIndicators(ctx context.Context, pair string) (*TechnicalIndicators, error)

	// CountUnfilledFVGs counts the pair's fair value gaps that are not filled
	CountUnfilledFVGs(ctx context.Context, pair string) (int, error)

	// ListUnfilledFVGs retrieves the pair's unfilled gaps newest-first
	ListUnfilledFVGs(ctx context.Context, pair string) ([]*FairValueGap, error)
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// Table names of the relational store
const (
	TableTradeSignals        = "trade_signals"
	TableTradeJournal        = "trade_journal"
	TableUserSettings        = "user_settings"
	TableBacktestRuns        = "backtest_runs"
	TableBacktestResults     = "backtest_results"
	TableAIPredictions       = "ai_predictions"
	TableTechnicalIndicators = "technical_indicators"
	TableFairValueGaps       = "fair_value_gaps"
)

// WatchedTables are the tables whose changes the sync layer reacts to
var WatchedTables = []string{
	TableTradeSignals,
	TableTradeJournal,
	TableUserSettings,
	TableBacktestRuns,
	TableBacktestResults,
	TableAIPredictions,
	TableTechnicalIndicators,
	TableFairValueGaps,
}
