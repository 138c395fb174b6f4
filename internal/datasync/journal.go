package datasync

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"fxdesk/internal/auth"
	"fxdesk/internal/domain"
	"fxdesk/internal/realtime"
	"fxdesk/internal/stats"
	"fxdesk/internal/utils"
	apperrors "fxdesk/pkg/errors"
)

// JournalSync is the signed-in user's journal, newest entry date first
type JournalSync struct {
	*Collection[*domain.JournalEntry]
	repo    domain.JournalRepository
	session *auth.Session
}

// NewJournalSync creates a journal collection. Without a signed-in user the
// collection stays empty and no query is issued.
func NewJournalSync(repo domain.JournalRepository, feed realtime.Feed, session *auth.Session, opts ...Option) *JournalSync {
	fetch := func(ctx context.Context) ([]*domain.JournalEntry, error) {
		userID, ok := session.UserID()
		if !ok {
			return []*domain.JournalEntry{}, nil
		}
		return repo.ListByUser(ctx, userID)
	}

	return &JournalSync{
		Collection: NewCollection("journal", fetch, feed, []string{domain.TableTradeJournal}, opts...),
		repo:       repo,
		session:    session,
	}
}

// Stats computes journal statistics over the current snapshot
func (j *JournalSync) Stats() stats.JournalStats {
	return stats.ComputeJournalStats(j.Items())
}

// JournalInput is the user-editable part of a journal entry
type JournalInput struct {
	SignalID       *uuid.UUID     `json:"signal_id,omitempty"`
	Pair           string         `json:"pair"`
	Side           domain.Side    `json:"side"`
	EntryPrice     float64        `json:"entry_price"`
	StopLoss       float64        `json:"stop_loss"`
	TakeProfit     float64        `json:"take_profit"`
	SetupNotes     *string        `json:"setup_notes,omitempty"`
	ExitPrice      *float64       `json:"exit_price,omitempty"`
	ProfitLoss     *float64       `json:"profit_loss,omitempty"`
	Outcome        domain.Outcome `json:"outcome,omitempty"`
	TradeNotes     *string        `json:"trade_notes,omitempty"`
	LessonsLearned *string        `json:"lessons_learned,omitempty"`
}

// Validate checks the fields an entry cannot be saved without
func (in JournalInput) Validate() error {
	if strings.TrimSpace(in.Pair) == "" {
		return apperrors.NewValidationError("pair", "is required", in.Pair)
	}
	if in.Side != domain.SideBuy && in.Side != domain.SideSell {
		return apperrors.NewValidationError("side", "must be buy or sell", in.Side)
	}
	if in.EntryPrice <= 0 {
		return apperrors.NewValidationError("entry_price", "must be positive", in.EntryPrice)
	}
	if in.Outcome == domain.OutcomeUnknown {
		return apperrors.NewValidationError("outcome", "must be win, loss, breakeven or pending", in.Outcome)
	}
	return nil
}

func (in JournalInput) apply(e *domain.JournalEntry) {
	e.SignalID = in.SignalID
	e.Pair = strings.ToUpper(strings.TrimSpace(in.Pair))
	e.Side = in.Side
	e.EntryPrice = in.EntryPrice
	e.StopLoss = in.StopLoss
	e.TakeProfit = in.TakeProfit
	e.SetupNotes = in.SetupNotes
	e.ExitPrice = in.ExitPrice
	e.ProfitLoss = in.ProfitLoss
	e.Outcome = in.Outcome
	e.TradeNotes = in.TradeNotes
	e.LessonsLearned = in.LessonsLearned
}

// Create records a new entry dated today. The collection picks the change
// up through its subscription.
func (j *JournalSync) Create(ctx context.Context, in JournalInput) (*domain.JournalEntry, error) {
	userID, ok := j.session.UserID()
	if !ok {
		return nil, apperrors.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	entry := &domain.JournalEntry{
		ID:        uuid.New(),
		UserID:    userID,
		EntryDate: utils.EntryDate(now),
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(entry)

	if err := j.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Update overwrites an existing entry owned by the user
func (j *JournalSync) Update(ctx context.Context, id uuid.UUID, in JournalInput) (*domain.JournalEntry, error) {
	userID, ok := j.session.UserID()
	if !ok {
		return nil, apperrors.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	entry := &domain.JournalEntry{ID: id, UserID: userID, UpdatedAt: time.Now()}
	in.apply(entry)

	if err := j.repo.Update(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete removes an entry owned by the user
func (j *JournalSync) Delete(ctx context.Context, id uuid.UUID) error {
	userID, ok := j.session.UserID()
	if !ok {
		return apperrors.ErrUnauthorized
	}
	return j.repo.Delete(ctx, userID, id)
}
