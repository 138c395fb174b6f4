package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fxdesk/internal/domain"
	apperrors "fxdesk/pkg/errors"
)

// JournalRepositoryImpl implements the JournalRepository interface
type JournalRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewJournalRepository creates a new JournalRepository
func NewJournalRepository(db *pgxpool.Pool) domain.JournalRepository {
	return &JournalRepositoryImpl{db: db}
}

// ListByUser retrieves a user's entries newest-first by entry date
func (r *JournalRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.JournalEntry, error) {
	query := `
		SELECT id, user_id, signal_id, entry_date, pair, side,
		       entry_price, stop_loss, take_profit, setup_notes,
		       exit_price, profit_loss, COALESCE(outcome, ''),
		       trade_notes, lessons_learned, created_at, updated_at
		FROM trade_journal
		WHERE user_id = $1
		ORDER BY entry_date DESC, created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, storeError("query journal entries", err)
	}
	defer rows.Close()

	entries := []*domain.JournalEntry{}
	for rows.Next() {
		e, err := scanJournalEntry(rows)
		if err != nil {
			return nil, storeError("scan journal entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate journal entries", err)
	}

	return entries, nil
}

// Create inserts a new entry
func (r *JournalRepositoryImpl) Create(ctx context.Context, e *domain.JournalEntry) error {
	query := `
		INSERT INTO trade_journal (
			id, user_id, signal_id, entry_date, pair, side,
			entry_price, stop_loss, take_profit, setup_notes,
			exit_price, profit_loss, outcome, trade_notes, lessons_learned,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)
	`

	_, err := r.db.Exec(ctx, query,
		e.ID,
		e.UserID,
		e.SignalID,
		e.EntryDate,
		e.Pair,
		string(e.Side),
		e.EntryPrice,
		e.StopLoss,
		e.TakeProfit,
		e.SetupNotes,
		e.ExitPrice,
		e.ProfitLoss,
		outcomeValue(e.Outcome),
		e.TradeNotes,
		e.LessonsLearned,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		return storeError("create journal entry", err)
	}

	return nil
}

// Update overwrites an entry owned by entry.UserID. The entry date and
// creation time are kept; the stored values are read back into e.
func (r *JournalRepositoryImpl) Update(ctx context.Context, e *domain.JournalEntry) error {
	query := `
		UPDATE trade_journal
		SET signal_id = $1, pair = $2, side = $3, entry_price = $4,
		    stop_loss = $5, take_profit = $6, setup_notes = $7,
		    exit_price = $8, profit_loss = $9, outcome = $10,
		    trade_notes = $11, lessons_learned = $12, updated_at = NOW()
		WHERE id = $13 AND user_id = $14
		RETURNING entry_date, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		e.SignalID,
		e.Pair,
		string(e.Side),
		e.EntryPrice,
		e.StopLoss,
		e.TakeProfit,
		e.SetupNotes,
		e.ExitPrice,
		e.ProfitLoss,
		outcomeValue(e.Outcome),
		e.TradeNotes,
		e.LessonsLearned,
		e.ID,
		e.UserID,
	).Scan(&e.EntryDate, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return storeError("update journal entry", err)
	}

	return nil
}

// Delete removes an entry owned by userID
func (r *JournalRepositoryImpl) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM trade_journal WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return storeError("delete journal entry", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Wrapf(apperrors.ErrNotFound, "journal entry %s", id)
	}
	return nil
}

func scanJournalEntry(row pgx.Row) (*domain.JournalEntry, error) {
	e := &domain.JournalEntry{}
	var side, outcome string
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.SignalID,
		&e.EntryDate,
		&e.Pair,
		&side,
		&e.EntryPrice,
		&e.StopLoss,
		&e.TakeProfit,
		&e.SetupNotes,
		&e.ExitPrice,
		&e.ProfitLoss,
		&outcome,
		&e.TradeNotes,
		&e.LessonsLearned,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Side = domain.ParseSide(side)
	e.Outcome = domain.ParseOutcome(outcome)
	return e, nil
}

// outcomeValue stores an unrecorded outcome as NULL
func outcomeValue(o domain.Outcome) *string {
	if o == domain.OutcomeNone {
		return nil
	}
	s := string(o)
	return &s
}
