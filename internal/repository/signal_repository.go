package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fxdesk/internal/domain"
)

// SignalRepositoryImpl implements the SignalRepository interface
type SignalRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewSignalRepository creates a new SignalRepository
func NewSignalRepository(db *pgxpool.Pool) domain.SignalRepository {
	return &SignalRepositoryImpl{db: db}
}

const signalColumns = `
	id, user_id, pair, side, entry_price, stop_loss, take_profit,
	stop_pips, lot_size, risk_usd, reversal_pattern, confidence_score,
	COALESCE(confidence_label, ''), status, htf_timeframe, ltf_timeframe,
	exit_price, profit_loss, profit_pips, closed_at, created_at, updated_at`

// buildSignalQuery renders the list query for a filter
func buildSignalQuery(filter domain.SignalFilter) (string, []any) {
	var b strings.Builder
	var args []any

	b.WriteString("SELECT" + signalColumns + "\n\tFROM trade_signals")
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		b.WriteString("\n\tWHERE status = $1")
	}
	b.WriteString("\n\tORDER BY created_at DESC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		b.WriteString("\n\tLIMIT $" + strconv.Itoa(len(args)))
	}
	return b.String(), args
}

// List retrieves signals newest-first, optionally filtered by status
func (r *SignalRepositoryImpl) List(ctx context.Context, filter domain.SignalFilter) ([]*domain.TradeSignal, error) {
	query, args := buildSignalQuery(filter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storeError("query trade signals", err)
	}
	defer rows.Close()

	signals := []*domain.TradeSignal{}
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, storeError("scan trade signal", err)
		}
		signals = append(signals, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate trade signals", err)
	}

	return signals, nil
}

// GetByID retrieves a signal by its ID
func (r *SignalRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.TradeSignal, error) {
	row := r.db.QueryRow(ctx, "SELECT"+signalColumns+" FROM trade_signals WHERE id = $1", id)
	s, err := scanSignal(row)
	if err != nil {
		return nil, storeError("get trade signal", err)
	}
	return s, nil
}

func scanSignal(row pgx.Row) (*domain.TradeSignal, error) {
	s := &domain.TradeSignal{}
	var side, label, status string
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Pair,
		&side,
		&s.EntryPrice,
		&s.StopLoss,
		&s.TakeProfit,
		&s.StopPips,
		&s.LotSize,
		&s.RiskUSD,
		&s.ReversalPattern,
		&s.ConfidenceScore,
		&label,
		&status,
		&s.HTFTimeframe,
		&s.LTFTimeframe,
		&s.ExitPrice,
		&s.ProfitLoss,
		&s.ProfitPips,
		&s.ClosedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Side = domain.ParseSide(side)
	s.ConfidenceLabel = domain.ParseConfidenceLabel(label)
	s.Status = domain.ParseSignalStatus(status)
	return s, nil
}
