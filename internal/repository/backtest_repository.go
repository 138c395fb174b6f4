package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"fxdesk/internal/domain"
)

// BacktestRepositoryImpl implements the BacktestRepository interface
type BacktestRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewBacktestRepository creates a new BacktestRepository
func NewBacktestRepository(db *pgxpool.Pool) domain.BacktestRepository {
	return &BacktestRepositoryImpl{db: db}
}

// ListByUser retrieves a user's runs newest-first. Each run is joined with
// its earliest result, if any.
func (r *BacktestRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.BacktestRun, error) {
	query := `
		SELECT r.id, r.user_id, r.backtest_name, r.start_date, r.end_date,
		       r.pairs, r.initial_capital, r.risk_percent, r.notes,
		       r.created_at, r.updated_at,
		       res.id, res.total_trades, res.winning_trades, res.losing_trades,
		       res.breakeven_trades, res.win_rate, res.total_profit, res.total_loss,
		       res.net_profit, res.max_drawdown, res.max_drawdown_percent,
		       res.average_win, res.average_loss, res.profit_factor, res.expectancy,
		       res.sharpe_ratio, res.average_rr, res.best_trade, res.worst_trade,
		       res.average_trade_duration_hours, res.created_at
		FROM backtest_runs r
		LEFT JOIN LATERAL (
			SELECT * FROM backtest_results
			WHERE backtest_id = r.id
			ORDER BY created_at ASC
			LIMIT 1
		) res ON TRUE
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, storeError("query backtest runs", err)
	}
	defer rows.Close()

	runs := []*domain.BacktestRun{}
	for rows.Next() {
		run := &domain.BacktestRun{}
		var res resultRow
		err := rows.Scan(
			&run.ID,
			&run.UserID,
			&run.Name,
			&run.StartDate,
			&run.EndDate,
			&run.Pairs,
			&run.InitialCapital,
			&run.RiskPercent,
			&run.Notes,
			&run.CreatedAt,
			&run.UpdatedAt,
			&res.ID,
			&res.TotalTrades,
			&res.WinningTrades,
			&res.LosingTrades,
			&res.BreakevenTrades,
			&res.WinRate,
			&res.TotalProfit,
			&res.TotalLoss,
			&res.NetProfit,
			&res.MaxDrawdown,
			&res.MaxDrawdownPercent,
			&res.AverageWin,
			&res.AverageLoss,
			&res.ProfitFactor,
			&res.Expectancy,
			&res.SharpeRatio,
			&res.AverageRR,
			&res.BestTrade,
			&res.WorstTrade,
			&res.AverageTradeDurationHours,
			&res.CreatedAt,
		)
		if err != nil {
			return nil, storeError("scan backtest run", err)
		}
		run.Result = res.toDomain(run.ID)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate backtest runs", err)
	}

	return runs, nil
}

// resultRow receives the nullable columns of the LEFT JOIN
type resultRow struct {
	ID                        *uuid.UUID
	TotalTrades               *int
	WinningTrades             *int
	LosingTrades              *int
	BreakevenTrades           *int
	WinRate                   *float64
	TotalProfit               *float64
	TotalLoss                 *float64
	NetProfit                 *float64
	MaxDrawdown               *float64
	MaxDrawdownPercent        *float64
	AverageWin                *float64
	AverageLoss               *float64
	ProfitFactor              *float64
	Expectancy                *float64
	SharpeRatio               *float64
	AverageRR                 *float64
	BestTrade                 *float64
	WorstTrade                *float64
	AverageTradeDurationHours *float64
	CreatedAt                 *time.Time
}

// toDomain returns nil when the run has no result row
func (r resultRow) toDomain(runID uuid.UUID) *domain.BacktestResult {
	if r.ID == nil {
		return nil
	}
	res := &domain.BacktestResult{
		ID:                        *r.ID,
		BacktestID:                runID,
		TotalTrades:               deref(r.TotalTrades),
		WinningTrades:             deref(r.WinningTrades),
		LosingTrades:              deref(r.LosingTrades),
		BreakevenTrades:           deref(r.BreakevenTrades),
		WinRate:                   deref(r.WinRate),
		TotalProfit:               deref(r.TotalProfit),
		TotalLoss:                 deref(r.TotalLoss),
		NetProfit:                 deref(r.NetProfit),
		MaxDrawdown:               deref(r.MaxDrawdown),
		MaxDrawdownPercent:        deref(r.MaxDrawdownPercent),
		AverageWin:                deref(r.AverageWin),
		AverageLoss:               deref(r.AverageLoss),
		ProfitFactor:              deref(r.ProfitFactor),
		Expectancy:                deref(r.Expectancy),
		SharpeRatio:               deref(r.SharpeRatio),
		AverageRR:                 deref(r.AverageRR),
		BestTrade:                 deref(r.BestTrade),
		WorstTrade:                deref(r.WorstTrade),
		AverageTradeDurationHours: deref(r.AverageTradeDurationHours),
	}
	if r.CreatedAt != nil {
		res.CreatedAt = *r.CreatedAt
	}
	return res
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
