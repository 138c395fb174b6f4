package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fxdesk/internal/domain"
)

// MarketRepositoryImpl reads the per-pair analysis tables
type MarketRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewMarketRepository creates a new MarketRepository
func NewMarketRepository(db *pgxpool.Pool) domain.MarketRepository {
	return &MarketRepositoryImpl{db: db}
}

// LatestPrediction returns nil, nil when the pair has no prediction
func (r *MarketRepositoryImpl) LatestPrediction(ctx context.Context, pair string) (*domain.AIPrediction, error) {
	query := `
		SELECT id, pair, win_probability, expected_rr, confidence, recommendation,
		       predicted_at, model_version, created_at
		FROM ai_predictions
		WHERE pair = $1
		ORDER BY predicted_at DESC
		LIMIT 1
	`

	p := &domain.AIPrediction{}
	var confidence, recommendation string
	err := r.db.QueryRow(ctx, query, pair).Scan(
		&p.ID,
		&p.Pair,
		&p.WinProbability,
		&p.ExpectedRR,
		&confidence,
		&recommendation,
		&p.PredictedAt,
		&p.ModelVersion,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("get latest prediction", err)
	}

	p.Confidence = domain.ParseConfidenceLabel(confidence)
	p.Recommendation = domain.ParseRecommendation(recommendation)
	return p, nil
}

// LatestIndicators returns nil, nil when the pair has no indicator row
func (r *MarketRepositoryImpl) LatestIndicators(ctx context.Context, pair string) (*domain.TechnicalIndicators, error) {
	query := `
		SELECT id, pair, timeframe, indicator_timestamp,
		       rsi_14, macd_value, macd_signal, macd_histogram, adx_14, stochastic_k,
		       bb_upper, bb_middle, bb_lower, atr_14, ema_20, ema_50, ema_200,
		       created_at
		FROM technical_indicators
		WHERE pair = $1
		ORDER BY indicator_timestamp DESC
		LIMIT 1
	`

	ind := &domain.TechnicalIndicators{}
	err := r.db.QueryRow(ctx, query, pair).Scan(
		&ind.ID,
		&ind.Pair,
		&ind.Timeframe,
		&ind.IndicatorTimestamp,
		&ind.RSI14,
		&ind.MACDValue,
		&ind.MACDSignal,
		&ind.MACDHistogram,
		&ind.ADX14,
		&ind.StochasticK,
		&ind.BBUpper,
		&ind.BBMiddle,
		&ind.BBLower,
		&ind.ATR14,
		&ind.EMA20,
		&ind.EMA50,
		&ind.EMA200,
		&ind.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("get latest indicators", err)
	}
	return ind, nil
}

// CountUnfilledFVGs counts the pair's fair value gaps that are not filled
func (r *MarketRepositoryImpl) CountUnfilledFVGs(ctx context.Context, pair string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM fair_value_gaps WHERE pair = $1 AND is_filled = FALSE`, pair,
	).Scan(&n)
	if err != nil {
		return 0, storeError("count fair value gaps", err)
	}
	return n, nil
}

// ListUnfilledFVGs retrieves the pair's unfilled gaps newest-first
func (r *MarketRepositoryImpl) ListUnfilledFVGs(ctx context.Context, pair string) ([]*domain.FairValueGap, error) {
	query := `
		SELECT id, pair, timeframe, gap_type, top, bottom, formed_at,
		       candle_index, is_filled, filled_at, strength, created_at
		FROM fair_value_gaps
		WHERE pair = $1 AND is_filled = FALSE
		ORDER BY formed_at DESC
	`

	rows, err := r.db.Query(ctx, query, pair)
	if err != nil {
		return nil, storeError("query fair value gaps", err)
	}
	defer rows.Close()

	gaps := []*domain.FairValueGap{}
	for rows.Next() {
		g := &domain.FairValueGap{}
		var gapType string
		if err := rows.Scan(
			&g.ID,
			&g.Pair,
			&g.Timeframe,
			&gapType,
			&g.Top,
			&g.Bottom,
			&g.FormedAt,
			&g.CandleIndex,
			&g.IsFilled,
			&g.FilledAt,
			&g.Strength,
			&g.CreatedAt,
		); err != nil {
			return nil, storeError("scan fair value gap", err)
		}
		g.GapType = domain.ParseGapType(gapType)
		gaps = append(gaps, g)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate fair value gaps", err)
	}

	return gaps, nil
}
