package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fxdesk/internal/domain"
)

// SettingsRepositoryImpl implements the SettingsRepository interface
type SettingsRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(db *pgxpool.Pool) domain.SettingsRepository {
	return &SettingsRepositoryImpl{db: db}
}

const settingsColumns = `
	id, user_id, equity, risk_percent, preferred_pairs, preferred_timeframes,
	trade_notifications_enabled, max_trades_per_day, auto_close_hours,
	created_at, updated_at`

// GetByUser returns nil, nil when the user has no settings row yet
func (r *SettingsRepositoryImpl) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.UserSettings, error) {
	row := r.db.QueryRow(ctx, "SELECT"+settingsColumns+" FROM user_settings WHERE user_id = $1", userID)

	s, err := scanSettings(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("get user settings", err)
	}
	return s, nil
}

// Upsert creates or updates the user's settings row. Nil fields keep the
// stored value, or the column default on insert.
func (r *SettingsRepositoryImpl) Upsert(ctx context.Context, userID uuid.UUID, u domain.SettingsUpdate) (*domain.UserSettings, error) {
	query := `
		INSERT INTO user_settings (
			user_id, equity, risk_percent, preferred_pairs, preferred_timeframes,
			trade_notifications_enabled, max_trades_per_day, auto_close_hours, updated_at
		) VALUES (
			$1,
			COALESCE($2::double precision, 10000),
			COALESCE($3::double precision, 0.01),
			COALESCE($4::text, 'EURUSD,GBPUSD,USDJPY'),
			COALESCE($5::text, '4H,1D'),
			COALESCE($6::boolean, TRUE),
			COALESCE($7::integer, 3),
			COALESCE($8::integer, 48),
			NOW()
		)
		ON CONFLICT (user_id) DO UPDATE SET
			equity = COALESCE($2::double precision, user_settings.equity),
			risk_percent = COALESCE($3::double precision, user_settings.risk_percent),
			preferred_pairs = COALESCE($4::text, user_settings.preferred_pairs),
			preferred_timeframes = COALESCE($5::text, user_settings.preferred_timeframes),
			trade_notifications_enabled = COALESCE($6::boolean, user_settings.trade_notifications_enabled),
			max_trades_per_day = COALESCE($7::integer, user_settings.max_trades_per_day),
			auto_close_hours = COALESCE($8::integer, user_settings.auto_close_hours),
			updated_at = NOW()
		RETURNING` + settingsColumns

	row := r.db.QueryRow(ctx, query,
		userID,
		u.Equity,
		u.RiskPercent,
		u.PreferredPairs,
		u.PreferredTimeframes,
		u.TradeNotificationsEnabled,
		u.MaxTradesPerDay,
		u.AutoCloseHours,
	)

	s, err := scanSettings(row)
	if err != nil {
		return nil, storeError("upsert user settings", err)
	}
	return s, nil
}

func scanSettings(row pgx.Row) (*domain.UserSettings, error) {
	s := &domain.UserSettings{}
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Equity,
		&s.RiskPercent,
		&s.PreferredPairs,
		&s.PreferredTimeframes,
		&s.TradeNotificationsEnabled,
		&s.MaxTradesPerDay,
		&s.AutoCloseHours,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}
