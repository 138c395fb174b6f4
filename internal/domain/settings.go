package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserSettings is the per-user trading configuration
type UserSettings struct {
	ID                        uuid.UUID `json:"id"`
	UserID                    uuid.UUID `json:"user_id"`
	Equity                    float64   `json:"equity"`
	RiskPercent               float64   `json:"risk_percent"`
	PreferredPairs            string    `json:"preferred_pairs"`
	PreferredTimeframes       string    `json:"preferred_timeframes"`
	TradeNotificationsEnabled bool      `json:"trade_notifications_enabled"`
	MaxTradesPerDay           int       `json:"max_trades_per_day"`
	AutoCloseHours            int       `json:"auto_close_hours"`
	CreatedAt                 time.Time `json:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

// SettingsUpdate is a partial update. Nil fields keep their stored value,
// or the column default when the row does not exist yet.
type SettingsUpdate struct {
	Equity                    *float64 `json:"equity,omitempty"`
	RiskPercent               *float64 `json:"risk_percent,omitempty"`
	PreferredPairs            *string  `json:"preferred_pairs,omitempty"`
	PreferredTimeframes       *string  `json:"preferred_timeframes,omitempty"`
	TradeNotificationsEnabled *bool    `json:"trade_notifications_enabled,omitempty"`
	MaxTradesPerDay           *int     `json:"max_trades_per_day,omitempty"`
	AutoCloseHours            *int     `json:"auto_close_hours,omitempty"`
}

// Empty reports whether the update changes nothing
func (u SettingsUpdate) Empty() bool {
	return u.Equity == nil && u.RiskPercent == nil && u.PreferredPairs == nil &&
		u.PreferredTimeframes == nil && u.TradeNotificationsEnabled == nil &&
		u.MaxTradesPerDay == nil && u.AutoCloseHours == nil
}
