package dto

import (
	"time"

	"fxdesk/internal/domain"
)

// UserOutput represents user details in API responses
type UserOutput struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToUserOutput converts a user for output
func ToUserOutput(u *domain.User) *UserOutput {
	if u == nil {
		return nil
	}
	return &UserOutput{
		ID:        u.ID.String(),
		Email:     u.Email,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}

// SettingsOutput is the user's settings with the risk shown as a percentage
type SettingsOutput struct {
	*domain.UserSettings
	RiskPercentDisplay float64 `json:"risk_percent_display"`
	RiskPerTrade       float64 `json:"risk_per_trade"`
}
