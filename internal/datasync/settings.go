package datasync

import (
	"context"

	"fxdesk/internal/auth"
	"fxdesk/internal/domain"
	"fxdesk/internal/realtime"
	apperrors "fxdesk/pkg/errors"
)

// SettingsSync holds the signed-in user's settings row. The underlying
// collection has zero or one item.
type SettingsSync struct {
	*Collection[*domain.UserSettings]
	repo    domain.SettingsRepository
	session *auth.Session
}

// NewSettingsSync creates a settings sync. No user, or no row yet, both
// yield nil settings without an error.
func NewSettingsSync(repo domain.SettingsRepository, feed realtime.Feed, session *auth.Session, opts ...Option) *SettingsSync {
	fetch := func(ctx context.Context) ([]*domain.UserSettings, error) {
		userID, ok := session.UserID()
		if !ok {
			return []*domain.UserSettings{}, nil
		}
		s, err := repo.GetByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return []*domain.UserSettings{}, nil
		}
		return []*domain.UserSettings{s}, nil
	}

	return &SettingsSync{
		Collection: NewCollection("settings", fetch, feed, []string{domain.TableUserSettings}, opts...),
		repo:       repo,
		session:    session,
	}
}

// Settings returns the current settings, nil when none are stored
func (s *SettingsSync) Settings() *domain.UserSettings {
	items := s.Items()
	if len(items) == 0 {
		return nil
	}
	return items[0]
}

// Update upserts the given fields and applies the stored row immediately.
// Without a user it does nothing.
func (s *SettingsSync) Update(ctx context.Context, update domain.SettingsUpdate) (*domain.UserSettings, error) {
	userID, ok := s.session.UserID()
	if !ok {
		return nil, nil
	}
	if update.RiskPercent != nil && (*update.RiskPercent <= 0 || *update.RiskPercent > 1) {
		return nil, apperrors.NewValidationError("risk_percent", "must be a fraction in (0, 1]", *update.RiskPercent)
	}
	if update.Equity != nil && *update.Equity < 0 {
		return nil, apperrors.NewValidationError("equity", "must not be negative", *update.Equity)
	}

	saved, err := s.repo.Upsert(ctx, userID, update)
	if err != nil {
		return nil, err
	}
	s.replace([]*domain.UserSettings{saved})
	return saved, nil
}
