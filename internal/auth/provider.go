package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fxdesk/internal/domain"
	apperrors "fxdesk/pkg/errors"
	"fxdesk/pkg/logger"
)

const minPasswordLength = 6

// SessionListener is told when sessions start and end
type SessionListener interface {
	SessionStarted(ctx context.Context, s *Session)
	SessionEnded(ctx context.Context, s *Session)
}

// Provider signs users up, in and out
type Provider struct {
	users     domain.UserRepository
	tokens    *TokenManager
	revoked   RevocationStore
	listeners []SessionListener
	log       *logger.Logger
}

// NewProvider creates an auth provider
func NewProvider(users domain.UserRepository, tokens *TokenManager, revoked RevocationStore) *Provider {
	if revoked == nil {
		revoked = NewMemoryRevocations()
	}
	return &Provider{
		users:   users,
		tokens:  tokens,
		revoked: revoked,
		log:     logger.Get().With("component", "auth"),
	}
}

// OnSession registers a listener for session start and end
func (p *Provider) OnSession(l SessionListener) {
	p.listeners = append(p.listeners, l)
}

// SignUp creates an account and signs it in
func (p *Provider) SignUp(ctx context.Context, email, password, fullName string) (*Session, error) {
	email = normalizeEmail(email)
	if !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("email", "must be a valid email address", email)
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password", "must be at least 6 characters", "***")
	}

	if _, err := p.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.Wrapf(apperrors.ErrAlreadyExists, "email %s", email)
	} else if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash password")
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if name := strings.TrimSpace(fullName); name != "" {
		user.FullName = &name
	}

	if err := p.users.Create(ctx, user); err != nil {
		return nil, err
	}
	p.log.Infof("Registered user %s", user.ID)

	return p.start(ctx, user)
}

// SignIn verifies credentials and opens a session
func (p *Provider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := p.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "invalid credentials")
	}

	return p.start(ctx, user)
}

// SignOut revokes the session token and notifies listeners
func (p *Provider) SignOut(ctx context.Context, s *Session) error {
	if s == nil {
		return nil
	}
	if s.TokenID != "" {
		if err := p.revoked.Revoke(ctx, s.TokenID, s.ExpiresAt); err != nil {
			return err
		}
	}
	for _, l := range p.listeners {
		l.SessionEnded(ctx, s)
	}
	return nil
}

// Current resolves a token to its session
func (p *Provider) Current(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "missing token")
	}

	claims, err := p.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := p.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "session signed out")
	}

	user, err := p.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "user no longer exists")
		}
		return nil, err
	}

	return &Session{
		User:      user,
		Token:     token,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (p *Provider) start(ctx context.Context, user *domain.User) (*Session, error) {
	token, claims, err := p.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s := &Session{
		User:      user,
		Token:     token,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	for _, l := range p.listeners {
		l.SessionStarted(ctx, s)
	}
	return s, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
