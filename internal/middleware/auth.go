package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"fxdesk/internal/auth"
)

const (
	sessionKey = "session"
	userIDKey  = "user_id"

	// TokenCookie is the cookie carrying the session token
	TokenCookie = "token"
)

// SessionResolver turns a token into a live session
type SessionResolver interface {
	Current(ctx context.Context, token string) (*auth.Session, error)
}

// TokenFromRequest extracts the session token from the Authorization header,
// the token cookie, or the access_token query parameter used by websocket
// clients that cannot set headers.
func TokenFromRequest(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		if cookie, err := c.Cookie(TokenCookie); err == nil && cookie.Value != "" {
			return cookie.Value, nil
		}
		if q := c.QueryParam("access_token"); q != "" {
			return q, nil
		}
		return "", fmt.Errorf("missing authentication token")
	}

	// Extract token from Bearer scheme
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", fmt.Errorf("invalid authorization header format")
	}
	return parts[1], nil
}

// Auth validates the session token and sets the session on the context
func Auth(resolver SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := TokenFromRequest(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authentication token")
			}

			session, err := resolver.Current(c.Request().Context(), token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			SetSession(c, session)
			return next(c)
		}
	}
}

// SetSession stores the session on the echo context
func SetSession(c echo.Context, s *auth.Session) {
	c.Set(sessionKey, s)
	if id, ok := s.UserID(); ok {
		c.Set(userIDKey, id)
	}
}

// GetSession extracts the session from echo context
func GetSession(c echo.Context) (*auth.Session, error) {
	s, ok := c.Get(sessionKey).(*auth.Session)
	if !ok || s == nil {
		return nil, fmt.Errorf("session not found in context")
	}
	return s, nil
}

// GetUserID extracts user ID from echo context
func GetUserID(c echo.Context) (uuid.UUID, error) {
	userID, ok := c.Get(userIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("user_id not found in context")
	}
	return userID, nil
}
