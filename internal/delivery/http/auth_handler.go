package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"fxdesk/internal/auth"
	"fxdesk/internal/delivery/http/dto"
	"fxdesk/internal/middleware"
	apperrors "fxdesk/pkg/errors"
)

// Authenticator opens and closes sessions
type Authenticator interface {
	SignUp(ctx context.Context, email, password, fullName string) (*auth.Session, error)
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	SignOut(ctx context.Context, s *auth.Session) error
}

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	auth         Authenticator
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(a Authenticator, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		auth:         a,
		secureCookie: secureCookie,
	}
}

func (h *AuthHandler) setSessionCookie(c echo.Context, s *auth.Session) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    s.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
		Expires:  s.ExpiresAt,
	})
}

func sessionResponse(s *auth.Session) dto.SessionResponse {
	return dto.SessionResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		User:      dto.ToUserOutput(s.User),
	}
}

// SignUp handles account creation
// POST /api/auth/signup
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req dto.SignUpRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if req.Email == "" || req.Password == "" {
		return BadRequestResponse(c, "Email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.auth.SignUp(ctx, req.Email, req.Password, req.FullName)
	if err != nil {
		return ActionErrorResponse(c, "sign up", err)
	}

	h.setSessionCookie(c, s)
	return CreatedResponse(c, sessionResponse(s))
}

// SignIn handles user sign-in
// POST /api/auth/signin
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req dto.SignInRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if req.Email == "" || req.Password == "" {
		return BadRequestResponse(c, "Email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUnauthorized) {
			return UnauthorizedResponse(c, "Invalid credentials")
		}
		return ActionErrorResponse(c, "sign in", err)
	}

	h.setSessionCookie(c, s)
	return SuccessResponse(c, sessionResponse(s))
}

// SignOut ends the current session
// POST /api/auth/signout
func (h *AuthHandler) SignOut(c echo.Context) error {
	s, err := middleware.GetSession(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.auth.SignOut(ctx, s); err != nil {
		return ActionErrorResponse(c, "sign out", err)
	}

	// Clear the cookie
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	return SuccessMessageResponse(c, "Signed out", nil)
}

// Me returns the signed-in user
// GET /api/auth/me
func (h *AuthHandler) Me(c echo.Context) error {
	s, err := middleware.GetSession(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}
	return SuccessResponse(c, dto.ToUserOutput(s.User))
}
