package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"fxdesk/internal/infra"
)

// RouterConfig holds all dependencies for routing
type RouterConfig struct {
	AuthHandler      *AuthHandler
	SignalHandler    *SignalHandler
	WorkspaceHandler *WorkspaceHandler
	MarketHandler    *MarketHandler
	AnalysisHandler  *AnalysisHandler
	StreamHandler    *StreamHandler
	Health           *infra.Health
	// RequireAuth rejects requests without a valid session
	RequireAuth echo.MiddlewareFunc
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(e *echo.Echo, config *RouterConfig) {
	// Middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging for health probes and long-lived streams
			path := c.Request().URL.Path
			return path == "/health" || path == "/api/stream"
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())

	// Health check
	e.GET("/health", func(c echo.Context) error {
		if config.Health == nil {
			return SuccessResponse(c, map[string]interface{}{"status": "healthy", "service": "fxdesk-api"})
		}
		checks, healthy := config.Health.Run(c.Request().Context())
		body := map[string]interface{}{
			"status":    "healthy",
			"service":   "fxdesk-api",
			"checks":    checks,
			"timestamp": time.Now().UTC(),
		}
		if !healthy {
			body["status"] = "degraded"
			return c.JSON(http.StatusServiceUnavailable, Response{Status: "error", Data: body})
		}
		return SuccessResponse(c, body)
	})

	// API group
	api := e.Group("/api")

	// Auth routes (public)
	auth := api.Group("/auth")
	{
		auth.POST("/signup", config.AuthHandler.SignUp)
		auth.POST("/signin", config.AuthHandler.SignIn)
		auth.POST("/signout", config.AuthHandler.SignOut, config.RequireAuth)
		auth.GET("/me", config.AuthHandler.Me, config.RequireAuth)
	}

	// Everything else needs a session
	protected := api.Group("", config.RequireAuth)
	{
		protected.GET("/dashboard", config.SignalHandler.Dashboard)
		protected.GET("/signals", config.SignalHandler.List)
		protected.GET("/signals/stats", config.SignalHandler.Stats)
		protected.GET("/signals/:id", config.SignalHandler.Get)

		protected.GET("/journal", config.WorkspaceHandler.ListJournal)
		protected.POST("/journal", config.WorkspaceHandler.CreateJournalEntry)
		protected.PUT("/journal/:id", config.WorkspaceHandler.UpdateJournalEntry)
		protected.DELETE("/journal/:id", config.WorkspaceHandler.DeleteJournalEntry)
		protected.GET("/backtests", config.WorkspaceHandler.ListBacktests)
		protected.GET("/settings", config.WorkspaceHandler.GetSettings)
		protected.PUT("/settings", config.WorkspaceHandler.UpdateSettings)

		protected.GET("/markets", config.MarketHandler.Overview)
		protected.GET("/markets/:pair/chart", config.MarketHandler.Chart)
		protected.GET("/markets/:pair/indicators", config.MarketHandler.Indicators)
		protected.GET("/markets/:pair/analysis", config.MarketHandler.Analysis)
		protected.GET("/predictions", config.MarketHandler.Predictions)

		protected.POST("/analysis/pair", config.AnalysisHandler.AnalyzePair)
		protected.POST("/analysis/market", config.AnalysisHandler.RunMarketAnalysis)
		protected.GET("/analysis/status", config.AnalysisHandler.Status)

		protected.GET("/stream", config.StreamHandler.Stream)
	}
}
