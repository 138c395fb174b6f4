package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"fxdesk/configs"
	"fxdesk/internal/adapter"
	"fxdesk/internal/analysis"
	"fxdesk/internal/auth"
	"fxdesk/internal/database"
	"fxdesk/internal/datasync"
	delivery "fxdesk/internal/delivery/http"
	"fxdesk/internal/domain"
	"fxdesk/internal/infra"
	"fxdesk/internal/metrics"
	"fxdesk/internal/middleware"
	"fxdesk/internal/realtime"
	"fxdesk/internal/repository"
	"fxdesk/internal/usecase"
	"fxdesk/internal/utils"
	"fxdesk/pkg/logger"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	// Load configuration
	cfg := configs.Load()

	if err := logger.Init(cfg.Log.Level, cfg.Server.Env); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()
	if envErr != nil {
		log.Infof(".env file not found, using environment variables")
	}

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := infra.NewDatabase(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		rdb, err = infra.NewRedis(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer rdb.Close()
	}

	feed := newFeed(ctx, cfg, db, rdb)

	// Initialize repositories
	repos := usecase.Repositories{
		Signals:   repository.NewSignalRepository(db),
		Journal:   repository.NewJournalRepository(db),
		Backtests: repository.NewBacktestRepository(db),
		Settings:  repository.NewSettingsRepository(db),
		Market:    repository.NewMarketRepository(db),
	}
	userRepo := repository.NewUserRepository(db)

	// Live collections
	var syncOpts []datasync.Option
	if cfg.Sync.Sequenced {
		syncOpts = append(syncOpts, datasync.WithSequencedFetches())
	}
	desk := usecase.NewDesk(repos, feed, cfg.Markets.Pairs, syncOpts...)
	desk.Start(ctx)
	defer desk.Close()

	// Sessions
	var revocations auth.RevocationStore
	if rdb != nil {
		revocations = auth.NewRedisRevocations(rdb)
	}
	provider := auth.NewProvider(userRepo, auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), revocations)
	provider.OnSession(desk)

	// Analysis service
	backend := newAnalysisBackend(cfg.Analysis)
	coordinator := analysis.NewCoordinator(backend, []analysis.Refetcher{desk},
		analysis.WithRefetchDelays(cfg.Analysis.PairRefetchDelay, cfg.Analysis.SweepRefetchDelay))
	defer coordinator.Close()

	marketHandler := delivery.NewMarketHandler(desk, nil)
	if url := cfg.Analysis.MarketDataBaseURL(); url != "" {
		marketHandler = delivery.NewMarketHandler(desk, adapter.NewForexEngine(url, cfg.Analysis.Timeout, cfg.Analysis.RequestsPerMin))
	} else {
		log.Warnf("No market data engine configured, chart endpoints will answer 503")
	}

	health := infra.NewHealth(3 * time.Second)
	health.Register("database", db.Ping)
	if rdb != nil {
		health.Register("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	health.Register("analysis", func(ctx context.Context) error {
		_, err := coordinator.Status(ctx)
		return err
	})

	// Scheduled jobs
	scheduler := infra.NewScheduler()
	mustAdd(scheduler, infra.Job{
		Name:    "analysis-status",
		Spec:    cfg.Analysis.StatusPollCron,
		Timeout: 15 * time.Second,
		Run: func(ctx context.Context) error {
			status, err := coordinator.Status(ctx)
			if err != nil {
				return err
			}
			if status.IsRunning {
				log.Infof("Analysis sweep in progress")
			}
			return nil
		},
	})
	mustAdd(scheduler, infra.Job{
		Name:    "market-refresh",
		Spec:    cfg.Markets.RefreshCron,
		Timeout: 30 * time.Second,
		When:    utils.IsForexOpen,
		Run: func(ctx context.Context) error {
			return desk.Market().Refetch(ctx)
		},
	})
	scheduler.Start()
	defer scheduler.Stop()

	// API server
	e := echo.New()
	e.HideBanner = true
	delivery.SetupRoutes(e, &delivery.RouterConfig{
		AuthHandler:      delivery.NewAuthHandler(provider, cfg.Server.Env == "production"),
		SignalHandler:    delivery.NewSignalHandler(desk),
		WorkspaceHandler: delivery.NewWorkspaceHandler(desk),
		MarketHandler:    marketHandler,
		AnalysisHandler:  delivery.NewAnalysisHandler(coordinator, cfg.Analysis.Timeout+30*time.Second),
		StreamHandler:    delivery.NewStreamHandler(feed),
		Health:           health,
		RequireAuth:      middleware.Auth(provider),
	})

	apiSrv := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:     e,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Ops server: health and metrics stay off the public port
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Get("/health", handleHealth(health))
	r.Handle("/metrics", metrics.Handler())

	opsSrv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.OpsPort),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Infof("fxdesk starting on :%s (ops :%s)", cfg.Server.Port, cfg.Server.OpsPort)
	log.Infof("Environment: %s, analysis: %s (%s), realtime: %s", cfg.Server.Env, cfg.Analysis.Kind, cfg.Analysis.URL, cfg.Realtime.Driver)

	for _, srv := range []*http.Server{apiSrv, opsSrv} {
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server on %s: %v", srv.Addr, err)
			}
		}()
	}

	// Wait for interrupt signal to gracefully shutdown
	<-ctx.Done()
	log.Infof("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("API server forced to shutdown: %v", err)
	}
	if err := opsSrv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Ops server forced to shutdown: %v", err)
	}

	log.Infof("[OK] Server exited gracefully")
}

// newFeed selects the change feed. With the redis driver this replica may
// also relay database notifications into redis.
func newFeed(ctx context.Context, cfg *configs.Config, db *pgxpool.Pool, rdb *redis.Client) realtime.Feed {
	log := logger.Get()
	pgFeed := realtime.NewPostgresFeed(db)

	if cfg.Realtime.Driver != "redis" {
		return pgFeed
	}
	if rdb == nil {
		log.Warnf("REALTIME_DRIVER=redis without REDIS_URL, falling back to postgres")
		return pgFeed
	}

	redisFeed := realtime.NewRedisFeed(rdb)
	if cfg.Realtime.Relay {
		bridge := realtime.NewBridge(pgFeed, redisFeed, domain.WatchedTables...)
		go func() {
			for {
				err := bridge.Run(ctx)
				if ctx.Err() != nil {
					return
				}
				log.Errorf("Change relay stopped, restarting: %v", err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(5 * time.Second):
				}
			}
		}()
	}
	return redisFeed
}

func newAnalysisBackend(cfg configs.AnalysisConfig) domain.AnalysisBackend {
	if cfg.Kind == "forex" {
		return adapter.NewForexEngine(cfg.URL, cfg.Timeout, cfg.RequestsPerMin)
	}
	return adapter.NewSignalEngine(cfg.URL, cfg.Timeout, cfg.RequestsPerMin)
}

func mustAdd(s *infra.Scheduler, job infra.Job) {
	if err := s.Add(job); err != nil {
		logger.Fatalf("Failed to add %s job: %v", job.Name, err)
	}
}

func handleHealth(health *infra.Health) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks, healthy := health.Run(r.Context())

		status, code := "healthy", http.StatusOK
		if !healthy {
			status, code = "degraded", http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    status,
			"service":   "fxdesk",
			"checks":    checks,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}
