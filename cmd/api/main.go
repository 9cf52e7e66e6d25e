// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/carterperez-dev/weddingplanner/internal/admin"
	"github.com/carterperez-dev/weddingplanner/internal/auth"
	"github.com/carterperez-dev/weddingplanner/internal/billing"
	"github.com/carterperez-dev/weddingplanner/internal/config"
	"github.com/carterperez-dev/weddingplanner/internal/core"
	"github.com/carterperez-dev/weddingplanner/internal/entitlement"
	"github.com/carterperez-dev/weddingplanner/internal/health"
	"github.com/carterperez-dev/weddingplanner/internal/metrics"
	"github.com/carterperez-dev/weddingplanner/internal/middleware"
	"github.com/carterperez-dev/weddingplanner/internal/payhere"
	"github.com/carterperez-dev/weddingplanner/internal/server"
	"github.com/carterperez-dev/weddingplanner/internal/wedding"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	envFile := flag.String("env-file", ".env", "optional dotenv file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not read env file", "path", *envFile, "error", err)
	}

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		configPath = ""
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx, logger); err != nil {
			return err
		}
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	verifier, err := auth.NewVerifier(ctx, cfg.Auth)
	if err != nil {
		return err
	}
	logger.Info("token verifier initialized", "mode", verifier.Mode())

	billingCfg := billing.ConfigFrom(cfg)
	if billingCfg.MerchantSecret == "" {
		logger.Warn("payhere credentials missing, checkout and payment notifications will be refused")
	}

	weddingRepo := wedding.NewRepository(db.DB)
	resolver := entitlement.NewResolver(weddingRepo, entitlement.WithLogger(logger))
	weddingSvc := wedding.NewService(weddingRepo, resolver, cfg.Trial.Duration())
	billingSvc := billing.NewService(weddingRepo, billingCfg, logger)

	authHandler := auth.NewHandler()
	weddingHandler := wedding.NewHandler(weddingSvc)
	entitlementHandler := entitlement.NewHandler(resolver)
	billingHandler := billing.NewHandler(billingSvc)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db, Critical: true},
		health.Dependency{Name: "redis", Checker: redis, Critical: true},
		health.Dependency{
			Name: "payments",
			Checker: health.CheckerFunc(func(context.Context) error {
				if billingCfg.MerchantID == "" || billingCfg.MerchantSecret == "" {
					return payhere.ErrNotConfigured
				}
				return nil
			}),
		},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Weddings:   weddingSvc,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerWindow(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			KeyFunc:  middleware.IPKey(cfg.RateLimit.TrustProxy),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	webhookLimit := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerMinute(
			cfg.RateLimit.WebhookRequests,
			cfg.RateLimit.WebhookBurst,
		),
		KeyFunc:  middleware.KeyByPrefix("notify", middleware.IPKey(cfg.RateLimit.TrustProxy)),
		FailOpen: true,
	}).Handler

	authenticator := middleware.Authenticator(verifier)
	adminOnly := middleware.RequireAdmin

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)

		weddingHandler.RegisterRoutes(
			r,
			authenticator,
			entitlement.RequirePremium(resolver),
			entitlementHandler.RegisterRoutes,
			billingHandler.RegisterScopedRoutes,
		)

		billingHandler.RegisterRoutes(r, webhookLimit)

		adminHandler.RegisterRoutes(
			r,
			authenticator,
			adminOnly,
			entitlementHandler.RegisterAdminRoutes,
		)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
