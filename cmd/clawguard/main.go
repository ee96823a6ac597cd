package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clawguard/clawguard/cmd/clawguard/internal/handlers"
	"github.com/clawguard/clawguard/cmd/clawguard/internal/middleware"
	"github.com/clawguard/clawguard/internal/audit"
	"github.com/clawguard/clawguard/internal/authn"
	"github.com/clawguard/clawguard/internal/config"
	"github.com/clawguard/clawguard/internal/container"
	"github.com/clawguard/clawguard/internal/health"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	settings, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	auditClient, err := audit.NewClient(&audit.Config{
		Host:            settings.Database.Host,
		Port:            settings.Database.Port,
		User:            settings.Database.User,
		Password:        settings.Database.Password,
		Database:        settings.Database.Database,
		SSLMode:         settings.Database.SSLMode,
		MaxConnections:  settings.Database.MaxConnections,
		IdleConnections: settings.Database.IdleConnections,
		MaxLifetime:     settings.Database.MaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("failed to connect to audit database", zap.Error(err))
	}
	defer auditClient.Close()

	auditRepo := audit.NewPostgresRepository(auditClient)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := auditRepo.EnsureSchema(ctx); err != nil {
		cancel()
		logger.Fatal("failed to provision audit schema", zap.Error(err))
	}
	cancel()

	svc, err := container.New(settings, auditRepo, logger)
	if err != nil {
		logger.Fatal("failed to build service container", zap.Error(err))
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	svc.WatchPolicy(watchCtx)

	healthManager := health.NewManager(logger)
	healthManager.RegisterChecker(health.NewDatabaseHealthChecker(auditClient.RawDB(), auditClient.Wrapper(), logger))
	healthManager.RegisterChecker(health.NewCustomHealthChecker("policy", true, 2*time.Second, func(ctx context.Context) health.CheckResult {
		status := health.StatusHealthy
		message := "policy loaded"
		if svc.Evaluator.Policy().DefaultAction == "" {
			status = health.StatusUnhealthy
			message = "no policy loaded"
		}
		return health.CheckResult{
			Component: "policy",
			Critical:  true,
			Status:    status,
			Message:   message,
			Timestamp: time.Now(),
		}
	}))
	if err := healthManager.Start(context.Background()); err != nil {
		logger.Warn("failed to start health manager background checks", zap.Error(err))
	}
	defer healthManager.Stop()

	var redisClient *redis.Client
	if settings.RedisURL != "" {
		redisOpts, err := redis.ParseURL(settings.RedisURL)
		if err != nil {
			logger.Fatal("failed to parse redis URL", zap.Error(err))
		}
		redisClient = redis.NewClient(redisOpts)
		defer redisClient.Close()

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if _, err := redisClient.Ping(pingCtx).Result(); err != nil {
			logger.Warn("redis unavailable, rate limiting and idempotency are disabled", zap.Error(err))
			redisClient = nil
		}
		pingCancel()
	}

	var validator *authn.Validator
	if !settings.AuthDisabled {
		if settings.AuthSecret == "" {
			logger.Fatal("CLAWGUARD_AUTH_SECRET must be set when auth is enabled")
		}
		validator = authn.NewValidator(settings.AuthSecret)
	}

	scanHandler := handlers.NewScanHandler(svc, logger)
	auditHandler := handlers.NewAuditHandler(auditRepo, logger)
	policyHandler := handlers.NewPolicyHandler(svc, logger)
	dashboardHandler := handlers.NewDashboardHandler(svc, logger)
	healthHandler := handlers.NewHealthHandler(svc, healthManager, logger)

	authMiddleware := middleware.NewAuthMiddleware(validator, settings.AuthDisabled, logger).Middleware
	tracingMiddleware := middleware.NewTracingMiddleware(logger).Middleware
	validationMiddleware := middleware.NewValidationMiddleware(logger).Middleware

	chain := func(h http.HandlerFunc) http.Handler {
		wrapped := tracingMiddleware(authMiddleware(validationMiddleware(h)))
		if redisClient != nil {
			rateLimiter := middleware.NewRateLimiter(redisClient, 120, logger).Middleware
			wrapped = tracingMiddleware(authMiddleware(validationMiddleware(rateLimiter(h))))
		}
		return wrapped
	}

	idempotent := func(h http.HandlerFunc) http.Handler {
		if redisClient == nil {
			return chain(h)
		}
		idempotencyMiddleware := middleware.NewIdempotencyMiddleware(redisClient, logger).Middleware
		return tracingMiddleware(authMiddleware(validationMiddleware(idempotencyMiddleware(h))))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /readiness", healthHandler.Readiness)

	mux.Handle("POST /api/v1/scan", chain(scanHandler.Scan))
	mux.Handle("GET /api/v1/audit", chain(auditHandler.QueryAudit))
	mux.Handle("POST /api/v1/policy/reload", idempotent(policyHandler.Reload))
	mux.Handle("PUT /api/v1/policy", idempotent(policyHandler.Update))
	mux.Handle("GET /api/v1/dashboard/stats", chain(dashboardHandler.Stats))
	mux.Handle("GET /api/v1/dashboard/policy", chain(dashboardHandler.Policy))
	mux.Handle("GET /api/v1/dashboard/patterns", chain(dashboardHandler.Patterns))

	server := &http.Server{
		Addr:         settings.Host + ":" + strconv.Itoa(settings.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("clawguard starting", zap.Int("port", settings.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start clawguard", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("clawguard shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("clawguard forced to shutdown", zap.Error(err))
	}

	logger.Info("clawguard stopped")
}
