package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HanTheDev/complexity-analyzer/internal/admin"
	"github.com/HanTheDev/complexity-analyzer/internal/analysis"
	"github.com/HanTheDev/complexity-analyzer/internal/api"
	"github.com/HanTheDev/complexity-analyzer/internal/cache"
	"github.com/HanTheDev/complexity-analyzer/internal/config"
	"github.com/HanTheDev/complexity-analyzer/internal/db"
	"github.com/HanTheDev/complexity-analyzer/internal/llm"
	"github.com/HanTheDev/complexity-analyzer/internal/logging"
	"github.com/HanTheDev/complexity-analyzer/internal/ratelimit"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load config: ", err)
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// Model client; a missing key only fails analysis calls
	gemini := llm.NewGeminiClient(ctx, llm.GeminiConfig{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Timeout: cfg.ModelTimeout,
	})

	// Initialize analysis cache
	analysisCache, err := cache.NewAnalysisCache(cfg.CacheSize)
	if err != nil {
		logrus.Fatal("Failed to initialize analysis cache: ", err)
	}
	service := analysis.NewService(gemini, analysisCache, cfg.DefaultModel, cfg.MaxCodeLength)

	// Optional rate limiter
	var limiter api.Limiter
	if cfg.RedisURL != "" {
		rl, err := ratelimit.NewRateLimiter(cfg.RedisURL, cfg.RateLimitPerHour)
		if err != nil {
			logrus.Fatal("Failed to initialize rate limiter: ", err)
		}
		defer rl.Close()
		if err := rl.Ping(ctx); err != nil {
			logrus.Warnf("Redis not reachable yet, rate limiting will fail open: %v", err)
		}
		limiter = rl
		logrus.Infof("Rate limiting enabled: %d requests/hour per client", cfg.RateLimitPerHour)
	}

	// Optional access log database
	var accessLog api.AccessLogger
	var analytics admin.AnalyticsStore
	if cfg.DatabaseURL != "" {
		database, err := db.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			logrus.Fatal("Failed to connect to database: ", err)
		}
		defer database.Close()
		if err := database.Migrate(ctx); err != nil {
			logrus.Fatal("Failed to migrate database: ", err)
		}
		accessLog = database
		analytics = database
		logrus.Info("Access logging enabled")
	}

	handler := api.NewHandler(service, limiter, accessLog)

	var extra []api.RouteRegistrar
	if cfg.AdminKey != "" {
		extra = append(extra, admin.NewAdminHandler(analysisCache, analytics, cfg.AdminKey, cfg.JWTSecret))
		logrus.Info("Admin API available at /admin/*")
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(handler, extra...),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logrus.Infof("Server starting on %s (default model %s)", cfg.Addr(), cfg.DefaultModel)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal("Server failed: ", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Graceful shutdown failed: %v", err)
	}
}
