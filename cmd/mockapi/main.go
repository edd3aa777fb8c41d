package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homefinder-client/internal/cache"
	"homefinder-client/internal/config"
	"homefinder-client/internal/logger"
	"homefinder-client/internal/mockapi"
	"homefinder-client/internal/observability/tracing"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.App.LogLevel)
	slog.SetDefault(log)
	log.Info("starting homefinder mock API", slog.String("env", cfg.App.Environment))

	ctx := context.Background()
	shutdownTracing, err := tracing.Init(ctx, log, cfg.App.Name+"-mockapi", cfg.App.Environment, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		log.Warn("tracing disabled", slog.String("error", err.Error()))
		shutdownTracing = func(context.Context) error { return nil }
	}

	// Initialize cache based on config
	var c cache.Cache
	switch cfg.MockAPI.Cache {
	case "redis":
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		rc, err := cache.NewRedisCache(pingCtx, cache.RedisConfig{
			Addr:      cfg.Redis.Address(),
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix + "mockapi:",
		})
		cancel()
		if err != nil {
			log.Error("redis cache unavailable", slog.String("error", err.Error()))
			os.Exit(1)
		}
		c = rc
		log.Info("redis cache initialized", slog.String("addr", cfg.Redis.Address()))
	default:
		c = cache.NewMemoryCache(time.Minute)
		log.Info("memory cache initialized")
	}
	defer c.Close()

	srv, err := mockapi.New(ctx, mockapi.Options{
		Cache:             c,
		JWTSecret:         cfg.MockAPI.JWTSecret,
		TokenTTL:          cfg.MockAPI.TokenTTL,
		Seed:              cfg.MockAPI.Seed,
		AllowedOrigins:    cfg.MockAPI.AllowedOrigins,
		CSRFCookie:        cfg.API.CSRFCookie,
		CSRFHeader:        cfg.API.CSRFHeader,
		SecureCookies:     cfg.MockAPI.SecureCookies,
		MaxUploadBytes:    cfg.MockAPI.MaxUploadBytes,
		ExposeResetTokens: cfg.MockAPI.ExposeResetKeys,
		Logger:            log,
	})
	if err != nil {
		log.Error("failed to build server", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.MockAPI.Seed {
		log.Info("demo accounts seeded", slog.String("users", "admin, olga, ben"))
	}

	httpServer := &http.Server{
		Addr:         cfg.MockAPI.Address(),
		Handler:      srv,
		ReadTimeout:  cfg.MockAPI.ReadTimeout,
		WriteTimeout: cfg.MockAPI.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", slog.String("addr", cfg.MockAPI.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.MockAPI.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracing shutdown error", slog.String("error", err.Error()))
	}
	_ = srv.Close()
	log.Info("server stopped")
}
