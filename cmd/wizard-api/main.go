// cmd/wizard-api/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"subsidy-wizard/internal/common/camunda"
	"subsidy-wizard/internal/common/config"
	"subsidy-wizard/internal/common/database"
	"subsidy-wizard/internal/common/logger"
	"subsidy-wizard/internal/common/observability"
	"subsidy-wizard/internal/httpserver"
	"subsidy-wizard/internal/wizard/backend"
	"subsidy-wizard/internal/wizard/drafts"
	"subsidy-wizard/internal/wizard/tenant"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{"service": "wizard-api"})

	zapLog.Info("Starting wizard API...", zap.String("environment", cfg.App.Environment))

	if err := config.ValidateAPI(cfg); err != nil {
		zapLog.Fatal("invalid API configuration", zap.Error(err))
	}
	if !cfg.App.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	obs, err := observability.New("wizard-api", observability.WithSampleRatio(cfg.Tracing.SampleRatio))
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = camunda.Retry(ctx, camunda.RetryConfig{MaxRetries: 10, BaseDelay: time.Second, MaxDelay: 15 * time.Second},
		log, "Redis connection", func(ctx context.Context) error {
			client, err := database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := client.Ping(ctx); err != nil {
				client.Close()
				return err
			}
			rdb = client
			return nil
		})
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully", zap.String("address", cfg.Database.Redis.Address))

	draftStore := drafts.NewStore(rdb.GetClient(), cfg.Wizard.DraftKeyPrefix, time.Duration(cfg.Wizard.DraftTTL)*time.Hour)

	backendClient := backend.NewClient(cfg.Backend, log)
	sessions := httpserver.NewSessions(draftStore, httpserver.SessionOptions{
		Backend:  backendClient,
		Debounce: config.GetDuration(cfg.Wizard.Debounce),
		Tracer:   obs.Tracer(),
		Logger:   log,
	})
	idle := time.Duration(cfg.Wizard.IdleTimeout) * time.Minute
	go sessions.Run(ctx, time.Minute, idle)

	server := httpserver.New(httpserver.Options{
		Address:      cfg.HTTP.Address,
		ReadTimeout:  config.GetDuration(cfg.HTTP.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.HTTP.WriteTimeout),
	}, httpserver.Deps{
		Sessions: sessions,
		Tokens: httpserver.NewTokenIssuer(cfg.Session.JWTSecret, cfg.Session.Issuer,
			time.Duration(cfg.Session.TTL)*time.Minute),
		Tenants: httpserver.TenantSettings{
			Registry:      tenant.RegistryFromConfig(cfg.Tenants),
			Configured:    cfg.Tenants.Configured,
			AllowOverride: cfg.Tenants.AllowOverride,
			Development:   cfg.App.IsDevelopment(),
		},
		Representatives: backendClient,
		Redis:           rdb,
		AllowedOrigins:  cfg.HTTP.AllowedOrigins,
		MaxUploadBytes:  cfg.Wizard.MaxUploadBytes,
		Logger:          log,
	})

	go func() {
		zapLog.Info("Wizard API listening", zap.String("address", server.Addr()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("Wizard API failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	stop()
	sessions.Close()

	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down observability", zap.Error(err))
	}

	zapLog.Info("Wizard API stopped gracefully")
}
