package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/tes-app/tes-backend/config"
	"github.com/tes-app/tes-backend/internal/api/http/middleware"
	"github.com/tes-app/tes-backend/internal/bootstrap"
	"github.com/tes-app/tes-backend/internal/logging"
	"github.com/tes-app/tes-backend/internal/metrics"
	"github.com/tes-app/tes-backend/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewCollector(reg)

	backends, err := bootstrap.OpenBackends(ctx, cfg, logger, rec)
	if err != nil {
		return fmt.Errorf("backends: %w", err)
	}
	defer func() {
		if err := backends.Close(); err != nil {
			logger.Warn("closing backends", zap.Error(err))
		}
	}()

	workflow, err := bootstrap.NewWorkflow(&cfg.Onboarding, backends, logger, rec)
	if err != nil {
		return fmt.Errorf("workflow: %w", err)
	}

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		PerMinute: cfg.RateLimit.AuthPerMinute,
		Burst:     cfg.RateLimit.AuthBurst,
	}, logger.Named("ratelimit"))

	jobs := scheduler.NewScheduler(logger.Named("scheduler"))
	if err := jobs.Add("@every 1m", "ratelimit_sweep", limiter.Sweep); err != nil {
		return err
	}
	if mem := backends.MemorySessions; mem != nil {
		sweep := func(ctx context.Context) error {
			n, err := mem.Sweep(ctx)
			if n > 0 {
				logger.Debug("expired sessions removed", zap.Int("count", n))
			}
			return err
		}
		if err := jobs.Add("@every 5m", "session_sweep", sweep); err != nil {
			return err
		}
	}
	jobs.Start()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: cfg.App.ServiceName,
		Version:     cfg.App.Version,
		CORSOrigins: cfg.Server.CORSOrigins,
		AdminAPIKey: cfg.Server.AdminAPIKey,
		Workflow:    workflow,
		Checks:      backends.Checks,
		MediaFiles:  backends.MediaFiles,
		AuthLimiter: limiter,
		Gatherer:    reg,
		Metrics:     rec,
		Log:         logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("API server starting",
			zap.String("addr", server.Addr),
			zap.String("env", cfg.App.Environment),
			zap.String("version", cfg.App.Version),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	jobs.Stop(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("API server stopped gracefully")
	return nil
}
