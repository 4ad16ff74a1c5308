package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/storyloom/internal/adapters/http/api"
	"github.com/okian/storyloom/internal/adapters/http/site"
	"github.com/okian/storyloom/internal/adapters/http/swagger"
	app "github.com/okian/storyloom/internal/app"
	"github.com/okian/storyloom/internal/config"
	"github.com/okian/storyloom/pkg/logger"
	"github.com/okian/storyloom/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 3 * time.Minute
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// We collect our own system metrics on the custom registry.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithLevel(cfg.LogLevel)); err != nil {
		logger.Get().Warn(ctx, "invalid log settings; keeping text/info",
			logger.String("log_level", cfg.LogLevel),
			logger.String("log_format", cfg.LogFormat),
			logger.Error(err),
		)
	}
	loggerInstance := logger.Get()
	metrics.Configure(
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
		metrics.WithRefreshInterval(cfg.MetricsRefresh()),
	)

	svc, err := app.FromConfig(cfg, loggerInstance)
	if err != nil {
		loggerInstance.Error(ctx, "failed to build service", logger.Error(err))
		return
	}
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, loggerInstance),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("llm_provider", cfg.LLMProvider),
			logger.String("artifact_backend", cfg.ArtifactBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "service shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// newMux registers the docs, studio and API routes.
func newMux(ctx context.Context, svc *app.Service, l logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)
	api.NewServer(svc, api.WithLogger(l.Named("api"))).Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes gauges derived from service stats.
func updateServiceMetrics(ctx context.Context, svc *app.Service) {
	stats := svc.Stats(ctx)
	metrics.UpdateQueueSize(stats.QueueLength)
	metrics.UpdateQueueCapacity(stats.QueueCapacity)
	metrics.UpdateWorkerActiveCount(stats.Workers)
}
