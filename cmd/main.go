package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reftools/matchvoice/internal/adapters/fogis"
	"github.com/reftools/matchvoice/internal/adapters/http/api"
	"github.com/reftools/matchvoice/internal/adapters/http/swagger"
	"github.com/reftools/matchvoice/internal/adapters/repository"
	"github.com/reftools/matchvoice/internal/adapters/roster"
	"github.com/reftools/matchvoice/internal/adapters/syncer"
	"github.com/reftools/matchvoice/internal/app"
	"github.com/reftools/matchvoice/internal/config"
	"github.com/reftools/matchvoice/internal/domain/extract"
	"github.com/reftools/matchvoice/internal/domain/normalize"
	"github.com/reftools/matchvoice/pkg/logger"
	"github.com/reftools/matchvoice/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input).
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := repository.NewBoltStore(cfg.DBPath)
	if err != nil {
		os.Stderr.WriteString("failed to open event store: " + err.Error() + "\n")
		return
	}

	federation := fogis.New(
		fogis.WithBaseURL(cfg.FOGISBaseURL),
		fogis.WithToken(cfg.FOGISToken),
		fogis.WithTimeout(time.Duration(cfg.DeliveryTimeoutSeconds)*time.Second),
	)

	rosters := roster.NewCachingProvider(federation,
		roster.WithTTL(time.Duration(cfg.RosterCacheTTLSeconds)*time.Second),
	)

	sync := syncer.New(store, federation,
		syncer.WithInterval(time.Duration(cfg.SyncIntervalSeconds)*time.Second),
		syncer.WithWorkerCount(cfg.SyncWorkerCount),
		syncer.WithBatchLimit(cfg.SyncBatchLimit),
		syncer.WithMaxRetries(cfg.MaxRetryAttempts),
		syncer.WithBaseDelay(time.Duration(cfg.BaseDelayMS)*time.Millisecond),
		syncer.WithMaxDelay(time.Duration(cfg.MaxDelayMS)*time.Millisecond),
		syncer.WithStaleAfter(time.Duration(cfg.StaleClaimSeconds)*time.Second),
	)

	svc := app.New(store, normalize.New(), extract.New(), rosters, sync,
		app.WithAcceptThreshold(cfg.AcceptThreshold),
		app.WithLogger(log),
	)
	svc.Start(ctx)
	defer svc.Stop()

	// Start service metrics updater.
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Register the API reference under /api-docs.
	swagger.Register(ctx, mux)

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc,
		api.WithDefaultLocale(cfg.DefaultLocale),
		api.WithMaxListLimit(cfg.MaxListLimit),
	)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startServiceMetricsUpdater keeps the event state gauges fresh between
// sync cycles.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
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

// updateServiceMetrics updates backlog gauges from a stats snapshot.
func updateServiceMetrics(ctx context.Context, svc *app.Service) {
	stats, err := svc.GetStats(ctx)
	if err != nil {
		return
	}
	metrics.UpdateEventsByState("pending", stats.Pending)
	metrics.UpdateEventsByState("syncing", stats.Syncing)
	metrics.UpdateEventsByState("synced", stats.Synced)
	metrics.UpdateEventsByState("failed_fatal", stats.FailedFatal)
}
