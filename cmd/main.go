package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/okian/klv/internal/adapters/cache"
	"github.com/okian/klv/internal/adapters/http/api"
	"github.com/okian/klv/internal/adapters/http/site"
	"github.com/okian/klv/internal/adapters/http/swagger"
	"github.com/okian/klv/internal/adapters/repository"
	service "github.com/okian/klv/internal/app"
	"github.com/okian/klv/internal/config"
	"github.com/okian/klv/internal/domain/cohort"
	"github.com/okian/klv/internal/domain/scoring"
	"github.com/okian/klv/pkg/logger"
	"github.com/okian/klv/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWithFormat(cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "klv stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

// run wires the service from cfg and serves HTTP until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := buildStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	c, closeCache, err := buildCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	opts := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithEngine(buildEngine(cfg)),
		service.WithCache(c, cfg.CacheTTL()),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
	}
	if store != nil {
		opts = append(opts, service.WithStore(store))
	}
	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, cfg, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("store", cfg.StoreBackend),
			logger.Bool("redis", cfg.RedisAddr != ""))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// buildStore returns the configured remote store, or nil for the memory
// backend which the service creates and owns itself.
func buildStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	if !strings.EqualFold(cfg.StoreBackend, config.BackendDynamoDB) {
		return nil, nil
	}
	client, err := repository.NewDynamoClient(ctx, cfg.AWSRegion, cfg.DynamoDBEndpoint)
	if err != nil {
		return nil, fmt.Errorf("dynamodb client: %w", err)
	}
	dynamo := repository.NewDynamoStore(client, cfg.DynamoDBTable)
	store := repository.NewBreakerStore(dynamo,
		repository.WithBreakerName("dynamodb"),
		repository.WithMaxFailures(cfg.BreakerMaxFailures),
		repository.WithOpenTimeout(cfg.BreakerTimeout()),
		repository.WithCallTimeout(cfg.StoreTimeout()),
		repository.WithBreakerLogger(log.Named("breaker")),
	)
	return store, nil
}

// buildCache dials Redis when configured and falls back to the in-process
// cache otherwise.
func buildCache(ctx context.Context, cfg *config.Config, log logger.Logger) (cache.Cache, func(), error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(), func() {}, nil
	}
	r, err := cache.DialRedis(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return r, func() {
		if err := r.Close(); err != nil {
			log.Warn(context.Background(), "redis close failed", logger.Error(err))
		}
	}, nil
}

func buildEngine(cfg *config.Config) *scoring.Engine {
	return scoring.NewEngine(
		scoring.WithCohortTable(cohort.NewTable(cohort.WithCutoffYear(cfg.CohortCutoffYear))),
		scoring.WithPointBase(cfg.PointBase),
	)
}

// newMux registers docs, API and landing page routes.
func newMux(ctx context.Context, cfg *config.Config, deps api.Dependencies, log logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(deps,
		api.WithWriteLimit(cfg.WriteRateLimit, cfg.WriteRateBurst),
		api.WithLogger(log.Named("api")),
	).Register(ctx, mux)
	site.Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
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
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc.GetStats())
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var avgPauseMs float64
	if m.NumGC > 0 {
		avgPauseMs = float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
	}
	metrics.UpdateSystem(m.Alloc, runtime.NumGoroutine(), avgPauseMs)
}

func updateServiceMetrics(stats map[string]interface{}) {
	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if total, ok := stats["totalAthletes"].(int); ok {
		metrics.UpdateAthletesTotal(total)
	}
	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
}
