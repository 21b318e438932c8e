// Package service provides the competition service behind the HTTP API and
// the CLI: roster management, attempt recording, scoring and point
// write-back.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/okian/klv/internal/adapters/cache"
	"github.com/okian/klv/internal/adapters/mq/queue"
	"github.com/okian/klv/internal/adapters/mq/worker"
	"github.com/okian/klv/internal/adapters/repository"
	"github.com/okian/klv/internal/domain/dedupe"
	"github.com/okian/klv/internal/domain/scoring"
	"github.com/okian/klv/pkg/logger"
	"github.com/okian/klv/pkg/metrics"
)

const (
	defaultQueueSize  = 10_000
	defaultDedupeSize = 100_000
	defaultCacheTTL   = 30 * time.Second
)

// Service implements the API dependencies for the competition.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	ownsStore bool
	engine    *scoring.Engine
	cache     cache.Cache
	deduper   dedupe.Deduper
	queue     *queue.InMemoryQueue
	pool      *worker.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	cacheTTL    time.Duration
	now         func() time.Time

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the roster store. Without it Start creates a memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithEngine sets the scoring engine.
func WithEngine(e *scoring.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithCache sets the standings cache and its entry lifetime.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithWorkerCount sets the number of write-back workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the write-back queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the attempt request-id cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for attempt timestamps, birth
// year validation and points runs.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
		cacheTTL:    defaultCacheTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = scoring.NewEngine()
	}
	if s.cache == nil {
		s.cache = cache.NewMemory()
	}
	return s
}

// Engine returns the scoring engine in use.
func (s *Service) Engine() *scoring.Engine { return s.engine }

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting competition service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
		s.ownsStore = true
		s.logger.Info(ctx, "using memory store")
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
		queue.WithBufferSize(s.queueSize),
	)
	s.pool = worker.NewPool(s.workerCount, s.queue, s.store)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "competition service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("cohortCutoffYear", s.engine.Table().CutoffYear()),
		logger.Float64("pointBase", s.engine.PointBase()),
	)
	return nil
}

// Stop drains pending write-backs and shuts the service down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping competition service...")

	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			s.logger.Error(ctx, "worker pool shutdown", logger.Error(err))
		}
	}
	if s.ownsStore {
		if closer, ok := s.store.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(ctx, "competition service stopped")
}

// ready returns the live components or ErrNotStarted.
func (s *Service) ready() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// WriteBacksProcessed reports how many point write-backs have been applied.
func (s *Service) WriteBacksProcessed() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pool == nil {
		return 0
	}
	return s.pool.Processed()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":          s.started,
		"workerCount":      s.workerCount,
		"queueSize":        s.queueSize,
		"dedupeSize":       s.dedupeSize,
		"cohortCutoffYear": s.engine.Table().CutoffYear(),
		"pointBase":        s.engine.PointBase(),
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["dedupeEntries"] = s.deduper.Size()
		stats["writeBacks"] = s.pool.Processed()
		if n, err := s.store.Count(ctx); err == nil {
			stats["totalAthletes"] = n
			metrics.UpdateAthletesTotal(n)
		} else {
			stats["storeError"] = err.Error()
		}
		metrics.UpdateQueueSize(queueLen)
	}

	return stats
}
