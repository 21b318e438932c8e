package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/klv/internal/domain/model"
	"github.com/okian/klv/pkg/metrics"
)

const backendMemory = "memory"

// Snapshot is an immutable view of the roster published after every write.
type Snapshot struct {
	// Athletes is ordered by ascending key.
	Athletes []model.Athlete
	Version  uint64
}

// MemoryStore is an in-process Store. Writers are serialized by a mutex and
// publish a fresh Snapshot, so readers never block and never see a torn roster.
type MemoryStore struct {
	mu      sync.Mutex
	byKey   map[string]model.Athlete
	version uint64

	snapshot atomic.Pointer[Snapshot]

	metricsUpdateInterval time.Duration
	wg                    sync.WaitGroup
	stopChan              chan struct{}
	stopOnce              sync.Once
}

// NewMemoryStore constructs an empty store and starts its metrics updater.
func NewMemoryStore(ctx context.Context, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		byKey:                 make(map[string]model.Athlete),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.publish()
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background metrics updater.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Snapshot returns the current published snapshot. Callers must not mutate it.
func (s *MemoryStore) Snapshot() *Snapshot { return s.snapshot.Load() }

func (s *MemoryStore) List(_ context.Context) ([]model.Athlete, error) {
	defer observe(backendMemory, "list", time.Now())
	snap := s.snapshot.Load()
	out := make([]model.Athlete, len(snap.Athletes))
	for i := range snap.Athletes {
		out[i] = snap.Athletes[i].Clone()
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (model.Athlete, error) {
	defer observe(backendMemory, "get", time.Now())
	snap := s.snapshot.Load()
	i := sort.Search(len(snap.Athletes), func(i int) bool { return snap.Athletes[i].Key >= key })
	if i < len(snap.Athletes) && snap.Athletes[i].Key == key {
		return snap.Athletes[i].Clone(), nil
	}
	return model.Athlete{}, fmt.Errorf("%w: %s", ErrNotFound, key)
}

func (s *MemoryStore) Create(_ context.Context, a model.Athlete) error {
	defer observe(backendMemory, "create", time.Now())
	if a.Key == "" {
		return ErrInvalidKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byKey[a.Key]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, a.Key)
	}
	s.byKey[a.Key] = a.Clone()
	s.publishLocked()
	return nil
}

func (s *MemoryStore) Update(_ context.Context, key string, fn func(*model.Athlete) error) (model.Athlete, error) {
	defer observe(backendMemory, "update", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byKey[key]
	if !ok {
		return model.Athlete{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	next := cur.Clone()
	if err := fn(&next); err != nil {
		return model.Athlete{}, err
	}
	next.Key = key
	s.byKey[key] = next
	s.publishLocked()
	return next.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	defer observe(backendMemory, "delete", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byKey[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	delete(s.byKey, key)
	s.publishLocked()
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	return len(s.snapshot.Load().Athletes), nil
}

func (s *MemoryStore) publish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishLocked()
}

// publishLocked rebuilds the sorted snapshot. Must be called with s.mu held.
func (s *MemoryStore) publishLocked() {
	athletes := make([]model.Athlete, 0, len(s.byKey))
	for _, a := range s.byKey {
		athletes = append(athletes, a)
	}
	sort.Slice(athletes, func(i, j int) bool { return athletes[i].Key < athletes[j].Key })
	s.version++
	s.snapshot.Store(&Snapshot{Athletes: athletes, Version: s.version})
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateAthletesTotal(len(s.snapshot.Load().Athletes))
			}
		}
	}()
}

func observe(backend, op string, start time.Time) {
	metrics.RecordStoreLatency(backend, op, float64(time.Since(start).Microseconds())/1000)
}
