package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/okian/klv/internal/domain/model"
	"github.com/okian/klv/pkg/logger"
	"github.com/okian/klv/pkg/metrics"
)

type breakerConfig struct {
	name        string
	maxFailures uint32
	openTimeout time.Duration
	callTimeout time.Duration
	log         logger.Logger
}

// BreakerStore wraps a remote Store with a circuit breaker and a per-call
// deadline. Domain outcomes such as ErrNotFound do not count as failures.
type BreakerStore struct {
	next        Store
	cb          *gobreaker.CircuitBreaker
	callTimeout time.Duration
}

// NewBreakerStore decorates next.
func NewBreakerStore(next Store, opts ...BreakerOption) *BreakerStore {
	cfg := breakerConfig{
		name:        "store",
		maxFailures: 5,
		openTimeout: 10 * time.Second,
		callTimeout: 2 * time.Second,
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	st := gobreaker.Settings{Name: cfg.name, Timeout: cfg.openTimeout}
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= cfg.maxFailures
	}
	st.IsSuccessful = func(err error) bool {
		return err == nil || isDomainError(err) || errors.As(err, new(*rejected))
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		metrics.UpdateBreakerState(name, int(to))
		cfg.log.Warn(context.Background(), "store breaker state changed",
			logger.String("breaker", name), logger.String("from", from.String()), logger.String("to", to.String()))
	}
	metrics.UpdateBreakerState(cfg.name, int(gobreaker.StateClosed))

	return &BreakerStore{next: next, cb: gobreaker.NewCircuitBreaker(st), callTimeout: cfg.callTimeout}
}

// State reports the current breaker state.
func (b *BreakerStore) State() gobreaker.State { return b.cb.State() }

func isDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrInvalidKey) || errors.Is(err, ErrConflict) ||
		errors.Is(err, context.Canceled)
}

func (b *BreakerStore) execute(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		cctx, cancel := context.WithTimeout(ctx, b.callTimeout)
		defer cancel()
		return fn(cctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return v, err
}

func (b *BreakerStore) List(ctx context.Context) ([]model.Athlete, error) {
	v, err := b.execute(ctx, func(ctx context.Context) (interface{}, error) { return b.next.List(ctx) })
	if err != nil {
		return nil, err
	}
	return v.([]model.Athlete), nil
}

func (b *BreakerStore) Get(ctx context.Context, key string) (model.Athlete, error) {
	v, err := b.execute(ctx, func(ctx context.Context) (interface{}, error) { return b.next.Get(ctx, key) })
	if err != nil {
		return model.Athlete{}, err
	}
	return v.(model.Athlete), nil
}

func (b *BreakerStore) Create(ctx context.Context, a model.Athlete) error {
	_, err := b.execute(ctx, func(ctx context.Context) (interface{}, error) { return nil, b.next.Create(ctx, a) })
	return err
}

func (b *BreakerStore) Update(ctx context.Context, key string, fn func(*model.Athlete) error) (model.Athlete, error) {
	var fnErr error
	v, err := b.execute(ctx, func(ctx context.Context) (interface{}, error) {
		a, err := b.next.Update(ctx, key, func(a *model.Athlete) error {
			fnErr = fn(a)
			return fnErr
		})
		if err != nil && fnErr != nil && errors.Is(err, fnErr) {
			// Rejections from fn are caller decisions, not store failures.
			return nil, &rejected{err: err}
		}
		return a, err
	})
	var rej *rejected
	if errors.As(err, &rej) {
		return model.Athlete{}, rej.err
	}
	if err != nil {
		return model.Athlete{}, err
	}
	return v.(model.Athlete), nil
}

func (b *BreakerStore) Delete(ctx context.Context, key string) error {
	_, err := b.execute(ctx, func(ctx context.Context) (interface{}, error) { return nil, b.next.Delete(ctx, key) })
	return err
}

func (b *BreakerStore) Count(ctx context.Context) (int, error) {
	v, err := b.execute(ctx, func(ctx context.Context) (interface{}, error) { return b.next.Count(ctx) })
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// rejected marks an Update aborted by its callback so the breaker treats it
// as a success.
type rejected struct{ err error }

func (r *rejected) Error() string { return r.err.Error() }
func (r *rejected) Unwrap() error { return r.err }
