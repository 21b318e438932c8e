package repository

import (
	"time"

	"github.com/okian/klv/pkg/logger"
)

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// DynamoOption applies a configuration option to the DynamoStore.
type DynamoOption func(*DynamoStore)

// WithMaxRetries bounds the optimistic-concurrency retries of Update.
func WithMaxRetries(n int) DynamoOption {
	return func(s *DynamoStore) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// BreakerOption applies a configuration option to the BreakerStore.
type BreakerOption func(*breakerConfig)

// WithBreakerName names the breaker in metrics and logs.
func WithBreakerName(name string) BreakerOption {
	return func(c *breakerConfig) {
		if name != "" {
			c.name = name
		}
	}
}

// WithMaxFailures sets the consecutive failures that open the breaker.
func WithMaxFailures(n int) BreakerOption {
	return func(c *breakerConfig) {
		if n > 0 {
			c.maxFailures = uint32(n)
		}
	}
}

// WithOpenTimeout sets how long the breaker stays open before probing.
func WithOpenTimeout(d time.Duration) BreakerOption {
	return func(c *breakerConfig) {
		if d > 0 {
			c.openTimeout = d
		}
	}
}

// WithCallTimeout bounds each delegated call.
func WithCallTimeout(d time.Duration) BreakerOption {
	return func(c *breakerConfig) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// WithBreakerLogger sets the logger for breaker state changes.
func WithBreakerLogger(l logger.Logger) BreakerOption {
	return func(c *breakerConfig) {
		if l != nil {
			c.log = l
		}
	}
}
