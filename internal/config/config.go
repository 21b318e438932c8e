// Package config defines service configuration and its loading hooks.
//
// Conventions:
//   - New builds a Config with defaults, Load layers file and env on top.
//   - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoreBackend is memory or dynamodb.
	StoreBackend     string `koanf:"store_backend"`
	DynamoDBTable    string `koanf:"dynamodb_table"`
	DynamoDBEndpoint string `koanf:"dynamodb_endpoint"`
	AWSRegion        string `koanf:"aws_region"`
	// StoreTimeoutMS bounds every roster store call.
	StoreTimeoutMS int `koanf:"store_timeout_ms"`

	// Circuit breaker around the remote store.
	BreakerMaxFailures int `koanf:"breaker_max_failures"`
	BreakerTimeoutMS   int `koanf:"breaker_timeout_ms"`

	// RedisAddr enables the Redis standings cache when set; otherwise an
	// in-process cache is used.
	RedisAddr       string `koanf:"redis_addr"`
	CacheTTLSeconds int    `koanf:"cache_ttl_seconds"`

	// CohortCutoffYear is the last birth year of the open Männer/Frauen cohort.
	CohortCutoffYear int `koanf:"cohort_cutoff_year"`
	// PointBase is the score of an athlete performing exactly at reference.
	PointBase float64 `koanf:"point_base"`

	// WorkerCount sets the number of point write-back workers.
	WorkerCount int `koanf:"worker_count"`
	// QueueSize bounds the write-back queue.
	QueueSize int `koanf:"queue_size"`
	// DedupeSize bounds the attempt request-id dedupe set.
	DedupeSize int `koanf:"dedupe_size"`

	// Write endpoints rate limit (requests per second and burst).
	WriteRateLimit float64 `koanf:"write_rate_limit"`
	WriteRateBurst int     `koanf:"write_rate_burst"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		StoreBackend:       BackendMemory,
		DynamoDBTable:      "klv-athletes",
		AWSRegion:          "eu-central-1",
		StoreTimeoutMS:     2_000,
		BreakerMaxFailures: 5,
		BreakerTimeoutMS:   10_000,
		CacheTTLSeconds:    30,
		CohortCutoffYear:   2005,
		PointBase:          500,
		WorkerCount:        runtime.NumCPU(),
		QueueSize:          10_000,
		DedupeSize:         100_000,
		WriteRateLimit:     50,
		WriteRateBurst:     100,
	}
}

// StoreTimeout returns the per-call store deadline.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

// BreakerTimeout returns how long an open breaker waits before half-opening.
func (c *Config) BreakerTimeout() time.Duration {
	return time.Duration(c.BreakerTimeoutMS) * time.Millisecond
}

// CacheTTL returns the standings cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.StoreBackend) {
	case BackendMemory:
	case BackendDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("%w: dynamodb_table must be set for the dynamodb backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalidConfig, c.StoreBackend)
	}
	if c.PointBase <= 0 {
		return fmt.Errorf("%w: point_base must be positive", ErrInvalidConfig)
	}
	if c.CohortCutoffYear <= 0 {
		return fmt.Errorf("%w: cohort_cutoff_year must be positive", ErrInvalidConfig)
	}
	if c.WorkerCount <= 0 || c.QueueSize <= 0 {
		return fmt.Errorf("%w: worker_count and queue_size must be positive", ErrInvalidConfig)
	}
	return nil
}
