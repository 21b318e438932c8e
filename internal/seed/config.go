// Package seed fills a running KLV service with generated athletes and
// attempts, triggers a points run and verifies the resulting Bestenliste.
package seed

import (
	"errors"
	"fmt"
	"runtime"
	"time"
)

// Default run settings.
const (
	DefaultBaseURL  = "http://localhost:9080"
	DefaultAthletes = 200
	DefaultRiegen   = 8
	DefaultTimeout  = 30 * time.Second

	workerMultiplier = 2
	// duplicateEvery replays the first request of every n-th athlete.
	duplicateEvery = 10
)

var (
	ErrInvalidConfig = errors.New("invalid seed config")
	ErrUnhealthy     = errors.New("service unhealthy")
	ErrVerify        = errors.New("bestenliste verification failed")
)

// Config holds the parameters of one seed run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Athletes int           // Number of athletes to register
	Riegen   int           // Number of Riegen to spread them over
	Workers  int           // Number of concurrent workers
	Timeout  time.Duration // HTTP request timeout
	Year     int           // Meet year used to derive plausible results
	Verbose  bool          // Log every cohort
}

// DefaultConfig returns the settings used by the CLI when no flag is given.
func DefaultConfig() Config {
	return Config{
		BaseURL:  DefaultBaseURL,
		Athletes: DefaultAthletes,
		Riegen:   DefaultRiegen,
		Workers:  runtime.NumCPU() * workerMultiplier,
		Timeout:  DefaultTimeout,
		Year:     time.Now().Year(),
	}
}

// Validate checks the run settings.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url must not be empty", ErrInvalidConfig)
	case c.Athletes < 1:
		return fmt.Errorf("%w: athletes must be positive", ErrInvalidConfig)
	case c.Riegen < 1:
		return fmt.Errorf("%w: riegen must be positive", ErrInvalidConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// Stats holds run counters.
type Stats struct {
	AthletesCreated   int
	AthletesFailed    int
	AttemptsAccepted  int
	AttemptsDuplicate int
	AttemptsRejected  int
	AttemptsFailed    int
	Scored            int
	Cohorts           int
	RowsVerified      int
	StartTime         time.Time
	Duration          time.Duration
}
