package seed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/klv/pkg/logger"
)

type counters struct {
	created, athleteFailed                   atomic.Int64
	accepted, duplicate, rejected, attFailed atomic.Int64
}

// Run executes a complete seed run against cfg.BaseURL.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	stats := Stats{StartTime: time.Now()}
	if err := cfg.Validate(); err != nil {
		return stats, err
	}
	log := logger.Named("seed")
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting seed run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("athletes", cfg.Athletes),
		logger.Int("riegen", cfg.Riegen),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	if err := checkHealth(ctx, client); err != nil {
		return stats, err
	}

	plans := Generate(cfg.Athletes, cfg.Riegen, cfg.Year)
	var c counters
	submit(ctx, client, cfg.Workers, plans, &c)
	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("submission interrupted: %w", err)
	}
	stats.AthletesCreated = int(c.created.Load())
	stats.AthletesFailed = int(c.athleteFailed.Load())
	stats.AttemptsAccepted = int(c.accepted.Load())
	stats.AttemptsDuplicate = int(c.duplicate.Load())
	stats.AttemptsRejected = int(c.rejected.Load())
	stats.AttemptsFailed = int(c.attFailed.Load())
	log.Info(ctx, "submission completed",
		logger.Int("athletesCreated", stats.AthletesCreated),
		logger.Int("athletesFailed", stats.AthletesFailed),
		logger.Int("attemptsAccepted", stats.AttemptsAccepted),
		logger.Int("attemptsDuplicate", stats.AttemptsDuplicate),
		logger.Int("attemptsRejected", stats.AttemptsRejected),
		logger.Int("attemptsFailed", stats.AttemptsFailed))

	var points struct {
		Scored int `json:"scored"`
	}
	status, err := client.Do(ctx, http.MethodPost, "/points", nil, &points)
	if err != nil {
		return stats, fmt.Errorf("points run: %w", err)
	}
	if status != http.StatusAccepted {
		return stats, fmt.Errorf("points run: unexpected status %d", status)
	}
	stats.Scored = points.Scored

	if err := verify(ctx, client, cfg.Verbose, &stats); err != nil {
		return stats, err
	}
	if stats.RowsVerified < stats.AthletesCreated {
		return stats, fmt.Errorf("%w: %d rows for %d created athletes", ErrVerify, stats.RowsVerified, stats.AthletesCreated)
	}

	stats.Duration = time.Since(stats.StartTime)
	log.Info(ctx, "seed run completed",
		logger.Int("scored", stats.Scored),
		logger.Int("cohorts", stats.Cohorts),
		logger.Int("rowsVerified", stats.RowsVerified),
		logger.Duration("duration", stats.Duration))
	return stats, nil
}

func checkHealth(ctx context.Context, client *Client) error {
	status, err := client.Do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}

// submit registers every plan's athlete and posts its attempts in order.
// Attempts of one athlete stay on one worker since slots fill sequentially.
func submit(ctx context.Context, client *Client, workers int, plans []Plan, c *counters) {
	type job struct {
		index int
		plan  Plan
	}
	jobs := make(chan job, workers*workerMultiplier)
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					continue
				}
				runPlan(ctx, client, j.index, j.plan, c)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, p := range plans {
			select {
			case <-ctx.Done():
				return
			case jobs <- job{index: i, plan: p}:
			}
		}
	}()
	wg.Wait()
}

func runPlan(ctx context.Context, client *Client, index int, p Plan, c *counters) {
	var created struct {
		Key string `json:"key"`
	}
	status, err := client.Do(ctx, http.MethodPost, "/athletes", p.Athlete, &created)
	if err != nil || status != http.StatusCreated {
		c.athleteFailed.Add(1)
		logger.Get().Debug(ctx, "athlete rejected", logger.Int("status", status), logger.Error(err))
		return
	}
	c.created.Add(1)

	path := "/athletes/" + url.PathEscape(created.Key) + "/attempts"
	post := func(a AttemptRequest) {
		status, err := client.Do(ctx, http.MethodPost, path, a, nil)
		switch {
		case err != nil:
			c.attFailed.Add(1)
		case status == http.StatusCreated:
			c.accepted.Add(1)
		case status == http.StatusOK:
			c.duplicate.Add(1)
		case status == http.StatusConflict:
			c.rejected.Add(1)
		default:
			c.attFailed.Add(1)
		}
	}
	for i, a := range p.Attempts {
		post(a)
		if i == 0 && index%duplicateEvery == 0 {
			post(a)
		}
	}
}

func verify(ctx context.Context, client *Client, verbose bool, stats *Stats) error {
	var cohorts []string
	status, err := client.Do(ctx, http.MethodGet, "/cohorts", nil, &cohorts)
	if err != nil {
		return fmt.Errorf("list cohorts: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("list cohorts: unexpected status %d", status)
	}

	for _, name := range cohorts {
		var rows []Row
		status, err := client.Do(ctx, http.MethodGet, "/bestenliste?age="+url.QueryEscape(name), nil, &rows)
		if err != nil {
			return fmt.Errorf("bestenliste %s: %w", name, err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("bestenliste %s: unexpected status %d", name, status)
		}
		if err := VerifyRows(name, rows); err != nil {
			return err
		}
		if len(rows) == 0 {
			continue
		}
		stats.Cohorts++
		stats.RowsVerified += len(rows)
		if verbose {
			logger.Get().Info(ctx, "cohort verified",
				logger.String("cohort", name),
				logger.Int("rows", len(rows)),
				logger.String("leader", rows[0].Name),
				logger.Int("total", rows[0].Points.Total))
		}
	}
	return nil
}
