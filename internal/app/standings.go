package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/okian/klv/internal/adapters/cache"
	"github.com/okian/klv/internal/adapters/mq/queue"
	"github.com/okian/klv/internal/domain/model"
	"github.com/okian/klv/internal/domain/scoring"
	"github.com/okian/klv/pkg/logger"
	"github.com/okian/klv/pkg/metrics"
)

// PointsResult summarizes a points run.
type PointsResult struct {
	Scored     int
	Enqueued   int
	Unscored   []string
	References scoring.References
	ComputedAt time.Time
}

// standings scores the current roster. Reference values are cached under the
// roster fingerprint; a cache failure only costs a recomputation.
func (s *Service) standings(ctx context.Context) (scoring.Standings, []model.Athlete, error) {
	roster, err := s.Athletes(ctx, "")
	if err != nil {
		return scoring.Standings{}, nil, err
	}

	start := time.Now()
	key := cache.StandingsKey(s.engine.Table().CutoffYear(), s.engine.PointBase(), roster)

	var st scoring.Standings
	if refs, ok := s.cachedReferences(ctx, key); ok {
		st = s.engine.StandingsWith(roster, refs)
	} else {
		st = s.engine.Standings(roster)
		if b, err := json.Marshal(st.References); err == nil {
			if err := s.cache.Set(ctx, key, b, s.cacheTTL); err != nil {
				s.logger.Warn(ctx, "standings cache write failed", logger.Error(err))
				metrics.RecordErrorByComponent("cache", "set")
			}
		}
	}

	metrics.RecordScoringRun(float64(time.Since(start).Microseconds())/1000, len(st.Scored))
	return st, roster, nil
}

func (s *Service) cachedReferences(ctx context.Context, key string) (scoring.References, bool) {
	b, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn(ctx, "standings cache read failed", logger.Error(err))
		metrics.RecordErrorByComponent("cache", "get")
		return scoring.References{}, false
	}
	metrics.RecordCacheLookup(found)
	if !found {
		return scoring.References{}, false
	}
	var refs scoring.References
	if err := json.Unmarshal(b, &refs); err != nil {
		s.logger.Warn(ctx, "standings cache entry unreadable", logger.Error(err))
		return scoring.References{}, false
	}
	return refs, true
}

// References returns the reference values of the current roster.
func (s *Service) References(ctx context.Context) (scoring.References, error) {
	st, _, err := s.standings(ctx)
	if err != nil {
		return scoring.References{}, err
	}
	return st.References, nil
}

// Bestenliste ranks the current roster under f.
func (s *Service) Bestenliste(ctx context.Context, f scoring.Filter) ([]scoring.Row, error) {
	st, _, err := s.standings(ctx)
	if err != nil {
		return nil, err
	}
	return st.Leaderboard(f), nil
}

// CalculatePoints scores the roster and queues a write-back of points and
// rounded reference values for every scored athlete. Jobs that do not fit in
// the queue are reported through ErrBackpressure; the rest still land.
func (s *Service) CalculatePoints(ctx context.Context) (PointsResult, error) {
	st, _, err := s.standings(ctx)
	if err != nil {
		return PointsResult{}, err
	}

	s.mu.RLock()
	q := s.queue
	s.mu.RUnlock()

	res := PointsResult{
		Scored:     len(st.Scored),
		Unscored:   st.Unscored,
		References: st.References,
		ComputedAt: s.now(),
	}
	for _, sc := range st.Scored {
		job := queue.Job{AthleteKey: sc.Athlete.Key, Score: st.StoredScore(sc, res.ComputedAt)}
		if q.Enqueue(ctx, job) {
			res.Enqueued++
		}
	}

	s.logger.Info(ctx, "points calculated",
		logger.Int("scored", res.Scored),
		logger.Int("enqueued", res.Enqueued),
		logger.Int("unscored", len(res.Unscored)),
	)
	if res.Enqueued < res.Scored {
		return res, fmt.Errorf("%w: %d of %d write-backs dropped", ErrBackpressure, res.Scored-res.Enqueued, res.Scored)
	}
	return res, nil
}
