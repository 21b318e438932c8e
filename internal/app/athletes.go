package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/klv/internal/adapters/repository"
	"github.com/okian/klv/internal/domain/model"
	"github.com/okian/klv/pkg/logger"
)

// NewAthlete is the input of AddAthlete.
type NewAthlete struct {
	Name      string
	BirthYear int
	Gender    model.Gender
	Riege     string
}

// AthleteDetail is one athlete with its cohort and live score.
type AthleteDetail struct {
	Athlete model.Athlete
	// Cohort is empty when the athlete cannot be placed.
	Cohort string
	Points model.Points
	Scored bool
}

// AddAthlete validates and stores a new athlete under a fresh UUIDv7 key,
// so key order follows creation order.
func (s *Service) AddAthlete(ctx context.Context, in NewAthlete) (model.Athlete, error) {
	store, err := s.ready()
	if err != nil {
		return model.Athlete{}, err
	}

	a := model.Athlete{
		Name:      strings.TrimSpace(in.Name),
		BirthYear: in.BirthYear,
		Gender:    in.Gender,
		Riege:     strings.TrimSpace(in.Riege),
	}
	if err := a.Validate(s.now().Year()); err != nil {
		return model.Athlete{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.Athlete{}, fmt.Errorf("generate key: %w", err)
	}
	a.Key = id.String()

	if err := store.Create(ctx, a); err != nil {
		return model.Athlete{}, fmt.Errorf("create athlete: %w", err)
	}
	s.logger.Info(ctx, "athlete added",
		logger.String("key", a.Key),
		logger.String("riege", a.Riege),
		logger.Int("birthYear", a.BirthYear),
	)
	return a, nil
}

// DeleteAthlete removes an athlete from the roster.
func (s *Service) DeleteAthlete(ctx context.Context, key string) error {
	store, err := s.ready()
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete athlete: %w", err)
	}
	s.logger.Info(ctx, "athlete deleted", logger.String("key", key))
	return nil
}

// Athletes returns the roster in key order, restricted to riege when it is
// not empty.
func (s *Service) Athletes(ctx context.Context, riege string) ([]model.Athlete, error) {
	store, err := s.ready()
	if err != nil {
		return nil, err
	}
	roster, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list athletes: %w", err)
	}
	riege = strings.TrimSpace(riege)
	if riege == "" {
		return roster, nil
	}
	out := roster[:0]
	for _, a := range roster {
		if a.Riege == riege {
			out = append(out, a)
		}
	}
	return out, nil
}

// Riegen lists the distinct Riege names in roster order of first appearance.
func (s *Service) Riegen(ctx context.Context) ([]string, error) {
	roster, err := s.Athletes(ctx, "")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, a := range roster {
		if a.Riege == "" || seen[a.Riege] {
			continue
		}
		seen[a.Riege] = true
		out = append(out, a.Riege)
	}
	return out, nil
}

// Cohorts lists the cohort names available for gender. GenderUnknown lists
// every cohort.
func (s *Service) Cohorts(gender model.Gender) []string {
	return s.engine.Table().Names(gender)
}

// Athlete returns one athlete with its cohort and its score against the
// current roster.
func (s *Service) Athlete(ctx context.Context, key string) (AthleteDetail, error) {
	st, roster, err := s.standings(ctx)
	if err != nil {
		return AthleteDetail{}, err
	}
	for _, sc := range st.Scored {
		if sc.Athlete.Key == key {
			return AthleteDetail{Athlete: sc.Athlete, Cohort: sc.Cohort, Points: sc.Points, Scored: true}, nil
		}
	}
	for _, a := range roster {
		if a.Key == key {
			return AthleteDetail{Athlete: a}, nil
		}
	}
	return AthleteDetail{}, fmt.Errorf("get athlete: %w: %s", repository.ErrNotFound, key)
}
