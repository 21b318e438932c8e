package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/okian/klv/internal/domain/model"
	"github.com/okian/klv/pkg/logger"
	"github.com/okian/klv/pkg/metrics"
)

// AttemptInput is one attempt submission.
type AttemptInput struct {
	AthleteKey string
	Discipline model.Discipline
	// Value is ignored when Invalid is set.
	Value   float64
	Invalid bool
	// RequestID makes the submission idempotent per athlete when not empty.
	RequestID string
}

// AttemptResult reports where an attempt landed.
type AttemptResult struct {
	Athlete   model.Athlete
	Slot      model.Slot
	Attempt   model.Attempt
	Duplicate bool
}

// RecordAttempt stores an attempt in the next free slot of its discipline.
//
// Long jump and throw fill their slots in order; an invalid slot counts as
// used. The single sprint slot is always overwritten by an invalid mark and
// by a time that is faster than the stored one.
func (s *Service) RecordAttempt(ctx context.Context, in AttemptInput) (AttemptResult, error) {
	store, err := s.ready()
	if err != nil {
		return AttemptResult{}, err
	}
	if !in.Discipline.Valid() {
		metrics.RecordAttemptRejected("bad_discipline")
		return AttemptResult{}, fmt.Errorf("%w: %w", ErrInvalidInput, model.ErrUnknownDiscipline)
	}
	if !in.Invalid && (math.IsNaN(in.Value) || math.IsInf(in.Value, 0) || in.Value <= 0) {
		metrics.RecordAttemptRejected("bad_value")
		return AttemptResult{}, fmt.Errorf("%w: value must be greater than zero", ErrInvalidInput)
	}

	dedupeID := ""
	if id := strings.TrimSpace(in.RequestID); id != "" {
		dedupeID = in.AthleteKey + ":" + id
		if s.deduper.SeenAndRecord(ctx, dedupeID) {
			metrics.RecordAttemptDuplicate()
			s.logger.Debug(ctx, "duplicate attempt skipped", logger.String("requestId", id))
			return AttemptResult{Duplicate: true}, nil
		}
	}

	at := s.now()
	var res AttemptResult
	updated, err := store.Update(ctx, in.AthleteKey, func(a *model.Athlete) error {
		slot, err := nextSlot(a, in)
		if err != nil {
			return err
		}
		att := model.RecordedAttempt(in.Value, at)
		if in.Invalid {
			att = model.InvalidAttempt(at)
		}
		a.SetAttempt(slot, att)
		res.Slot, res.Attempt = slot, att
		return nil
	})
	if err != nil {
		if dedupeID != "" {
			s.deduper.Unrecord(ctx, dedupeID)
		}
		switch {
		case errors.Is(err, ErrAttemptsComplete):
			metrics.RecordAttemptRejected("attempts_complete")
		case errors.Is(err, ErrNotImproved):
			metrics.RecordAttemptRejected("not_improved")
		default:
			metrics.RecordErrorByComponent("service", "record_attempt")
		}
		return AttemptResult{}, fmt.Errorf("record attempt: %w", err)
	}

	res.Athlete = updated
	metrics.RecordAttempt(in.Discipline.Code(), in.Invalid)
	s.logger.Debug(ctx, "attempt recorded",
		logger.String("athlete", in.AthleteKey),
		logger.String("slot", res.Slot.Field()),
		logger.String("value", res.Attempt.Raw()),
	)
	return res, nil
}

func nextSlot(a *model.Athlete, in AttemptInput) (model.Slot, error) {
	slots := model.SlotsOf(in.Discipline)
	if in.Discipline.HigherBetter() {
		for _, sl := range slots {
			if a.Attempt(sl).IsEmpty() {
				return sl, nil
			}
		}
		return model.Slot{}, ErrAttemptsComplete
	}

	sl := slots[0]
	if in.Invalid {
		return sl, nil
	}
	if cur, ok := a.Attempt(sl).Value(); ok && cur > 0 && in.Value >= cur {
		return model.Slot{}, fmt.Errorf("%w: %s already at %s", ErrNotImproved, sl.Field(), a.Attempt(sl).Raw())
	}
	return sl, nil
}

// ClearAttempt resets the named slot (for example "LJv2" or "RUN").
func (s *Service) ClearAttempt(ctx context.Context, key, field string) (model.Athlete, error) {
	store, err := s.ready()
	if err != nil {
		return model.Athlete{}, err
	}
	slot, err := model.ParseSlot(field)
	if err != nil {
		return model.Athlete{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	a, err := store.Update(ctx, key, func(a *model.Athlete) error {
		a.SetAttempt(slot, model.EmptyAttempt())
		return nil
	})
	if err != nil {
		return model.Athlete{}, fmt.Errorf("clear attempt: %w", err)
	}
	s.logger.Info(ctx, "attempt cleared", logger.String("athlete", key), logger.String("slot", slot.Field()))
	return a, nil
}

// HistoryEntry is one recorded attempt of the history view.
type HistoryEntry struct {
	AthleteKey string
	Name       string
	Slot       model.Slot
	Attempt    model.Attempt
}

// History lists the non-empty attempts of a Riege in one discipline, newest
// first. Equal timestamps are ordered by athlete name.
func (s *Service) History(ctx context.Context, riege string, d model.Discipline) ([]HistoryEntry, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, model.ErrUnknownDiscipline)
	}
	roster, err := s.Athletes(ctx, riege)
	if err != nil {
		return nil, err
	}

	var out []HistoryEntry
	for i := range roster {
		for _, sl := range model.SlotsOf(d) {
			att := roster[i].Attempt(sl)
			if att.IsEmpty() {
				continue
			}
			out = append(out, HistoryEntry{AthleteKey: roster[i].Key, Name: roster[i].Name, Slot: sl, Attempt: att})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].Attempt.RecordedAt(), out[j].Attempt.RecordedAt()
		if !ti.Equal(tj) {
			return newer(ti, tj)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// newer orders timestamps descending with zero times last.
func newer(a, b time.Time) bool {
	if a.IsZero() != b.IsZero() {
		return !a.IsZero()
	}
	return a.After(b)
}
