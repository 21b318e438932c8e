package api

import (
	"time"

	service "github.com/okian/klv/internal/app"
	"github.com/okian/klv/internal/domain/model"
	"github.com/okian/klv/internal/domain/scoring"
)

type attemptView struct {
	Raw        string     `json:"raw"`
	State      string     `json:"state"`
	RecordedAt *time.Time `json:"recordedAt,omitempty"`
}

func newAttemptView(a model.Attempt) attemptView {
	v := attemptView{Raw: a.Raw(), State: a.State().String()}
	if at := a.RecordedAt(); !a.IsEmpty() && !at.IsZero() {
		v.RecordedAt = &at
	}
	return v
}

type storedView struct {
	Points     model.Points                 `json:"points"`
	References map[model.Discipline]float64 `json:"references,omitempty"`
	ComputedAt time.Time                    `json:"computedAt"`
}

type athleteView struct {
	Key       string                 `json:"key"`
	Name      string                 `json:"name"`
	BirthYear int                    `json:"birthYear"`
	Gender    model.Gender           `json:"gender"`
	Riege     string                 `json:"riege"`
	Attempts  map[string]attemptView `json:"attempts"`
	Cohort    string                 `json:"cohort,omitempty"`
	Points    *model.Points          `json:"points,omitempty"`
	Stored    *storedView            `json:"stored,omitempty"`
}

func newAthleteView(a *model.Athlete) athleteView {
	v := athleteView{
		Key:       a.Key,
		Name:      a.Name,
		BirthYear: a.BirthYear,
		Gender:    a.Gender,
		Riege:     a.Riege,
		Attempts:  make(map[string]attemptView, model.SlotCount),
	}
	for _, s := range model.AllSlots() {
		v.Attempts[s.Field()] = newAttemptView(a.Attempt(s))
	}
	if st := a.Stored; st != nil {
		v.Stored = &storedView{Points: st.Points, References: st.References, ComputedAt: st.ComputedAt}
	}
	return v
}

func newDetailView(d *service.AthleteDetail) athleteView {
	v := newAthleteView(&d.Athlete)
	v.Cohort = d.Cohort
	if d.Scored {
		p := d.Points
		v.Points = &p
	}
	return v
}

type attemptResponse struct {
	Duplicate bool         `json:"duplicate"`
	Slot      string       `json:"slot,omitempty"`
	Attempt   *attemptView `json:"attempt,omitempty"`
	Athlete   *athleteView `json:"athlete,omitempty"`
}

type historyView struct {
	AthleteKey string      `json:"athleteKey"`
	Name       string      `json:"name"`
	Slot       string      `json:"slot"`
	Attempt    attemptView `json:"attempt"`
}

type rowView struct {
	Rank      int                          `json:"rank"`
	Key       string                       `json:"key"`
	Name      string                       `json:"name"`
	Riege     string                       `json:"riege"`
	BirthYear int                          `json:"birthYear"`
	Gender    model.Gender                 `json:"gender"`
	Cohort    string                       `json:"cohort"`
	Points    model.Points                 `json:"points"`
	Best      map[model.Discipline]float64 `json:"best"`
}

func newRowView(r *scoring.Row) rowView {
	return rowView{
		Rank:      r.Rank,
		Key:       r.Key,
		Name:      r.Name,
		Riege:     r.Riege,
		BirthYear: r.BirthYear,
		Gender:    r.Gender,
		Cohort:    r.Cohort,
		Points:    r.Points,
		Best:      r.Best,
	}
}

type pointsResponse struct {
	Scored     int                `json:"scored"`
	Enqueued   int                `json:"enqueued"`
	Unscored   []string           `json:"unscored"`
	References scoring.References `json:"references"`
	ComputedAt time.Time          `json:"computedAt"`
}
