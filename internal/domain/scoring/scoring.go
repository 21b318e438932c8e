// Package scoring turns a roster snapshot into cohort reference values,
// per-athlete points and ranked leaderboards.
//
// The engine is pure: it performs no I/O and holds no mutable state, so a
// single Engine can be shared by any number of goroutines.
package scoring

import (
	"math"

	"github.com/okian/klv/internal/domain/cohort"
	"github.com/okian/klv/internal/domain/model"
)

// DefaultPointBase is the score of a performance exactly at the reference value.
const DefaultPointBase = 500

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithCohortTable sets the cohort table used to group athletes.
func WithCohortTable(t *cohort.Table) Option {
	return func(e *Engine) {
		if t != nil {
			e.table = t
		}
	}
}

// WithPointBase sets the points awarded for a reference performance.
func WithPointBase(base float64) Option {
	return func(e *Engine) {
		if base > 0 {
			e.pointBase = base
		}
	}
}

// Engine computes reference values, points and leaderboards.
type Engine struct {
	table     *cohort.Table
	pointBase float64
}

// NewEngine creates an engine with the standard cohort table.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		table:     cohort.NewTable(),
		pointBase: DefaultPointBase,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Table returns the cohort table of the engine.
func (e *Engine) Table() *cohort.Table { return e.table }

// PointBase returns the configured point base.
func (e *Engine) PointBase() float64 { return e.pointBase }

// ResolveCohort returns the cohort of an athlete.
func (e *Engine) ResolveCohort(a model.Athlete) (string, bool) {
	return e.table.Resolve(a.BirthYear, a.Gender)
}

// ReferenceValues averages every recorded attempt per (cohort, discipline).
// All three attempts of the jump and throw count, not just personal bests.
// Sprint times that are not strictly positive are left out. Athletes
// without a cohort do not contribute.
func (e *Engine) ReferenceValues(roster []model.Athlete) References {
	type acc struct {
		sum float64
		n   int
	}
	groups := make(map[refKey]*acc)
	for i := range roster {
		name, ok := e.ResolveCohort(roster[i])
		if !ok {
			continue
		}
		for _, d := range model.Disciplines {
			for _, at := range roster[i].Attempts(d) {
				v, ok := at.Value()
				if !ok || (d == model.Sprint && v <= 0) {
					continue
				}
				k := refKey{cohort: name, discipline: d}
				g := groups[k]
				if g == nil {
					g = &acc{}
					groups[k] = g
				}
				g.sum += v
				g.n++
			}
		}
	}

	refs := References{values: make(map[refKey]float64, len(groups))}
	for k, g := range groups {
		refs.values[k] = g.sum / float64(g.n)
	}
	return refs
}

// ScoreAthlete computes the points of a. ok is false when the athlete has no
// cohort and therefore no score at all.
func (e *Engine) ScoreAthlete(a model.Athlete, refs References) (model.Points, bool) {
	name, ok := e.ResolveCohort(a)
	if !ok {
		return model.Points{}, false
	}
	var p model.Points
	for _, d := range model.Disciplines {
		pts := 0
		if best, ok := BestValue(a, d); ok {
			if ref, ok := refs.Get(name, d); ok {
				pts = e.Points(d, best, ref)
			}
		}
		switch d {
		case model.LongJump:
			p.LongJump = pts
		case model.Throw:
			p.Throw = pts
		case model.Sprint:
			p.Sprint = pts
		}
	}
	p.Total = p.LongJump + p.Throw + p.Sprint
	return p, true
}

// Points converts one performance into points against ref. A non-positive
// reference, or a non-positive value for a lower-is-better discipline,
// yields 0.
func (e *Engine) Points(d model.Discipline, value, ref float64) int {
	if ref <= 0 {
		return 0
	}
	var ratio float64
	if d.HigherBetter() {
		ratio = value / ref
	} else {
		if value <= 0 {
			return 0
		}
		ratio = ref / value
	}
	pts := math.Round(e.pointBase * ratio)
	if math.IsNaN(pts) || math.IsInf(pts, 0) {
		return 0
	}
	return int(pts)
}

// BestValue returns the best recorded attempt of a in d.
func BestValue(a model.Athlete, d model.Discipline) (float64, bool) {
	return Best(a.Attempts(d), d.HigherBetter())
}

// Best picks the maximum (higherBetter) or minimum recorded value. Empty and
// invalid attempts are skipped; a recorded 0 takes part.
func Best(attempts []model.Attempt, higherBetter bool) (float64, bool) {
	var (
		best  float64
		found bool
	)
	for _, at := range attempts {
		v, ok := at.Value()
		if !ok {
			continue
		}
		if !found || (higherBetter && v > best) || (!higherBetter && v < best) {
			best = v
			found = true
		}
	}
	return best, found
}
