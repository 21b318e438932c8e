package scoring

import (
	"encoding/json"
	"sort"

	"github.com/okian/klv/internal/domain/model"
)

type refKey struct {
	cohort     string
	discipline model.Discipline
}

// References holds the mean value per (cohort, discipline). A missing entry
// means the reference is undefined, never zero.
type References struct {
	values map[refKey]float64
}

// NewReferences builds References from a cohort -> discipline -> value map.
func NewReferences(m map[string]map[model.Discipline]float64) References {
	r := References{values: make(map[refKey]float64)}
	for c, byDisc := range m {
		for d, v := range byDisc {
			r.values[refKey{cohort: c, discipline: d}] = v
		}
	}
	return r
}

// Get returns the reference value for the pair.
func (r References) Get(cohort string, d model.Discipline) (float64, bool) {
	v, ok := r.values[refKey{cohort: cohort, discipline: d}]
	return v, ok
}

// Len returns the number of defined reference values.
func (r References) Len() int { return len(r.values) }

// Cohort returns the defined values of one cohort.
func (r References) Cohort(name string) map[model.Discipline]float64 {
	out := make(map[model.Discipline]float64)
	for k, v := range r.values {
		if k.cohort == name {
			out[k.discipline] = v
		}
	}
	return out
}

// Rounded returns the defined values of one cohort rounded to two decimals,
// the form persisted on athlete records.
func (r References) Rounded(name string) map[model.Discipline]float64 {
	out := r.Cohort(name)
	for d, v := range out {
		out[d] = model.Round2(v)
	}
	return out
}

// Cohorts lists the cohorts with at least one reference value, sorted.
func (r References) Cohorts() []string {
	seen := make(map[string]bool)
	var out []string
	for k := range r.values {
		if !seen[k.cohort] {
			seen[k.cohort] = true
			out = append(out, k.cohort)
		}
	}
	sort.Strings(out)
	return out
}

// Map returns a nested copy keyed by cohort then discipline.
func (r References) Map() map[string]map[model.Discipline]float64 {
	out := make(map[string]map[model.Discipline]float64)
	for k, v := range r.values {
		if out[k.cohort] == nil {
			out[k.cohort] = make(map[model.Discipline]float64)
		}
		out[k.cohort][k.discipline] = v
	}
	return out
}

func (r References) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

func (r *References) UnmarshalJSON(b []byte) error {
	var m map[string]map[model.Discipline]float64
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*r = NewReferences(m)
	return nil
}
