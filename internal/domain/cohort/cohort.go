// Package cohort maps birth year and gender to the age cohorts used for
// reference values and leaderboards.
package cohort

import (
	"slices"
	"strings"

	"github.com/okian/klv/internal/domain/model"
)

// DefaultCutoffYear is the last birth year of the open Männer/Frauen cohort.
const DefaultCutoffYear = 2005

// Cohort is one row of the table.
type Cohort struct {
	Name   string
	Gender model.Gender
	// Years lists the birth years that match explicitly.
	Years []int
	// Open cohorts also match every year up to and including the cutoff.
	Open bool
}

// Matches reports whether the cohort covers year under the given cutoff.
func (c Cohort) Matches(year, cutoff int) bool {
	if c.Open && year <= cutoff {
		return true
	}
	for _, y := range c.Years {
		if y == year {
			return true
		}
	}
	return false
}

// Table is an ordered cohort table. The first matching row wins.
type Table struct {
	rows   []Cohort
	cutoff int
}

// Option configures a Table.
type Option func(*Table)

// WithCutoffYear sets the last birth year of the open cohorts.
func WithCutoffYear(year int) Option {
	return func(t *Table) {
		if year > 0 {
			t.cutoff = year
		}
	}
}

// WithRows replaces the cohort rows.
func WithRows(rows []Cohort) Option {
	return func(t *Table) {
		if len(rows) > 0 {
			t.rows = append([]Cohort(nil), rows...)
		}
	}
}

// NewTable returns the standard competition table.
func NewTable(opts ...Option) *Table {
	t := &Table{rows: standardRows(), cutoff: DefaultCutoffYear}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func standardRows() []Cohort {
	groups := []struct {
		suffix string
		years  []int
	}{
		{"U20", []int{2006, 2007}},
		{"U18", []int{2008, 2009}},
		{"U16", []int{2010, 2011}},
		{"U14", []int{2012, 2013}},
		{"U12", []int{2014, 2015}},
		{"U10", []int{2016, 2017}},
		{"U8", []int{2018, 2019}},
		{"U6", []int{2020, 2021}},
	}
	open := []int{2005, 2004, 2003, 2002, 2001, 2000}

	rows := []Cohort{{Name: "Männer", Gender: model.Male, Years: open, Open: true}}
	for _, g := range groups {
		rows = append(rows, Cohort{Name: "M" + g.suffix, Gender: model.Male, Years: g.years})
	}
	rows = append(rows, Cohort{Name: "Frauen", Gender: model.Female, Years: open, Open: true})
	for _, g := range groups {
		rows = append(rows, Cohort{Name: "W" + g.suffix, Gender: model.Female, Years: g.years})
	}
	return rows
}

// CutoffYear returns the configured open-cohort cutoff.
func (t *Table) CutoffYear() int { return t.cutoff }

// Resolve returns the cohort name for the athlete identity. ok is false when
// the gender is unknown, the year is zero or no row matches.
func (t *Table) Resolve(year int, gender model.Gender) (name string, ok bool) {
	if year == 0 || !gender.Valid() {
		return "", false
	}
	for _, c := range t.rows {
		if c.Gender == gender && c.Matches(year, t.cutoff) {
			return c.Name, true
		}
	}
	return "", false
}

// Names lists cohort names for gender in table order. GenderUnknown lists all.
func (t *Table) Names(gender model.Gender) []string {
	out := make([]string, 0, len(t.rows))
	for _, c := range t.rows {
		if !gender.Valid() || c.Gender == gender {
			out = append(out, c.Name)
		}
	}
	return out
}

// Lookup returns the row with the given name, case-insensitive.
func (t *Table) Lookup(name string) (Cohort, bool) {
	for _, c := range t.rows {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			return c, true
		}
	}
	return Cohort{}, false
}

// Years lists the distinct explicit birth years of the table rows for gender,
// newest first. Used for the year filter options.
func (t *Table) Years(gender model.Gender) []int {
	seen := make(map[int]bool)
	var out []int
	for _, c := range t.rows {
		if gender.Valid() && c.Gender != gender {
			continue
		}
		for _, y := range c.Years {
			if !seen[y] {
				seen[y] = true
				out = append(out, y)
			}
		}
	}
	slices.Sort(out)
	slices.Reverse(out)
	return out
}
