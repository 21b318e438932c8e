package scoring

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/klv/internal/domain/model"
)

// Standing is the score of one athlete with a resolvable cohort.
type Standing struct {
	Athlete model.Athlete
	Cohort  string
	Points  model.Points
}

// Standings is the result of a full scoring pass over a roster snapshot.
type Standings struct {
	References References
	// Scored keeps roster order.
	Scored []Standing
	// Unscored lists the keys of athletes without a cohort.
	Unscored []string
}

// Standings scores a whole roster in one pass.
func (e *Engine) Standings(roster []model.Athlete) Standings {
	return e.StandingsWith(roster, e.ReferenceValues(roster))
}

// StandingsWith scores roster against previously computed references.
func (e *Engine) StandingsWith(roster []model.Athlete, refs References) Standings {
	st := Standings{References: refs, Scored: make([]Standing, 0, len(roster))}
	for i := range roster {
		p, ok := e.ScoreAthlete(roster[i], refs)
		if !ok {
			st.Unscored = append(st.Unscored, roster[i].Key)
			continue
		}
		c, _ := e.ResolveCohort(roster[i])
		st.Scored = append(st.Scored, Standing{Athlete: roster[i], Cohort: c, Points: p})
	}
	return st
}

// StoredScore builds the write-back payload of s.
func (st Standings) StoredScore(s Standing, at time.Time) model.StoredScore {
	return model.StoredScore{
		Points:     s.Points,
		References: st.References.Rounded(s.Cohort),
		ComputedAt: at,
	}
}

// Filter selects leaderboard rows. Age is either a four-digit birth year or
// a cohort name; empty matches every athlete. GenderUnknown matches both.
type Filter struct {
	Age    string
	Gender model.Gender
}

// Year returns the literal birth year of the age filter, if it is one.
func (f Filter) Year() (int, bool) {
	a := strings.TrimSpace(f.Age)
	if len(a) != 4 {
		return 0, false
	}
	y, err := strconv.Atoi(a)
	if err != nil || y <= 0 {
		return 0, false
	}
	return y, true
}

func (f Filter) matches(s Standing) bool {
	if f.Gender.Valid() && s.Athlete.Gender != f.Gender {
		return false
	}
	age := strings.TrimSpace(f.Age)
	if age == "" {
		return true
	}
	if y, ok := f.Year(); ok {
		return s.Athlete.BirthYear == y
	}
	return s.Cohort == age
}

// Row is one ranked leaderboard entry.
type Row struct {
	Rank      int
	Key       string
	Name      string
	Riege     string
	BirthYear int
	Gender    model.Gender
	Cohort    string
	Points    model.Points
	// Best holds the best raw value per discipline; absent means none.
	Best map[model.Discipline]float64
}

// Leaderboard ranks the roster under f against refs.
func (e *Engine) Leaderboard(roster []model.Athlete, refs References, f Filter) []Row {
	return e.StandingsWith(roster, refs).Leaderboard(f)
}

// Leaderboard ranks the scored athletes under f. Ties keep roster order.
func (st Standings) Leaderboard(f Filter) []Row {
	rows := make([]Row, 0, len(st.Scored))
	for _, s := range st.Scored {
		if !f.matches(s) {
			continue
		}
		best := make(map[model.Discipline]float64, len(model.Disciplines))
		for _, d := range model.Disciplines {
			if v, ok := BestValue(s.Athlete, d); ok {
				best[d] = v
			}
		}
		rows = append(rows, Row{
			Key:       s.Athlete.Key,
			Name:      s.Athlete.Name,
			Riege:     s.Athlete.Riege,
			BirthYear: s.Athlete.BirthYear,
			Gender:    s.Athlete.Gender,
			Cohort:    s.Cohort,
			Points:    s.Points,
			Best:      best,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Points.Total > rows[j].Points.Total
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}
