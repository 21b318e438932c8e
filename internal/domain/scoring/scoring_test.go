package scoring_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/okian/klv/internal/domain/cohort"
	"github.com/okian/klv/internal/domain/model"
	"github.com/okian/klv/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

var at = time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)

// athlete builds a roster entry from sheet values: three long jumps, three
// throws and one sprint time, in field order.
func athlete(key string, year int, g model.Gender, raw ...string) model.Athlete {
	a := model.Athlete{Key: key, Name: "Athlete " + key, BirthYear: year, Gender: g, Riege: "R1"}
	for i, s := range model.AllSlots() {
		if i < len(raw) {
			a.SetAttempt(s, model.ParseAttempt(raw[i], at))
		}
	}
	return a
}

func attempts(raw ...string) []model.Attempt {
	out := make([]model.Attempt, len(raw))
	for i, r := range raw {
		out[i] = model.ParseAttempt(r, at)
	}
	return out
}

func TestReferenceValues(t *testing.T) {
	Convey("Given a scoring engine", t, func() {
		e := scoring.NewEngine()

		Convey("When three attempts of one athlete are 4, 5 and 6", func() {
			roster := []model.Athlete{athlete("a", 2012, model.Female, "4.0", "5.0", "6.0")}
			refs := e.ReferenceValues(roster)

			Convey("Then the long jump reference is their mean", func() {
				v, ok := refs.Get("WU14", model.LongJump)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 5.0)
			})

			Convey("Then empty groups have no reference at all", func() {
				_, ok := refs.Get("WU14", model.Throw)
				So(ok, ShouldBeFalse)
				_, ok = refs.Get("MU14", model.LongJump)
				So(ok, ShouldBeFalse)
				So(refs.Len(), ShouldEqual, 1)
			})
		})

		Convey("When several athletes share a cohort", func() {
			roster := []model.Athlete{
				athlete("a", 2012, model.Female, "3.0", "X", "", "20", "22", "", "9.5"),
				athlete("b", 2013, model.Female, "4.0", "", "", "X", "", "", "10.5"),
				athlete("c", 2012, model.Male, "5.0", "", "", "", "", "", "8.0"),
			}
			refs := e.ReferenceValues(roster)

			Convey("Then every recorded attempt counts and invalid ones do not", func() {
				lj, _ := refs.Get("WU14", model.LongJump)
				So(lj, ShouldEqual, 3.5)
				bt, _ := refs.Get("WU14", model.Throw)
				So(bt, ShouldEqual, 21)
				run, _ := refs.Get("WU14", model.Sprint)
				So(run, ShouldEqual, 10)
			})

			Convey("Then genders are grouped separately", func() {
				lj, _ := refs.Get("MU14", model.LongJump)
				So(lj, ShouldEqual, 5.0)
				So(refs.Cohorts(), ShouldResemble, []string{"MU14", "WU14"})
			})
		})

		Convey("When athletes have no cohort", func() {
			roster := []model.Athlete{
				athlete("a", 2012, model.GenderUnknown, "9.0"),
				athlete("b", 2030, model.Male, "9.0"),
			}
			So(e.ReferenceValues(roster).Len(), ShouldEqual, 0)
		})

		Convey("When a sprint time is zero", func() {
			roster := []model.Athlete{
				athlete("a", 2012, model.Male, "", "", "", "", "", "", "0"),
				athlete("b", 2012, model.Male, "", "", "", "", "", "", "9.0"),
			}
			Convey("Then it is left out of the sprint mean", func() {
				v, _ := e.ReferenceValues(roster).Get("MU14", model.Sprint)
				So(v, ShouldEqual, 9.0)
			})
		})
	})
}

func TestScoreAthlete(t *testing.T) {
	Convey("Given reference values", t, func() {
		e := scoring.NewEngine()
		refs := scoring.NewReferences(map[string]map[model.Discipline]float64{
			"MU14": {model.LongJump: 5.0, model.Throw: 20.0, model.Sprint: 10.0},
		})

		Convey("When an athlete jumps exactly the reference", func() {
			p, ok := e.ScoreAthlete(athlete("a", 2012, model.Male, "4.1", "5.0", "X"), refs)
			So(ok, ShouldBeTrue)
			So(p.LongJump, ShouldEqual, 500)
		})

		Convey("When an athlete runs 8.0 against a 10.0 reference", func() {
			p, _ := e.ScoreAthlete(athlete("a", 2012, model.Male, "", "", "", "", "", "", "8.0"), refs)
			So(p.Sprint, ShouldEqual, 625)
		})

		Convey("When all disciplines are recorded", func() {
			p, _ := e.ScoreAthlete(athlete("a", 2013, model.Male, "5.5", "", "", "18", "25", "X", "12.5"), refs)

			Convey("Then each component is rounded and total is their sum", func() {
				So(p.LongJump, ShouldEqual, 550)
				So(p.Throw, ShouldEqual, 625)
				So(p.Sprint, ShouldEqual, 400)
				So(p.Total, ShouldEqual, 1575)
			})
		})

		Convey("When half points appear", func() {
			half := scoring.NewReferences(map[string]map[model.Discipline]float64{"MU14": {model.LongJump: 4.0}})
			p, _ := e.ScoreAthlete(athlete("a", 2012, model.Male, "4.001"), half)
			Convey("Then rounding is half away from zero", func() {
				So(p.LongJump, ShouldEqual, 500)
				unit := scoring.NewEngine(scoring.WithPointBase(1))
				So(unit.Points(model.LongJump, 1, 2), ShouldEqual, 1)
				So(unit.Points(model.LongJump, 2.5, 1), ShouldEqual, 3)
				So(unit.Points(model.Sprint, 4, 10), ShouldEqual, 3)
			})
		})

		Convey("When there is no data or no reference", func() {
			p, ok := e.ScoreAthlete(athlete("a", 2012, model.Male, "X", "", ""), refs)
			So(ok, ShouldBeTrue)
			So(p, ShouldResemble, model.Points{})

			p, ok = e.ScoreAthlete(athlete("b", 2010, model.Male, "5.0"), refs)
			So(ok, ShouldBeTrue)
			So(p.Total, ShouldEqual, 0)
		})

		Convey("When the athlete has no cohort", func() {
			_, ok := e.ScoreAthlete(athlete("a", 2012, model.GenderUnknown, "5.0"), refs)
			So(ok, ShouldBeFalse)
		})

		Convey("When values would divide by zero", func() {
			zero := scoring.NewReferences(map[string]map[model.Discipline]float64{
				"MU14": {model.LongJump: 0, model.Sprint: 10},
			})
			p, _ := e.ScoreAthlete(athlete("a", 2012, model.Male, "5", "", "", "", "", "", "0"), zero)

			Convey("Then the component is zero and never infinite", func() {
				So(p.LongJump, ShouldEqual, 0)
				So(p.Sprint, ShouldEqual, 0)
			})
		})

		Convey("When the point base is configured", func() {
			e2 := scoring.NewEngine(scoring.WithPointBase(1000))
			p, _ := e2.ScoreAthlete(athlete("a", 2012, model.Male, "5.0"), refs)
			So(p.LongJump, ShouldEqual, 1000)
			So(e2.PointBase(), ShouldEqual, 1000)
		})
	})
}

func TestBestValue(t *testing.T) {
	Convey("Given attempt lists", t, func() {
		Convey("When higher is better", func() {
			v, ok := scoring.Best(attempts("4.2", "X", "3.9"), true)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 4.2)
		})

		Convey("When nothing valid was recorded", func() {
			_, ok := scoring.Best(attempts("", "X"), true)
			So(ok, ShouldBeFalse)
		})

		Convey("When zero is recorded and lower is better", func() {
			v, ok := scoring.Best(attempts("0", "X"), false)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 0)
		})

		Convey("When reading from an athlete", func() {
			a := athlete("a", 2012, model.Male, "3", "3.5", "", "", "", "", "7.9")
			lj, _ := scoring.BestValue(a, model.LongJump)
			So(lj, ShouldEqual, 3.5)
			run, _ := scoring.BestValue(a, model.Sprint)
			So(run, ShouldEqual, 7.9)
			_, ok := scoring.BestValue(a, model.Throw)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestLeaderboard(t *testing.T) {
	Convey("Given a roster with totals 300, 500, 500 and 100", t, func() {
		e := scoring.NewEngine()
		refs := scoring.NewReferences(map[string]map[model.Discipline]float64{"WU14": {model.LongJump: 5.0}})
		roster := []model.Athlete{
			athlete("A", 2012, model.Female, "3.0"),
			athlete("B", 2012, model.Female, "5.0"),
			athlete("C", 2013, model.Female, "5.0"),
			athlete("D", 2012, model.Female, "1.0"),
		}

		Convey("When ranking the cohort", func() {
			rows := e.Leaderboard(roster, refs, scoring.Filter{Age: "WU14", Gender: model.Female})

			Convey("Then order is descending with stable ties", func() {
				So(len(rows), ShouldEqual, 4)
				keys := []string{rows[0].Key, rows[1].Key, rows[2].Key, rows[3].Key}
				So(keys, ShouldResemble, []string{"B", "C", "A", "D"})
				totals := []int{rows[0].Points.Total, rows[1].Points.Total, rows[2].Points.Total, rows[3].Points.Total}
				So(totals, ShouldResemble, []int{500, 500, 300, 100})
			})

			Convey("Then ranks are 1-based positions", func() {
				for i, r := range rows {
					So(r.Rank, ShouldEqual, i+1)
				}
			})

			Convey("Then best values are attached for display", func() {
				So(rows[0].Best[model.LongJump], ShouldEqual, 5.0)
				_, ok := rows[0].Best[model.Sprint]
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When filtering by literal birth year", func() {
			rows := e.Leaderboard(roster, refs, scoring.Filter{Age: "2013", Gender: model.Female})
			So(len(rows), ShouldEqual, 1)
			So(rows[0].Key, ShouldEqual, "C")
		})

		Convey("When filtering by the other gender", func() {
			So(e.Leaderboard(roster, refs, scoring.Filter{Age: "WU14", Gender: model.Male}), ShouldBeEmpty)
		})

		Convey("When athletes without data or cohort are present", func() {
			withExtras := append(roster,
				athlete("E", 2012, model.Female),
				athlete("F", 2012, model.GenderUnknown, "6.0"),
			)
			rows := e.Leaderboard(withExtras, refs, scoring.Filter{Age: "WU14"})

			Convey("Then zero totals are ranked last and cohortless athletes are dropped", func() {
				So(len(rows), ShouldEqual, 5)
				So(rows[4].Key, ShouldEqual, "E")
				So(rows[4].Points.Total, ShouldEqual, 0)
			})
		})
	})
}

func TestStandings(t *testing.T) {
	Convey("Given an unchanged roster snapshot", t, func() {
		e := scoring.NewEngine(scoring.WithCohortTable(cohort.NewTable(cohort.WithCutoffYear(2005))))
		roster := []model.Athlete{
			athlete("a", 2012, model.Female, "3.12", "3.40", "X", "18.5", "", "21.25", "9.87"),
			athlete("b", 2012, model.Female, "2.98", "", "", "17", "19.75", "", "10.31"),
			athlete("c", 2009, model.Male, "4.9", "5.1", "5.05", "31", "33.3", "", "8.1"),
			athlete("d", 2030, model.Male, "1"),
		}

		Convey("When scoring twice", func() {
			first := e.Standings(roster)
			second := e.Standings(roster)

			Convey("Then the results are bit-identical", func() {
				So(len(first.Scored), ShouldEqual, 3)
				for i := range first.Scored {
					So(second.Scored[i].Points, ShouldResemble, first.Scored[i].Points)
				}
				for _, c := range first.References.Cohorts() {
					for d, v := range first.References.Cohort(c) {
						w, _ := second.References.Get(c, d)
						So(math.Float64bits(w), ShouldEqual, math.Float64bits(v))
					}
				}
				So(first.Unscored, ShouldResemble, []string{"d"})
			})

			Convey("Then the write-back payload carries rounded references", func() {
				s := first.StoredScore(first.Scored[0], at)
				So(s.Points, ShouldResemble, first.Scored[0].Points)
				So(s.References[model.LongJump], ShouldEqual, model.Round2((3.12+3.40+2.98)/3))
				So(s.ComputedAt, ShouldEqual, at)
			})

			Convey("Then the leaderboard can be built from the standings", func() {
				rows := first.Leaderboard(scoring.Filter{Age: "MU18", Gender: model.Male})
				So(len(rows), ShouldEqual, 1)
				So(rows[0].Cohort, ShouldEqual, "MU18")
			})
		})

		Convey("When references round-trip through JSON", func() {
			refs := e.ReferenceValues(roster)
			b, err := json.Marshal(refs)
			So(err, ShouldBeNil)
			var back scoring.References
			So(json.Unmarshal(b, &back), ShouldBeNil)
			So(back.Map(), ShouldResemble, refs.Map())
		})
	})
}

func TestFilterYear(t *testing.T) {
	Convey("Given age filters", t, func() {
		y, ok := scoring.Filter{Age: "2012"}.Year()
		So(ok, ShouldBeTrue)
		So(y, ShouldEqual, 2012)
		_, ok = scoring.Filter{Age: "MU14"}.Year()
		So(ok, ShouldBeFalse)
		_, ok = scoring.Filter{Age: "201"}.Year()
		So(ok, ShouldBeFalse)
	})
}
