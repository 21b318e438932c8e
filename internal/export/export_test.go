package export_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/klv/internal/domain/model"
	"github.com/okian/klv/internal/domain/scoring"
	"github.com/okian/klv/internal/export"
	. "github.com/smartystreets/goconvey/convey"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRoster(t *testing.T) {
	Convey("Given a roster with one scored athlete", t, func() {
		at := time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)
		a := model.Athlete{Name: `Anna "Flash" M`, BirthYear: 2012, Gender: model.Female, Riege: "R1"}
		a.SetAttempt(model.MustSlot(model.LongJump, 0), model.ParseAttempt("3.5", at))
		a.SetAttempt(model.MustSlot(model.LongJump, 1), model.ParseAttempt("X", at))
		a.SetAttempt(model.MustSlot(model.Sprint, 0), model.ParseAttempt("9.8", at))
		a.Stored = &model.StoredScore{Points: model.Points{LongJump: 510, Sprint: 480, Total: 990}}
		b := model.Athlete{Name: "Ben", BirthYear: 2011, Gender: model.Male, Riege: "R2"}

		Convey("When exporting", func() {
			var buf bytes.Buffer
			err := export.Roster(&buf, []model.Athlete{a, b})
			lines := strings.Split(buf.String(), "\n")

			Convey("Then every field should be quoted", func() {
				So(err, ShouldBeNil)
				So(len(lines), ShouldEqual, 3)
				So(lines[0], ShouldStartWith, `"Name","Jahrgang","Geschlecht","Riege","LJ_V1"`)
				So(lines[1], ShouldEqual, `"Anna ""Flash"" M","2012","w","R1","3.5","X","","","","","9.8","510","0","480","990"`)
				So(lines[2], ShouldEqual, `"Ben","2011","m","R2","","","","","","","","","","",""`)
			})
		})

		Convey("When the writer fails", func() {
			err := export.Roster(failingWriter{}, []model.Athlete{a})
			So(errors.Is(err, export.ErrWrite), ShouldBeTrue)
		})
	})
}

func TestLeaderboard(t *testing.T) {
	Convey("Given ranked rows", t, func() {
		rows := []scoring.Row{
			{Rank: 1, Name: "B", Riege: "R1", Points: model.Points{LongJump: 600, Sprint: 563, Total: 1163},
				Best: map[model.Discipline]float64{model.LongJump: 6, model.Sprint: 8}},
			{Rank: 2, Name: "C", Riege: "R1", Best: map[model.Discipline]float64{}},
		}

		Convey("When exporting", func() {
			var buf bytes.Buffer
			So(export.Leaderboard(&buf, rows), ShouldBeNil)
			lines := strings.Split(buf.String(), "\n")

			Convey("Then missing best values should be dashes", func() {
				So(lines[0], ShouldEqual, `"Platz","Name","Riege","Gesamt_Punkte","LJ_Punkte","BT_Punkte","Sprint_Punkte","LJ_Beste","BT_Beste","Sprint_Beste"`)
				So(lines[1], ShouldEqual, `"1","B","R1","1163","600","0","563","6","-","8"`)
				So(lines[2], ShouldEqual, `"2","C","R1","0","0","0","0","-","-","-"`)
			})
		})
	})
}
