package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/klv/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestParseAttempt(t *testing.T) {
	convey.Convey("Given raw attempt values", t, func() {
		at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

		convey.Convey("When the raw value is empty", func() {
			a := model.ParseAttempt("  ", at)
			convey.So(a.State(), convey.ShouldEqual, model.NotAttempted)
			convey.So(a.Raw(), convey.ShouldEqual, "")
		})

		convey.Convey("When the raw value is the invalid mark", func() {
			a := model.ParseAttempt("x", at)
			convey.So(a.IsInvalid(), convey.ShouldBeTrue)
			convey.So(a.Raw(), convey.ShouldEqual, "X")
			_, ok := a.Value()
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("When the raw value is a decimal", func() {
			a := model.ParseAttempt("4.85", at)
			v, ok := a.Value()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(v, convey.ShouldEqual, 4.85)
			convey.So(a.RecordedAt(), convey.ShouldEqual, at)
			convey.So(a.Raw(), convey.ShouldEqual, "4.85")
		})

		convey.Convey("When the raw value uses a decimal comma", func() {
			v, ok := model.ParseAttempt("12,5", at).Value()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(v, convey.ShouldEqual, 12.5)
		})

		convey.Convey("When the raw value is zero", func() {
			a := model.ParseAttempt("0", at)
			v, ok := a.Value()
			convey.So(a.IsRecorded(), convey.ShouldBeTrue)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(v, convey.ShouldEqual, 0)
		})

		convey.Convey("When the raw value is garbage or negative", func() {
			convey.So(model.ParseAttempt("abc", at).IsInvalid(), convey.ShouldBeTrue)
			convey.So(model.ParseAttempt("-3", at).IsInvalid(), convey.ShouldBeTrue)
			convey.So(model.ParseAttempt("NaN", at).IsInvalid(), convey.ShouldBeTrue)
			convey.So(model.ParseAttempt("+Inf", at).IsInvalid(), convey.ShouldBeTrue)
		})
	})
}

func TestSlots(t *testing.T) {
	convey.Convey("Given attempt slots", t, func() {
		convey.Convey("When building valid slots", func() {
			convey.So(model.MustSlot(model.LongJump, 0).Field(), convey.ShouldEqual, "LJv1")
			convey.So(model.MustSlot(model.Throw, 2).Field(), convey.ShouldEqual, "BTv3")
			convey.So(model.MustSlot(model.Sprint, 0).Field(), convey.ShouldEqual, "RUN")
		})

		convey.Convey("When building out of range slots", func() {
			_, err := model.NewSlot(model.Sprint, 1)
			convey.So(errors.Is(err, model.ErrInvalidSlot), convey.ShouldBeTrue)
			_, err = model.NewSlot(model.LongJump, 3)
			convey.So(errors.Is(err, model.ErrInvalidSlot), convey.ShouldBeTrue)
			_, err = model.NewSlot(model.Discipline(9), 0)
			convey.So(errors.Is(err, model.ErrInvalidSlot), convey.ShouldBeTrue)
		})

		convey.Convey("When parsing every field name back", func() {
			for _, s := range model.AllSlots() {
				got, err := model.ParseSlot(s.Field())
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldResemble, s)
			}
			convey.So(len(model.AllSlots()), convey.ShouldEqual, model.SlotCount)
		})

		convey.Convey("When parsing unknown field names", func() {
			for _, f := range []string{"", "LJv4", "LJv0", "RUNv1", "XXv1", "LJp"} {
				_, err := model.ParseSlot(f)
				convey.So(err, convey.ShouldNotBeNil)
			}
		})
	})
}

func TestDiscipline(t *testing.T) {
	convey.Convey("Given the discipline table", t, func() {
		convey.So(model.LongJump.HigherBetter(), convey.ShouldBeTrue)
		convey.So(model.Throw.HigherBetter(), convey.ShouldBeTrue)
		convey.So(model.Sprint.HigherBetter(), convey.ShouldBeFalse)
		convey.So(model.Sprint.Unit(), convey.ShouldEqual, "s")
		convey.So(model.LongJump.Name(), convey.ShouldEqual, "Weitsprung")

		convey.Convey("When parsing names and codes", func() {
			for in, want := range map[string]model.Discipline{
				"LJ": model.LongJump, "wurf": model.Throw, "RUN": model.Sprint, "sprint": model.Sprint,
			} {
				got, err := model.ParseDiscipline(in)
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldEqual, want)
			}
			_, err := model.ParseDiscipline("hochsprung")
			convey.So(errors.Is(err, model.ErrUnknownDiscipline), convey.ShouldBeTrue)
		})
	})
}

func TestGender(t *testing.T) {
	convey.Convey("Given gender codes", t, func() {
		g, err := model.ParseGender("w")
		convey.So(err, convey.ShouldBeNil)
		convey.So(g, convey.ShouldEqual, model.Female)
		convey.So(g.Code(), convey.ShouldEqual, "w")

		g, err = model.ParseGender("M")
		convey.So(err, convey.ShouldBeNil)
		convey.So(g.String(), convey.ShouldEqual, "male")

		_, err = model.ParseGender("x")
		convey.So(errors.Is(err, model.ErrUnknownGender), convey.ShouldBeTrue)
		convey.So(model.GenderUnknown.Valid(), convey.ShouldBeFalse)
	})
}

func TestAthlete(t *testing.T) {
	convey.Convey("Given an athlete", t, func() {
		a := model.Athlete{Key: "k1", Name: "Anna", BirthYear: 2012, Gender: model.Female, Riege: "R1"}
		at := time.Now()

		convey.Convey("When setting attempts", func() {
			a.SetAttempt(model.MustSlot(model.LongJump, 1), model.RecordedAttempt(3.2, at))

			convey.Convey("Then they should be readable per discipline", func() {
				lj := a.Attempts(model.LongJump)
				convey.So(len(lj), convey.ShouldEqual, 3)
				convey.So(lj[0].IsEmpty(), convey.ShouldBeTrue)
				convey.So(lj[1].Raw(), convey.ShouldEqual, "3.2")
				convey.So(a.Attempts(model.Sprint)[0].IsEmpty(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When cloning with a stored score", func() {
			a.Stored = &model.StoredScore{References: map[model.Discipline]float64{model.LongJump: 3.1}}
			c := a.Clone()
			c.Stored.References[model.LongJump] = 9

			convey.Convey("Then the original should be untouched", func() {
				convey.So(a.Stored.References[model.LongJump], convey.ShouldEqual, 3.1)
			})
		})

		convey.Convey("When validating", func() {
			convey.So(a.Validate(2025), convey.ShouldBeNil)

			bad := a
			bad.BirthYear = 1989
			convey.So(errors.Is(bad.Validate(2025), model.ErrInvalidAthlete), convey.ShouldBeTrue)
			bad.BirthYear = 2026
			convey.So(bad.Validate(2025), convey.ShouldNotBeNil)

			bad = a
			bad.Name = " "
			convey.So(bad.Validate(2025), convey.ShouldNotBeNil)

			bad = a
			bad.Gender = model.GenderUnknown
			convey.So(errors.Is(bad.Validate(2025), model.ErrUnknownGender), convey.ShouldBeTrue)
		})
	})
}

func TestRound2(t *testing.T) {
	convey.Convey("Given two-decimal rounding", t, func() {
		convey.So(model.Round2(3.14159), convey.ShouldEqual, 3.14)
		convey.So(model.Round2(2.675001), convey.ShouldEqual, 2.68)
		convey.So(model.Round2(10), convey.ShouldEqual, 10)
	})
}
