package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/klv/internal/adapters/http/api"
	"github.com/okian/klv/internal/adapters/repository"
	service "github.com/okian/klv/internal/app"
	"github.com/okian/klv/internal/domain/model"
	"github.com/okian/klv/internal/domain/scoring"
	"github.com/okian/klv/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newMux(deps api.Dependencies, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, opts...).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
	return v
}

type athleteJSON struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Gender   string `json:"gender"`
	Cohort   string `json:"cohort"`
	Attempts map[string]struct {
		Raw   string `json:"raw"`
		State string `json:"state"`
	} `json:"attempts"`
	Points *model.Points `json:"points"`
}

type errorJSON struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func TestServer_Roster(t *testing.T) {
	Convey("Given an API server over a started service", t, func() {
		clock := time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)
		svc := service.New(service.WithClock(func() time.Time { return clock }), service.WithWorkerCount(1))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		mux := newMux(svc)

		Convey("When the metrics and stats endpoints are read", func() {
			So(do(mux, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusOK)
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode[map[string]any](w)["started"], ShouldEqual, true)
		})

		Convey("When adding an athlete", func() {
			w := do(mux, http.MethodPost, "/athletes", `{"name":"Anna","birthYear":2012,"gender":"w","riege":"R1"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			created := decode[athleteJSON](w)

			Convey("Then it should be listed and readable", func() {
				So(created.Key, ShouldNotBeEmpty)
				So(created.Gender, ShouldEqual, "female")
				So(created.Attempts["LJv1"].State, ShouldEqual, "not_attempted")

				list := decode[[]athleteJSON](do(mux, http.MethodGet, "/athletes?riege=R1", ""))
				So(len(list), ShouldEqual, 1)
				So(len(decode[[]athleteJSON](do(mux, http.MethodGet, "/athletes?riege=R9", ""))), ShouldEqual, 0)

				detail := decode[athleteJSON](do(mux, http.MethodGet, "/athletes/"+created.Key, ""))
				So(detail.Cohort, ShouldEqual, "WU14")
				So(detail.Points, ShouldNotBeNil)

				So(decode[[]string](do(mux, http.MethodGet, "/riegen", "")), ShouldResemble, []string{"R1"})
			})

			Convey("And when deleting it", func() {
				So(do(mux, http.MethodDelete, "/athletes/"+created.Key, "").Code, ShouldEqual, http.StatusNoContent)
				w := do(mux, http.MethodGet, "/athletes/"+created.Key, "")

				Convey("Then it should be gone", func() {
					So(w.Code, ShouldEqual, http.StatusNotFound)
					So(decode[errorJSON](w).Code, ShouldEqual, "not_found")
				})
			})
		})

		Convey("When adding invalid athletes", func() {
			So(do(mux, http.MethodPost, "/athletes", `{"name":"A","birthYear":1980,"gender":"m","riege":"R1"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/athletes", `{"name":"A","birthYear":2012,"gender":"x","riege":"R1"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/athletes", `{not json`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When listing cohorts", func() {
			So(decode[[]string](do(mux, http.MethodGet, "/cohorts?gender=m", ""))[0], ShouldEqual, "Männer")
			So(len(decode[[]string](do(mux, http.MethodGet, "/cohorts", ""))), ShouldEqual, 18)
			So(do(mux, http.MethodGet, "/cohorts?gender=q", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When using an unsupported method", func() {
			So(do(mux, http.MethodPut, "/athletes", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestServer_AttemptsAndScoring(t *testing.T) {
	Convey("Given a roster with two MU14 athletes", t, func() {
		svc := service.New(service.WithWorkerCount(1))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		mux := newMux(svc)

		a := decode[athleteJSON](do(mux, http.MethodPost, "/athletes", `{"name":"A","birthYear":2012,"gender":"m","riege":"R1"}`))
		b := decode[athleteJSON](do(mux, http.MethodPost, "/athletes", `{"name":"B","birthYear":2012,"gender":"m","riege":"R1"}`))

		record := func(key, body string) *httptest.ResponseRecorder {
			return do(mux, http.MethodPost, "/athletes/"+key+"/attempts", body)
		}

		Convey("When recording attempts", func() {
			w := record(a.Key, `{"discipline":"LJ","value":4,"requestId":"r1"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(decode[map[string]any](w)["slot"], ShouldEqual, "LJv1")

			Convey("Then a repeated request id should be acknowledged as duplicate", func() {
				w := record(a.Key, `{"discipline":"LJ","value":4,"requestId":"r1"}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode[map[string]any](w)["duplicate"], ShouldEqual, true)
			})

			Convey("Then a missing or zero value should be rejected", func() {
				So(record(a.Key, `{"discipline":"LJ"}`).Code, ShouldEqual, http.StatusBadRequest)
				So(record(a.Key, `{"discipline":"LJ","value":0}`).Code, ShouldEqual, http.StatusBadRequest)
				So(record(a.Key, `{"discipline":"HJ","value":1}`).Code, ShouldEqual, http.StatusBadRequest)
				So(record("missing", `{"discipline":"LJ","value":1}`).Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("Then a fourth long jump should conflict", func() {
				So(record(a.Key, `{"discipline":"LJ","invalid":true}`).Code, ShouldEqual, http.StatusCreated)
				So(record(a.Key, `{"discipline":"LJ","value":4.2}`).Code, ShouldEqual, http.StatusCreated)
				w := record(a.Key, `{"discipline":"LJ","value":4.4}`)
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(decode[errorJSON](w).Code, ShouldEqual, "attempts_complete")
			})

			Convey("Then a slower sprint should conflict", func() {
				So(record(a.Key, `{"discipline":"RUN","value":9.5}`).Code, ShouldEqual, http.StatusCreated)
				w := record(a.Key, `{"discipline":"RUN","value":9.9}`)
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(decode[errorJSON](w).Code, ShouldEqual, "not_improved")
			})

			Convey("Then the slot can be cleared", func() {
				w := do(mux, http.MethodDelete, "/athletes/"+a.Key+"/attempts/LJv1", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode[athleteJSON](w).Attempts["LJv1"].Raw, ShouldEqual, "")
				So(do(mux, http.MethodDelete, "/athletes/"+a.Key+"/attempts/LJv7", "").Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then the history should list it", func() {
				h := decode[[]map[string]any](do(mux, http.MethodGet, "/history?riege=R1&discipline=LJ", ""))
				So(len(h), ShouldEqual, 1)
				So(h[0]["slot"], ShouldEqual, "LJv1")
				So(do(mux, http.MethodGet, "/history?riege=R1&discipline=XX", "").Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When both athletes have results", func() {
			record(a.Key, `{"discipline":"LJ","value":4}`)
			record(b.Key, `{"discipline":"LJ","value":6}`)

			Convey("Then references should be the cohort mean", func() {
				refs := decode[map[string]map[string]float64](do(mux, http.MethodGet, "/references", ""))
				So(refs["MU14"]["LJ"], ShouldEqual, 5)
			})

			Convey("Then the Bestenliste should be ranked", func() {
				rows := decode[[]map[string]any](do(mux, http.MethodGet, "/bestenliste?age=MU14&gender=m", ""))
				So(len(rows), ShouldEqual, 2)
				So(rows[0]["name"], ShouldEqual, "B")
				So(rows[0]["rank"], ShouldEqual, 1.0)
				So(rows[1]["name"], ShouldEqual, "A")

				So(len(decode[[]map[string]any](do(mux, http.MethodGet, "/bestenliste?age=2013", ""))), ShouldEqual, 0)
				So(do(mux, http.MethodGet, "/bestenliste?gender=x", "").Code, ShouldEqual, http.StatusBadRequest)
				So(do(mux, http.MethodGet, "/bestenliste?format=xml", "").Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("Then the Bestenliste should be exportable as CSV", func() {
				w := do(mux, http.MethodGet, "/bestenliste?age=MU14&gender=m&format=csv", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "text/csv")
				So(w.Header().Get("Content-Disposition"), ShouldContainSubstring, "bestenliste-MU14-m.csv")
				lines := strings.Split(w.Body.String(), "\n")
				So(lines[1], ShouldEqual, `"1","B","R1","600","600","0","0","6","-","-"`)
			})

			Convey("And when points are calculated", func() {
				w := do(mux, http.MethodPost, "/points", "")
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(decode[map[string]any](w)["scored"], ShouldEqual, 2.0)

				Convey("Then the roster export should carry the stored points", func() {
					deadline := time.Now().Add(2 * time.Second)
					for svc.WriteBacksProcessed() < 2 && time.Now().Before(deadline) {
						time.Sleep(5 * time.Millisecond)
					}
					w := do(mux, http.MethodGet, "/export.csv", "")
					So(w.Code, ShouldEqual, http.StatusOK)
					lines := strings.Split(w.Body.String(), "\n")
					So(len(lines), ShouldEqual, 3)
					So(lines[1], ShouldEndWith, `"400","0","0","400"`)
					So(lines[2], ShouldEndWith, `"600","0","0","600"`)
				})
			})
		})
	})
}

func TestServer_WriteLimit(t *testing.T) {
	Convey("Given a server with a tiny write budget", t, func() {
		svc := service.New(service.WithWorkerCount(1))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		mux := newMux(svc, api.WithWriteLimit(0.001, 1))

		Convey("When two writes arrive back to back", func() {
			first := do(mux, http.MethodPost, "/athletes", `{"name":"A","birthYear":2012,"gender":"m","riege":"R1"}`)
			second := do(mux, http.MethodPost, "/athletes", `{"name":"B","birthYear":2012,"gender":"m","riege":"R1"}`)

			Convey("Then the second should be rate limited while reads pass", func() {
				So(first.Code, ShouldEqual, http.StatusCreated)
				So(second.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decode[errorJSON](second).Code, ShouldEqual, "rate_limited")
				So(do(mux, http.MethodGet, "/athletes", "").Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}

// failingDeps fails every call with err.
type failingDeps struct{ err error }

func (f failingDeps) AddAthlete(context.Context, service.NewAthlete) (model.Athlete, error) {
	return model.Athlete{}, f.err
}
func (f failingDeps) DeleteAthlete(context.Context, string) error { return f.err }
func (f failingDeps) Athletes(context.Context, string) ([]model.Athlete, error) {
	return nil, f.err
}
func (f failingDeps) Athlete(context.Context, string) (service.AthleteDetail, error) {
	return service.AthleteDetail{}, f.err
}
func (f failingDeps) Riegen(context.Context) ([]string, error) { return nil, f.err }
func (f failingDeps) Cohorts(model.Gender) []string             { return nil }
func (f failingDeps) RecordAttempt(context.Context, service.AttemptInput) (service.AttemptResult, error) {
	return service.AttemptResult{}, f.err
}
func (f failingDeps) ClearAttempt(context.Context, string, string) (model.Athlete, error) {
	return model.Athlete{}, f.err
}
func (f failingDeps) History(context.Context, string, model.Discipline) ([]service.HistoryEntry, error) {
	return nil, f.err
}
func (f failingDeps) References(context.Context) (scoring.References, error) {
	return scoring.References{}, f.err
}
func (f failingDeps) CalculatePoints(context.Context) (service.PointsResult, error) {
	return service.PointsResult{}, f.err
}
func (f failingDeps) Bestenliste(context.Context, scoring.Filter) ([]scoring.Row, error) {
	return nil, f.err
}
func (f failingDeps) GetStats() map[string]interface{} { return map[string]interface{}{} }

func TestServer_ErrorMapping(t *testing.T) {
	Convey("Given dependencies that fail", t, func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{repository.ErrUnavailable, http.StatusServiceUnavailable, "unavailable"},
			{service.ErrNotStarted, http.StatusServiceUnavailable, "unavailable"},
			{service.ErrBackpressure, http.StatusTooManyRequests, "backpressure"},
			{repository.ErrAlreadyExists, http.StatusConflict, "conflict"},
			{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		}
		for _, tc := range cases {
			Convey("When the error is "+tc.err.Error(), func() {
				mux := newMux(failingDeps{err: tc.err}, api.WithWriteLimit(0, 0))
				w := do(mux, http.MethodPost, "/points", "")

				Convey("Then it should map to its status", func() {
					So(w.Code, ShouldEqual, tc.status)
					So(decode[errorJSON](w).Code, ShouldEqual, tc.code)
				})
			})
		}
	})
}

func TestError(t *testing.T) {
	Convey("Given API errors", t, func() {
		cause := errors.New("eof")
		err := api.WrapKind("api.op", api.ErrBadRequest, cause)
		So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
		So(errors.Is(err, cause), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "api.op: bad request: eof")
		So(api.NewKind("api.op", api.ErrRateLimited).Error(), ShouldEqual, "api.op: rate limited")
		So(api.Wrap("api.op", nil), ShouldBeNil)
	})
}
