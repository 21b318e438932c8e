package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSiteHandler(t *testing.T) {
	Convey("Given a site handler", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux)
		mux.HandleFunc("GET /bestenliste", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})

		get := func(path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			return w
		}

		Convey("When requesting the root", func() {
			w := get("/")

			Convey("Then the landing page should be served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				So(w.Body.String(), ShouldContainSubstring, "KLV Wettkampf")
				So(w.Body.String(), ShouldContainSubstring, `action="/bestenliste"`)
			})
		})

		Convey("When requesting the stylesheet", func() {
			w := get("/style.css")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/css")
		})

		Convey("When requesting an unknown file", func() {
			So(get("/missing.html").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When an API route is registered", func() {
			So(get("/bestenliste").Code, ShouldEqual, http.StatusTeapot)
		})
	})
}

func TestSiteHandlerWithNilMux(t *testing.T) {
	Convey("Given a nil mux", t, func() {
		So(func() { Register(context.Background(), nil) }, ShouldPanic)
	})
}
