package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/klv/internal/domain/model"
	"github.com/okian/klv/internal/domain/scoring"
	"github.com/okian/klv/internal/export"
	"github.com/okian/klv/pkg/logger"
)

// ScoringHandler serves references, points runs, leaderboards and exports.
type ScoringHandler struct {
	deps   scoringDeps
	logger logger.Logger
}

type scoringDeps interface {
	ScoringDependencies
	AthleteDependencies
}

// NewScoringHandler creates a new scoring handler.
func NewScoringHandler(deps scoringDeps, l logger.Logger) *ScoringHandler {
	return &ScoringHandler{deps: deps, logger: l}
}

// HandleReferences handles GET /references.
func (h *ScoringHandler) HandleReferences(w http.ResponseWriter, r *http.Request) {
	refs, err := h.deps.References(r.Context())
	if err != nil {
		fail(r.Context(), h.logger, w, Wrap("api.references", err))
		return
	}
	writeJSON(w, http.StatusOK, refs)
}

// HandlePoints handles POST /points.
func (h *ScoringHandler) HandlePoints(w http.ResponseWriter, r *http.Request) {
	const op = "api.points"
	res, err := h.deps.CalculatePoints(r.Context())
	if err != nil {
		fail(r.Context(), h.logger, w, Wrap(op, err))
		return
	}
	unscored := res.Unscored
	if unscored == nil {
		unscored = []string{}
	}
	writeJSON(w, http.StatusAccepted, pointsResponse{
		Scored:     res.Scored,
		Enqueued:   res.Enqueued,
		Unscored:   unscored,
		References: res.References,
		ComputedAt: res.ComputedAt,
	})
}

// HandleBestenliste handles GET /bestenliste?age=&gender=&format=json|csv.
func (h *ScoringHandler) HandleBestenliste(w http.ResponseWriter, r *http.Request) {
	const op = "api.bestenliste"
	q := r.URL.Query()
	f := scoring.Filter{Age: strings.TrimSpace(q.Get("age"))}
	if raw := strings.TrimSpace(q.Get("gender")); raw != "" {
		g, err := model.ParseGender(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		f.Gender = g
	}
	format := strings.ToLower(strings.TrimSpace(q.Get("format")))
	if format != "" && format != "json" && format != "csv" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, fmt.Errorf("unknown format %q", format)))
		return
	}

	rows, err := h.deps.Bestenliste(r.Context(), f)
	if err != nil {
		fail(r.Context(), h.logger, w, Wrap(op, err))
		return
	}

	if format == "csv" {
		var buf bytes.Buffer
		if err := export.Leaderboard(&buf, rows); err != nil {
			fail(r.Context(), h.logger, w, Wrap(op, err))
			return
		}
		writeCSV(w, bestenlisteFilename(f), buf.Bytes())
		return
	}
	out := make([]rowView, len(rows))
	for i := range rows {
		out[i] = newRowView(&rows[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleExport handles GET /export.csv.
func (h *ScoringHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	roster, err := h.deps.Athletes(r.Context(), "")
	if err != nil {
		fail(r.Context(), h.logger, w, Wrap(op, err))
		return
	}
	var buf bytes.Buffer
	if err := export.Roster(&buf, roster); err != nil {
		fail(r.Context(), h.logger, w, Wrap(op, err))
		return
	}
	writeCSV(w, "klv-daten.csv", buf.Bytes())
}

func bestenlisteFilename(f scoring.Filter) string {
	age := f.Age
	if age == "" {
		age = "alle"
	}
	gender := f.Gender.Code()
	if gender == "" {
		gender = "alle"
	}
	return fmt.Sprintf("bestenliste-%s-%s.csv", age, gender)
}

func writeCSV(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
