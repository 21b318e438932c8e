package api

import (
	"encoding/json"
	"net/http"
	"strings"

	service "github.com/okian/klv/internal/app"
	"github.com/okian/klv/internal/domain/model"
	"github.com/okian/klv/pkg/logger"
)

// AthletesHandler serves the roster endpoints.
type AthletesHandler struct {
	deps   AthleteDependencies
	logger logger.Logger
}

// NewAthletesHandler creates a new roster handler.
func NewAthletesHandler(deps AthleteDependencies, l logger.Logger) *AthletesHandler {
	return &AthletesHandler{deps: deps, logger: l}
}

// createAthleteRequest mirrors the OpenAPI schema for POST /athletes.
type createAthleteRequest struct {
	Name      string `json:"name"`
	BirthYear int    `json:"birthYear"`
	Gender    string `json:"gender"`
	Riege     string `json:"riege"`
}

// HandleCreate handles POST /athletes.
func (h *AthletesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_athlete"
	var req createAthleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	g, err := model.ParseGender(req.Gender)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	a, err := h.deps.AddAthlete(r.Context(), service.NewAthlete{
		Name:      req.Name,
		BirthYear: req.BirthYear,
		Gender:    g,
		Riege:     req.Riege,
	})
	if err != nil {
		fail(r.Context(), h.logger, w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, newAthleteView(&a))
}

// HandleList handles GET /athletes?riege=.
func (h *AthletesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_athletes"
	roster, err := h.deps.Athletes(r.Context(), r.URL.Query().Get("riege"))
	if err != nil {
		fail(r.Context(), h.logger, w, Wrap(op, err))
		return
	}
	out := make([]athleteView, len(roster))
	for i := range roster {
		out[i] = newAthleteView(&roster[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /athletes/{key}.
func (h *AthletesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_athlete"
	d, err := h.deps.Athlete(r.Context(), r.PathValue("key"))
	if err != nil {
		fail(r.Context(), h.logger, w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newDetailView(&d))
}

// HandleDelete handles DELETE /athletes/{key}.
func (h *AthletesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_athlete"
	if err := h.deps.DeleteAthlete(r.Context(), r.PathValue("key")); err != nil {
		fail(r.Context(), h.logger, w, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRiegen handles GET /riegen.
func (h *AthletesHandler) HandleRiegen(w http.ResponseWriter, r *http.Request) {
	riegen, err := h.deps.Riegen(r.Context())
	if err != nil {
		fail(r.Context(), h.logger, w, Wrap("api.riegen", err))
		return
	}
	writeJSON(w, http.StatusOK, riegen)
}

// HandleCohorts handles GET /cohorts?gender=. An empty gender lists all.
func (h *AthletesHandler) HandleCohorts(w http.ResponseWriter, r *http.Request) {
	const op = "api.cohorts"
	g := model.GenderUnknown
	if raw := strings.TrimSpace(r.URL.Query().Get("gender")); raw != "" {
		var err error
		if g, err = model.ParseGender(raw); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
	}
	writeJSON(w, http.StatusOK, h.deps.Cohorts(g))
}
