package api

import (
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/klv/internal/app"
	"github.com/okian/klv/internal/domain/model"
	"github.com/okian/klv/pkg/logger"
)

// AttemptsHandler serves attempt recording and history.
type AttemptsHandler struct {
	deps   AttemptDependencies
	logger logger.Logger
}

// NewAttemptsHandler creates a new attempts handler.
func NewAttemptsHandler(deps AttemptDependencies, l logger.Logger) *AttemptsHandler {
	return &AttemptsHandler{deps: deps, logger: l}
}

// attemptRequest mirrors the OpenAPI schema for POST /athletes/{key}/attempts.
type attemptRequest struct {
	Discipline string   `json:"discipline"`
	Value      *float64 `json:"value"`
	Invalid    bool     `json:"invalid"`
	RequestID  string   `json:"requestId"`
}

func (a attemptRequest) validate() (model.Discipline, error) {
	d, err := model.ParseDiscipline(a.Discipline)
	if err != nil {
		return 0, err
	}
	if !a.Invalid && a.Value == nil {
		return 0, errors.New("missing value")
	}
	return d, nil
}

// HandleRecord handles POST /athletes/{key}/attempts.
func (h *AttemptsHandler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	const op = "api.record_attempt"
	var req attemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	d, err := req.validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	in := service.AttemptInput{
		AthleteKey: r.PathValue("key"),
		Discipline: d,
		Invalid:    req.Invalid,
		RequestID:  req.RequestID,
	}
	if req.Value != nil {
		in.Value = *req.Value
	}

	res, err := h.deps.RecordAttempt(r.Context(), in)
	if err != nil {
		fail(r.Context(), h.logger, w, Wrap(op, err))
		return
	}
	if res.Duplicate {
		writeJSON(w, http.StatusOK, attemptResponse{Duplicate: true})
		return
	}
	av := newAttemptView(res.Attempt)
	athlete := newAthleteView(&res.Athlete)
	writeJSON(w, http.StatusCreated, attemptResponse{Slot: res.Slot.Field(), Attempt: &av, Athlete: &athlete})
}

// HandleClear handles DELETE /athletes/{key}/attempts/{field}.
func (h *AttemptsHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	const op = "api.clear_attempt"
	a, err := h.deps.ClearAttempt(r.Context(), r.PathValue("key"), r.PathValue("field"))
	if err != nil {
		fail(r.Context(), h.logger, w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newAthleteView(&a))
}

// HandleHistory handles GET /history?riege=&discipline=.
func (h *AttemptsHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.history"
	q := r.URL.Query()
	d, err := model.ParseDiscipline(q.Get("discipline"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	entries, err := h.deps.History(r.Context(), q.Get("riege"), d)
	if err != nil {
		fail(r.Context(), h.logger, w, Wrap(op, err))
		return
	}
	out := make([]historyView, len(entries))
	for i, e := range entries {
		out[i] = historyView{AthleteKey: e.AthleteKey, Name: e.Name, Slot: e.Slot.Field(), Attempt: newAttemptView(e.Attempt)}
	}
	writeJSON(w, http.StatusOK, out)
}
