// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/okian/klv/internal/adapters/repository"
	service "github.com/okian/klv/internal/app"
	"github.com/okian/klv/internal/domain/model"
	"github.com/okian/klv/internal/domain/scoring"
	"github.com/okian/klv/pkg/logger"
)

// Default write limiter settings.
const (
	defaultWriteRate  = 50
	defaultWriteBurst = 100
)

// AthleteDependencies covers roster reads and writes.
type AthleteDependencies interface {
	AddAthlete(ctx context.Context, in service.NewAthlete) (model.Athlete, error)
	DeleteAthlete(ctx context.Context, key string) error
	Athletes(ctx context.Context, riege string) ([]model.Athlete, error)
	Athlete(ctx context.Context, key string) (service.AthleteDetail, error)
	Riegen(ctx context.Context) ([]string, error)
	Cohorts(gender model.Gender) []string
}

// AttemptDependencies covers attempt recording and history.
type AttemptDependencies interface {
	RecordAttempt(ctx context.Context, in service.AttemptInput) (service.AttemptResult, error)
	ClearAttempt(ctx context.Context, key, field string) (model.Athlete, error)
	History(ctx context.Context, riege string, d model.Discipline) ([]service.HistoryEntry, error)
}

// ScoringDependencies covers reference values, points runs and leaderboards.
type ScoringDependencies interface {
	References(ctx context.Context) (scoring.References, error)
	CalculatePoints(ctx context.Context) (service.PointsResult, error)
	Bestenliste(ctx context.Context, f scoring.Filter) ([]scoring.Row, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	AthleteDependencies
	AttemptDependencies
	ScoringDependencies
	StatsProvider
}

// Option configures the Server.
type Option func(*Server)

// WithWriteLimit limits mutating requests to r per second with the given
// burst. A non-positive rate disables the limit.
func WithWriteLimit(r float64, burst int) Option {
	return func(s *Server) {
		if r <= 0 {
			s.writeLimiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.writeLimiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	athletesHandler *AthletesHandler
	attemptsHandler *AttemptsHandler
	scoringHandler  *ScoringHandler

	writeLimiter *rate.Limiter
	logger       logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		writeLimiter: rate.NewLimiter(defaultWriteRate, defaultWriteBurst),
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.athletesHandler = NewAthletesHandler(deps, s.logger)
	s.attemptsHandler = NewAttemptsHandler(deps, s.logger)
	s.scoringHandler = NewScoringHandler(deps, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	read := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(h, endpoint))
	}
	write := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(RateLimit(s.writeLimiter, h), endpoint))
	}

	read("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	read("GET /stats", "stats", s.statsHandler.HandleStats)

	read("GET /riegen", "riegen", s.athletesHandler.HandleRiegen)
	read("GET /cohorts", "cohorts", s.athletesHandler.HandleCohorts)
	read("GET /athletes", "athletes", s.athletesHandler.HandleList)
	write("POST /athletes", "athletes", s.athletesHandler.HandleCreate)
	read("GET /athletes/{key}", "athlete", s.athletesHandler.HandleGet)
	write("DELETE /athletes/{key}", "athlete", s.athletesHandler.HandleDelete)

	write("POST /athletes/{key}/attempts", "attempts", s.attemptsHandler.HandleRecord)
	write("DELETE /athletes/{key}/attempts/{field}", "attempts", s.attemptsHandler.HandleClear)
	read("GET /history", "history", s.attemptsHandler.HandleHistory)

	read("GET /references", "references", s.scoringHandler.HandleReferences)
	write("POST /points", "points", s.scoringHandler.HandlePoints)
	read("GET /bestenliste", "bestenliste", s.scoringHandler.HandleBestenliste)
	read("GET /export.csv", "export", s.scoringHandler.HandleExport)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail maps err to a status and error code. Server-side failures are logged
// since their detail never reaches the client log.
func fail(ctx context.Context, l logger.Logger, w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		l.Error(ctx, "request failed", logger.String("code", code), logger.Error(err))
	}
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, model.ErrInvalidAthlete),
		errors.Is(err, model.ErrUnknownGender),
		errors.Is(err, model.ErrUnknownDiscipline),
		errors.Is(err, model.ErrInvalidSlot):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrAttemptsComplete):
		return http.StatusConflict, "attempts_complete"
	case errors.Is(err, service.ErrNotImproved):
		return http.StatusConflict, "not_improved"
	case errors.Is(err, repository.ErrAlreadyExists), errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, repository.ErrUnavailable), errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
