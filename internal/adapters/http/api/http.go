// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/reftools/matchvoice/internal/adapters/fogis"
	"github.com/reftools/matchvoice/internal/adapters/repository"
	"github.com/reftools/matchvoice/internal/adapters/syncer"
	"github.com/reftools/matchvoice/internal/app"
	"github.com/reftools/matchvoice/internal/domain/model"
	"github.com/reftools/matchvoice/internal/domain/normalize"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the application service.
type Dependencies interface {
	HandleUtterance(ctx context.Context, u model.Utterance) (app.Result, error)
	CreateEvent(ctx context.Context, ne repository.NewEvent) (model.MatchEvent, error)
	GetEvent(ctx context.Context, id string) (model.MatchEvent, error)
	ListEvents(ctx context.Context, f repository.Filter) ([]model.MatchEvent, error)
	SyncEvent(ctx context.Context, id string) (model.MatchEvent, error)
	GetMatch(ctx context.Context, matchID string) (fogis.Match, error)
	RunSyncCycle(ctx context.Context) (syncer.CycleStats, error)
	GetStats(ctx context.Context) (app.Stats, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	utterancesHandler *UtterancesHandler
	eventsHandler     *EventsHandler
	matchesHandler    *MatchesHandler
	syncHandler       *SyncHandler
	statsHandler      *StatsHandler
	healthHandler     *HealthHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := serverConfig{
		defaultLocale: "sv",
		maxListLimit:  200,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		utterancesHandler: NewUtterancesHandler(deps, cfg.defaultLocale),
		eventsHandler:     NewEventsHandler(deps, cfg.maxListLimit),
		matchesHandler:    NewMatchesHandler(deps),
		syncHandler:       NewSyncHandler(deps),
		statsHandler:      NewStatsHandler(deps),
		healthHandler:     NewHealthHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/utterances", MetricsMiddleware(s.utterancesHandler.HandlePostUtterance, "utterances"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandleEvents, "events"))
	mux.HandleFunc("/events/", MetricsMiddleware(s.eventsHandler.HandleEventByID, "event"))
	mux.HandleFunc("/matches/", MetricsMiddleware(s.matchesHandler.HandleMatchByID, "match"))
	mux.HandleFunc("/sync/run", MetricsMiddleware(s.syncHandler.HandleRunCycle, "sync_run"))
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

// writeDomainError translates service errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidUtterance),
		errors.Is(err, normalize.ErrUnsupportedLocale),
		errors.Is(err, repository.ErrValidation):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, fogis.ErrMatchNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrStateConflict):
		writeError(w, http.StatusConflict, "state_conflict", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
