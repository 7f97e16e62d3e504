// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/reftools/matchvoice/internal/adapters/repository"
	"github.com/reftools/matchvoice/internal/domain/model"
)

// EventsHandler handles event listing and per-event requests.
type EventsHandler struct {
	deps         Dependencies
	maxListLimit int
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies, maxListLimit int) *EventsHandler {
	return &EventsHandler{deps: deps, maxListLimit: maxListLimit}
}

type eventListResponse struct {
	Events []model.MatchEvent `json:"events"`
	Count  int                `json:"count"`
}

type createEventRequest struct {
	MatchID     string `json:"match_id"`
	EventType   string `json:"event_type"`
	Minute      *int   `json:"minute,omitempty"`
	Team        string `json:"team,omitempty"`
	PlayerName  string `json:"player_name,omitempty"`
	Description string `json:"description,omitempty"`
}

// HandleEvents handles GET /events (listing) and POST /events (direct
// creation, bypassing voice extraction).
func (h *EventsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *EventsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("invalid JSON body"))
		return
	}

	team := model.Team(req.Team)
	switch team {
	case model.TeamHome, model.TeamAway, model.TeamUnknown:
	default:
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("team must be home, away, or empty"))
		return
	}

	ev, err := h.deps.CreateEvent(r.Context(), repository.NewEvent{
		MatchID:     req.MatchID,
		Type:        model.EventType(req.EventType),
		Minute:      req.Minute,
		Team:        team,
		PlayerName:  req.PlayerName,
		Description: req.Description,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (h *EventsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	f, err := h.parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	events, err := h.deps.ListEvents(r.Context(), f)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if events == nil {
		events = []model.MatchEvent{}
	}
	writeJSON(w, http.StatusOK, eventListResponse{Events: events, Count: len(events)})
}

// HandleEventByID handles GET /events/{id} and POST /events/{id}/sync.
func (h *EventsHandler) HandleEventByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/events/")
	if rest == "" {
		http.NotFound(w, r)
		return
	}

	if id, ok := strings.CutSuffix(rest, "/sync"); ok {
		if r.Method != http.MethodPost || id == "" {
			http.NotFound(w, r)
			return
		}
		ev, err := h.deps.SyncEvent(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ev)
		return
	}

	if r.Method != http.MethodGet || strings.Contains(rest, "/") {
		http.NotFound(w, r)
		return
	}
	ev, err := h.deps.GetEvent(r.Context(), rest)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *EventsHandler) parseFilter(r *http.Request) (repository.Filter, error) {
	q := r.URL.Query()
	f := repository.Filter{
		MatchID: q.Get("match_id"),
		Limit:   h.maxListLimit,
	}

	if state := q.Get("state"); state != "" {
		s := model.SyncState(state)
		switch s {
		case model.SyncPending, model.SyncSyncing, model.SyncSynced, model.SyncFailedFatal:
			f.State = s
		default:
			return repository.Filter{}, errors.New("invalid state filter")
		}
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return repository.Filter{}, errors.New("invalid limit; must be a positive integer")
		}
		if limit > h.maxListLimit {
			limit = h.maxListLimit
		}
		f.Limit = limit
	}

	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return repository.Filter{}, errors.New("invalid offset; must be a non-negative integer")
		}
		f.Offset = offset
	}

	return f, nil
}
