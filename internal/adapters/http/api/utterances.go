// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/reftools/matchvoice/internal/domain/model"
)

// utteranceRequest mirrors the OpenAPI schema for POST /utterances.
type utteranceRequest struct {
	Text          string  `json:"text"`
	MatchID       string  `json:"match_id"`
	Locale        string  `json:"locale,omitempty"`
	CapturedAt    string  `json:"captured_at,omitempty"`
	STTConfidence float64 `json:"stt_confidence,omitempty"`
}

func (u utteranceRequest) validate() error {
	switch {
	case strings.TrimSpace(u.Text) == "":
		return errors.New("missing text")
	case strings.TrimSpace(u.MatchID) == "":
		return errors.New("missing match_id")
	}
	if u.CapturedAt != "" {
		if _, err := time.Parse(time.RFC3339, u.CapturedAt); err != nil {
			return errors.New("invalid captured_at; must be RFC3339")
		}
	}
	return nil
}

func (u utteranceRequest) toModel(defaultLocale string) model.Utterance {
	locale := u.Locale
	if locale == "" {
		locale = defaultLocale
	}
	capturedAt := time.Now().UTC()
	if u.CapturedAt != "" {
		// Validated above.
		capturedAt, _ = time.Parse(time.RFC3339, u.CapturedAt)
	}
	return model.Utterance{
		Text:          u.Text,
		MatchID:       u.MatchID,
		Locale:        locale,
		CapturedAt:    capturedAt,
		STTConfidence: u.STTConfidence,
	}
}

// UtterancesHandler handles utterance ingestion requests.
type UtterancesHandler struct {
	deps          Dependencies
	defaultLocale string
}

// NewUtterancesHandler creates a new utterances handler.
func NewUtterancesHandler(deps Dependencies, defaultLocale string) *UtterancesHandler {
	return &UtterancesHandler{deps: deps, defaultLocale: defaultLocale}
}

// HandlePostUtterance handles POST /utterances requests.
func (h *UtterancesHandler) HandlePostUtterance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req utteranceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	result, err := h.deps.HandleUtterance(r.Context(), req.toModel(h.defaultLocale))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
