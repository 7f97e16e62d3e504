package simulate

import "time"

// Config holds configuration for one simulation run.
type Config struct {
	BaseURL       string        // Base URL of the service
	MatchID       string        // Match to report against
	NumUtterances int           // Number of utterances to generate
	Workers       int           // Number of concurrent workers
	Timeout       time.Duration // HTTP request timeout
	NoiseRatio    float64       // Fraction of utterances without any event phrase
	LogFile       string        // Log file for simulation output
	Verbose       bool          // Enable verbose logging
}

// utterancePayload mirrors the POST /utterances request schema.
type utterancePayload struct {
	Text          string  `json:"text"`
	MatchID       string  `json:"match_id"`
	Locale        string  `json:"locale,omitempty"`
	CapturedAt    string  `json:"captured_at,omitempty"`
	STTConfidence float64 `json:"stt_confidence,omitempty"`
}

// acceptedEvent is the slice of the event fields the simulator inspects.
type acceptedEvent struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	SyncState string `json:"sync_state"`
}

// rejectedCandidate is a below-threshold candidate from the response.
type rejectedCandidate struct {
	EventType  string  `json:"event_type"`
	Confidence float64 `json:"confidence"`
}

// resultResponse mirrors the POST /utterances response schema.
type resultResponse struct {
	Accepted []acceptedEvent     `json:"accepted"`
	Rejected []rejectedCandidate `json:"rejected"`
}

// statsResponse mirrors the GET /stats response schema.
type statsResponse struct {
	Pending     int `json:"pending"`
	Syncing     int `json:"syncing"`
	Synced      int `json:"synced"`
	FailedFatal int `json:"failed_fatal"`
	Total       int `json:"total"`
}

// cycleResponse mirrors the POST /sync/run response schema.
type cycleResponse struct {
	Due       int `json:"due"`
	Claimed   int `json:"claimed"`
	Synced    int `json:"synced"`
	Retried   int `json:"retried"`
	Failed    int `json:"failed"`
	Reclaimed int `json:"reclaimed"`
}

// Stats holds simulation statistics.
type Stats struct {
	UtterancesGenerated int
	UtterancesSubmitted int
	EventsAccepted      int
	CandidatesRejected  int
	SubmitFailed        int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}
