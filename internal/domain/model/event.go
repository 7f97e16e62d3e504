// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"time"
)

// EventType classifies a match event.
type EventType string

// Known event types, in matcher priority order.
const (
	EventGoal         EventType = "goal"
	EventCard         EventType = "card"
	EventSubstitution EventType = "substitution"
	EventPeriodStart  EventType = "period_start"
	EventPeriodEnd    EventType = "period_end"
	EventInjury       EventType = "injury"
	EventUnknown      EventType = "unknown"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventGoal, EventCard, EventSubstitution, EventPeriodStart, EventPeriodEnd, EventInjury, EventUnknown:
		return true
	}
	return false
}

// Team identifies which side of the match an event belongs to.
type Team string

const (
	TeamHome Team = "home"
	TeamAway Team = "away"
	// TeamUnknown is used when the utterance gave no team reference.
	TeamUnknown Team = ""
)

// SyncState is the delivery lifecycle stage of a stored event.
type SyncState string

const (
	SyncPending     SyncState = "pending"
	SyncSyncing     SyncState = "syncing"
	SyncSynced      SyncState = "synced"
	SyncFailedFatal SyncState = "failed_fatal"
)

// Terminal reports whether no further transitions are accepted from s.
func (s SyncState) Terminal() bool {
	return s == SyncSynced || s == SyncFailedFatal
}

// CanTransition reports whether the state machine allows s -> to.
func (s SyncState) CanTransition(to SyncState) bool {
	switch s {
	case SyncPending:
		return to == SyncSyncing
	case SyncSyncing:
		return to == SyncSynced || to == SyncPending || to == SyncFailedFatal
	default:
		// synced and failed_fatal are terminal
		return false
	}
}

// MinuteMin and MinuteMax bound valid match minutes (including extra time).
const (
	MinuteMin = 0
	MinuteMax = 130
)

// Utterance is one transcribed span of speech. It is never persisted;
// it exists only for the duration of an extraction pass.
type Utterance struct {
	Text          string
	MatchID       string
	Locale        string
	CapturedAt    time.Time
	STTConfidence float64
}

// CandidateEvent is an unconfirmed, scored event proposed by extraction.
type CandidateEvent struct {
	Type       EventType
	Minute     *int // nil when the utterance gave no minute reference
	Team       Team
	PlayerName string
	Confidence float64
	SourceText string
}

// MatchEvent is a persisted, confirmed event tied to a specific match.
// Identity fields (ID, MatchID, Type, Minute) are immutable after creation;
// only the sync fields below mutate, and only through the store.
type MatchEvent struct {
	ID          string    `json:"id"`
	MatchID     string    `json:"match_id"`
	Type        EventType `json:"event_type"`
	Minute      *int      `json:"minute,omitempty"`
	Team        Team      `json:"team,omitempty"`
	PlayerName  string    `json:"player_name,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`

	SyncState     SyncState `json:"sync_state"`
	RetryCount    int       `json:"retry_count"`
	NextAttemptAt time.Time `json:"next_attempt_at"`
	ClaimedAt     time.Time `json:"claimed_at,omitempty"`
	LastSyncError string    `json:"last_sync_error,omitempty"`
	RemoteEventID string    `json:"remote_event_id,omitempty"`
}

// SyncedToFOGIS reports whether the event reached the remote system.
func (e MatchEvent) SyncedToFOGIS() bool {
	return e.SyncState == SyncSynced
}

// MarshalJSON adds the derived synced_to_fogis flag and drops claimed_at
// while no worker holds a claim. omitempty does not skip a zero time.Time,
// so the claim timestamp needs explicit handling.
func (e MatchEvent) MarshalJSON() ([]byte, error) {
	type plain MatchEvent
	out := struct {
		plain
		ClaimedAt     *time.Time `json:"claimed_at,omitempty"`
		SyncedToFOGIS bool       `json:"synced_to_fogis"`
	}{
		plain:         plain(e),
		SyncedToFOGIS: e.SyncedToFOGIS(),
	}
	if !e.ClaimedAt.IsZero() {
		out.ClaimedAt = &e.ClaimedAt
	}
	return json.Marshal(out)
}
