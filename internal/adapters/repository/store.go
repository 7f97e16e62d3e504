// Package repository defines the durable event store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/reftools/matchvoice/internal/domain/model"
)

// NewEvent carries the immutable fields for event creation. The store
// assigns the id, creation time, and initial sync state.
type NewEvent struct {
	MatchID     string
	Type        model.EventType
	Minute      *int
	Team        model.Team
	PlayerName  string
	Description string
}

// Filter narrows List results. Zero values mean "any".
type Filter struct {
	MatchID string
	State   model.SyncState
	Limit   int
	Offset  int
}

// AttemptMeta carries the mutable sync fields applied during a transition.
// Zero values leave the corresponding field untouched.
type AttemptMeta struct {
	RetryCount    int
	NextAttemptAt time.Time
	ClaimedAt     time.Time
	LastSyncError string
	RemoteEventID string
}

// Store provides durable access to match events and their sync state machine.
// All state changes are atomic compare-and-swap operations; once Create or
// Transition returns, the result survives process restart.
type Store interface {
	// Create persists a new event in the pending state.
	// Returns ErrValidation for an empty match id or an out-of-range minute.
	Create(ctx context.Context, ev NewEvent) (model.MatchEvent, error)

	// Get returns the event with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (model.MatchEvent, error)

	// List returns events ordered by creation, with stable pagination.
	List(ctx context.Context, f Filter) ([]model.MatchEvent, error)

	// Transition atomically moves an event from one sync state to another.
	// Returns ErrStateConflict if the event is not currently in from, or if
	// the state machine forbids the edge (terminal states reject everything).
	Transition(ctx context.Context, id string, from, to model.SyncState, meta AttemptMeta) (model.MatchEvent, error)

	// Due returns pending events whose next attempt time has elapsed.
	Due(ctx context.Context, now time.Time, limit int) ([]model.MatchEvent, error)

	// ReclaimStale resets events stuck in syncing longer than staleAfter
	// back to pending, and returns how many were reclaimed.
	ReclaimStale(ctx context.Context, now time.Time, staleAfter time.Duration) (int, error)

	// CountByState returns the number of stored events per sync state.
	CountByState(ctx context.Context) (map[model.SyncState]int, error)

	// Close releases the underlying storage.
	Close() error
}
