package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/reftools/matchvoice/internal/domain/model"
	"github.com/reftools/matchvoice/pkg/metrics"
)

var (
	bucketEvents = []byte("events")
	bucketIDs    = []byte("ids")
)

// BoltStore implements Store on a single bbolt file. Events live in the
// events bucket keyed by a monotonic sequence number, which preserves
// creation order for List; the ids bucket maps event id to sequence key.
// Every Create and Transition commits before returning.
type BoltStore struct {
	db    *bolt.DB
	clock func() time.Time
}

// NewBoltStore opens (or creates) the store file at path.
func NewBoltStore(path string, opts ...BoltOption) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open event store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketEvents); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketIDs)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init event store buckets: %w", err)
	}

	s := &BoltStore{
		db:    db,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create persists a new event in the pending state.
func (s *BoltStore) Create(_ context.Context, ev NewEvent) (model.MatchEvent, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if ev.MatchID == "" {
		return model.MatchEvent{}, fmt.Errorf("empty match id: %w", ErrValidation)
	}
	if !ev.Type.Valid() {
		return model.MatchEvent{}, fmt.Errorf("unknown event type %q: %w", ev.Type, ErrValidation)
	}
	if ev.Minute != nil && (*ev.Minute < model.MinuteMin || *ev.Minute > model.MinuteMax) {
		return model.MatchEvent{}, fmt.Errorf("minute %d out of range: %w", *ev.Minute, ErrValidation)
	}

	now := s.clock().UTC()
	event := model.MatchEvent{
		ID:            uuid.NewString(),
		MatchID:       ev.MatchID,
		Type:          ev.Type,
		Minute:        ev.Minute,
		Team:          ev.Team,
		PlayerName:    ev.PlayerName,
		Description:   ev.Description,
		CreatedAt:     now,
		SyncState:     model.SyncPending,
		NextAttemptAt: now,
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		events := tx.Bucket(bucketEvents)
		seq, err := events.NextSequence()
		if err != nil {
			return err
		}
		key := seqKey(seq)
		if err := putEvent(events, key, event); err != nil {
			return err
		}
		return tx.Bucket(bucketIDs).Put([]byte(event.ID), key)
	})
	if err != nil {
		return model.MatchEvent{}, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

// Get returns the event with the given id.
func (s *BoltStore) Get(_ context.Context, id string) (model.MatchEvent, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	var event model.MatchEvent
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		event, _, err = getByID(tx, id)
		return err
	})
	if err != nil {
		return model.MatchEvent{}, err
	}
	return event, nil
}

// List returns events in creation order with stable pagination.
func (s *BoltStore) List(_ context.Context, f Filter) ([]model.MatchEvent, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	var out []model.MatchEvent
	skipped := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketEvents).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var ev model.MatchEvent
			if err := json.Unmarshal(v, &ev); err != nil {
				return fmt.Errorf("decode event: %w", err)
			}
			if f.MatchID != "" && ev.MatchID != f.MatchID {
				continue
			}
			if f.State != "" && ev.SyncState != f.State {
				continue
			}
			if skipped < f.Offset {
				skipped++
				continue
			}
			out = append(out, ev)
			if f.Limit > 0 && len(out) >= f.Limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Transition performs the atomic compare-and-swap on the sync state.
func (s *BoltStore) Transition(_ context.Context, id string, from, to model.SyncState, meta AttemptMeta) (model.MatchEvent, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	var event model.MatchEvent
	err := s.db.Update(func(tx *bolt.Tx) error {
		ev, key, err := getByID(tx, id)
		if err != nil {
			return err
		}
		if ev.SyncState != from {
			return fmt.Errorf("event %s is %s, expected %s: %w", id, ev.SyncState, from, ErrStateConflict)
		}
		if !from.CanTransition(to) {
			return fmt.Errorf("transition %s -> %s not allowed: %w", from, to, ErrStateConflict)
		}

		ev.SyncState = to
		applyMeta(&ev, to, meta)

		if err := putEvent(tx.Bucket(bucketEvents), key, ev); err != nil {
			return err
		}
		event = ev
		return nil
	})
	if err != nil {
		return model.MatchEvent{}, err
	}
	return event, nil
}

// applyMeta copies the mutable sync fields onto the event. Retry count may
// only grow; the claim timestamp lives only while the event is syncing.
func applyMeta(ev *model.MatchEvent, to model.SyncState, meta AttemptMeta) {
	if meta.RetryCount > ev.RetryCount {
		ev.RetryCount = meta.RetryCount
	}
	if !meta.NextAttemptAt.IsZero() {
		ev.NextAttemptAt = meta.NextAttemptAt.UTC()
	}
	if meta.LastSyncError != "" {
		ev.LastSyncError = meta.LastSyncError
	}
	switch to {
	case model.SyncSyncing:
		ev.ClaimedAt = meta.ClaimedAt.UTC()
	case model.SyncSynced:
		ev.ClaimedAt = time.Time{}
		ev.LastSyncError = ""
		ev.RemoteEventID = meta.RemoteEventID
	default:
		ev.ClaimedAt = time.Time{}
	}
}

// Due returns pending events whose next attempt time has elapsed.
func (s *BoltStore) Due(_ context.Context, now time.Time, limit int) ([]model.MatchEvent, error) {
	var out []model.MatchEvent
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketEvents).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var ev model.MatchEvent
			if err := json.Unmarshal(v, &ev); err != nil {
				return fmt.Errorf("decode event: %w", err)
			}
			if ev.SyncState != model.SyncPending || ev.NextAttemptAt.After(now) {
				continue
			}
			out = append(out, ev)
			if limit > 0 && len(out) >= limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReclaimStale resets events stuck in syncing back to pending. Covers
// crashes that left a claim unresolved.
func (s *BoltStore) ReclaimStale(_ context.Context, now time.Time, staleAfter time.Duration) (int, error) {
	reclaimed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		events := tx.Bucket(bucketEvents)
		c := events.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var ev model.MatchEvent
			if err := json.Unmarshal(v, &ev); err != nil {
				return fmt.Errorf("decode event: %w", err)
			}
			if ev.SyncState != model.SyncSyncing {
				continue
			}
			if ev.ClaimedAt.IsZero() || now.Sub(ev.ClaimedAt) < staleAfter {
				continue
			}
			ev.SyncState = model.SyncPending
			ev.ClaimedAt = time.Time{}
			ev.NextAttemptAt = now.UTC()
			if err := putEvent(events, k, ev); err != nil {
				return err
			}
			reclaimed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return reclaimed, nil
}

// CountByState returns the number of events per sync state.
func (s *BoltStore) CountByState(_ context.Context) (map[model.SyncState]int, error) {
	counts := map[model.SyncState]int{
		model.SyncPending:     0,
		model.SyncSyncing:     0,
		model.SyncSynced:      0,
		model.SyncFailedFatal: 0,
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEvents).ForEach(func(_, v []byte) error {
			var ev model.MatchEvent
			if err := json.Unmarshal(v, &ev); err != nil {
				return fmt.Errorf("decode event: %w", err)
			}
			counts[ev.SyncState]++
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// Close releases the underlying bolt file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func getByID(tx *bolt.Tx, id string) (model.MatchEvent, []byte, error) {
	key := tx.Bucket(bucketIDs).Get([]byte(id))
	if key == nil {
		return model.MatchEvent{}, nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	raw := tx.Bucket(bucketEvents).Get(key)
	if raw == nil {
		return model.MatchEvent{}, nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	var ev model.MatchEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return model.MatchEvent{}, nil, fmt.Errorf("decode event: %w", err)
	}
	return ev, key, nil
}

func putEvent(b *bolt.Bucket, key []byte, ev model.MatchEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return b.Put(key, raw)
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
