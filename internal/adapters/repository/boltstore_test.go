package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/reftools/matchvoice/internal/domain/model"
)

func openTestStore(t *testing.T, opts ...BoltOption) (*BoltStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.db")
	s, err := NewBoltStore(path, opts...)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func intPtr(v int) *int { return &v }

func TestBoltStoreCreate(t *testing.T) {
	Convey("Given an open store", t, func() {
		now := time.Date(2026, 4, 12, 15, 0, 0, 0, time.UTC)
		s, _ := openTestStore(t, WithClock(func() time.Time { return now }))
		ctx := context.Background()

		Convey("When creating a valid event", func() {
			ev, err := s.Create(ctx, NewEvent{
				MatchID:    "match-1",
				Type:       model.EventGoal,
				Minute:     intPtr(15),
				Team:       model.TeamHome,
				PlayerName: "Erik Karlsson",
			})

			Convey("Then it starts pending and immediately due", func() {
				So(err, ShouldBeNil)
				So(ev.ID, ShouldNotBeEmpty)
				So(ev.SyncState, ShouldEqual, model.SyncPending)
				So(ev.RetryCount, ShouldEqual, 0)
				So(ev.CreatedAt, ShouldEqual, now)
				So(ev.NextAttemptAt, ShouldEqual, now)
			})
		})

		Convey("When the match id is empty", func() {
			_, err := s.Create(ctx, NewEvent{Type: model.EventGoal})

			Convey("Then creation fails with a validation error", func() {
				So(errors.Is(err, ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When the minute is out of range", func() {
			_, err := s.Create(ctx, NewEvent{
				MatchID: "match-1",
				Type:    model.EventGoal,
				Minute:  intPtr(131),
			})

			Convey("Then creation fails with a validation error", func() {
				So(errors.Is(err, ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When the event type is unknown", func() {
			_, err := s.Create(ctx, NewEvent{MatchID: "match-1", Type: "corner"})

			Convey("Then creation fails with a validation error", func() {
				So(errors.Is(err, ErrValidation), ShouldBeTrue)
			})
		})
	})
}

func TestBoltStoreTransition(t *testing.T) {
	Convey("Given a store holding one pending event", t, func() {
		now := time.Date(2026, 4, 12, 15, 0, 0, 0, time.UTC)
		s, _ := openTestStore(t, WithClock(func() time.Time { return now }))
		ctx := context.Background()

		ev, err := s.Create(ctx, NewEvent{MatchID: "match-1", Type: model.EventGoal})
		So(err, ShouldBeNil)

		Convey("When claiming it for sync", func() {
			claimed, err := s.Transition(ctx, ev.ID, model.SyncPending, model.SyncSyncing, AttemptMeta{ClaimedAt: now})

			Convey("Then the claim is recorded", func() {
				So(err, ShouldBeNil)
				So(claimed.SyncState, ShouldEqual, model.SyncSyncing)
				So(claimed.ClaimedAt, ShouldEqual, now)
			})

			Convey("And a second claim loses the race", func() {
				_, err := s.Transition(ctx, ev.ID, model.SyncPending, model.SyncSyncing, AttemptMeta{ClaimedAt: now})
				So(errors.Is(err, ErrStateConflict), ShouldBeTrue)
			})

			Convey("And acknowledging clears the claim and error fields", func() {
				synced, err := s.Transition(ctx, ev.ID, model.SyncSyncing, model.SyncSynced, AttemptMeta{RemoteEventID: "fogis-42"})
				So(err, ShouldBeNil)
				So(synced.SyncState, ShouldEqual, model.SyncSynced)
				So(synced.RemoteEventID, ShouldEqual, "fogis-42")
				So(synced.ClaimedAt.IsZero(), ShouldBeTrue)
				So(synced.LastSyncError, ShouldBeEmpty)
			})

			Convey("And releasing back to pending keeps the retry bookkeeping", func() {
				next := now.Add(2 * time.Second)
				released, err := s.Transition(ctx, ev.ID, model.SyncSyncing, model.SyncPending, AttemptMeta{
					RetryCount:    1,
					NextAttemptAt: next,
					LastSyncError: "upstream returned 503",
				})
				So(err, ShouldBeNil)
				So(released.SyncState, ShouldEqual, model.SyncPending)
				So(released.RetryCount, ShouldEqual, 1)
				So(released.NextAttemptAt, ShouldEqual, next)
				So(released.LastSyncError, ShouldEqual, "upstream returned 503")
				So(released.ClaimedAt.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When skipping the syncing state entirely", func() {
			_, err := s.Transition(ctx, ev.ID, model.SyncPending, model.SyncSynced, AttemptMeta{})

			Convey("Then the edge is rejected", func() {
				So(errors.Is(err, ErrStateConflict), ShouldBeTrue)
			})
		})

		Convey("When the event reached a terminal state", func() {
			_, err := s.Transition(ctx, ev.ID, model.SyncPending, model.SyncSyncing, AttemptMeta{ClaimedAt: now})
			So(err, ShouldBeNil)
			_, err = s.Transition(ctx, ev.ID, model.SyncSyncing, model.SyncFailedFatal, AttemptMeta{LastSyncError: "rejected"})
			So(err, ShouldBeNil)

			Convey("Then no further transition is possible", func() {
				_, err := s.Transition(ctx, ev.ID, model.SyncFailedFatal, model.SyncPending, AttemptMeta{})
				So(errors.Is(err, ErrStateConflict), ShouldBeTrue)
			})
		})

		Convey("When the event id is unknown", func() {
			_, err := s.Transition(ctx, "no-such-id", model.SyncPending, model.SyncSyncing, AttemptMeta{})

			Convey("Then the store reports not found", func() {
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a transition reports a smaller retry count", func() {
			_, err := s.Transition(ctx, ev.ID, model.SyncPending, model.SyncSyncing, AttemptMeta{ClaimedAt: now})
			So(err, ShouldBeNil)
			_, err = s.Transition(ctx, ev.ID, model.SyncSyncing, model.SyncPending, AttemptMeta{RetryCount: 3})
			So(err, ShouldBeNil)
			_, err = s.Transition(ctx, ev.ID, model.SyncPending, model.SyncSyncing, AttemptMeta{ClaimedAt: now})
			So(err, ShouldBeNil)
			got, err := s.Transition(ctx, ev.ID, model.SyncSyncing, model.SyncPending, AttemptMeta{RetryCount: 1})

			Convey("Then the count never decreases", func() {
				So(err, ShouldBeNil)
				So(got.RetryCount, ShouldEqual, 3)
			})
		})
	})
}

func TestBoltStoreDurability(t *testing.T) {
	Convey("Given a store with a synced and a pending event", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "events.db")
		s, err := NewBoltStore(path)
		So(err, ShouldBeNil)

		first, err := s.Create(ctx, NewEvent{MatchID: "match-1", Type: model.EventGoal})
		So(err, ShouldBeNil)
		second, err := s.Create(ctx, NewEvent{MatchID: "match-1", Type: model.EventCard})
		So(err, ShouldBeNil)

		_, err = s.Transition(ctx, first.ID, model.SyncPending, model.SyncSyncing, AttemptMeta{ClaimedAt: time.Now()})
		So(err, ShouldBeNil)
		_, err = s.Transition(ctx, first.ID, model.SyncSyncing, model.SyncSynced, AttemptMeta{RemoteEventID: "fogis-7"})
		So(err, ShouldBeNil)

		Convey("When the store is closed and reopened", func() {
			So(s.Close(), ShouldBeNil)
			reopened, err := NewBoltStore(path)
			So(err, ShouldBeNil)
			defer reopened.Close()

			Convey("Then both events survive with their state intact", func() {
				got, err := reopened.Get(ctx, first.ID)
				So(err, ShouldBeNil)
				So(got.SyncState, ShouldEqual, model.SyncSynced)
				So(got.RemoteEventID, ShouldEqual, "fogis-7")

				got, err = reopened.Get(ctx, second.ID)
				So(err, ShouldBeNil)
				So(got.SyncState, ShouldEqual, model.SyncPending)
			})
		})
	})
}

func TestBoltStoreList(t *testing.T) {
	Convey("Given a store with events across two matches", t, func() {
		ctx := context.Background()
		s, _ := openTestStore(t)

		var created []model.MatchEvent
		for i := 0; i < 5; i++ {
			matchID := "match-a"
			if i%2 == 1 {
				matchID = "match-b"
			}
			ev, err := s.Create(ctx, NewEvent{MatchID: matchID, Type: model.EventGoal, Minute: intPtr(i + 1)})
			So(err, ShouldBeNil)
			created = append(created, ev)
		}

		Convey("When listing without a filter", func() {
			got, err := s.List(ctx, Filter{})

			Convey("Then all events come back in creation order", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 5)
				for i, ev := range got {
					So(ev.ID, ShouldEqual, created[i].ID)
				}
			})
		})

		Convey("When filtering by match", func() {
			got, err := s.List(ctx, Filter{MatchID: "match-b"})

			Convey("Then only that match's events come back", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 2)
				for _, ev := range got {
					So(ev.MatchID, ShouldEqual, "match-b")
				}
			})
		})

		Convey("When paginating", func() {
			page1, err := s.List(ctx, Filter{Limit: 2})
			So(err, ShouldBeNil)
			page2, err := s.List(ctx, Filter{Limit: 2, Offset: 2})
			So(err, ShouldBeNil)

			Convey("Then pages are disjoint and ordered", func() {
				So(page1, ShouldHaveLength, 2)
				So(page2, ShouldHaveLength, 2)
				So(page1[0].ID, ShouldEqual, created[0].ID)
				So(page1[1].ID, ShouldEqual, created[1].ID)
				So(page2[0].ID, ShouldEqual, created[2].ID)
				So(page2[1].ID, ShouldEqual, created[3].ID)
			})
		})

		Convey("When filtering by sync state", func() {
			_, err := s.Transition(ctx, created[0].ID, model.SyncPending, model.SyncSyncing, AttemptMeta{ClaimedAt: time.Now()})
			So(err, ShouldBeNil)

			got, err := s.List(ctx, Filter{State: model.SyncSyncing})

			Convey("Then only matching events come back", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].ID, ShouldEqual, created[0].ID)
			})
		})
	})
}

func TestBoltStoreDue(t *testing.T) {
	Convey("Given events with staggered next attempt times", t, func() {
		ctx := context.Background()
		base := time.Date(2026, 4, 12, 15, 0, 0, 0, time.UTC)
		current := base
		s, _ := openTestStore(t, WithClock(func() time.Time { return current }))

		early, err := s.Create(ctx, NewEvent{MatchID: "match-1", Type: model.EventGoal})
		So(err, ShouldBeNil)

		current = base.Add(time.Minute)
		late, err := s.Create(ctx, NewEvent{MatchID: "match-1", Type: model.EventCard})
		So(err, ShouldBeNil)

		Convey("When asking for due events between the two", func() {
			got, err := s.Due(ctx, base.Add(30*time.Second), 10)

			Convey("Then only the earlier event is due", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].ID, ShouldEqual, early.ID)
			})
		})

		Convey("When both are due", func() {
			got, err := s.Due(ctx, base.Add(time.Hour), 10)

			Convey("Then both come back in creation order", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 2)
				So(got[0].ID, ShouldEqual, early.ID)
				So(got[1].ID, ShouldEqual, late.ID)
			})
		})

		Convey("When the limit is smaller than the backlog", func() {
			got, err := s.Due(ctx, base.Add(time.Hour), 1)

			Convey("Then the oldest event wins", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].ID, ShouldEqual, early.ID)
			})
		})

		Convey("When an event is syncing", func() {
			_, err := s.Transition(ctx, early.ID, model.SyncPending, model.SyncSyncing, AttemptMeta{ClaimedAt: current})
			So(err, ShouldBeNil)

			got, err := s.Due(ctx, base.Add(time.Hour), 10)

			Convey("Then it is excluded from the due set", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].ID, ShouldEqual, late.ID)
			})
		})
	})
}

func TestBoltStoreReclaimStale(t *testing.T) {
	Convey("Given one fresh and one stale claim", t, func() {
		ctx := context.Background()
		base := time.Date(2026, 4, 12, 15, 0, 0, 0, time.UTC)
		s, _ := openTestStore(t, WithClock(func() time.Time { return base }))

		stale, err := s.Create(ctx, NewEvent{MatchID: "match-1", Type: model.EventGoal})
		So(err, ShouldBeNil)
		fresh, err := s.Create(ctx, NewEvent{MatchID: "match-1", Type: model.EventCard})
		So(err, ShouldBeNil)

		_, err = s.Transition(ctx, stale.ID, model.SyncPending, model.SyncSyncing, AttemptMeta{ClaimedAt: base})
		So(err, ShouldBeNil)
		_, err = s.Transition(ctx, fresh.ID, model.SyncPending, model.SyncSyncing, AttemptMeta{ClaimedAt: base.Add(100 * time.Second)})
		So(err, ShouldBeNil)

		Convey("When reclaiming with a two minute threshold", func() {
			now := base.Add(130 * time.Second)
			n, err := s.ReclaimStale(ctx, now, 2*time.Minute)

			Convey("Then only the stale claim is reset", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)

				got, err := s.Get(ctx, stale.ID)
				So(err, ShouldBeNil)
				So(got.SyncState, ShouldEqual, model.SyncPending)
				So(got.ClaimedAt.IsZero(), ShouldBeTrue)
				So(got.NextAttemptAt, ShouldEqual, now)

				got, err = s.Get(ctx, fresh.ID)
				So(err, ShouldBeNil)
				So(got.SyncState, ShouldEqual, model.SyncSyncing)
			})
		})
	})
}

func TestBoltStoreCountByState(t *testing.T) {
	Convey("Given events spread across states", t, func() {
		ctx := context.Background()
		s, _ := openTestStore(t)

		a, err := s.Create(ctx, NewEvent{MatchID: "match-1", Type: model.EventGoal})
		So(err, ShouldBeNil)
		_, err = s.Create(ctx, NewEvent{MatchID: "match-1", Type: model.EventCard})
		So(err, ShouldBeNil)

		_, err = s.Transition(ctx, a.ID, model.SyncPending, model.SyncSyncing, AttemptMeta{ClaimedAt: time.Now()})
		So(err, ShouldBeNil)
		_, err = s.Transition(ctx, a.ID, model.SyncSyncing, model.SyncSynced, AttemptMeta{RemoteEventID: "fogis-1"})
		So(err, ShouldBeNil)

		Convey("When counting by state", func() {
			counts, err := s.CountByState(ctx)

			Convey("Then every state is reported", func() {
				So(err, ShouldBeNil)
				So(counts[model.SyncPending], ShouldEqual, 1)
				So(counts[model.SyncSyncing], ShouldEqual, 0)
				So(counts[model.SyncSynced], ShouldEqual, 1)
				So(counts[model.SyncFailedFatal], ShouldEqual, 0)
			})
		})
	})
}
