package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/reftools/matchvoice/internal/adapters/fogis"
	"github.com/reftools/matchvoice/internal/adapters/repository"
	"github.com/reftools/matchvoice/internal/adapters/roster"
	"github.com/reftools/matchvoice/internal/adapters/syncer"
	"github.com/reftools/matchvoice/internal/domain/extract"
	"github.com/reftools/matchvoice/internal/domain/model"
	"github.com/reftools/matchvoice/internal/domain/normalize"
)

type fakeRosters struct {
	rosters roster.Rosters
	err     error
}

func (f *fakeRosters) Rosters(context.Context, string) (roster.Rosters, error) {
	if f.err != nil {
		return roster.Rosters{}, f.err
	}
	return f.rosters, nil
}

func (f *fakeRosters) Match(_ context.Context, matchID string) (fogis.Match, error) {
	if f.err != nil {
		return fogis.Match{}, f.err
	}
	return fogis.Match{ID: matchID, HomeTeam: "Hammarby IF", AwayTeam: "AIK"}, nil
}

type fakeDeliverer struct {
	err     error
	remote  string
	submits int
}

func (f *fakeDeliverer) Submit(context.Context, string, model.MatchEvent) (fogis.Ack, error) {
	f.submits++
	if f.err != nil {
		return fogis.Ack{}, f.err
	}
	return fogis.Ack{RemoteEventID: f.remote}, nil
}

func newTestService(t *testing.T, deliverer *fakeDeliverer, opts ...Option) (*Service, repository.Store) {
	t.Helper()
	store, err := repository.NewBoltStore(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	rosters := &fakeRosters{rosters: roster.Rosters{
		Home: []string{"Erik Karlsson", "Johan Berg"},
		Away: []string{"Marcus Lindgren"},
	}}
	mgr := syncer.New(store, deliverer)
	svc := New(store, normalize.New(), extract.New(), rosters, mgr, opts...)
	return svc, store
}

func swedishUtterance(text string) model.Utterance {
	return model.Utterance{
		Text:       text,
		MatchID:    "match-1",
		Locale:     "sv",
		CapturedAt: time.Date(2026, 4, 12, 15, 0, 0, 0, time.UTC),
	}
}

func TestHandleUtterance(t *testing.T) {
	Convey("Given a pipeline with a Swedish roster", t, func() {
		ctx := context.Background()
		svc, store := newTestService(t, &fakeDeliverer{remote: "fogis-1"})

		Convey("When handling a clear goal utterance", func() {
			result, err := svc.HandleUtterance(ctx, swedishUtterance("Mål av Erik Karlsson i femtonde minuten"))

			Convey("Then one confident goal event is persisted", func() {
				So(err, ShouldBeNil)
				So(result.Accepted, ShouldHaveLength, 1)
				So(result.Rejected, ShouldBeEmpty)

				ev := result.Accepted[0]
				So(ev.Type, ShouldEqual, model.EventGoal)
				So(ev.PlayerName, ShouldEqual, "Erik Karlsson")
				So(ev.Team, ShouldEqual, model.TeamHome)
				So(ev.Minute, ShouldNotBeNil)
				So(*ev.Minute, ShouldEqual, 15)
				So(ev.SyncState, ShouldEqual, model.SyncPending)

				stored, err := store.Get(ctx, ev.ID)
				So(err, ShouldBeNil)
				So(stored.ID, ShouldEqual, ev.ID)
			})
		})

		Convey("When the utterance contains no event keywords", func() {
			result, err := svc.HandleUtterance(ctx, swedishUtterance("det regnar lite nu"))

			Convey("Then nothing is persisted", func() {
				So(err, ShouldBeNil)
				So(result.Accepted, ShouldBeEmpty)
				So(result.Rejected, ShouldBeEmpty)
			})
		})

		Convey("When the text is empty", func() {
			_, err := svc.HandleUtterance(ctx, swedishUtterance(""))

			Convey("Then the utterance is rejected as invalid", func() {
				So(errors.Is(err, ErrInvalidUtterance), ShouldBeTrue)
			})
		})

		Convey("When the match id is missing", func() {
			u := swedishUtterance("mål")
			u.MatchID = ""
			_, err := svc.HandleUtterance(ctx, u)

			Convey("Then the utterance is rejected as invalid", func() {
				So(errors.Is(err, ErrInvalidUtterance), ShouldBeTrue)
			})
		})

		Convey("When the locale is unsupported", func() {
			u := swedishUtterance("tor av noen")
			u.Locale = "no"
			_, err := svc.HandleUtterance(ctx, u)

			Convey("Then the locale error surfaces", func() {
				So(errors.Is(err, normalize.ErrUnsupportedLocale), ShouldBeTrue)
			})
		})
	})
}

func TestHandleUtteranceThreshold(t *testing.T) {
	Convey("Given a pipeline with a high confidence threshold", t, func() {
		ctx := context.Background()
		svc, _ := newTestService(t, &fakeDeliverer{}, WithAcceptThreshold(0.95))

		Convey("When a moderately confident candidate arrives", func() {
			// Goal keyword with a minute but no resolvable player lands
			// below 0.95.
			result, err := svc.HandleUtterance(ctx, swedishUtterance("mål i femtonde minuten"))

			Convey("Then it is reported as rejected, not persisted", func() {
				So(err, ShouldBeNil)
				So(result.Accepted, ShouldBeEmpty)
				So(result.Rejected, ShouldHaveLength, 1)
				So(result.Rejected[0].Type, ShouldEqual, model.EventGoal)
				So(result.Rejected[0].Confidence, ShouldBeLessThan, 0.95)
			})
		})
	})
}

func TestHandleUtteranceUnknownMatch(t *testing.T) {
	Convey("Given a roster provider that cannot find the match", t, func() {
		ctx := context.Background()
		store, err := repository.NewBoltStore(filepath.Join(t.TempDir(), "events.db"))
		So(err, ShouldBeNil)
		defer store.Close()

		rosters := &fakeRosters{err: fogis.ErrMatchNotFound}
		svc := New(store, normalize.New(), extract.New(), rosters, syncer.New(store, &fakeDeliverer{}))

		Convey("When handling an utterance for that match", func() {
			_, err := svc.HandleUtterance(ctx, swedishUtterance("mål av erik karlsson"))

			Convey("Then the not found error surfaces", func() {
				So(errors.Is(err, fogis.ErrMatchNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestCreateEvent(t *testing.T) {
	Convey("Given the service accepts manual event reports", t, func() {
		ctx := context.Background()
		svc, store := newTestService(t, &fakeDeliverer{})

		Convey("When creating a valid event directly", func() {
			minute := 67
			ev, err := svc.CreateEvent(ctx, repository.NewEvent{
				MatchID:     "match-1",
				Type:        model.EventCard,
				Minute:      &minute,
				Team:        model.TeamAway,
				PlayerName:  "Marcus Lindgren",
				Description: "gult kort",
			})

			Convey("Then it is persisted as pending", func() {
				So(err, ShouldBeNil)
				So(ev.Type, ShouldEqual, model.EventCard)
				So(ev.SyncState, ShouldEqual, model.SyncPending)

				stored, err := store.Get(ctx, ev.ID)
				So(err, ShouldBeNil)
				So(stored.PlayerName, ShouldEqual, "Marcus Lindgren")
			})
		})

		Convey("When the event type is unknown", func() {
			_, err := svc.CreateEvent(ctx, repository.NewEvent{
				MatchID: "match-1",
				Type:    model.EventType("corner"),
			})

			Convey("Then validation rejects it", func() {
				So(errors.Is(err, repository.ErrValidation), ShouldBeTrue)
			})
		})
	})
}

func TestGetMatch(t *testing.T) {
	Convey("Given a reachable federation", t, func() {
		ctx := context.Background()
		svc, _ := newTestService(t, &fakeDeliverer{})

		Convey("When fetching a fixture", func() {
			match, err := svc.GetMatch(ctx, "match-1")

			Convey("Then the fixture details come back", func() {
				So(err, ShouldBeNil)
				So(match.ID, ShouldEqual, "match-1")
				So(match.HomeTeam, ShouldEqual, "Hammarby IF")
			})
		})
	})
}

func TestSyncEvent(t *testing.T) {
	Convey("Given a persisted pending event", t, func() {
		ctx := context.Background()
		deliverer := &fakeDeliverer{remote: "fogis-77"}
		svc, store := newTestService(t, deliverer)

		result, err := svc.HandleUtterance(ctx, swedishUtterance("Mål av Erik Karlsson i femtonde minuten"))
		So(err, ShouldBeNil)
		So(result.Accepted, ShouldHaveLength, 1)
		id := result.Accepted[0].ID

		Convey("When syncing it on demand", func() {
			ev, err := svc.SyncEvent(ctx, id)

			Convey("Then the event is delivered and acknowledged", func() {
				So(err, ShouldBeNil)
				So(ev.SyncState, ShouldEqual, model.SyncSynced)
				So(ev.RemoteEventID, ShouldEqual, "fogis-77")
				So(deliverer.submits, ShouldEqual, 1)
			})

			Convey("And a second sync of the same event conflicts", func() {
				_, err := svc.SyncEvent(ctx, id)
				So(errors.Is(err, repository.ErrStateConflict), ShouldBeTrue)
			})
		})

		Convey("When syncing an unknown id", func() {
			_, err := svc.SyncEvent(ctx, "no-such-id")

			Convey("Then the store reports not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the store is queried directly", func() {
			got, err := store.Get(ctx, id)
			So(err, ShouldBeNil)
			So(got.SyncState, ShouldEqual, model.SyncPending)
		})
	})
}

func TestGetStats(t *testing.T) {
	Convey("Given events in several states", t, func() {
		ctx := context.Background()
		svc, store := newTestService(t, &fakeDeliverer{remote: "fogis-1"})

		first, err := svc.HandleUtterance(ctx, swedishUtterance("Mål av Erik Karlsson i femtonde minuten"))
		So(err, ShouldBeNil)
		So(first.Accepted, ShouldHaveLength, 1)
		_, err = svc.HandleUtterance(ctx, swedishUtterance("gult kort för Johan Berg"))
		So(err, ShouldBeNil)

		_, err = svc.SyncEvent(ctx, first.Accepted[0].ID)
		So(err, ShouldBeNil)

		Convey("When fetching stats", func() {
			stats, err := svc.GetStats(ctx)

			Convey("Then the counts line up", func() {
				So(err, ShouldBeNil)
				So(stats.Synced, ShouldEqual, 1)
				So(stats.Pending, ShouldEqual, stats.Total-1)
				So(stats.Total, ShouldBeGreaterThanOrEqualTo, 2)
			})
		})

		Convey("And listing by state matches", func() {
			synced, err := store.List(ctx, repository.Filter{State: model.SyncSynced})
			So(err, ShouldBeNil)
			So(synced, ShouldHaveLength, 1)
		})
	})
}

func TestStartStop(t *testing.T) {
	Convey("Given a service with a short sync interval", t, func() {
		store, err := repository.NewBoltStore(filepath.Join(t.TempDir(), "events.db"))
		So(err, ShouldBeNil)

		rosters := &fakeRosters{rosters: roster.Rosters{Home: []string{"Erik Karlsson"}}}
		mgr := syncer.New(store, &fakeDeliverer{remote: "fogis-1"}, syncer.WithInterval(10*time.Millisecond))
		svc := New(store, normalize.New(), extract.New(), rosters, mgr)

		Convey("When started and stopped", func() {
			svc.Start(context.Background())
			svc.Stop()

			Convey("Then the store is closed and a second stop is harmless", func() {
				svc.Stop()
				So(true, ShouldBeTrue)
			})
		})
	})
}
