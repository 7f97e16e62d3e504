package model

import (
	"encoding/json"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSyncStateMachine(t *testing.T) {
	Convey("Given the sync state machine", t, func() {
		Convey("Pending may only move to syncing", func() {
			So(SyncPending.CanTransition(SyncSyncing), ShouldBeTrue)
			So(SyncPending.CanTransition(SyncSynced), ShouldBeFalse)
			So(SyncPending.CanTransition(SyncFailedFatal), ShouldBeFalse)
			So(SyncPending.CanTransition(SyncPending), ShouldBeFalse)
		})

		Convey("Syncing may settle, release, or park", func() {
			So(SyncSyncing.CanTransition(SyncSynced), ShouldBeTrue)
			So(SyncSyncing.CanTransition(SyncPending), ShouldBeTrue)
			So(SyncSyncing.CanTransition(SyncFailedFatal), ShouldBeTrue)
			So(SyncSyncing.CanTransition(SyncSyncing), ShouldBeFalse)
		})

		Convey("Terminal states reject every transition", func() {
			for _, terminal := range []SyncState{SyncSynced, SyncFailedFatal} {
				So(terminal.Terminal(), ShouldBeTrue)
				for _, to := range []SyncState{SyncPending, SyncSyncing, SyncSynced, SyncFailedFatal} {
					So(terminal.CanTransition(to), ShouldBeFalse)
				}
			}
		})

		Convey("Non-terminal states report as such", func() {
			So(SyncPending.Terminal(), ShouldBeFalse)
			So(SyncSyncing.Terminal(), ShouldBeFalse)
		})
	})
}

func TestEventTypeValid(t *testing.T) {
	Convey("Given the known event types", t, func() {
		for _, et := range []EventType{EventGoal, EventCard, EventSubstitution, EventPeriodStart, EventPeriodEnd, EventInjury, EventUnknown} {
			So(et.Valid(), ShouldBeTrue)
		}

		Convey("Anything else is invalid", func() {
			So(EventType("corner").Valid(), ShouldBeFalse)
			So(EventType("").Valid(), ShouldBeFalse)
		})
	})
}

func TestSyncedToFOGIS(t *testing.T) {
	Convey("Given events in each state", t, func() {
		So(MatchEvent{SyncState: SyncSynced}.SyncedToFOGIS(), ShouldBeTrue)
		So(MatchEvent{SyncState: SyncPending}.SyncedToFOGIS(), ShouldBeFalse)
		So(MatchEvent{SyncState: SyncSyncing}.SyncedToFOGIS(), ShouldBeFalse)
		So(MatchEvent{SyncState: SyncFailedFatal}.SyncedToFOGIS(), ShouldBeFalse)
	})
}

func TestMatchEventJSON(t *testing.T) {
	Convey("Given a match event serialized to JSON", t, func() {
		Convey("A synced event reports synced_to_fogis true", func() {
			raw, err := json.Marshal(MatchEvent{ID: "evt-1", SyncState: SyncSynced})
			So(err, ShouldBeNil)

			var fields map[string]any
			So(json.Unmarshal(raw, &fields), ShouldBeNil)
			So(fields["synced_to_fogis"], ShouldEqual, true)
		})

		Convey("Every other state reports synced_to_fogis false", func() {
			for _, state := range []SyncState{SyncPending, SyncSyncing, SyncFailedFatal} {
				raw, err := json.Marshal(MatchEvent{ID: "evt-1", SyncState: state})
				So(err, ShouldBeNil)

				var fields map[string]any
				So(json.Unmarshal(raw, &fields), ShouldBeNil)
				So(fields["synced_to_fogis"], ShouldEqual, false)
			}
		})

		Convey("An unclaimed event carries no claimed_at key", func() {
			raw, err := json.Marshal(MatchEvent{ID: "evt-1", SyncState: SyncPending})
			So(err, ShouldBeNil)

			var fields map[string]any
			So(json.Unmarshal(raw, &fields), ShouldBeNil)
			_, present := fields["claimed_at"]
			So(present, ShouldBeFalse)
		})

		Convey("A claimed event round-trips its claim timestamp", func() {
			claimed := time.Date(2026, 4, 12, 15, 30, 0, 0, time.UTC)
			raw, err := json.Marshal(MatchEvent{ID: "evt-1", SyncState: SyncSyncing, ClaimedAt: claimed})
			So(err, ShouldBeNil)

			var back MatchEvent
			So(json.Unmarshal(raw, &back), ShouldBeNil)
			So(back.ClaimedAt.Equal(claimed), ShouldBeTrue)
			So(back.SyncState, ShouldEqual, SyncSyncing)
		})
	})
}
