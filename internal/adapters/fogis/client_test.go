package fogis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reftools/matchvoice/internal/domain/model"
)

func testEvent() model.MatchEvent {
	minute := 15
	return model.MatchEvent{
		ID:         "evt-1",
		MatchID:    "match-1",
		Type:       model.EventGoal,
		Minute:     &minute,
		Team:       model.TeamHome,
		PlayerName: "Erik Karlsson",
	}
}

func TestSubmitSuccess(t *testing.T) {
	var gotKey, gotPath string
	var gotPayload eventPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Ack{RemoteEventID: "fogis-42"})
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	ack, err := c.Submit(context.Background(), "key-1", testEvent())

	require.NoError(t, err)
	assert.Equal(t, "fogis-42", ack.RemoteEventID)
	assert.Equal(t, "key-1", gotKey)
	assert.Equal(t, "/api/matches/match-1/events", gotPath)
	assert.Equal(t, "goal", gotPayload.EventType)
	require.NotNil(t, gotPayload.Minute)
	assert.Equal(t, 15, *gotPayload.Minute)
	assert.Equal(t, "Erik Karlsson", gotPayload.PlayerName)
}

func TestSubmitRetryableStatuses(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable, http.StatusGatewayTimeout} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		c := New(WithBaseURL(srv.URL))
		_, err := c.Submit(context.Background(), "key-1", testEvent())
		srv.Close()

		assert.ErrorIs(t, err, ErrRetryableDelivery, "status %d", status)
	}
}

func TestSubmitFatalStatuses(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		c := New(WithBaseURL(srv.URL))
		_, err := c.Submit(context.Background(), "key-1", testEvent())
		srv.Close()

		assert.ErrorIs(t, err, ErrFatalDelivery, "status %d", status)
	}
}

func TestSubmitConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := New(WithBaseURL(srv.URL))
	_, err := c.Submit(context.Background(), "key-1", testEvent())

	assert.ErrorIs(t, err, ErrRetryableDelivery)
}

func TestSubmitSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(Ack{RemoteEventID: "fogis-1"})
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL), WithToken("secret"))
	_, err := c.Submit(context.Background(), "key-1", testEvent())

	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestMatchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/matches/match-1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(Match{
			ID:       "match-1",
			HomeTeam: "Hammarby IF",
			AwayTeam: "AIK",
			HomeRoster: []Player{
				{Name: "Erik Karlsson", Number: 9},
			},
			AwayRoster: []Player{
				{Name: "Johan Berg", Number: 4},
			},
		})
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	m, err := c.Match(context.Background(), "match-1")

	require.NoError(t, err)
	assert.Equal(t, "Hammarby IF", m.HomeTeam)
	require.Len(t, m.HomeRoster, 1)
	assert.Equal(t, "Erik Karlsson", m.HomeRoster[0].Name)
	require.Len(t, m.AwayRoster, 1)
}

func TestMatchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	_, err := c.Match(context.Background(), "no-such-match")

	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestMatchRetryableStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	_, err := c.Match(context.Background(), "match-1")

	assert.ErrorIs(t, err, ErrRetryableDelivery)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	err := c.Health(context.Background())

	assert.NoError(t, err)
}

func TestIsRetryableStatus(t *testing.T) {
	assert.True(t, isRetryableStatus(http.StatusTooManyRequests))
	assert.True(t, isRetryableStatus(http.StatusInternalServerError))
	assert.True(t, isRetryableStatus(http.StatusBadGateway))
	assert.False(t, isRetryableStatus(http.StatusBadRequest))
	assert.False(t, isRetryableStatus(http.StatusConflict))
	assert.False(t, isRetryableStatus(http.StatusOK))
}
