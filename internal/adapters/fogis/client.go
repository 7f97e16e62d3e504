// Package fogis talks to the Swedish football federation's match reporting
// API. Delivery failures are classified into retryable and fatal kinds so
// the sync manager can decide what to do with an event.
package fogis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/reftools/matchvoice/internal/domain/model"
	"github.com/reftools/matchvoice/pkg/logger"
)

const (
	defaultBaseURL = "https://fogis.svenskfotboll.se"
	defaultTimeout = 10 * time.Second

	headerIdempotencyKey = "Idempotency-Key"
)

// Client is an HTTP client for the federation API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     logger.Logger
}

// New creates a federation client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     logger.Named("fogis"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit reports one event upstream. The idempotency key makes redelivery
// after an ambiguous failure safe: the federation deduplicates on it, so a
// retried request that already landed returns the same acknowledgement.
func (c *Client) Submit(ctx context.Context, idempotencyKey string, ev model.MatchEvent) (Ack, error) {
	payload := eventPayload{
		EventType:  string(ev.Type),
		Minute:     ev.Minute,
		Team:       string(ev.Team),
		PlayerName: ev.PlayerName,
		Comment:    ev.Description,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Ack{}, fmt.Errorf("encode event payload: %w", err)
	}

	url := fmt.Sprintf("%s/api/matches/%s/events", c.baseURL, ev.MatchID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Ack{}, fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerIdempotencyKey, idempotencyKey)
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return Ack{}, fmt.Errorf("submit event %s: %v: %w", ev.ID, err, ErrRetryableDelivery)
	}
	defer drain(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var ack Ack
		if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
			// The event landed even if the body is unreadable; report
			// success without a remote id rather than redeliver.
			c.log.Warn(ctx, "submit acknowledged with unreadable body",
				logger.String("event_id", ev.ID),
				logger.Error(err))
			return Ack{}, nil
		}
		return ack, nil
	}

	msg := readErrorBody(resp.Body)
	if isRetryableStatus(resp.StatusCode) {
		return Ack{}, fmt.Errorf("submit event %s: status %d: %s: %w", ev.ID, resp.StatusCode, msg, ErrRetryableDelivery)
	}
	return Ack{}, fmt.Errorf("submit event %s: status %d: %s: %w", ev.ID, resp.StatusCode, msg, ErrFatalDelivery)
}

// Match fetches fixture details including both rosters.
func (c *Client) Match(ctx context.Context, matchID string) (Match, error) {
	url := fmt.Sprintf("%s/api/matches/%s", c.baseURL, matchID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Match{}, fmt.Errorf("build match request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return Match{}, fmt.Errorf("fetch match %s: %v: %w", matchID, err, ErrRetryableDelivery)
	}
	defer drain(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Match{}, fmt.Errorf("match %s: %w", matchID, ErrMatchNotFound)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var m Match
		if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
			return Match{}, fmt.Errorf("decode match %s: %w", matchID, err)
		}
		if m.ID == "" {
			m.ID = matchID
		}
		return m, nil
	case isRetryableStatus(resp.StatusCode):
		return Match{}, fmt.Errorf("fetch match %s: status %d: %w", matchID, resp.StatusCode, ErrRetryableDelivery)
	default:
		return Match{}, fmt.Errorf("fetch match %s: status %d: %w", matchID, resp.StatusCode, ErrFatalDelivery)
	}
}

// Health probes the federation API.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("federation health check: %w", err)
	}
	defer drain(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("federation health check: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// isRetryableStatus reports whether the upstream status is worth another
// attempt. Rate limiting and server-side errors are; other 4xx are not.
func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func readErrorBody(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 1024))
	if err != nil || len(raw) == 0 {
		return "no detail"
	}
	return string(raw)
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
