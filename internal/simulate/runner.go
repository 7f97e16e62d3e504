package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/reftools/matchvoice/pkg/logger"
)

// Run executes the complete reporting simulation.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting match reporting simulation",
		logger.String("baseURL", config.BaseURL),
		logger.String("matchID", config.MatchID),
		logger.Int("utterances", config.NumUtterances),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Float64("noiseRatio", config.NoiseRatio),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate utterances
	utterances := generateUtterances(ctx, config, stats)

	// Step 3: Submit utterances concurrently
	if err := submitUtterances(ctx, config, utterances, stats); err != nil {
		return fmt.Errorf("utterance submission failed: %w", err)
	}

	// Step 4: Drive sync cycles until the backlog settles
	if err := driveSync(ctx, config); err != nil {
		logger.Get().Warn(ctx, "sync drive failed", logger.Error(err))
	}

	// Step 5: Fetch backlog stats and verify against submission tallies
	backlog, err := fetchStats(ctx, config)
	if err != nil {
		return fmt.Errorf("stats retrieval failed: %w", err)
	}
	verifyResults(config, backlog, stats)

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats, backlog)

	logger.Get().Info(ctx, "simulation completed")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)

	resp, err := client.get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Any 200 counts as healthy; the endpoint serves Prometheus metrics.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// Sync drive bounds. Each pass triggers one on-demand cycle; draining stops
// when nothing is claimed or after maxSyncPasses.
const (
	maxSyncPasses  = 10
	syncPassDelay  = 2 * time.Second
	syncDrainDelay = 500 * time.Millisecond
)

// driveSync triggers on-demand sync cycles until a pass claims nothing.
// Events parked by retry backoff stay pending; that is expected.
func driveSync(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/sync/run"

	for pass := 1; pass <= maxSyncPasses; pass++ {
		resp, err := client.post(ctx, url, nil)
		if err != nil {
			return fmt.Errorf("trigger sync cycle: %w", err)
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return fmt.Errorf("read sync cycle response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("sync cycle failed with status: %d", resp.StatusCode)
		}

		var cycle cycleResponse
		if err := json.Unmarshal(body, &cycle); err != nil {
			return fmt.Errorf("decode sync cycle response: %w", err)
		}

		logger.Get().Info(ctx, "sync cycle finished",
			logger.Int("pass", pass),
			logger.Int("claimed", cycle.Claimed),
			logger.Int("synced", cycle.Synced),
			logger.Int("retried", cycle.Retried),
			logger.Int("failed", cycle.Failed))

		if cycle.Claimed == 0 {
			return nil
		}
		if cycle.Retried > 0 {
			time.Sleep(syncPassDelay)
		} else {
			time.Sleep(syncDrainDelay)
		}
	}
	return nil
}

// fetchStats retrieves the backlog snapshot from the service.
func fetchStats(ctx context.Context, config *Config) (statsResponse, error) {
	client := newHTTPClient(config.Timeout)

	resp, err := client.get(ctx, config.BaseURL+"/stats")
	if err != nil {
		return statsResponse{}, fmt.Errorf("fetch stats: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return statsResponse{}, fmt.Errorf("read stats response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return statsResponse{}, fmt.Errorf("stats request failed with status: %d", resp.StatusCode)
	}

	var backlog statsResponse
	if err := json.Unmarshal(body, &backlog); err != nil {
		return statsResponse{}, fmt.Errorf("decode stats response: %w", err)
	}
	return backlog, nil
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(stats *Stats, backlog statsResponse) {
	var acceptRate, utterancesPerSecond float64

	if stats.UtterancesSubmitted > 0 {
		acceptRate = float64(stats.EventsAccepted) / float64(stats.UtterancesSubmitted) * 100
	}

	if stats.Duration > 0 {
		utterancesPerSecond = float64(stats.UtterancesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("utterancesGenerated", stats.UtterancesGenerated),
		logger.Int("utterancesSubmitted", stats.UtterancesSubmitted),
		logger.Int("eventsAccepted", stats.EventsAccepted),
		logger.Int("candidatesRejected", stats.CandidatesRejected),
		logger.Int("requestsFailed", stats.SubmitFailed),
		logger.Int("backlogPending", backlog.Pending),
		logger.Int("backlogSynced", backlog.Synced),
		logger.Int("backlogFailedFatal", backlog.FailedFatal),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("utterancesPerSecond", utterancesPerSecond))
}
