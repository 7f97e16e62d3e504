// Package syncer drives pending events through delivery to the federation.
// Each cycle reclaims stale claims, collects due events, claims them with a
// compare-and-swap, and delivers with a bounded worker pool. Retryable
// failures go back to pending with exponential backoff; fatal failures and
// exhausted retry budgets park the event permanently.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/reftools/matchvoice/internal/adapters/fogis"
	"github.com/reftools/matchvoice/internal/adapters/repository"
	"github.com/reftools/matchvoice/internal/domain/model"
	"github.com/reftools/matchvoice/pkg/logger"
	"github.com/reftools/matchvoice/pkg/metrics"
)

const (
	defaultInterval    = 30 * time.Second
	defaultWorkerCount = 4
	defaultMaxRetries  = 5
	defaultBaseDelay   = 2 * time.Second
	defaultMaxDelay    = 5 * time.Minute
	defaultStaleAfter  = 2 * time.Minute
	defaultBatchLimit  = 50
)

// Deliverer submits one event upstream. The idempotency key is stable per
// event so redelivery after an ambiguous failure cannot double-report.
type Deliverer interface {
	Submit(ctx context.Context, idempotencyKey string, ev model.MatchEvent) (fogis.Ack, error)
}

// CycleStats summarizes one sync cycle.
type CycleStats struct {
	Due       int `json:"due"`
	Claimed   int `json:"claimed"`
	Synced    int `json:"synced"`
	Retried   int `json:"retried"`
	Failed    int `json:"failed"`
	Reclaimed int `json:"reclaimed"`
}

// Manager owns the sync loop.
type Manager struct {
	store     repository.Store
	deliverer Deliverer
	log       logger.Logger

	interval    time.Duration
	workerCount int
	maxRetries  int
	baseDelay   time.Duration
	maxDelay    time.Duration
	staleAfter  time.Duration
	batchLimit  int
	clock       func() time.Time
}

// New creates a sync manager over the given store and deliverer.
func New(store repository.Store, deliverer Deliverer, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		deliverer:   deliverer,
		log:         logger.Named("syncer"),
		interval:    defaultInterval,
		workerCount: defaultWorkerCount,
		maxRetries:  defaultMaxRetries,
		baseDelay:   defaultBaseDelay,
		maxDelay:    defaultMaxDelay,
		staleAfter:  defaultStaleAfter,
		batchLimit:  defaultBatchLimit,
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run executes cycles on the configured interval until the context ends.
func (m *Manager) Run(ctx context.Context) {
	m.log.Info(ctx, "sync loop started", logger.Duration("interval", m.interval))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info(ctx, "sync loop stopped")
			return
		case <-ticker.C:
			stats, err := m.RunCycle(ctx)
			if err != nil {
				m.log.Error(ctx, "sync cycle failed", logger.Error(err))
				continue
			}
			if stats.Claimed > 0 || stats.Reclaimed > 0 {
				m.log.Info(ctx, "sync cycle finished",
					logger.Int("claimed", stats.Claimed),
					logger.Int("synced", stats.Synced),
					logger.Int("retried", stats.Retried),
					logger.Int("failed", stats.Failed),
					logger.Int("reclaimed", stats.Reclaimed))
			}
		}
	}
}

// RunCycle performs one full pass: reclaim, collect, claim, deliver.
func (m *Manager) RunCycle(ctx context.Context) (CycleStats, error) {
	start := time.Now()
	defer func() {
		metrics.RecordSyncCycleLatency(float64(time.Since(start).Milliseconds()))
	}()

	var stats CycleStats
	now := m.clock()

	reclaimed, err := m.store.ReclaimStale(ctx, now, m.staleAfter)
	if err != nil {
		return stats, fmt.Errorf("reclaim stale claims: %w", err)
	}
	stats.Reclaimed = reclaimed
	for i := 0; i < reclaimed; i++ {
		metrics.RecordSyncReclaimed()
	}

	due, err := m.store.Due(ctx, now, m.batchLimit)
	if err != nil {
		return stats, fmt.Errorf("collect due events: %w", err)
	}
	stats.Due = len(due)
	if len(due) == 0 {
		m.updateStateGauges(ctx)
		return stats, nil
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, m.workerCount)

	for _, ev := range due {
		if ctx.Err() != nil {
			break
		}

		claimed, err := m.store.Transition(ctx, ev.ID, model.SyncPending, model.SyncSyncing, repository.AttemptMeta{
			ClaimedAt: m.clock(),
		})
		if err != nil {
			if errors.Is(err, repository.ErrStateConflict) {
				// Another worker or an on-demand sync got there first.
				metrics.RecordSyncConflict()
				continue
			}
			m.log.Error(ctx, "claim failed", logger.String("event_id", ev.ID), logger.Error(err))
			continue
		}
		stats.Claimed++

		wg.Add(1)
		sem <- struct{}{}
		go func(ev model.MatchEvent) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := m.Deliver(ctx, ev)
			mu.Lock()
			switch outcome {
			case OutcomeSynced:
				stats.Synced++
			case OutcomeRetried:
				stats.Retried++
			case OutcomeFailed:
				stats.Failed++
			}
			mu.Unlock()
		}(claimed)
	}
	wg.Wait()

	m.updateStateGauges(ctx)
	return stats, nil
}

// Outcome classifies the result of one delivery attempt.
type Outcome int

const (
	OutcomeSynced Outcome = iota
	OutcomeRetried
	OutcomeFailed
)

// Deliver attempts one upstream delivery of an already claimed event and
// transitions it based on the outcome. Exported so the orchestrator can
// run an on-demand sync of a single event outside the cycle.
func (m *Manager) Deliver(ctx context.Context, ev model.MatchEvent) Outcome {
	metrics.RecordSyncAttempt()
	start := time.Now()
	ack, err := m.deliverer.Submit(ctx, ev.ID, ev)
	metrics.RecordDeliveryLatency(float64(time.Since(start).Milliseconds()))

	if err == nil {
		_, terr := m.store.Transition(ctx, ev.ID, model.SyncSyncing, model.SyncSynced, repository.AttemptMeta{
			RemoteEventID: ack.RemoteEventID,
		})
		if terr != nil {
			m.log.Error(ctx, "acknowledge transition failed", logger.String("event_id", ev.ID), logger.Error(terr))
			return OutcomeFailed
		}
		metrics.RecordSyncSuccess()
		m.log.Info(ctx, "event synced",
			logger.String("event_id", ev.ID),
			logger.String("remote_event_id", ack.RemoteEventID),
			logger.Int("attempts", ev.RetryCount+1))
		return OutcomeSynced
	}

	if errors.Is(err, fogis.ErrRetryableDelivery) && ev.RetryCount+1 < m.maxRetries {
		retryCount := ev.RetryCount + 1
		delay := backoffDelay(retryCount, m.baseDelay, m.maxDelay)
		_, terr := m.store.Transition(ctx, ev.ID, model.SyncSyncing, model.SyncPending, repository.AttemptMeta{
			RetryCount:    retryCount,
			NextAttemptAt: m.clock().Add(delay),
			LastSyncError: err.Error(),
		})
		if terr != nil {
			m.log.Error(ctx, "retry transition failed", logger.String("event_id", ev.ID), logger.Error(terr))
			return OutcomeFailed
		}
		metrics.RecordSyncRetryable()
		m.log.Warn(ctx, "delivery failed, will retry",
			logger.String("event_id", ev.ID),
			logger.Int("retry_count", retryCount),
			logger.Duration("next_attempt_in", delay),
			logger.Error(err))
		return OutcomeRetried
	}

	reason := err.Error()
	if errors.Is(err, fogis.ErrRetryableDelivery) {
		reason = fmt.Sprintf("retry budget exhausted after %d attempts: %s", ev.RetryCount+1, reason)
	}
	_, terr := m.store.Transition(ctx, ev.ID, model.SyncSyncing, model.SyncFailedFatal, repository.AttemptMeta{
		RetryCount:    ev.RetryCount + 1,
		LastSyncError: reason,
	})
	if terr != nil {
		m.log.Error(ctx, "fatal transition failed", logger.String("event_id", ev.ID), logger.Error(terr))
		return OutcomeFailed
	}
	metrics.RecordSyncFatal()
	m.log.Error(ctx, "event permanently failed",
		logger.String("event_id", ev.ID),
		logger.Int("attempts", ev.RetryCount+1),
		logger.Error(err))
	return OutcomeFailed
}

func (m *Manager) updateStateGauges(ctx context.Context) {
	counts, err := m.store.CountByState(ctx)
	if err != nil {
		m.log.Warn(ctx, "state gauge update failed", logger.Error(err))
		return
	}
	for state, count := range counts {
		metrics.UpdateEventsByState(string(state), count)
	}
}
