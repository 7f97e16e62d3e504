// Package app wires the pipeline together: normalize an utterance, extract
// candidate events against the match rosters, persist the confident ones,
// and keep the sync loop feeding them to the federation.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/reftools/matchvoice/internal/adapters/fogis"
	"github.com/reftools/matchvoice/internal/adapters/repository"
	"github.com/reftools/matchvoice/internal/adapters/roster"
	"github.com/reftools/matchvoice/internal/adapters/syncer"
	"github.com/reftools/matchvoice/internal/domain/extract"
	"github.com/reftools/matchvoice/internal/domain/model"
	"github.com/reftools/matchvoice/internal/domain/normalize"
	"github.com/reftools/matchvoice/pkg/logger"
	"github.com/reftools/matchvoice/pkg/metrics"
)

const defaultAcceptThreshold = 0.70

// RosterProvider serves fixture details and both squads for a match.
type RosterProvider interface {
	Match(ctx context.Context, matchID string) (fogis.Match, error)
	Rosters(ctx context.Context, matchID string) (roster.Rosters, error)
}

// Normalizer cleans a raw utterance into tokens.
type Normalizer interface {
	Normalize(ctx context.Context, u model.Utterance) (normalize.Text, error)
}

// Extractor turns normalized text into candidate events.
type Extractor interface {
	Extract(ctx context.Context, text normalize.Text, mc extract.MatchContext) []model.CandidateEvent
}

// Result is the outcome of handling one utterance: which candidates were
// persisted and which fell below the confidence threshold.
type Result struct {
	Accepted []model.MatchEvent     `json:"accepted"`
	Rejected []model.CandidateEvent `json:"rejected"`
}

// Stats is a snapshot of the event backlog and sync progress.
type Stats struct {
	Pending     int       `json:"pending"`
	Syncing     int       `json:"syncing"`
	Synced      int       `json:"synced"`
	FailedFatal int       `json:"failed_fatal"`
	Total       int       `json:"total"`
	StartedAt   time.Time `json:"started_at"`
}

// Service is the pipeline orchestrator.
type Service struct {
	store      repository.Store
	normalizer Normalizer
	extractor  Extractor
	rosters    RosterProvider
	sync       *syncer.Manager
	log        logger.Logger

	threshold float64
	startedAt time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// New creates the pipeline service.
func New(store repository.Store, normalizer Normalizer, extractor Extractor, rosters RosterProvider, sync *syncer.Manager, opts ...Option) *Service {
	s := &Service{
		store:      store,
		normalizer: normalizer,
		extractor:  extractor,
		rosters:    rosters,
		sync:       sync,
		log:        logger.Named("app"),
		threshold:  defaultAcceptThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the background sync loop. Safe to call once.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	s.startedAt = time.Now().UTC()
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.stopped = make(chan struct{})

	go func() {
		defer close(s.stopped)
		s.sync.Run(loopCtx)
	}()

	s.log.Info(ctx, "pipeline started")
}

// Stop halts the sync loop and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel, stopped := s.cancel, s.stopped
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-stopped
	}
	if err := s.store.Close(); err != nil {
		s.log.Error(context.Background(), "store close failed", logger.Error(err))
	}
	s.log.Info(context.Background(), "pipeline stopped")
}

// HandleUtterance runs one utterance through the full pipeline and persists
// every candidate at or above the confidence threshold.
func (s *Service) HandleUtterance(ctx context.Context, u model.Utterance) (Result, error) {
	start := time.Now()
	defer func() {
		metrics.RecordExtractionLatency(float64(time.Since(start).Milliseconds()))
	}()

	if u.Text == "" {
		metrics.RecordUtteranceRejected("empty_text")
		return Result{}, fmt.Errorf("empty utterance text: %w", ErrInvalidUtterance)
	}
	if u.MatchID == "" {
		metrics.RecordUtteranceRejected("missing_match_id")
		return Result{}, fmt.Errorf("missing match id: %w", ErrInvalidUtterance)
	}

	text, err := s.normalizer.Normalize(ctx, u)
	if err != nil {
		if errors.Is(err, normalize.ErrUnsupportedLocale) {
			metrics.RecordUtteranceRejected("unsupported_locale")
		} else {
			metrics.RecordUtteranceRejected("normalize_error")
		}
		return Result{}, fmt.Errorf("normalize utterance: %w", err)
	}

	squads, err := s.rosters.Rosters(ctx, u.MatchID)
	if err != nil {
		metrics.RecordUtteranceRejected("unknown_match")
		return Result{}, fmt.Errorf("resolve match %s: %w", u.MatchID, err)
	}

	mc := extract.MatchContext{
		MatchID:    u.MatchID,
		HomeRoster: squads.Home,
		AwayRoster: squads.Away,
		MinuteMin:  model.MinuteMin,
		MinuteMax:  model.MinuteMax,
	}
	candidates := s.extractor.Extract(ctx, text, mc)
	metrics.RecordUtteranceHandled()

	var result Result
	for _, cand := range candidates {
		metrics.RecordCandidateExtracted(string(cand.Type))
		if cand.Confidence < s.threshold {
			metrics.RecordCandidateRejected()
			result.Rejected = append(result.Rejected, cand)
			continue
		}

		ev, err := s.store.Create(ctx, repository.NewEvent{
			MatchID:     u.MatchID,
			Type:        cand.Type,
			Minute:      cand.Minute,
			Team:        cand.Team,
			PlayerName:  cand.PlayerName,
			Description: cand.SourceText,
		})
		if err != nil {
			return result, fmt.Errorf("persist %s event: %w", cand.Type, err)
		}
		metrics.RecordEventCreated(string(cand.Type))
		result.Accepted = append(result.Accepted, ev)

		s.log.Info(ctx, "event accepted",
			logger.String("event_id", ev.ID),
			logger.String("match_id", ev.MatchID),
			logger.String("event_type", string(ev.Type)),
			logger.Float64("confidence", cand.Confidence))
	}

	return result, nil
}

// CreateEvent persists a manually reported event, bypassing extraction.
// The store enforces the same validation as pipeline events.
func (s *Service) CreateEvent(ctx context.Context, ne repository.NewEvent) (model.MatchEvent, error) {
	ev, err := s.store.Create(ctx, ne)
	if err != nil {
		return model.MatchEvent{}, fmt.Errorf("persist manual event: %w", err)
	}
	metrics.RecordEventCreated(string(ev.Type))

	s.log.Info(ctx, "manual event created",
		logger.String("event_id", ev.ID),
		logger.String("match_id", ev.MatchID),
		logger.String("event_type", string(ev.Type)))
	return ev, nil
}

// GetEvent returns a stored event by id.
func (s *Service) GetEvent(ctx context.Context, id string) (model.MatchEvent, error) {
	return s.store.Get(ctx, id)
}

// GetMatch returns fixture details from the federation.
func (s *Service) GetMatch(ctx context.Context, matchID string) (fogis.Match, error) {
	return s.rosters.Match(ctx, matchID)
}

// ListEvents returns stored events matching the filter.
func (s *Service) ListEvents(ctx context.Context, f repository.Filter) ([]model.MatchEvent, error) {
	return s.store.List(ctx, f)
}

// SyncEvent delivers one event immediately, outside the cycle. The same
// compare-and-swap claim protects it from racing the background loop.
func (s *Service) SyncEvent(ctx context.Context, id string) (model.MatchEvent, error) {
	ev, err := s.store.Get(ctx, id)
	if err != nil {
		return model.MatchEvent{}, err
	}

	claimed, err := s.store.Transition(ctx, ev.ID, model.SyncPending, model.SyncSyncing, repository.AttemptMeta{
		ClaimedAt: time.Now(),
	})
	if err != nil {
		return model.MatchEvent{}, err
	}

	s.sync.Deliver(ctx, claimed)
	return s.store.Get(ctx, id)
}

// RunSyncCycle triggers one sync cycle on demand.
func (s *Service) RunSyncCycle(ctx context.Context) (syncer.CycleStats, error) {
	return s.sync.RunCycle(ctx)
}

// GetStats snapshots the backlog counts.
func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	counts, err := s.store.CountByState(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count events: %w", err)
	}
	stats := Stats{
		Pending:     counts[model.SyncPending],
		Syncing:     counts[model.SyncSyncing],
		Synced:      counts[model.SyncSynced],
		FailedFatal: counts[model.SyncFailedFatal],
		StartedAt:   s.startedAt,
	}
	stats.Total = stats.Pending + stats.Syncing + stats.Synced + stats.FailedFatal
	return stats, nil
}
