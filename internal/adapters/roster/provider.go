// Package roster serves match squads for name resolution, caching
// federation lookups so every utterance does not hit the upstream API.
package roster

import (
	"context"
	"sync"
	"time"

	"github.com/reftools/matchvoice/internal/adapters/fogis"
	"github.com/reftools/matchvoice/pkg/logger"
)

const defaultTTL = 5 * time.Minute

// MatchSource fetches fixture details from the federation.
type MatchSource interface {
	Match(ctx context.Context, matchID string) (fogis.Match, error)
}

// Rosters holds both squads' player names for one match.
type Rosters struct {
	Home []string
	Away []string
}

type cacheEntry struct {
	rosters   Rosters
	fetchedAt time.Time
}

// CachingProvider caches rosters per match with a TTL. Expired entries are
// refreshed on demand; a fetch failure falls back to the stale entry when
// one exists, since squads rarely change mid-match.
type CachingProvider struct {
	source MatchSource
	ttl    time.Duration
	clock  func() time.Time
	log    logger.Logger

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCachingProvider wraps a match source with a roster cache.
func NewCachingProvider(source MatchSource, opts ...Option) *CachingProvider {
	p := &CachingProvider{
		source:  source,
		ttl:     defaultTTL,
		clock:   time.Now,
		log:     logger.Named("roster"),
		entries: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Rosters returns both squads for the match, from cache when fresh.
func (p *CachingProvider) Rosters(ctx context.Context, matchID string) (Rosters, error) {
	now := p.clock()

	p.mu.Lock()
	entry, ok := p.entries[matchID]
	p.mu.Unlock()

	if ok && now.Sub(entry.fetchedAt) < p.ttl {
		return entry.rosters, nil
	}

	match, err := p.source.Match(ctx, matchID)
	if err != nil {
		if ok {
			p.log.Warn(ctx, "roster refresh failed, serving stale entry",
				logger.String("match_id", matchID),
				logger.Error(err))
			return entry.rosters, nil
		}
		return Rosters{}, err
	}

	rosters := Rosters{
		Home: playerNames(match.HomeRoster),
		Away: playerNames(match.AwayRoster),
	}

	p.mu.Lock()
	p.entries[matchID] = cacheEntry{rosters: rosters, fetchedAt: now}
	p.mu.Unlock()

	return rosters, nil
}

// Match returns fixture details straight from the source. The roster cache
// is refreshed from the response since the squads come along for free.
func (p *CachingProvider) Match(ctx context.Context, matchID string) (fogis.Match, error) {
	match, err := p.source.Match(ctx, matchID)
	if err != nil {
		return fogis.Match{}, err
	}

	p.mu.Lock()
	p.entries[matchID] = cacheEntry{
		rosters: Rosters{
			Home: playerNames(match.HomeRoster),
			Away: playerNames(match.AwayRoster),
		},
		fetchedAt: p.clock(),
	}
	p.mu.Unlock()

	return match, nil
}

// Invalidate drops the cached entry for a match.
func (p *CachingProvider) Invalidate(matchID string) {
	p.mu.Lock()
	delete(p.entries, matchID)
	p.mu.Unlock()
}

func playerNames(players []fogis.Player) []string {
	names := make([]string, 0, len(players))
	for _, pl := range players {
		if pl.Name != "" {
			names = append(names, pl.Name)
		}
	}
	return names
}
