package extract

import "github.com/reftools/matchvoice/internal/domain/model"

// matcher recognizes one event type via locale-keyed keyword sets.
type matcher struct {
	eventType model.EventType
	keywords  map[string]map[string]struct{} // locale -> keyword set
}

// cluster is a group of keyword hits close enough to describe one event.
type cluster struct {
	start int
	end   int
	hits  int
}

// clusterGap is the maximum token distance between keyword hits that still
// belong to the same event mention ("gult kort" is one card, not two).
const clusterGap = 2

func keywordSet(words ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// defaultMatchers returns the matcher list in fixed priority order.
// This order, not insertion order, breaks confidence ties.
func defaultMatchers() []matcher {
	return []matcher{
		{
			eventType: model.EventGoal,
			keywords: map[string]map[string]struct{}{
				"sv": keywordSet("mål", "målet", "straffmål", "självmål"),
				"en": keywordSet("goal", "scores", "scored"),
			},
		},
		{
			eventType: model.EventCard,
			keywords: map[string]map[string]struct{}{
				"sv": keywordSet("kort", "gult", "gula", "rött", "röda", "varning", "utvisning"),
				"en": keywordSet("card", "yellow", "red", "booking", "booked", "cautioned"),
			},
		},
		{
			eventType: model.EventSubstitution,
			keywords: map[string]map[string]struct{}{
				"sv": keywordSet("byte", "byter", "inhoppare", "ersätter", "ersatt"),
				"en": keywordSet("substitution", "sub", "replaces", "replaced"),
			},
		},
		{
			eventType: model.EventPeriodStart,
			keywords: map[string]map[string]struct{}{
				"sv": keywordSet("avspark", "matchstart", "igång"),
				"en": keywordSet("kickoff", "underway"),
			},
		},
		{
			eventType: model.EventPeriodEnd,
			keywords: map[string]map[string]struct{}{
				"sv": keywordSet("halvtid", "fulltid", "slutsignal"),
				"en": keywordSet("halftime", "fulltime"),
			},
		},
		{
			eventType: model.EventInjury,
			keywords: map[string]map[string]struct{}{
				"sv": keywordSet("skada", "skadad", "skadas"),
				"en": keywordSet("injury", "injured"),
			},
		},
	}
}

// clusters scans tokens and groups keyword hits within clusterGap of each
// other into single event mentions.
func (m matcher) clusters(tokens []string, locale string) []cluster {
	kws, ok := m.keywords[locale]
	if !ok {
		return nil
	}

	var out []cluster
	for i, tok := range tokens {
		if _, hit := kws[tok]; !hit {
			continue
		}
		if n := len(out); n > 0 && i-out[n-1].end < clusterGap {
			out[n-1].end = i + 1
			out[n-1].hits++
			continue
		}
		out = append(out, cluster{start: i, end: i + 1, hits: 1})
	}
	return out
}

// keywordPositions marks every token that any matcher treats as a keyword,
// used to bound player-name spans.
func (e *Engine) keywordPositions(tokens []string) map[int]struct{} {
	pos := make(map[int]struct{})
	for _, m := range e.matchers {
		for _, kws := range m.keywords {
			for i, tok := range tokens {
				if _, hit := kws[tok]; hit {
					pos[i] = struct{}{}
				}
			}
		}
	}
	return pos
}

var teamWordSets = map[string]struct {
	home map[string]struct{}
	away map[string]struct{}
}{
	"sv": {home: keywordSet("hemmalaget", "hemma"), away: keywordSet("bortalaget", "borta")},
	"en": {home: keywordSet("home"), away: keywordSet("away")},
}

// teamWord looks for an explicit home/away reference in the tokens.
func teamWord(tokens []string, locale string) model.Team {
	sets, ok := teamWordSets[locale]
	if !ok {
		return model.TeamUnknown
	}
	for _, tok := range tokens {
		if _, ok := sets.home[tok]; ok {
			return model.TeamHome
		}
		if _, ok := sets.away[tok]; ok {
			return model.TeamAway
		}
	}
	return model.TeamUnknown
}

func isTeamWord(tok, locale string) bool {
	sets, ok := teamWordSets[locale]
	if !ok {
		return false
	}
	if _, ok := sets.home[tok]; ok {
		return true
	}
	_, ok = sets.away[tok]
	return ok
}
