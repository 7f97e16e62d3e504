package extract

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/reftools/matchvoice/internal/domain/model"
)

// maxNameSpanTokens bounds how many tokens a spoken player name may take.
const maxNameSpanTokens = 3

// nameStopwords end a player-name span; connectives introduce one.
var nameStopwords = map[string]map[string]struct{}{
	"sv": keywordSet("i", "på", "från", "med", "och", "den", "det", "en", "nu", "här"),
	"en": keywordSet("in", "at", "the", "on", "and", "now", "here"),
}

// Connectives introduce the player after a keyword: "mål av X", "kort för X".
var nameConnectives = map[string]map[string]struct{}{
	"sv": keywordSet("av", "till", "för", "genom"),
	"en": keywordSet("by", "to", "for", "from"),
}

// findPlayer extracts the player-name span following the keyword cluster and
// resolves it against the rosters. An unresolved span is kept verbatim (the
// caller applies a confidence penalty); resolution also fixes the team side.
func (e *Engine) findPlayer(tokens []string, from int, anchors map[int]struct{}, locale string, mc MatchContext) (name string, team model.Team, resolved bool) {
	stops := nameStopwords[locale]
	conns := nameConnectives[locale]

	// Skip one leading connective ("mål av erik karlsson").
	i := from
	if i < len(tokens) {
		if _, ok := conns[tokens[i]]; ok {
			i++
		}
	}

	var span []string
	for ; i < len(tokens) && len(span) < maxNameSpanTokens; i++ {
		tok := tokens[i]
		if _, anchor := anchors[i]; anchor {
			break
		}
		if _, stop := stops[tok]; stop {
			break
		}
		if isDigits(tok) || isTeamWord(tok, locale) {
			break
		}
		span = append(span, tok)
	}
	if len(span) == 0 {
		return "", model.TeamUnknown, false
	}

	// Prefer the longest resolvable prefix of the span.
	for n := len(span); n > 0; n-- {
		candidate := strings.Join(span[:n], " ")
		if full, t, ok := e.resolveRoster(candidate, mc); ok {
			return full, t, true
		}
	}
	return strings.Join(span, " "), model.TeamUnknown, false
}

// resolveRoster fuzzy-matches a spoken name against both rosters and returns
// the canonical roster spelling. Home is checked before away so identical
// distances resolve deterministically.
func (e *Engine) resolveRoster(spoken string, mc MatchContext) (string, model.Team, bool) {
	if name, ok := e.closestName(spoken, mc.HomeRoster); ok {
		return name, model.TeamHome, true
	}
	if name, ok := e.closestName(spoken, mc.AwayRoster); ok {
		return name, model.TeamAway, true
	}
	return "", model.TeamUnknown, false
}

func (e *Engine) closestName(spoken string, roster []string) (string, bool) {
	best := e.maxNameDistance + 1
	bestName := ""
	for _, rn := range roster {
		d := levenshtein.ComputeDistance(spoken, strings.ToLower(rn))
		if d < best {
			best = d
			bestName = rn
		}
	}
	if best <= e.maxNameDistance {
		return bestName, true
	}
	return "", false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
