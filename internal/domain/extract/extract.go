// Package extract maps normalized utterances to scored candidate events.
// The engine is pure: no I/O, no shared mutable state, and identical inputs
// always produce the identical ordered candidate sequence.
package extract

import (
	"context"
	"math"

	"github.com/reftools/matchvoice/internal/domain/model"
	"github.com/reftools/matchvoice/internal/domain/normalize"
)

// MatchContext supplies the rosters and valid minute range for one match.
type MatchContext struct {
	MatchID    string
	HomeRoster []string
	AwayRoster []string
	MinuteMin  int
	MinuteMax  int
}

// Confidence scoring weights. Keyword strength dominates; minute and player
// references corroborate.
const (
	baseKeywordScore      = 0.60
	extraKeywordBonus     = 0.05
	maxExtraKeywordBonus  = 0.10
	minuteBonus           = 0.15
	playerResolvedBonus   = 0.20
	playerUnresolvedBonus = 0.05
	teamWordBonus         = 0.05
)

// Engine extracts candidate events from normalized text.
type Engine struct {
	matchers        []matcher
	maxNameDistance int
}

// New creates an Engine with the fixed matcher priority order:
// goal > card > substitution > period_start > period_end > injury.
func New(opts ...Option) *Engine {
	e := &Engine{
		matchers:        defaultMatchers(),
		maxNameDistance: 2,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// span is a candidate anchored to a token range, kept internal until
// overlap resolution.
type span struct {
	candidate model.CandidateEvent
	start     int
	end       int
	priority  int
}

// Extract returns zero or more candidate events for the text. An empty
// result is a normal outcome, not an error.
func (e *Engine) Extract(_ context.Context, text normalize.Text, mc MatchContext) []model.CandidateEvent {
	minute := validMinute(text.Minute, mc)
	anchors := e.keywordPositions(text.Tokens)

	var spans []span
	for prio, m := range e.matchers {
		for _, cl := range m.clusters(text.Tokens, text.Locale) {
			conf := baseKeywordScore + math.Min(float64(cl.hits-1)*extraKeywordBonus, maxExtraKeywordBonus)
			if minute != nil {
				conf += minuteBonus
			}

			name, team, resolved := e.findPlayer(text.Tokens, cl.end, anchors, text.Locale, mc)
			switch {
			case resolved:
				conf += playerResolvedBonus
			case name != "":
				conf += playerUnresolvedBonus
			}

			if team == model.TeamUnknown {
				if t := teamWord(text.Tokens, text.Locale); t != model.TeamUnknown {
					team = t
					conf += teamWordBonus
				}
			}

			spans = append(spans, span{
				candidate: model.CandidateEvent{
					Type:       m.eventType,
					Minute:     minute,
					Team:       team,
					PlayerName: name,
					Confidence: clamp(conf),
					SourceText: text.String(),
				},
				start:    cl.start,
				end:      cl.end,
				priority: prio,
			})
		}
	}

	return resolveOverlaps(spans)
}

// resolveOverlaps keeps the highest-confidence candidate for each overlapping
// token range; ties go to the higher-priority matcher. Survivors are returned
// in token order.
func resolveOverlaps(spans []span) []model.CandidateEvent {
	kept := make([]bool, len(spans))
	for i := range kept {
		kept[i] = true
	}
	for i := range spans {
		if !kept[i] {
			continue
		}
		for j := i + 1; j < len(spans); j++ {
			if !kept[j] || !overlaps(spans[i], spans[j]) {
				continue
			}
			if loses(spans[j], spans[i]) {
				kept[j] = false
			} else {
				kept[i] = false
				break
			}
		}
	}

	var out []model.CandidateEvent
	for {
		best := -1
		for i := range spans {
			if kept[i] && (best < 0 || spans[i].start < spans[best].start) {
				best = i
			}
		}
		if best < 0 {
			break
		}
		out = append(out, spans[best].candidate)
		kept[best] = false
	}
	return out
}

func overlaps(a, b span) bool {
	return a.start < b.end && b.start < a.end
}

// loses reports whether a loses the overlap against b.
func loses(a, b span) bool {
	if a.candidate.Confidence != b.candidate.Confidence {
		return a.candidate.Confidence < b.candidate.Confidence
	}
	return a.priority > b.priority
}

// validMinute checks a detected minute against the match's range.
func validMinute(m *int, mc MatchContext) *int {
	if m == nil {
		return nil
	}
	lo, hi := mc.MinuteMin, mc.MinuteMax
	if hi == 0 {
		lo, hi = model.MinuteMin, model.MinuteMax
	}
	if *m < lo || *m > hi {
		return nil
	}
	v := *m
	return &v
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
