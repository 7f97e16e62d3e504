// Package normalize cleans and tokenizes transcribed utterances before
// extraction. Rules are registered per locale; normalization is deterministic,
// so a failed locale lookup is never worth retrying.
package normalize

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/reftools/matchvoice/internal/domain/model"
)

// Text is the normalized form of an utterance.
type Text struct {
	Locale string
	Tokens []string
	// Minute holds a minute reference detected during normalization,
	// validated against the 0-130 range. Nil when absent.
	Minute *int
}

// String joins the normalized tokens for logging and matching.
func (t Text) String() string {
	return strings.Join(t.Tokens, " ")
}

// Normalizer converts raw utterances to normalized text.
type Normalizer struct {
	rules map[string]*RuleSet
}

// New creates a Normalizer with the built-in Swedish and English rule sets.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		rules: map[string]*RuleSet{
			"sv": swedishRules(),
			"en": englishRules(),
		},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize lowercases, strips punctuation and fillers, expands number words
// to digits, and detects a minute reference. Returns ErrUnsupportedLocale when
// the utterance locale has no registered rules.
func (n *Normalizer) Normalize(_ context.Context, u model.Utterance) (Text, error) {
	rules, ok := n.rules[primaryLocale(u.Locale)]
	if !ok {
		return Text{}, fmt.Errorf("locale %q: %w", u.Locale, ErrUnsupportedLocale)
	}

	lowered := rules.caser.String(u.Text)
	raw := strings.FieldsFunc(stripPunct(lowered), unicode.IsSpace)

	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if _, filler := rules.fillers[tok]; filler {
			continue
		}
		if v, ok := rules.numberValue(tok); ok {
			tok = strconv.Itoa(v)
		}
		tokens = append(tokens, tok)
	}

	return Text{
		Locale: primaryLocale(u.Locale),
		Tokens: tokens,
		Minute: rules.detectMinute(tokens),
	}, nil
}

// Locales returns the registered locale tags.
func (n *Normalizer) Locales() []string {
	out := make([]string, 0, len(n.rules))
	for tag := range n.rules {
		out = append(out, tag)
	}
	return out
}

// primaryLocale reduces tags like "sv-SE" to "sv".
func primaryLocale(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		return tag[:i]
	}
	return tag
}

// stripPunct maps punctuation to spaces, keeping letters and digits.
func stripPunct(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, s)
}
