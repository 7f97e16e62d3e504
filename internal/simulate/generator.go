package simulate

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/reftools/matchvoice/pkg/logger"
)

// randomFloatDivisor controls the resolution of getRandomFloat.
const randomFloatDivisor = 1000000

// playerPool is a fixed squad of Swedish player names. Runs against a live
// federation match will only resolve the names that happen to be on the real
// rosters; the rest exercise the unresolved-player path.
var playerPool = []string{
	"Erik Karlsson",
	"Johan Berg",
	"Anders Lindqvist",
	"Marcus Nilsson",
	"Oscar Dahl",
	"Viktor Holm",
	"Emil Sandberg",
	"Gustav Åberg",
	"Henrik Ström",
	"Jonas Ekström",
}

// Minute words the normalizer resolves to digits. Mixing words and digits
// exercises both paths of minute detection.
var minutePhrases = []string{
	"femtonde minuten",
	"23 minuten",
	"fyrtiotredje minuten",
	"67 minuten",
	"åttionde minuten",
	"90 minuten",
}

// Filler-heavy utterances that carry no event phrase at all.
var noisePhrases = []string{
	"eh alltså det blåser rätt mycket här nere",
	"publiken är verkligen med idag liksom",
	"vi väntar på att bollen ska komma i spel igen",
	"ja alltså domarteamet diskuterar någonting",
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// pick returns a random element of the slice.
func pick(items []string) string {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(items))))
	return items[n.Int64()]
}

// generateUtterances creates the configured number of utterance payloads.
func generateUtterances(ctx context.Context, config *Config, stats *Stats) []utterancePayload {
	logger.Get().Info(ctx, "generating utterances",
		logger.Int("numUtterances", config.NumUtterances),
		logger.Float64("noiseRatio", config.NoiseRatio))

	utterances := make([]utterancePayload, config.NumUtterances)
	for i := range utterances {
		utterances[i] = generateSingleUtterance(config)
	}

	stats.UtterancesGenerated = len(utterances)
	return utterances
}

// generateSingleUtterance builds one utterance, noisy with the configured
// probability, otherwise a weighted mix of event phrases.
func generateSingleUtterance(config *Config) utterancePayload {
	text := generateEventPhrase()
	if getRandomFloat() < config.NoiseRatio {
		text = pick(noisePhrases)
	}

	return utterancePayload{
		Text:          text,
		MatchID:       config.MatchID,
		Locale:        "sv",
		CapturedAt:    time.Now().UTC().Format(time.RFC3339),
		STTConfidence: 0.5 + getRandomFloat()*0.5,
	}
}

// Phrase type cases, weighted toward goals and cards the way a real match
// report skews.
const (
	caseGoal         = 0
	caseGoalTeamWord = 1
	caseYellowCard   = 2
	caseRedCard      = 3
	caseSubstitution = 4
	casePeriodStart  = 5
	casePeriodEnd    = 6
	caseInjury       = 7
	phraseCaseCount  = 8
)

func generateEventPhrase() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(phraseCaseCount))
	switch n.Int64() {
	case caseGoal:
		return fmt.Sprintf("mål av %s i %s", pick(playerPool), pick(minutePhrases))
	case caseGoalTeamWord:
		return fmt.Sprintf("mål för hemmalaget i %s", pick(minutePhrases))
	case caseYellowCard:
		return fmt.Sprintf("gult kort för %s", pick(playerPool))
	case caseRedCard:
		return fmt.Sprintf("rött kort för %s i %s", pick(playerPool), pick(minutePhrases))
	case caseSubstitution:
		return fmt.Sprintf("byte %s ersätter %s", pick(playerPool), pick(playerPool))
	case casePeriodStart:
		return "avspark matchen är igång"
	case casePeriodEnd:
		return "halvtid här på arenan"
	case caseInjury:
		return fmt.Sprintf("%s ligger skadad på planen", pick(playerPool))
	default:
		return fmt.Sprintf("mål av %s", pick(playerPool))
	}
}
