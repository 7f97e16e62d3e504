package normalize

import (
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/reftools/matchvoice/internal/domain/model"
)

// RuleSet holds the locale-specific normalization tables.
type RuleSet struct {
	caser   cases.Caser
	fillers map[string]struct{}
	// numbers maps cardinal and ordinal words to values.
	numbers map[string]int
	// tens and units support compound words like "trettiofemte" (35th).
	tens  map[string]int
	units map[string]int
	// minuteWords mark a neighboring number token as a minute reference.
	minuteWords map[string]struct{}
}

// NewRuleSet builds a custom rule set for use with WithRuleSet.
func NewRuleSet(tag language.Tag, fillers []string, numbers map[string]int, tens, units map[string]int, minuteWords []string) *RuleSet {
	rs := &RuleSet{
		caser:       cases.Lower(tag),
		fillers:     make(map[string]struct{}, len(fillers)),
		numbers:     numbers,
		tens:        tens,
		units:       units,
		minuteWords: make(map[string]struct{}, len(minuteWords)),
	}
	for _, f := range fillers {
		rs.fillers[f] = struct{}{}
	}
	for _, w := range minuteWords {
		rs.minuteWords[w] = struct{}{}
	}
	return rs
}

// numberValue resolves a token to a numeric value, handling direct lookups
// and tens+unit compounds.
func (rs *RuleSet) numberValue(tok string) (int, bool) {
	if v, ok := rs.numbers[tok]; ok {
		return v, true
	}
	for prefix, tv := range rs.tens {
		if len(tok) > len(prefix) && tok[:len(prefix)] == prefix {
			if uv, ok := rs.units[tok[len(prefix):]]; ok {
				return tv + uv, true
			}
		}
	}
	return 0, false
}

// detectMinute finds the first minute reference among the tokens: a number
// adjacent to a minute word, in either order. Out-of-range values are ignored.
func (rs *RuleSet) detectMinute(tokens []string) *int {
	for i, tok := range tokens {
		if _, ok := rs.minuteWords[tok]; !ok {
			continue
		}
		for _, j := range []int{i - 1, i + 1} {
			if j < 0 || j >= len(tokens) {
				continue
			}
			v, err := strconv.Atoi(tokens[j])
			if err != nil {
				continue
			}
			// Hyphenated compounds split into two number tokens
			// ("forty-fifth" -> "40" "5"); rejoin them.
			if v < 10 && j > 0 {
				if tens, err := strconv.Atoi(tokens[j-1]); err == nil && tens >= 20 && tens%10 == 0 {
					v += tens
				}
			}
			if v < model.MinuteMin || v > model.MinuteMax {
				continue
			}
			return &v
		}
	}
	return nil
}

func swedishRules() *RuleSet {
	numbers := map[string]int{
		"noll": 0,
		"en": 1, "ett": 1, "första": 1,
		"två": 2, "andra": 2,
		"tre": 3, "tredje": 3,
		"fyra": 4, "fjärde": 4,
		"fem": 5, "femte": 5,
		"sex": 6, "sjätte": 6,
		"sju": 7, "sjunde": 7,
		"åtta": 8, "åttonde": 8,
		"nio": 9, "nionde": 9,
		"tio": 10, "tionde": 10,
		"elva": 11, "elfte": 11,
		"tolv": 12, "tolfte": 12,
		"tretton": 13, "trettonde": 13,
		"fjorton": 14, "fjortonde": 14,
		"femton": 15, "femtonde": 15,
		"sexton": 16, "sextonde": 16,
		"sjutton": 17, "sjuttonde": 17,
		"arton": 18, "artonde": 18,
		"nitton": 19, "nittonde": 19,
		"tjugo": 20, "tjugonde": 20,
		"trettio": 30, "trettionde": 30,
		"fyrtio": 40, "fyrtionde": 40,
		"femtio": 50, "femtionde": 50,
		"sextio": 60, "sextionde": 60,
		"sjuttio": 70, "sjuttionde": 70,
		"åttio": 80, "åttionde": 80,
		"nittio": 90, "nittionde": 90,
		"hundra": 100, "hundrade": 100,
	}
	tens := map[string]int{
		"tjugo": 20, "trettio": 30, "fyrtio": 40, "femtio": 50,
		"sextio": 60, "sjuttio": 70, "åttio": 80, "nittio": 90,
		"hundra": 100,
	}
	units := map[string]int{
		"en": 1, "ett": 1, "första": 1,
		"två": 2, "andra": 2,
		"tre": 3, "tredje": 3,
		"fyra": 4, "fjärde": 4,
		"fem": 5, "femte": 5,
		"sex": 6, "sjätte": 6,
		"sju": 7, "sjunde": 7,
		"åtta": 8, "åttonde": 8,
		"nio": 9, "nionde": 9,
		"tio": 10, "tionde": 10,
		"elva": 11, "elfte": 11,
		"tolv": 12, "tolfte": 12,
	}
	fillers := []string{"eh", "öh", "äh", "hmm", "alltså", "asså", "liksom", "typ"}
	minuteWords := []string{"minut", "minuten", "minuter"}
	return NewRuleSet(language.Swedish, fillers, numbers, tens, units, minuteWords)
}

func englishRules() *RuleSet {
	numbers := map[string]int{
		"zero": 0,
		"one": 1, "first": 1,
		"two": 2, "second": 2,
		"three": 3, "third": 3,
		"four": 4, "fourth": 4,
		"five": 5, "fifth": 5,
		"six": 6, "sixth": 6,
		"seven": 7, "seventh": 7,
		"eight": 8, "eighth": 8,
		"nine": 9, "ninth": 9,
		"ten": 10, "tenth": 10,
		"eleven": 11, "eleventh": 11,
		"twelve": 12, "twelfth": 12,
		"thirteen": 13, "thirteenth": 13,
		"fourteen": 14, "fourteenth": 14,
		"fifteen": 15, "fifteenth": 15,
		"sixteen": 16, "sixteenth": 16,
		"seventeen": 17, "seventeenth": 17,
		"eighteen": 18, "eighteenth": 18,
		"nineteen": 19, "nineteenth": 19,
		"twenty": 20, "twentieth": 20,
		"thirty": 30, "thirtieth": 30,
		"forty": 40, "fortieth": 40,
		"fifty": 50, "fiftieth": 50,
		"sixty": 60, "sixtieth": 60,
		"seventy": 70, "seventieth": 70,
		"eighty": 80, "eightieth": 80,
		"ninety": 90, "ninetieth": 90,
		"hundred": 100, "hundredth": 100,
	}
	// English compounds arrive hyphenated ("forty-five") and are split into
	// separate tokens by punctuation stripping, so tens+unit pairs are
	// resolved as adjacent tokens rather than compounds.
	fillers := []string{"uh", "um", "er", "ah", "hmm", "like", "well"}
	minuteWords := []string{"minute", "minutes", "min"}
	return NewRuleSet(language.English, fillers, numbers, nil, nil, minuteWords)
}
