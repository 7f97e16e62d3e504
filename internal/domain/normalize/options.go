package normalize

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithRuleSet registers or replaces the rule set for a locale tag.
// The tag is reduced to its primary subtag ("sv-SE" registers as "sv").
func WithRuleSet(tag string, rs *RuleSet) Option {
	return func(n *Normalizer) {
		if rs != nil && tag != "" {
			n.rules[primaryLocale(tag)] = rs
		}
	}
}
