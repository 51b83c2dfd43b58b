package config

// CommandConfig configures voice command generation and utterance matching.
type CommandConfig struct {
	// MinStability is the fingerprint stability score an element must
	// reach before voice phrases are generated for it.
	MinStability float64 `yaml:"min_stability"`

	// MatchThreshold is the minimum adjusted match score below which an
	// utterance is reported as having no match.
	MatchThreshold float64 `yaml:"match_threshold"`

	// UsageBonusCap caps the score bonus earned from repeated use of a
	// command, so popularity can break ties but never overrule text
	// similarity.
	UsageBonusCap float64 `yaml:"usage_bonus_cap"`
}
