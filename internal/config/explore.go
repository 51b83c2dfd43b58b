package config

import "time"

// ExploreConfig configures the exploration engine.
type ExploreConfig struct {
	// MaxDepth bounds how many navigation hops from the entry screen an
	// exploration may descend.
	MaxDepth int `yaml:"max_depth"`

	// MaxDuration bounds the wall-clock time of one session.
	MaxDuration string `yaml:"max_duration"`

	// BackRecoveryAttempts is how many consecutive back presses are tried
	// to return from a foreign app before the session fails.
	BackRecoveryAttempts int `yaml:"back_recovery_attempts"`

	// SettleDelay is how long the engine waits after a gesture before
	// capturing the resulting screen.
	SettleDelay string `yaml:"settle_delay"`

	// TreeReadRetries is how many capture attempts are made per screen
	// before the current exploration step is abandoned.
	TreeReadRetries int `yaml:"tree_read_retries"`

	// Strategy selects the traversal order for safe elements on a screen:
	// "depth_first" (document order) or "shallow_first".
	Strategy string `yaml:"strategy"`
}

// GetMaxDuration returns the session time bound as a duration.
func (c *ExploreConfig) GetMaxDuration() time.Duration {
	d, err := time.ParseDuration(c.MaxDuration)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// GetSettleDelay returns the post-gesture settle delay as a duration.
func (c *ExploreConfig) GetSettleDelay() time.Duration {
	d, err := time.ParseDuration(c.SettleDelay)
	if err != nil {
		return 800 * time.Millisecond
	}
	return d
}
