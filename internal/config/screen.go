package config

// ScreenConfig configures screen fingerprinting and deduplication.
type ScreenConfig struct {
	// SimilarityThreshold is the fraction of agreeing summary-prefix
	// characters at or above which two screens are treated as the same
	// logical screen.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// RecentWindow is how many recently visited screens of the same app
	// are compared against before a new screen record is created.
	RecentWindow int `yaml:"recent_window"`

	// PrefixLength is how many characters of the summary hash participate
	// in the similarity comparison.
	PrefixLength int `yaml:"prefix_length"`
}
