package config

// SafetyConfig extends the built-in element safety rules. The built-in term
// lists cannot be disabled, only extended.
type SafetyConfig struct {
	// ExtraDangerTerms are additional words or phrases that mark an
	// element dangerous.
	ExtraDangerTerms []string `yaml:"extra_danger_terms"`

	// ExtraCredentialTerms are additional words or phrases that mark an
	// element credential-related.
	ExtraCredentialTerms []string `yaml:"extra_credential_terms"`
}
