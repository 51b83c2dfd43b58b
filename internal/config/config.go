// Package config holds all uiscout configuration. A single YAML file in the
// data directory configures every subsystem; environment variables override
// the handful of settings that differ between a developer laptop and a
// device deployment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all uiscout configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Exploration engine
	Explore ExploreConfig `yaml:"explore"`

	// Screen fingerprinting and dedup
	Screen ScreenConfig `yaml:"screen"`

	// Element safety classification
	Safety SafetyConfig `yaml:"safety"`

	// Voice command generation and matching
	Command CommandConfig `yaml:"command"`

	// SQLite persistence
	Store StoreConfig `yaml:"store"`

	// Platform bridges
	Bridge BridgeConfig `yaml:"bridge"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "uiscout",
		Version: "1.0.0",

		Explore: ExploreConfig{
			MaxDepth:             15,
			MaxDuration:          "10m",
			BackRecoveryAttempts: 3,
			SettleDelay:          "800ms",
			TreeReadRetries:      3,
			Strategy:             "depth_first",
		},

		Screen: ScreenConfig{
			SimilarityThreshold: 0.90,
			RecentWindow:        10,
			PrefixLength:        16,
		},

		Safety: SafetyConfig{},

		Command: CommandConfig{
			MinStability:   0.7,
			MatchThreshold: 0.5,
			UsageBonusCap:  0.2,
		},

		Store: StoreConfig{
			DatabasePath: "uiscout.db",
			BatchSize:    50,
			BusyTimeout:  "5s",
		},

		Bridge: BridgeConfig{
			Capture: CaptureConfig{
				Dir:        "capture",
				DebounceMs: 500,
			},
			Web: WebConfig{
				Headless:    true,
				PageTimeout: "30s",
			},
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultDataDir returns the data directory uiscout works out of. UISCOUT_DATA
// overrides; otherwise ~/.uiscout, falling back to ./.uiscout when the home
// directory cannot be resolved.
func DefaultDataDir() string {
	if dir := os.Getenv("UISCOUT_DATA"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".uiscout"
	}
	return filepath.Join(home, ".uiscout")
}

// Load loads configuration from <dataDir>/config.yaml. A missing file yields
// defaults. Relative paths inside the config resolve against the data
// directory.
func Load(dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filepath.Join(dataDir, "config.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			cfg.resolvePaths(dataDir)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()
	cfg.resolvePaths(dataDir)

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("UISCOUT_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if dir := os.Getenv("UISCOUT_CAPTURE_DIR"); dir != "" {
		c.Bridge.Capture.Dir = dir
	}
	if url := os.Getenv("UISCOUT_BROWSER_URL"); url != "" {
		c.Bridge.Web.ControlURL = url
	}
	if os.Getenv("UISCOUT_DEBUG") == "1" {
		c.Logging.DebugMode = true
		if c.Logging.Level == "" || c.Logging.Level == "info" {
			c.Logging.Level = "debug"
		}
	}
}

// resolvePaths anchors relative paths at the data directory.
func (c *Config) resolvePaths(dataDir string) {
	if dataDir == "" {
		return
	}
	if c.Store.DatabasePath != "" && !filepath.IsAbs(c.Store.DatabasePath) {
		c.Store.DatabasePath = filepath.Join(dataDir, c.Store.DatabasePath)
	}
	if c.Bridge.Capture.Dir != "" && !filepath.IsAbs(c.Bridge.Capture.Dir) {
		c.Bridge.Capture.Dir = filepath.Join(dataDir, c.Bridge.Capture.Dir)
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Screen.SimilarityThreshold < 0 || c.Screen.SimilarityThreshold > 1 {
		return fmt.Errorf("screen similarity threshold must be in [0,1], got %v", c.Screen.SimilarityThreshold)
	}
	if c.Command.MinStability < 0 || c.Command.MinStability > 1 {
		return fmt.Errorf("command min stability must be in [0,1], got %v", c.Command.MinStability)
	}
	if c.Command.MatchThreshold < 0 || c.Command.MatchThreshold > 1 {
		return fmt.Errorf("command match threshold must be in [0,1], got %v", c.Command.MatchThreshold)
	}
	if c.Explore.BackRecoveryAttempts < 1 {
		return fmt.Errorf("back recovery attempts must be at least 1, got %d", c.Explore.BackRecoveryAttempts)
	}
	if c.Explore.MaxDepth < 1 {
		return fmt.Errorf("max exploration depth must be at least 1, got %d", c.Explore.MaxDepth)
	}
	if c.Store.DatabasePath == "" {
		return fmt.Errorf("database path not configured")
	}
	return nil
}
