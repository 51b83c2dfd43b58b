package config

import "time"

// BridgeConfig configures the platform bridges that expose live UI trees.
type BridgeConfig struct {
	// Capture configures the snapshot-directory bridge.
	Capture CaptureConfig `yaml:"capture"`

	// Web configures the browser bridge.
	Web WebConfig `yaml:"web"`
}

// CaptureConfig configures the snapshot-directory bridge, where a platform
// companion drops UI tree snapshots as files.
type CaptureConfig struct {
	// Dir is the watched snapshot directory. Relative paths resolve
	// against the data directory.
	Dir string `yaml:"dir"`

	// DebounceMs collapses bursts of file events for the same snapshot
	// into one screen-changed signal.
	DebounceMs int `yaml:"debounce_ms"`
}

// GetDebounce returns the capture debounce interval as a duration.
func (c *CaptureConfig) GetDebounce() time.Duration {
	if c.DebounceMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// WebConfig configures the browser bridge.
type WebConfig struct {
	// ControlURL connects to an already-running browser's devtools
	// endpoint. Empty launches a managed browser.
	ControlURL string `yaml:"control_url"`

	// Headless controls whether a managed browser shows a window.
	Headless bool `yaml:"headless"`

	// PageTimeout bounds individual page operations.
	PageTimeout string `yaml:"page_timeout"`
}

// GetPageTimeout returns the page operation timeout as a duration.
func (c *WebConfig) GetPageTimeout() time.Duration {
	d, err := time.ParseDuration(c.PageTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
