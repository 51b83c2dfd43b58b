package config

import "time"

// StoreConfig configures SQLite persistence.
type StoreConfig struct {
	// DatabasePath is the SQLite file location. Relative paths resolve
	// against the data directory.
	DatabasePath string `yaml:"database_path"`

	// BatchSize is how many element registrations a batched writer
	// collects before flushing mid-screen.
	BatchSize int `yaml:"batch_size"`

	// BusyTimeout is the SQLite busy timeout.
	BusyTimeout string `yaml:"busy_timeout"`
}

// GetBusyTimeout returns the SQLite busy timeout as a duration.
func (c *StoreConfig) GetBusyTimeout() time.Duration {
	d, err := time.ParseDuration(c.BusyTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}
