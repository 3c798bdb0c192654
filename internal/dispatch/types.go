package dispatch

import "time"

// Config bounds run execution and retention.
type Config struct {
	RunTimeout        time.Duration
	Retention         time.Duration
	CommitConcurrency int
	GCSchedule        string
}

const (
	DefaultRunTimeout        = 2 * time.Minute
	DefaultRetention         = time.Hour
	DefaultCommitConcurrency = 4
	DefaultGCSchedule        = "@every 1m"
)

// WithDefaults fills zero fields.
func (c Config) WithDefaults() Config {
	if c.RunTimeout <= 0 {
		c.RunTimeout = DefaultRunTimeout
	}
	if c.Retention <= 0 {
		c.Retention = DefaultRetention
	}
	if c.CommitConcurrency <= 0 {
		c.CommitConcurrency = DefaultCommitConcurrency
	}
	if c.GCSchedule == "" {
		c.GCSchedule = DefaultGCSchedule
	}
	return c
}
