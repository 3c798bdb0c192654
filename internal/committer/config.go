package committer

import "time"

const (
	DefaultMaxRequests      = 1
	DefaultInterval         = time.Minute
	DefaultTimeout          = 30 * time.Second
	DefaultFailureThreshold = 3
	DefaultBreakerCacheSize = 1000
	DefaultBreakerTTL       = time.Hour
)

// Config tunes the per-user circuit breaker around calendar writes.
type Config struct {
	MaxRequests      uint32        // probes allowed while half-open
	Interval         time.Duration // closed-state counter reset period
	Timeout          time.Duration // open -> half-open delay
	FailureThreshold uint32        // consecutive failures that open the breaker
	BreakerCacheSize int           // users whose breaker is kept
	BreakerTTL       time.Duration // a breaker is rebuilt this long after creation
}

func (c *Config) setDefaults() {
	if c.MaxRequests == 0 {
		c.MaxRequests = DefaultMaxRequests
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = DefaultFailureThreshold
	}
	if c.BreakerCacheSize <= 0 {
		c.BreakerCacheSize = DefaultBreakerCacheSize
	}
	if c.BreakerTTL < c.Timeout {
		c.BreakerTTL = max(DefaultBreakerTTL, c.Timeout)
	}
}
