package middleware

import (
	"intelligent-scheduler/pkg/log"
)

// Config controls ingress checks. Zero values disable the matching check.
type Config struct {
	Secret          string   // HMAC-SHA256 key for X-Signature
	AllowedIPs      []string // exact IPs or CIDR ranges
	RateLimitPerMin int      // per-user request budget
}

type Middleware struct {
	l       log.Logger
	cfg     Config
	limiter *rateLimiter
}

func New(l log.Logger, cfg Config) Middleware {
	mw := Middleware{
		l:   l,
		cfg: cfg,
	}
	if cfg.RateLimitPerMin > 0 {
		mw.limiter = newRateLimiter(cfg.RateLimitPerMin)
	}
	return mw
}
