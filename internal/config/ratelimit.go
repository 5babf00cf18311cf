package config

import (
	"os"
	"time"
)

// RateLimitConfig controls the Redis-backed request limiter.  The limiter
// uses a fixed window: up to Limit requests are allowed per Window for a
// given client key, then requests are rejected until the window rolls over.
type RateLimitConfig struct {
	Enabled bool          // master switch; disabled limiters pass every request through
	Limit   int           // requests allowed per window
	Window  time.Duration // window length
	Prefix  string        // key prefix in Redis
}

// LoadRateLimitConfig reads limiter settings from the environment and
// normalizes nonsensical values back to safe defaults.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled: envBool("RATE_LIMIT_ENABLED", true),
		Limit:   envInt("RATE_LIMIT_MAX", 100),
		Window:  envDur("RATE_LIMIT_WINDOW", time.Minute),
		Prefix:  envStr("RATE_LIMIT_PREFIX", "rl"),
	}
	if cfg.Limit < 1 {
		cfg.Limit = 1
	}
	if cfg.Window < time.Second {
		cfg.Window = time.Minute
	}
	return cfg
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
