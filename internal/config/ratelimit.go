package config

import "time"

// RateLimitConfig tunes the token bucket guarding the credential
// endpoints. Capacity is the burst size; one token refills every
// RefillInterval. TTL bounds how long an idle bucket lives in Redis.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillInterval time.Duration
    TTL            time.Duration
    Prefix         string
}

// LoadRateLimitConfig reads the RATE_LIMIT_* variables. Defaults are
// sized for login traffic: a burst of ten attempts per client, then one
// more every two seconds.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:        getenv("RATE_LIMIT_ENABLED", "true") == "true",
        Capacity:       atoi(getenv("RATE_LIMIT_CAPACITY", "10")),
        RefillInterval: parseDur(getenv("RATE_LIMIT_REFILL_INTERVAL", "2s")),
        TTL:            parseDur(getenv("RATE_LIMIT_TTL", "10m")),
        Prefix:         getenv("RATE_LIMIT_PREFIX", "rl"),
    }
    if cfg.Capacity < 1 {
        cfg.Capacity = 1
    }
    if cfg.RefillInterval <= 0 {
        cfg.RefillInterval = time.Second
    }
    // A bucket must outlive a few refill cycles or it resets to full
    // between attempts and the limit never bites.
    if cfg.TTL < 5*cfg.RefillInterval {
        cfg.TTL = 5 * cfg.RefillInterval
    }
    return cfg
}
