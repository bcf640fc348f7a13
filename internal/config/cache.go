package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// CacheConfig tunes the catalog response cache. The cache key carries
// no user identity, so PathPrefixes must list only public routes;
// per-user routes like the cart must never match. An empty allowlist
// disables caching entirely.
type CacheConfig struct {
    Enabled      bool
    TTL          time.Duration
    Prefix       string
    MaxBodyBytes int
    PathPrefixes []string
}

// LoadCacheConfig reads the CACHE_* variables with catalog defaults.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:      getenv("CACHE_ENABLED", "true") == "true",
        TTL:          parseDur(getenv("CACHE_TTL", "30s")),
        Prefix:       getenv("CACHE_PREFIX", "catalog"),
        MaxBodyBytes: atoi(getenv("CACHE_MAX_BODY_BYTES", "1048576")),
        PathPrefixes: parsePaths(getenv("CACHE_PATHS", "/v1/items,/v1/categories")),
    }
}

func parsePaths(s string) []string {
    var out []string
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}

func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func atoi(s string) int {
    i, _ := strconv.Atoi(s)
    return i
}

func parseDur(s string) time.Duration {
    d, err := time.ParseDuration(s)
    if err != nil {
        return time.Second
    }
    return d
}
