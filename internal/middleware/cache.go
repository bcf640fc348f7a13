package middleware

// Response cache for the public catalog. Only allowlisted GET routes go
// through the cache; everything else passes straight to the handler.

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/makshevelkin/MIPTORENT/internal/config"
)

// cachedResponse is the envelope stored in Redis. The body round-trips
// as base64 inside JSON, which keeps entries readable from redis-cli.
type cachedResponse struct {
    Status int         `json:"status"`
    Header http.Header `json:"header"`
    Body   []byte      `json:"body"`
}

// captureWriter tees the response body while forwarding it to the
// client. Bodies that outgrow the limit are passed through unbuffered.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
    cw.status = code
    cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
    if cw.limit <= 0 || cw.size+int64(len(b)) <= cw.limit {
        cw.buf.Write(b)
    }
    cw.size += int64(len(b))
    return cw.ResponseWriter.Write(b)
}

// cachablePath reports whether the request path may hit the cache. An
// empty allowlist disables caching rather than caching everything: the
// cache key carries no user identity, so per-user routes must stay out.
func cachablePath(prefixes []string, path string) bool {
    for _, p := range prefixes {
        if strings.HasPrefix(path, p) {
            return true
        }
    }
    return false
}

func cacheKey(prefix, route, query string) string {
    sum := sha1.Sum([]byte(route + "?" + query))
    return fmt.Sprintf("%s:%x", prefix, sum)
}

// NewRedisCache caches whole responses, headers included, so a hit is
// byte-identical to the miss that produced it.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 30 * time.Second
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            r := c.Request()
            if r.Method != http.MethodGet || !cachablePath(cfg.PathPrefixes, r.URL.Path) {
                return next(c)
            }
            key := cacheKey(cfg.Prefix, c.Path(), r.URL.RawQuery)

            if bs, err := rdb.Get(r.Context(), key).Bytes(); err == nil {
                var cached cachedResponse
                if json.Unmarshal(bs, &cached) == nil {
                    for k, vals := range cached.Header {
                        if strings.EqualFold(k, "Content-Length") {
                            continue
                        }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(cached.Status)
                    _, err := c.Response().Write(cached.Body)
                    return err
                }
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(cfg.MaxBodyBytes)}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }

            // Only complete 200 bodies get stored; anything the size
            // limit cut short stays out of the cache.
            if cw.status == http.StatusOK && (cw.limit <= 0 || cw.size <= cw.limit) {
                hdr := make(http.Header, len(c.Response().Header()))
                for k, vals := range c.Response().Header() {
                    hdr[k] = append([]string(nil), vals...)
                }
                payload, err := json.Marshal(cachedResponse{Status: cw.status, Header: hdr, Body: cw.buf.Bytes()})
                if err == nil {
                    _ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
                }
            }
            return nil
        }
    }
}
