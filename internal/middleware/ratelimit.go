package middleware

import (
    "math"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/makshevelkin/MIPTORENT/internal/config"
)

// tokenBucketScript refills and spends one token atomically. Returns
// {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
    local key = KEYS[1]
    local now = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local interval = tonumber(ARGV[3])
    local ttl = tonumber(ARGV[4])

    local state = redis.call('HMGET', key, 'tokens', 'refilled_at')
    local tokens = tonumber(state[1])
    local refilled_at = tonumber(state[2])
    if tokens == nil or refilled_at == nil then
        tokens = capacity
        refilled_at = now
    end

    local refills = math.floor(math.max(0, now - refilled_at) / interval)
    if refills > 0 then
        tokens = math.min(capacity, tokens + refills)
        refilled_at = refilled_at + refills * interval
    end

    local allowed = 0
    local retry_after = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        retry_after = interval - (now - refilled_at)
        if retry_after < 0 then retry_after = 0 end
    end

    redis.call('HMSET', key, 'tokens', tokens, 'refilled_at', refilled_at)
    redis.call('EXPIRE', key, ttl)
    return { allowed, tokens, retry_after }
`)

// NewTokenBucket throttles requests per client IP and route. The bucket
// state lives in Redis so every instance shares one budget. Redis
// trouble fails open: slow logins beat no logins.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ip := c.RealIP()
            if ip == "" {
                ip = "unknown"
            }
            key := cfg.Prefix + ":" + ip + ":" + c.Request().Method + " " + c.Path()

            vals, err := tokenBucketScript.Run(c.Request().Context(), rdb, []string{key},
                time.Now().UnixMilli(),
                cfg.Capacity,
                cfg.RefillInterval.Milliseconds(),
                int64(cfg.TTL/time.Second),
            ).Int64Slice()
            if err != nil || len(vals) != 3 {
                return next(c)
            }
            allowed, remaining, retryMs := vals[0] == 1, vals[1], vals[2]

            c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
            if !allowed {
                secs := int(math.Ceil(float64(retryMs) / 1000.0))
                c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "too many requests",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}
