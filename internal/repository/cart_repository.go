// This file defines the Redis-backed cart store.  A cart is a JSON
// array of lines keyed by user; it has no database identity and simply
// expires after a period of inactivity.  Every write refreshes the TTL.
package repository

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/makshevelkin/MIPTORENT/internal/model"
)

// CartStore keeps per-user draft carts in Redis.
type CartStore struct {
    rdb *redis.Client
    ttl time.Duration
}

// NewCartStore constructs a CartStore.  ttlDays bounds how long an
// untouched cart survives.
func NewCartStore(rdb *redis.Client, ttlDays int) *CartStore {
    if ttlDays <= 0 {
        ttlDays = 30
    }
    return &CartStore{rdb: rdb, ttl: time.Duration(ttlDays) * 24 * time.Hour}
}

func cartKey(userID uint64) string {
    return fmt.Sprintf("cart:%d", userID)
}

// Get returns the user's cart lines.  A missing key is an empty cart,
// not an error.
func (s *CartStore) Get(ctx context.Context, userID uint64) ([]model.CartLine, error) {
    raw, err := s.rdb.Get(ctx, cartKey(userID)).Bytes()
    if err != nil {
        if errors.Is(err, redis.Nil) {
            return nil, nil
        }
        return nil, err
    }
    var lines []model.CartLine
    if err := json.Unmarshal(raw, &lines); err != nil {
        // A corrupt blob is unrecoverable; drop it rather than wedge
        // the cart page forever.
        _ = s.rdb.Del(ctx, cartKey(userID)).Err()
        return nil, nil
    }
    return lines, nil
}

// Save overwrites the user's cart and refreshes its TTL.  An empty
// slice deletes the key.
func (s *CartStore) Save(ctx context.Context, userID uint64, lines []model.CartLine) error {
    if len(lines) == 0 {
        return s.rdb.Del(ctx, cartKey(userID)).Err()
    }
    raw, err := json.Marshal(lines)
    if err != nil {
        return err
    }
    return s.rdb.Set(ctx, cartKey(userID), raw, s.ttl).Err()
}

// Clear removes the user's cart, e.g. after a successful checkout.
func (s *CartStore) Clear(ctx context.Context, userID uint64) error {
    return s.rdb.Del(ctx, cartKey(userID)).Err()
}
