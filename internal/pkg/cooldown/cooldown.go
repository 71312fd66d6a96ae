package cooldown

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "curhat:cooldown:reset:"

// Gate enforces a minimum interval between reset-code requests per email.
type Gate struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewGate(rdb *redis.Client, ttl time.Duration) *Gate {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Gate{
		rdb: rdb,
		ttl: ttl,
	}
}

// Acquire reports whether a code may be sent for the email now. The first
// call within the window wins; later calls are rejected until the TTL lapses.
func (g *Gate) Acquire(ctx context.Context, email string) (bool, error) {
	if g == nil || g.rdb == nil || email == "" {
		return true, nil
	}
	key := keyPrefix + hashEmail(email)
	ok, err := g.rdb.SetNX(ctx, key, "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cooldown setnx: %w", err)
	}
	return ok, nil
}

// Release clears the gate for the email (used after a successful reset).
func (g *Gate) Release(ctx context.Context, email string) error {
	if g == nil || g.rdb == nil || email == "" {
		return nil
	}
	key := keyPrefix + hashEmail(email)
	if err := g.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cooldown del: %w", err)
	}
	return nil
}

func hashEmail(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}
