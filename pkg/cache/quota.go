package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// consumeScript increments KEYS[1] unless it already reached ARGV[1].
// Returns the new count, or -1 when the limit is exhausted.
var consumeScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
	return -1
end
current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('EXPIRE', KEYS[1], ARGV[2])
end
return current
`)

// Quota keeps per-(user, day) message counters in Redis so several bot
// processes share one allowance.
type Quota struct {
	cache *Cache
}

func NewQuota(c *Cache) *Quota {
	return &Quota{cache: c}
}

func (q *Quota) key(userID, day string) string {
	return q.cache.Key("quota", day, userID)
}

// ConsumeQuota has the same contract as the sqlite store: the check and the
// increment run as one script so concurrent messages cannot overshoot limit.
func (q *Quota) ConsumeQuota(ctx context.Context, userID, day string, limit int) (int, bool, error) {
	if limit < 1 {
		return 0, false, nil
	}

	n, err := consumeScript.Run(ctx, q.cache.client,
		[]string{q.key(userID, day)}, limit, int(QuotaTTL.Seconds())).Int64()
	if err != nil {
		return 0, false, fmt.Errorf("failed to consume quota for %s: %w", userID, err)
	}
	if n < 0 {
		return limit, false, nil
	}
	return int(n), true, nil
}

func (q *Quota) Usage(ctx context.Context, userID, day string) (int, error) {
	v, err := q.cache.Get(ctx, q.key(userID, day))
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read usage for %s: %w", userID, err)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("corrupt usage counter for %s: %w", userID, err)
	}
	return n, nil
}
