package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// Evaler is the part of a go-redis client the limiter needs.
type Evaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// tokenBucketScript refills the bucket from the elapsed time, then takes one
// token if available. Returns 1 when allowed.
const tokenBucketScript = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
local tokens = tonumber(bucket[1])
local last = tonumber(bucket[2])
if tokens == nil then
	tokens = capacity
	last = now
end

local elapsed = math.max(0, now - last) / 1000
tokens = math.min(capacity, tokens + elapsed * rate)

local allowed = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill', now)
redis.call('EXPIRE', key, ttl)
return allowed
`

// RedisLimiter shares token buckets between instances through Redis.
type RedisLimiter struct {
	cfg    Config
	client Evaler
	prefix string
	now    func() time.Time
}

func NewRedisLimiter(client Evaler, cfg Config) *RedisLimiter {
	return &RedisLimiter{cfg: cfg, client: client, prefix: "loja:ratelimit:", now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	res, err := l.client.Eval(ctx, tokenBucketScript, []string{l.prefix + key},
		l.cfg.Burst,
		l.cfg.PerSecond,
		l.now().UnixMilli(),
		l.ttlSeconds(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit %q: %w", key, err)
	}
	return res == 1, nil
}

// ttlSeconds keeps a bucket around long enough to refill completely.
func (l *RedisLimiter) ttlSeconds() int {
	if l.cfg.PerSecond <= 0 {
		return 60
	}
	ttl := int(math.Ceil(float64(l.cfg.Burst)/l.cfg.PerSecond)) + 1
	if ttl < 1 {
		ttl = 1
	}
	return ttl
}
