// Package ratelimit implements a Redis-backed token bucket, used to cap
// both seat hold/pay traffic and authentication traffic per caller.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config describes one independent token bucket.
type Config struct {
	Prefix       string
	Capacity     int
	RefillTokens int
	RefillPeriod time.Duration
	KeyTTL       time.Duration
}

// Limiter is a single Redis-backed token bucket.
type Limiter struct {
	client *redis.Client
	cfg    Config
	script *redis.Script
}

// New creates a Limiter for the given bucket configuration.
func New(client *redis.Client, cfg Config) *Limiter {
	if cfg.KeyTTL == 0 {
		cfg.KeyTTL = cfg.RefillPeriod * 10
	}
	return &Limiter{
		client: client,
		cfg:    cfg,
		script: redis.NewScript(luaTokenBucket),
	}
}

// luaTokenBucket refills then spends a token in one atomic step, mirroring
// the HMGET/HMSET/EXPIRE bucket state pattern used across the example
// pack's rate limiters.
const luaTokenBucket = `
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local period_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

if period_ms > 0 and refill_tokens > 0 then
	local elapsed = math.max(0, now_ms - last_refill)
	local periods = math.floor(elapsed / period_ms)
	if periods > 0 then
		tokens = math.min(capacity, tokens + (periods * refill_tokens))
		last_refill = last_refill + (periods * period_ms)
	end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	local until_next = period_ms - (now_ms - last_refill)
	if until_next < 0 then until_next = 0 end
	retry_after_ms = until_next
end

redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return {allowed, tokens, retry_after_ms}
`

// Result is the outcome of one Allow call.
type Result struct {
	Allowed      bool
	Remaining    int64
	RetryAfter   time.Duration
}

// Allow spends one token for identity (an IP, a user ID, or a composite
// key), refilling the bucket first per the elapsed time since last use.
func (l *Limiter) Allow(ctx context.Context, identity string) (Result, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", l.cfg.Prefix, identity)

	res, err := l.script.Run(ctx, l.client, []string{key},
		time.Now().UnixMilli(),
		l.cfg.Capacity,
		l.cfg.RefillTokens,
		l.cfg.RefillPeriod.Milliseconds(),
		int64(l.cfg.KeyTTL/time.Second),
	).Result()
	if err != nil {
		return Result{}, fmt.Errorf("run token bucket script: %w", err)
	}

	arr, ok := res.([]interface{})
	if !ok || len(arr) != 3 {
		return Result{}, fmt.Errorf("unexpected token bucket result: %#v", res)
	}

	allowed, _ := arr[0].(int64)
	remaining, _ := arr[1].(int64)
	retryMs, _ := arr[2].(int64)

	return Result{
		Allowed:    allowed == 1,
		Remaining:  remaining,
		RetryAfter: time.Duration(retryMs) * time.Millisecond,
	}, nil
}
