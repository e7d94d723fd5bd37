// Package ratelimit implements C5: a per-(route, client-ip) token bucket
// with a process-local hot cache in front of a shared Redis-backed bucket.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/synnergy-network/rpc-gateway/internal/apperr"
)

// RouteConfig holds the token-bucket parameters for one route label.
type RouteConfig struct {
	Capacity       int64
	RefillInterval time.Duration
	RefillTokens   int64
}

// ErrStoreUnavailable is reported internally (never to the caller, which
// always fails open) so bootstrap code can count shared-store errors.
var ErrStoreUnavailable = errors.New("ratelimit: shared store unavailable")

// Limiter is C5.
type Limiter struct {
	redis     *redis.Client
	routes    map[string]RouteConfig
	whitelist map[string]struct{}
	l1        *lru.Cache[string, time.Time] // key -> "exhausted until"
	onStoreError func(error)
	now       func() time.Time
}

// New builds a Limiter. whitelist is a set of client IPs that always pass
// (spec §4.5 step 1).
func New(redisClient *redis.Client, routes map[string]RouteConfig, whitelist []string, l1Size int) (*Limiter, error) {
	cache, err := lru.New[string, time.Time](l1Size)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: building L1 cache: %w", err)
	}
	wl := make(map[string]struct{}, len(whitelist))
	for _, ip := range whitelist {
		wl[ip] = struct{}{}
	}
	return &Limiter{
		redis: redisClient, routes: routes, whitelist: wl, l1: cache,
		onStoreError: func(error) {}, now: time.Now,
	}, nil
}

// OnStoreError registers a callback invoked whenever the shared store
// fails and the limiter fails open, for C8's error counter.
func (l *Limiter) OnStoreError(fn func(error)) { l.onStoreError = fn }

func bucketKey(route, clientIP string) string { return route + "|" + clientIP }

// Check enforces the bucket for (route, clientIP) per spec §4.5's four
// steps: whitelist bypass, L1 short-circuit, atomic L2 refill+decrement,
// and fail-open on any store error.
func (l *Limiter) Check(ctx context.Context, route, clientIP string) error {
	if _, ok := l.whitelist[clientIP]; ok {
		return nil
	}
	cfg, ok := l.routes[route]
	if !ok {
		// No configured limit for this route: nothing to enforce.
		return nil
	}

	key := bucketKey(route, clientIP)
	now := l.now()
	if until, ok := l.l1.Get(key); ok && until.After(now) {
		return apperr.New(apperr.ReasonRateLimited, "throttled", "too many requests")
	}

	if l.redis == nil {
		return nil
	}

	allowed, retryAt, err := l.consumeToken(ctx, key, cfg, now)
	if err != nil {
		l.onStoreError(fmt.Errorf("%w: %v", ErrStoreUnavailable, err))
		return nil // fail open: the bucket is a safety rail, not an authorization mechanism.
	}
	if !allowed {
		l.l1.Add(key, retryAt)
		return apperr.New(apperr.ReasonRateLimited, "throttled", "too many requests")
	}
	return nil
}

// consumeToken performs an atomic refill+decrement against Redis using a
// Lua script so the bucket's clock is the store's clock (spec §4.5 step 3
// "using the store's time as the monotonic reference"), not the gateway
// process's local clock.
func (l *Limiter) consumeToken(ctx context.Context, key string, cfg RouteConfig, fallbackNow time.Time) (allowed bool, retryAt time.Time, err error) {
	ttl := cfg.RefillInterval
	if ttl <= 0 {
		ttl = time.Second
	}
	res, err := tokenBucketScript.Run(ctx, l.redis, []string{"rpcproxy:rl:" + key},
		cfg.Capacity, cfg.RefillTokens, int64(cfg.RefillInterval/time.Millisecond), int64(ttl/time.Millisecond)).Result()
	if err != nil {
		return false, time.Time{}, err
	}
	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return false, time.Time{}, fmt.Errorf("ratelimit: unexpected script result %#v", res)
	}
	allowedInt, _ := vals[0].(int64)
	retryMillis, _ := vals[1].(int64)
	if allowedInt == 1 {
		return true, time.Time{}, nil
	}
	return false, fallbackNow.Add(time.Duration(retryMillis) * time.Millisecond), nil
}

// tokenBucketScript performs refill+decrement atomically server-side,
// using Redis TIME as the clock, so concurrent gateway processes never
// race on a read-then-write against the bucket.
//
// KEYS[1] = bucket key
// ARGV[1] = capacity
// ARGV[2] = refill tokens per interval
// ARGV[3] = refill interval (ms)
// ARGV[4] = key TTL (ms)
// returns {allowed(0/1), retry_after_ms}
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refill_tokens = tonumber(ARGV[2])
local refill_interval_ms = tonumber(ARGV[3])
local ttl_ms = tonumber(ARGV[4])

local time_parts = redis.call("TIME")
local now_ms = tonumber(time_parts[1]) * 1000 + math.floor(tonumber(time_parts[2]) / 1000)

local data = redis.call("HMGET", key, "tokens", "last_refill_ms")
local tokens = tonumber(data[1])
local last_refill_ms = tonumber(data[2])

if tokens == nil then
  tokens = capacity
  last_refill_ms = now_ms
end

local elapsed = now_ms - last_refill_ms
if elapsed > 0 and refill_interval_ms > 0 then
  local intervals = math.floor(elapsed / refill_interval_ms)
  if intervals > 0 then
    tokens = math.min(capacity, tokens + intervals * refill_tokens)
    last_refill_ms = last_refill_ms + intervals * refill_interval_ms
  end
end

local allowed = 0
local retry_after = refill_interval_ms
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
  retry_after = 0
end

redis.call("HMSET", key, "tokens", tokens, "last_refill_ms", last_refill_ms)
redis.call("PEXPIRE", key, ttl_ms)

return {allowed, retry_after}
`)
