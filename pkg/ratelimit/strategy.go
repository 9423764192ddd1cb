package ratelimit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/time/rate"
)

type Logger interface {
	Error(msg string, args ...interface{})
}

func generateUniqueID() string {
	bytes := make([]byte, 8)

	rand.Read(bytes)

	return hex.EncodeToString(bytes)
}

// RateLimiter defines the strategy interface for rate limiting
type RateLimiter interface {
	GetLimitDetails() (int, time.Duration)
	IsLimited(key string) (bool, error)
	Close() error
}

// SlidingWindowRateLimiter keeps the timestamps of admitted requests per key
// and admits a request only when fewer than `requests` admissions remain in
// the trailing window after pruning. A rejected request is never recorded, so
// hammering the endpoint cannot extend the penalty.
//
// State lives in process memory: a restart resets all counters and
// horizontally scaled deployments count independently per instance. That is
// acceptable for abuse deterrence; use the Redis strategy for a shared budget.
type SlidingWindowRateLimiter struct {
	requests int
	window   time.Duration
	now      func() time.Time

	mu      sync.Mutex
	history map[string][]time.Time
	ops     uint64
}

func NewSlidingWindowRateLimiter(requests int, window time.Duration) *SlidingWindowRateLimiter {
	return &SlidingWindowRateLimiter{
		requests: requests,
		window:   window,
		now:      time.Now,
		history:  make(map[string][]time.Time),
	}
}

// WithClock substitutes the time source. Tests use this to drive the window
// deterministically.
func (r *SlidingWindowRateLimiter) WithClock(now func() time.Time) *SlidingWindowRateLimiter {
	r.now = now
	return r
}

func (r *SlidingWindowRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *SlidingWindowRateLimiter) IsLimited(key string) (bool, error) {
	if key == "" {
		key = "__empty__"
	}

	now := r.now()
	cutoff := now.Add(-r.window)

	r.mu.Lock()
	defer r.mu.Unlock()

	recorded := r.history[key]
	recent := recorded[:0]
	for _, ts := range recorded {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= r.requests {
		r.history[key] = recent
		return true, nil
	}

	r.history[key] = append(recent, now)

	// Opportunistic cleanup to avoid unbounded growth across many one-shot
	// client keys. Runs infrequently and only drops fully expired keys.
	r.ops++
	if r.ops%1024 == 0 {
		for k, ts := range r.history {
			if len(ts) == 0 || !ts[len(ts)-1].After(cutoff) {
				delete(r.history, k)
			}
		}
	}

	return false, nil
}

func (r *SlidingWindowRateLimiter) Close() error {
	return nil
}

// TokenBucketRateLimiter implements token bucket rate limiting for single
// instances. Refill is continuous rather than windowed, which suits the
// router-wide default layer where an exact rolling budget is not required.
type TokenBucketRateLimiter struct {
	requests int
	window   time.Duration

	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	ops      uint64
}

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewTokenBucketRateLimiter(requests int, window time.Duration) *TokenBucketRateLimiter {
	return &TokenBucketRateLimiter{
		requests: requests,
		window:   window,
		limiters: make(map[string]*keyedLimiter),
	}
}

func (r *TokenBucketRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *TokenBucketRateLimiter) IsLimited(key string) (bool, error) {
	if key == "" {
		key = "__empty__"
	}

	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.limiters[key]
	if !ok {
		rps := float64(r.requests) / r.window.Seconds()
		k = &keyedLimiter{
			limiter:  rate.NewLimiter(rate.Limit(rps), r.requests),
			lastSeen: now,
		}
		r.limiters[key] = k
	} else {
		k.lastSeen = now
	}

	// Opportunistic cleanup to avoid unbounded growth.
	r.ops++
	if r.ops%1024 == 0 {
		cutoff := now.Add(-2 * r.window)
		for kKey, kVal := range r.limiters {
			if kVal.lastSeen.Before(cutoff) {
				delete(r.limiters, kKey)
			}
		}
	}

	return !k.limiter.Allow(), nil
}

func (r *TokenBucketRateLimiter) Close() error {
	return nil
}

// RedisRateLimiter implements sliding window rate limiting for distributed systems
type RedisRateLimiter struct {
	client    *redis.Client
	requests  int
	window    time.Duration
	keyPrefix string
	logger    Logger
}

func NewRedisRateLimiter(client *redis.Client, requests int, window time.Duration, logger Logger) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:    client,
		requests:  requests,
		window:    window,
		keyPrefix: "ratelimit:",
		logger:    logger,
	}
}

func (r *RedisRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *RedisRateLimiter) IsLimited(key string) (bool, error) {
	ctx := context.Background()
	fullKey := key
	if r.keyPrefix != "" && !strings.HasPrefix(key, r.keyPrefix) {
		fullKey = r.keyPrefix + key
	}
	now := time.Now().Unix()
	memberID := generateUniqueID()

	// Atomic sliding window rate limiting.
	script := `
		local key = KEYS[1]
		local now = tonumber(ARGV[1])
		local window = tonumber(ARGV[2])
		local limit = tonumber(ARGV[3])
		local expire = tonumber(ARGV[4])
		local memberId = ARGV[5]

		-- Remove old entries outside the window
		redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

		-- Count current requests in window
		local count = redis.call('ZCARD', key)

		-- Check if limit exceeded
		if count >= limit then
			return 1 -- Rate limited
		end

		-- Add current request with unique member ID
		redis.call('ZADD', key, now, memberId)

		-- Set expiration on the key for cleanup
		redis.call('EXPIRE', key, expire)

		return 0 -- Not rate limited
	`

	result, err := r.client.Eval(ctx, script, []string{fullKey}, now, int64(r.window.Seconds()), r.requests, int64((r.window * 2).Seconds()), memberID).Result()
	if err != nil {
		if r.logger != nil {
			r.logger.Error("Redis rate limit script execution failed", "key", fullKey, "error", err)
		}
		// Return error instead of silently allowing: limiting is a security control.
		return false, fmt.Errorf("rate limiter Redis error: %w", err)
	}
	return result.(int64) == 1, nil
}

// The Redis client is owned by the ApplicationConfig and closed there
func (r *RedisRateLimiter) Close() error {
	return nil
}

// Strategy selects the in-memory implementation used when Redis is absent.
type Strategy int

const (
	// StrategySlidingWindow keeps an exact rolling admission budget.
	StrategySlidingWindow Strategy = iota
	// StrategyTokenBucket refills continuously; cheaper, approximate.
	StrategyTokenBucket
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Strategy Strategy      // In-memory strategy when Redis is nil
	Redis    *redis.Client // Optional, if nil uses in-memory
	Logger   Logger        // Optional logger for Redis operations
}

// NewRateLimiter creates a rate limiter based on configuration
func NewRateLimiter(config *RateLimitConfig) RateLimiter {
	if config.Redis != nil {
		return NewRedisRateLimiter(config.Redis, config.Requests, config.Window, config.Logger)
	}
	if config.Strategy == StrategyTokenBucket {
		return NewTokenBucketRateLimiter(config.Requests, config.Window)
	}
	return NewSlidingWindowRateLimiter(config.Requests, config.Window)
}
