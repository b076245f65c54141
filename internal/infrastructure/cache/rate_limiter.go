package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateDecision is the outcome of one rate limit check
type RateDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// RateLimiter counts requests per key in fixed windows
type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateDecision, error)
	Close() error
}

// bucketOf returns floor(unix_now / window) and the time that bucket ends
func bucketOf(now time.Time, window time.Duration) (int64, time.Time) {
	bucket := now.UnixNano() / int64(window)
	return bucket, time.Unix(0, (bucket+1)*int64(window))
}

func decide(count int64, limit int, reset time.Time) RateDecision {
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return RateDecision{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: remaining,
		Reset:     reset,
	}
}

type windowKey struct {
	key    string
	bucket int64
}

// FixedWindowLimiter keeps counters in process memory. Counters of past
// buckets are purged by a background goroutine until Close.
type FixedWindowLimiter struct {
	limit  int
	window time.Duration

	mu        sync.Mutex
	counts    map[windowKey]int64
	now       func() time.Time
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewFixedWindowLimiter allows limit requests per key per window
func NewFixedWindowLimiter(limit int, window time.Duration) *FixedWindowLimiter {
	l := &FixedWindowLimiter{
		limit:  limit,
		window: window,
		counts: make(map[windowKey]int64),
		now:    time.Now,
		stop:   make(chan struct{}),
	}
	l.wg.Add(1)
	go l.purgeLoop()
	return l
}

// Allow implements RateLimiter
func (l *FixedWindowLimiter) Allow(_ context.Context, key string) (RateDecision, error) {
	bucket, reset := bucketOf(l.now(), l.window)
	k := windowKey{key: key, bucket: bucket}

	l.mu.Lock()
	l.counts[k]++
	count := l.counts[k]
	l.mu.Unlock()

	return decide(count, l.limit, reset), nil
}

// Len returns the number of live counters
func (l *FixedWindowLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.counts)
}

func (l *FixedWindowLimiter) purgeLoop() {
	defer l.wg.Done()
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.purge()
		}
	}
}

func (l *FixedWindowLimiter) purge() {
	current, _ := bucketOf(l.now(), l.window)
	l.mu.Lock()
	defer l.mu.Unlock()
	for k := range l.counts {
		if k.bucket < current {
			delete(l.counts, k)
		}
	}
}

// Close stops the purge goroutine
func (l *FixedWindowLimiter) Close() error {
	l.closeOnce.Do(func() {
		close(l.stop)
		l.wg.Wait()
	})
	return nil
}

// RedisRateLimiter shares fixed-window counters across instances
type RedisRateLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRedisRateLimiter creates a limiter whose keys live under prefix
func NewRedisRateLimiter(client redis.UniversalClient, prefix string, limit int, window time.Duration) *RedisRateLimiter {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisRateLimiter{client: client, prefix: prefix, limit: limit, window: window, now: time.Now}
}

// Allow implements RateLimiter with INCR and PEXPIRE in one transaction
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (RateDecision, error) {
	bucket, reset := bucketOf(l.now(), l.window)
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, key, bucket)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.PExpire(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		return RateDecision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return decide(incr.Val(), l.limit, reset), nil
}

// Close is a no-op; the client is owned by Stores
func (l *RedisRateLimiter) Close() error {
	return nil
}

var (
	_ RateLimiter = (*FixedWindowLimiter)(nil)
	_ RateLimiter = (*RedisRateLimiter)(nil)
)
