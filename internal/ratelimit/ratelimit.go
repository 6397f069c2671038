// Package ratelimit implements a per-client-IP fixed-window admission
// gate, with an in-process map as the default backing and an optional
// Redis-backed implementation for multi-process deployments.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zfogg/sidechain/backend/internal/cache"
	"github.com/zfogg/sidechain/backend/internal/logger"
)

// Limiter is consulted once per admission-gated request. Allow reports
// whether the request may proceed and, if not, how many seconds until
// the window resets.
type Limiter interface {
	Allow(clientIP string) (allowed bool, retryAfterSeconds int)
}

// window tracks one client's fixed-window count.
type window struct {
	count      int
	windowStart time.Time
}

// InProcess is a single-process fixed-window limiter keyed by IP.
type InProcess struct {
	mu          sync.Mutex
	windows     map[string]*window
	maxRequests int
	windowSize  time.Duration
}

// NewInProcess returns an InProcess limiter allowing maxRequests per
// windowSize, per client IP.
func NewInProcess(maxRequests int, windowSize time.Duration) *InProcess {
	return &InProcess{
		windows:     make(map[string]*window),
		maxRequests: maxRequests,
		windowSize:  windowSize,
	}
}

// Allow consults and increments the counter for clientIP atomically.
func (l *InProcess) Allow(clientIP string) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[clientIP]
	if !ok || now.Sub(w.windowStart) > l.windowSize {
		l.windows[clientIP] = &window{count: 1, windowStart: now}
		return true, 0
	}

	if w.count >= l.maxRequests {
		remaining := l.windowSize - now.Sub(w.windowStart)
		return false, int(remaining.Seconds()) + 1
	}

	w.count++
	return true, 0
}

// Redis is a distributed fixed-window limiter backed by a shared Redis
// instance, for deployments sharing quota across processes. On any
// Redis error it fails secure — denying the request — rather than
// silently allowing unlimited traffic.
type Redis struct {
	Client      *cache.RedisClient
	MaxRequests int
	Window      time.Duration
}

// NewRedis returns a Redis-backed limiter.
func NewRedis(client *cache.RedisClient, maxRequests int, window time.Duration) *Redis {
	return &Redis{Client: client, MaxRequests: maxRequests, Window: window}
}

func (l *Redis) key(clientIP string) string { return "rate_limit:" + clientIP }

// Allow increments clientIP's counter, setting the window's TTL on the
// first request. Returns allowed=false with a 503-worthy caller
// response (mapped by the HTTP layer) if Redis itself is unreachable.
func (l *Redis) Allow(clientIP string) (bool, int) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := l.key(clientIP)

	current, err := l.Client.GetInt(ctx, key)
	if err != nil && !isRedisNil(err) {
		logger.ErrorWithFields("rate limit check failed, denying request", err)
		return false, 0
	}

	if current >= int64(l.MaxRequests) {
		ttl, _ := l.Client.TTL(ctx, key)
		return false, int(ttl.Seconds()) + 1
	}

	newVal, err := l.Client.IncrBy(ctx, key, 1)
	if err != nil {
		logger.ErrorWithFields("rate limit increment failed, denying request", err)
		return false, 0
	}
	if newVal == 1 {
		if err := l.Client.Expire(ctx, key, l.Window); err != nil {
			logger.Warn("failed to set rate limit window expiration", zap.Error(err))
		}
	}

	return true, 0
}

func isRedisNil(err error) bool {
	return err != nil && err.Error() == "redis: nil"
}
