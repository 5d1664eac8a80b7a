package ratelimit

import (
	"sync"
	"time"
)

// RateLimiter is a token-bucket limiter keyed by caller-chosen strings
// (typically "userID:action"). Each key gets limit tokens per window.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   float64
	window  time.Duration
	done    chan struct{}
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	r := &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   float64(limit),
		window:  window,
		done:    make(chan struct{}),
	}
	go r.janitor()
	return r
}

// Allow consumes one token for key, reporting whether the call is within
// the limit.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	b, ok := r.buckets[key]
	if !ok {
		b = &bucket{tokens: r.limit, lastSeen: now}
		r.buckets[key] = b
	} else {
		elapsed := now.Sub(b.lastSeen)
		b.tokens += r.limit * elapsed.Seconds() / r.window.Seconds()
		if b.tokens > r.limit {
			b.tokens = r.limit
		}
		b.lastSeen = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (r *RateLimiter) Stop() {
	close(r.done)
}

// janitor drops buckets idle for more than two windows.
func (r *RateLimiter) janitor() {
	ticker := time.NewTicker(r.window)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case now := <-ticker.C:
			r.mu.Lock()
			for key, b := range r.buckets {
				if now.Sub(b.lastSeen) > 2*r.window {
					delete(r.buckets, key)
				}
			}
			r.mu.Unlock()
		}
	}
}
