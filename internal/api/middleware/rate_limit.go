package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"decode/internal/pkg/errors"
)

type RateLimiter struct {
	store *sync.Map // map[string]*Bucket
	done  chan struct{}
}

type Bucket struct {
	tokens     int
	lastRefill time.Time
	lastAccess time.Time
	mu         sync.Mutex
}

func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{
		store: &sync.Map{},
		done:  make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.done)
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case now := <-ticker.C:
			rl.store.Range(func(key, value any) bool {
				bucket := value.(*Bucket)
				bucket.mu.Lock()
				if now.Sub(bucket.lastAccess) > 10*time.Minute {
					rl.store.Delete(key)
				}
				bucket.mu.Unlock()
				return true
			})
		}
	}
}

// Allow takes a token from key's bucket, which refills at limit per minute.
func (rl *RateLimiter) Allow(key string, limit int) bool {
	now := time.Now()

	val, _ := rl.store.LoadOrStore(key, &Bucket{
		tokens:     limit,
		lastRefill: now,
		lastAccess: now,
	})

	bucket := val.(*Bucket)
	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	bucket.lastAccess = now

	refillRate := float64(limit) / 60.0
	refillTokens := int(now.Sub(bucket.lastRefill).Seconds() * refillRate)
	if refillTokens > 0 {
		bucket.tokens = min(bucket.tokens+refillTokens, limit)
		bucket.lastRefill = now
	}

	if bucket.tokens > 0 {
		bucket.tokens--
		return true
	}
	return false
}

// RateLimit limits requests per client IP under name. A non-positive limit
// disables the check.
func (rl *RateLimiter) RateLimit(name string, limit int) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 {
				next(w, r)
				return
			}

			ip := ExtractClientIP(r)
			if !rl.Allow(name+":"+ip, limit) {
				log.Warn().Str("limit", name).Str("ip", ip).Msg("rate limit exceeded")
				w.Header().Set("Retry-After", strconv.Itoa(60/limit+1))
				errors.WriteError(w, http.StatusTooManyRequests, errors.ErrCodeRateLimitExceeded, "Rate limit exceeded", nil)
				return
			}
			next(w, r)
		}
	}
}
