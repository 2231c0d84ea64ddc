package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/handyhub/dispatch-api/internal/pkg/response"
)

// limiterIdleTTL is how long an actor's bucket is kept after its last request.
const limiterIdleTTL = 10 * time.Minute

type actorLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ActorRateLimiter keeps one token bucket per authenticated actor,
// falling back to the client IP for anonymous requests. Buckets idle for
// longer than the TTL are swept on later calls.
type ActorRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*actorLimiter
	every     time.Duration
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewActorRateLimiter allows perMinute requests per actor with the given burst.
// perMinute <= 0 disables limiting.
func NewActorRateLimiter(perMinute, burst int) *ActorRateLimiter {
	l := &ActorRateLimiter{
		limiters: make(map[string]*actorLimiter),
		burst:    burst,
		idleTTL:  limiterIdleTTL,
		now:      time.Now,
	}
	if perMinute > 0 {
		l.every = time.Minute / time.Duration(perMinute)
	}
	if l.burst <= 0 {
		l.burst = 1
	}
	// An evicted bucket must already have refilled.
	if refill := l.every * time.Duration(l.burst); refill > l.idleTTL {
		l.idleTTL = refill
	}
	return l
}

func (l *ActorRateLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		for k, entry := range l.limiters {
			if now.Sub(entry.lastSeen) >= l.idleTTL {
				delete(l.limiters, k)
			}
		}
		l.lastSweep = now
	}

	entry, ok := l.limiters[key]
	if !ok {
		entry = &actorLimiter{limiter: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// Allow reports whether key may proceed now.
func (l *ActorRateLimiter) Allow(key string) bool {
	if l == nil || l.every == 0 {
		return true
	}
	return l.limiter(key).AllowN(l.now(), 1)
}

// Middleware limits requests per actor.
func (l *ActorRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := GetActorID(r.Context())
		if key == "" {
			key = getClientIP(r)
		}
		if !l.Allow(key) {
			log.Warn().Str("key", key).Str("path", r.URL.Path).Msg("Rate limit exceeded")
			response.TooManyRequests(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
