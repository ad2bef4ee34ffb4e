package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/imannovv/gravitee-audit/internal/pkg/apperrors"
	"github.com/imannovv/gravitee-audit/internal/pkg/metrics"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL   = 10 * time.Minute
	limiterSweepSize = 10000
)

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientLimiter hands out one token bucket per client IP. Idle buckets are
// swept once the table grows past limiterSweepSize.
type ClientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientBucket // Key: client IP
	limit    rate.Limit
	burst    int
}

// NewClientLimiter builds a limiter; rps <= 0 disables limiting.
func NewClientLimiter(rps float64, burst int) *ClientLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &ClientLimiter{
		limiters: make(map[string]*clientBucket),
		limit:    limit,
		burst:    burst,
	}
}

func (l *ClientLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	b, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= limiterSweepSize {
			for k, old := range l.limiters {
				if now.Sub(old.lastSeen) > limiterIdleTTL {
					delete(l.limiters, k)
				}
			}
		}
		b = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// Allow takes one token from key's bucket.
func (l *ClientLimiter) Allow(key string) bool {
	return l.get(key).Allow()
}

func RateLimitMiddleware(l *ClientLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			metrics.RateLimited.Inc()
			c.Header("Retry-After", "1")
			c.Error(apperrors.New(apperrors.ErrRateLimited, "rate limit exceeded", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}
