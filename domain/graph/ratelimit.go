package graph

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/emergent-company/primary-api/internal/config"
	"github.com/emergent-company/primary-api/pkg/apperror"
)

// QueryRateLimiter keeps one token bucket per client for the raw query
// endpoint
type QueryRateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewQueryRateLimiter builds a limiter from config. A non-positive rate
// disables limiting.
func NewQueryRateLimiter(cfg *config.Config) *QueryRateLimiter {
	l := &QueryRateLimiter{limiters: make(map[string]*rate.Limiter)}
	if cfg.QueryRateLimitPerMinute > 0 {
		l.limit = rate.Every(time.Minute / time.Duration(cfg.QueryRateLimitPerMinute))
		l.burst = max(cfg.QueryRateLimitBurst, 1)
	}
	return l
}

// Allow reports whether client may run another query now
func (l *QueryRateLimiter) Allow(client string) bool {
	if l.limit == 0 {
		return true
	}
	return l.getLimiter(client).Allow()
}

func (l *QueryRateLimiter) getLimiter(client string) *rate.Limiter {
	l.mu.RLock()
	limiter, ok := l.limiters[client]
	l.mu.RUnlock()
	if ok {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, ok = l.limiters[client]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(l.limit, l.burst)
	l.limiters[client] = limiter
	return limiter
}

// Middleware rejects requests over the limit with 429, keyed by client IP
func (l *QueryRateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return apperror.ErrRateLimited.WithMessage("query rate limit exceeded")
			}
			return next(c)
		}
	}
}
