package main

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// requestLimiter caps requests that reach out to providers.
// Limits follow the security settings and may change at runtime.
type requestLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	rpm     int
}

func newRequestLimiter(requestsPerMinute int) *requestLimiter {
	l := &requestLimiter{}
	l.configure(requestsPerMinute)
	return l
}

func (l *requestLimiter) configure(requestsPerMinute int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	if l.limiter != nil && l.rpm == requestsPerMinute {
		return
	}
	l.rpm = requestsPerMinute
	l.limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), requestsPerMinute)
}

func (l *requestLimiter) allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limiter.Allow()
}

// rateLimitMiddleware rejects requests with 429 once the per-minute budget is spent
func (app *App) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		security := currentSettings().Security
		if !security.EnableRateLimiting {
			c.Next()
			return
		}
		app.limiter.configure(security.MaxRequestsPerMinute)
		if !app.limiter.allow() {
			log.Warnf("Rate limit exceeded for %s %s", c.Request.Method, c.FullPath())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded, please wait before retrying"})
			return
		}
		c.Next()
	}
}
