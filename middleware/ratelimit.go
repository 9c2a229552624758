package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdleEviction = 10 * time.Minute

type clientLimiters struct {
	mu      sync.Mutex
	byIP    map[string]*rate.Limiter
	touched map[string]time.Time
}

func (cl *clientLimiters) get(ip string, r rate.Limit, b int) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	lim, ok := cl.byIP[ip]
	if !ok {
		lim = rate.NewLimiter(r, b)
		cl.byIP[ip] = lim
	}
	cl.touched[ip] = time.Now()
	return lim
}

func (cl *clientLimiters) evictIdle() {
	cutoff := time.Now().Add(-limiterIdleEviction)
	cl.mu.Lock()
	defer cl.mu.Unlock()
	for ip, seen := range cl.touched {
		if seen.Before(cutoff) {
			delete(cl.byIP, ip)
			delete(cl.touched, ip)
		}
	}
}

// RateLimit enforces a per-client-IP token bucket of r requests per second
// with burst b. Buckets idle past the eviction window are dropped so the map
// does not grow with every address ever seen.
func RateLimit(r rate.Limit, b int) gin.HandlerFunc {
	cl := &clientLimiters{
		byIP:    make(map[string]*rate.Limiter),
		touched: make(map[string]time.Time),
	}

	go func() {
		for range time.Tick(limiterIdleEviction / 2) {
			cl.evictIdle()
		}
	}()

	return func(c *gin.Context) {
		if !cl.get(c.ClientIP(), r, b).Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
