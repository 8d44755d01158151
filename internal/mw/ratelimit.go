package mw

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ipLimiter pairs a token bucket with its last use, so idle entries can
// be pruned.
type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter stores a rate limiter for each client IP address.
type IPRateLimiter struct {
	ips map[string]*ipLimiter
	mu  sync.Mutex
	r   rate.Limit
	b   int
}

// NewIPRateLimiter creates a new IPRateLimiter.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*ipLimiter),
		r:   r,
		b:   b,
	}
}

// GetLimiter returns the rate limiter for an IP address, creating one on
// first sight.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	l, exists := i.ips[ip]
	if !exists {
		l = &ipLimiter{limiter: rate.NewLimiter(i.r, i.b)}
		i.ips[ip] = l
	}
	l.lastSeen = time.Now()
	return l.limiter
}

// Prune drops limiters that have been idle longer than maxIdle.
func (i *IPRateLimiter) Prune(maxIdle time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	for ip, l := range i.ips {
		if l.lastSeen.Before(cutoff) {
			delete(i.ips, ip)
		}
	}
}

// RateLimiter is a middleware for IP-based rate limiting. Idle client
// entries are pruned every few minutes to bound the map.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	limiter := NewIPRateLimiter(r, b)
	go func() {
		for range time.Tick(3 * time.Minute) {
			limiter.Prune(10 * time.Minute)
		}
	}()

	return func(c *gin.Context) {
		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
