package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// IPRateLimiter implements per-IP rate limiting using token bucket algorithm
type IPRateLimiter struct {
	limits map[string]*tokenBucket
	mu     sync.Mutex
	rate   time.Duration // Refill rate
	burst  int           // Burst capacity
}

// tokenBucket implements a simple token bucket
type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
	capacity   float64
}

// newIPRateLimiter creates a new IP-based rate limiter
func newIPRateLimiter(rate time.Duration, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		limits: make(map[string]*tokenBucket),
		rate:   rate,
		burst:  burst,
	}
}

// allow checks if a request is allowed for the given IP
func (l *IPRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	bucket, exists := l.limits[ip]
	if !exists {
		bucket = &tokenBucket{
			tokens:     float64(l.burst),
			lastRefill: now,
			capacity:   float64(l.burst),
		}
		l.limits[ip] = bucket
	}

	// Refill tokens based on elapsed time
	elapsed := now.Sub(bucket.lastRefill)
	refills := elapsed.Nanoseconds() / l.rate.Nanoseconds()
	if refills > 0 {
		bucket.tokens = min(bucket.capacity, bucket.tokens+float64(refills))
		bucket.lastRefill = now
	}

	if bucket.tokens >= 1 {
		bucket.tokens--
		return true
	}

	return false
}

// rateLimitMiddleware creates a Gin middleware for rate limiting
func rateLimitMiddleware(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}

		c.Next()
	}
}

// bodyLimitMiddleware limits the size of request bodies. The body is not
// consumed here; handlers that read past the limit get an error from the
// wrapped reader.
func bodyLimitMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		}
		c.Next()
	}
}
