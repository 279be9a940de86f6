package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
	// IdleTTL evicts per-IP limiters unused for this long. Zero means 10m.
	IdleTTL time.Duration
}

// DefaultRateLimitConfig returns production-ready rate limit configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             200,
		IdleTTL:           10 * time.Minute,
	}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet holds one token bucket per client IP.
type limiterSet struct {
	mu        sync.Mutex
	clients   map[string]*client
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterSet(cfg RateLimitConfig, now func() time.Time) *limiterSet {
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &limiterSet{
		clients:   make(map[string]*client),
		limit:     rate.Limit(cfg.RequestsPerSecond),
		burst:     cfg.Burst,
		idleTTL:   ttl,
		lastSweep: now(),
		now:       now,
	}
}

func (s *limiterSet) allow(ip string) bool {
	s.mu.Lock()
	now := s.now()
	if now.Sub(s.lastSweep) > s.idleTTL {
		for k, c := range s.clients {
			if now.Sub(c.lastSeen) > s.idleTTL {
				delete(s.clients, k)
			}
		}
		s.lastSweep = now
	}

	c, ok := s.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.clients[ip] = c
	}
	c.lastSeen = now
	s.mu.Unlock()

	return c.limiter.AllowN(now, 1)
}

func (s *limiterSet) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func rejectTooMany(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error": "rate limit exceeded",
	})
}

// RateLimit creates a per-IP rate limiting middleware.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	return rateLimit(newLimiterSet(cfg, time.Now))
}

func rateLimit(set *limiterSet) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !set.allow(c.ClientIP()) {
			rejectTooMany(c)
			return
		}
		c.Next()
	}
}

// GlobalRateLimit creates a global rate limiting middleware.
func GlobalRateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			rejectTooMany(c)
			return
		}
		c.Next()
	}
}
