package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// tooManySuggestions is shown to a client that exceeded the suggestion limit
const tooManySuggestions = "Het lijkt erop dat je te veel suggesties instuurt op een te korte tijd. Gelieve het later nog eens te doen"

// clientLimiter keeps one token bucket per client key.
// A bucket holds attempts tokens and refills completely over window.
type clientLimiter struct {
	mu      sync.Mutex
	clients map[string]*limitedClient
	every   rate.Limit
	burst   int
	window  time.Duration
	now     func() time.Time
}

type limitedClient struct {
	limiter *rate.Limiter
	seen    time.Time
}

func newClientLimiter(attempts int, window time.Duration) *clientLimiter {
	return &clientLimiter{
		clients: make(map[string]*limitedClient),
		every:   rate.Every(window / time.Duration(attempts)),
		burst:   attempts,
		window:  window,
		now:     time.Now,
	}
}

// Allow spends one attempt for key and reports whether it was available
func (l *clientLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	c, ok := l.clients[key]
	if !ok {
		c = &limitedClient{limiter: rate.NewLimiter(l.every, l.burst)}
		l.clients[key] = c
	}
	c.seen = now
	return c.limiter.AllowN(now, 1)
}

// prune drops clients idle for a full window; their buckets would be full again anyway.
func (l *clientLimiter) prune(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.seen) >= l.window {
			delete(l.clients, key)
		}
	}
}

func (l *clientLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// suggestionLimitMiddleware rejects suggestions beyond the per-IP limit with 429.
// A non-positive attempts value disables the limit.
func suggestionLimitMiddleware(attempts int, window time.Duration, logger Logger) gin.HandlerFunc {
	if attempts <= 0 || window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := newClientLimiter(attempts, window)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.Allow(ip) {
			logger.Info("Suggestion rate limit exceeded", "client_ip", ip)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, Response{
				Success: false,
				Error:   tooManySuggestions,
			})
			return
		}
		c.Next()
	}
}
