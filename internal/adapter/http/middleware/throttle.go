package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// LoginThrottle keeps one token bucket per client IP.
type LoginThrottle struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	visitors map[string]*visitor
	idle     time.Duration
	now      func() time.Time
}

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

func NewLoginThrottle(perMinute, burst int) *LoginThrottle {
	if burst <= 0 {
		burst = 1
	}
	return &LoginThrottle{
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		visitors: make(map[string]*visitor),
		idle:     10 * time.Minute,
		now:      time.Now,
	}
}

func (t *LoginThrottle) allow(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for k, v := range t.visitors {
		if now.Sub(v.seen) > t.idle {
			delete(t.visitors, k)
		}
	}
	v, ok := t.visitors[ip]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(t.limit, t.burst)}
		t.visitors[ip] = v
	}
	v.seen = now
	return v.lim.AllowN(now, 1)
}

func (t *LoginThrottle) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !t.allow(c.ClientIP()) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":  "too_many_attempts",
				"notice": gin.H{"level": "error", "text": "Demasiados intentos. Espera un momento e intenta de nuevo."},
			})
			return
		}
		c.Next()
	}
}
