package middleware

import (
	"net/http"
	"sync"
	"time"

	"crm-manager/backend/internal/config"
	"crm-manager/backend/internal/httperr"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a per-client token bucket keyed by remote IP.
// Stop terminates the background cleanup; the middleware itself keeps
// working afterwards, stale buckets just stop being evicted.
type RateLimiter struct {
	cfg     config.RateLimitConfig
	limit   rate.Limit
	mu      sync.Mutex
	clients map[string]*clientLimiter
	stop    chan struct{}
	once    sync.Once
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		cfg:     cfg,
		limit:   rate.Limit(float64(cfg.RequestsPerMin) / 60.0),
		clients: make(map[string]*clientLimiter),
		stop:    make(chan struct{}),
	}

	if cfg.Enabled && cfg.CleanupInterval > 0 {
		go rl.cleanupLoop()
	}
	return rl
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for ip, client := range rl.clients {
				if time.Since(client.lastSeen) > rl.cfg.CleanupInterval {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	client, ok := rl.clients[ip]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.cfg.BurstSize)}
		rl.clients[ip] = client
	}
	client.lastSeen = time.Now()
	return client.limiter.Allow()
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	if !rl.cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				httperr.New(http.StatusTooManyRequests, "rate limit exceeded"))
			return
		}
		c.Next()
	}
}
