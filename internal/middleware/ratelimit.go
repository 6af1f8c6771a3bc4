package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit enforces r requests per second with burst b per client IP.
// Limiters for IPs idle longer than ten minutes are pruned lazily on the
// next request; no background goroutine.
func RateLimit(r rate.Limit, b int) gin.HandlerFunc {
	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var (
		mu        sync.Mutex
		clients   = make(map[string]*client)
		lastPrune = time.Now()
	)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		if time.Since(lastPrune) > time.Minute {
			for addr, cl := range clients {
				if time.Since(cl.lastSeen) > 10*time.Minute {
					delete(clients, addr)
				}
			}
			lastPrune = time.Now()
		}
		cl, ok := clients[ip]
		if !ok {
			cl = &client{limiter: rate.NewLimiter(r, b)}
			clients[ip] = cl
		}
		cl.lastSeen = time.Now()
		allowed := cl.limiter.Allow()
		mu.Unlock()

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}

// SecurityHeaders adds basic, sensible security headers.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Next()
	}
}
