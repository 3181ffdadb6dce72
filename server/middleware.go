// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/thediveo/lxkns/log"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit returns per-client token-bucket rate limiting middleware. Limiters
// of clients not seen for an hour get evicted until the context is done.
func RateLimit(ctx context.Context, rps float64, burst int) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := map[string]*limiterEntry{}

	getLimiter := func(client string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		entry, ok := limiters[client]
		if !ok {
			entry = &limiterEntry{
				limiter: rate.NewLimiter(rate.Limit(rps), burst),
			}
			limiters[client] = entry
		}
		entry.lastSeen = time.Now()
		return entry.limiter
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cutoff := time.Now().Add(-1 * time.Hour)
				mu.Lock()
				for client, entry := range limiters {
					if entry.lastSeen.Before(cutoff) {
						delete(limiters, client)
					}
				}
				mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()

	return func(c *gin.Context) {
		if !getLimiter(c.ClientIP()).Allow() {
			abort(c, http.StatusTooManyRequests, ErrCodeRateLimited,
				"rate limit exceeded, please slow down")
			return
		}
		c.Next()
	}
}

// Logger returns middleware logging each request once it has been handled.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		switch {
		case status >= http.StatusInternalServerError:
			log.Errorf("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path,
				status, time.Since(start))
		default:
			log.Debugf("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path,
				status, time.Since(start))
		}
	}
}
