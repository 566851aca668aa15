package rpc

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"stablevault/observability"
)

const visitorTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter throttles requests per client address with a token bucket.
type clientLimiter struct {
	perSecond float64
	burst     int

	mu       sync.Mutex
	visitors map[string]*visitor
	clockNow func() time.Time
}

func newClientLimiter(perSecond float64, burst int) *clientLimiter {
	return &clientLimiter{
		perSecond: perSecond,
		burst:     burst,
		visitors:  make(map[string]*visitor),
		clockNow:  time.Now,
	}
}

func (c *clientLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !c.allow(clientID(req)) {
			observability.RPC().RecordThrottle("rate_limit")
			writeErrorMessage(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (c *clientLimiter) allow(id string) bool {
	c.mu.Lock()
	now := c.clockNow()
	entry, ok := c.visitors[id]
	if !ok {
		entry = &visitor{limiter: rate.NewLimiter(rate.Limit(c.perSecond), c.burst)}
		c.visitors[id] = entry
	}
	entry.lastSeen = now
	c.pruneLocked(now)
	c.mu.Unlock()
	return entry.limiter.Allow()
}

// pruneLocked drops idle visitors so the map stays bounded under churn.
func (c *clientLimiter) pruneLocked(now time.Time) {
	if len(c.visitors) < 1024 {
		return
	}
	for id, entry := range c.visitors {
		if now.Sub(entry.lastSeen) > visitorTTL {
			delete(c.visitors, id)
		}
	}
}

func clientID(req *http.Request) string {
	if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if first := strings.TrimSpace(parts[0]); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
