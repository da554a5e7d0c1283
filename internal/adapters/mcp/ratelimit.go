package mcp

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// defaultLimiterIdleTTL is how long an unused client bucket is kept.
const defaultLimiterIdleTTL = 10 * time.Minute

// RateLimitConfig configures per-client request limiting. A zero RPS or
// burst disables limiting.
type RateLimitConfig struct {
	RPS     float64
	Burst   int
	IdleTTL time.Duration
}

// clientLimiter applies a token bucket per client key and periodically
// evicts idle entries. A nil limiter allows everything.
type clientLimiter struct {
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	byKey   map[string]*limiterEntry
	hits    uint64
	idleTTL time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiter(cfg RateLimitConfig) *clientLimiter {
	if cfg.RPS <= 0 || cfg.Burst <= 0 {
		return nil
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultLimiterIdleTTL
	}
	return &clientLimiter{
		limit:   rate.Limit(cfg.RPS),
		burst:   cfg.Burst,
		byKey:   make(map[string]*limiterEntry),
		idleTTL: cfg.IdleTTL,
	}
}

func (l *clientLimiter) allow(key string, now time.Time) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.byKey[key]
	if !ok {
		entry = &limiterEntry{
			limiter:  rate.NewLimiter(l.limit, l.burst),
			lastSeen: now,
		}
		l.byKey[key] = entry
	}
	entry.lastSeen = now
	allowed := entry.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		l.evict(now)
	}
	return allowed
}

func (l *clientLimiter) evict(now time.Time) {
	cutoff := now.Add(-l.idleTTL)
	for k, v := range l.byKey {
		if v.lastSeen.Before(cutoff) {
			delete(l.byKey, k)
		}
	}
}

func (l *clientLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKey)
}

// clientKey identifies the caller by remote host.
func clientKey(r *http.Request) string {
	remote := strings.TrimSpace(r.RemoteAddr)
	if remote == "" {
		return "ip:unknown"
	}
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return "ip:" + remote
	}
	if strings.TrimSpace(host) == "" {
		return "ip:unknown"
	}
	return "ip:" + host
}
