package udp

import (
	"sync"

	"golang.org/x/time/rate"
)

// RateLimitConfig bounds how many datagrams per second a single remote
// endpoint may push through the server's receive loop before dispatch.
// UDP has no connection object to hang a limiter off of, so the bucket
// is keyed by observed remote address instead of by connection.
type RateLimitConfig struct {
	MessagesPerSecond rate.Limit
	Burst             int
	Enabled           bool
}

// DefaultRateLimitConfig allows 100 datagrams/second per endpoint with a
// burst of 200.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{MessagesPerSecond: 100, Burst: 200, Enabled: true}
}

// NoRateLimit disables rate limiting entirely.
func NoRateLimit() *RateLimitConfig {
	return &RateLimitConfig{Enabled: false}
}

// endpointLimiters tracks one token bucket per remote address string.
type endpointLimiters struct {
	cfg *RateLimitConfig
	mu  sync.Mutex
	m   map[string]*rate.Limiter
}

func newEndpointLimiters(cfg *RateLimitConfig) *endpointLimiters {
	if cfg == nil {
		cfg = NoRateLimit()
	}
	return &endpointLimiters{cfg: cfg, m: make(map[string]*rate.Limiter)}
}

// Allow reports whether a datagram from addr may proceed to dispatch. When
// rate limiting is disabled it always allows.
func (e *endpointLimiters) Allow(addr string) bool {
	if !e.cfg.Enabled {
		return true
	}

	e.mu.Lock()
	lim, ok := e.m[addr]
	if !ok {
		lim = rate.NewLimiter(e.cfg.MessagesPerSecond, e.cfg.Burst)
		e.m[addr] = lim
	}
	e.mu.Unlock()

	return lim.Allow()
}

// Forget drops the limiter for addr, e.g. once that client has been
// evicted and reconnecting should start with a fresh bucket.
func (e *endpointLimiters) Forget(addr string) {
	e.mu.Lock()
	delete(e.m, addr)
	e.mu.Unlock()
}
