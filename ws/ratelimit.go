package ws

import (
	"golang.org/x/time/rate"

	"github.com/haldorgrim/netgram/internal/udp"
)

// rateLimiter wraps a single token bucket for one connection's inbound
// frames, mirroring the per-connection limiter the UDP server keeps per
// remote endpoint.
type rateLimiter struct {
	lim *rate.Limiter
}

func newRateLimiter(cfg *udp.RateLimitConfig) *rateLimiter {
	return &rateLimiter{lim: rate.NewLimiter(cfg.MessagesPerSecond, cfg.Burst)}
}

func (r *rateLimiter) allow() bool {
	if r == nil {
		return true
	}
	return r.lim.Allow()
}
