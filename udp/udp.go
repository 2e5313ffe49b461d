// Package udp is the public facade over internal/udp: the message-oriented
// UDP client and server, re-exported with their configuration types so
// embedders never need to import an internal package directly.
package udp

import (
	"github.com/haldorgrim/netgram/internal/udp"
)

type (
	Server          = udp.Server
	ServerConfig    = udp.ServerConfig
	Client          = udp.Client
	ClientConfig    = udp.ClientConfig
	ClientRecord    = udp.ClientRecord
	State           = udp.State
	RateLimitConfig = udp.RateLimitConfig
)

const (
	Disconnected = udp.Disconnected
	Connecting   = udp.Connecting
	Connected    = udp.Connected
)

// NewServer constructs a Server per cfg. The socket is not bound until
// Start is called.
func NewServer(cfg ServerConfig) (*Server, error) {
	return udp.NewServer(cfg)
}

// NewClient constructs a Client in the Disconnected state.
func NewClient(cfg ClientConfig) *Client {
	return udp.NewClient(cfg)
}

// DefaultRateLimitConfig allows 100 datagrams/second per endpoint with a
// burst of 200.
func DefaultRateLimitConfig() *RateLimitConfig {
	return udp.DefaultRateLimitConfig()
}

// NoRateLimit disables rate limiting entirely.
func NoRateLimit() *RateLimitConfig {
	return udp.NoRateLimit()
}
