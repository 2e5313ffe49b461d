package config

import "time"

// Config holds every setting the netgramd binary and its constituent
// servers (UDP, WebSocket bridge, administrative HTTP facade) read at
// startup.
type Config struct {
	UDPAddr      string        `mapstructure:"udp_addr" yaml:"udp_addr"`
	WSAddr       string        `mapstructure:"ws_addr" yaml:"ws_addr"`
	HTTPAddr     string        `mapstructure:"http_addr" yaml:"http_addr"`
	Capacity     int           `mapstructure:"capacity" yaml:"capacity"`
	PongInterval time.Duration `mapstructure:"pong_interval" yaml:"pong_interval"`
	PingInterval time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`

	RateLimitEnabled   bool    `mapstructure:"rate_limit_enabled" yaml:"rate_limit_enabled"`
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second" yaml:"rate_limit_per_second"`
	RateLimitBurst     int     `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		UDPAddr:            ":9000",
		WSAddr:             ":9001",
		HTTPAddr:           ":9002",
		Capacity:           512,
		PongInterval:       15 * time.Second,
		PingInterval:       15 * time.Second,
		RateLimitEnabled:   true,
		RateLimitPerSecond: 100,
		RateLimitBurst:     200,
		LogLevel:           "info",
	}
}

// UpdateFrom overwrites non-zero-valued fields of the receiver with other's
// values, letting a partially specified override layer win field by field.
func (c *Config) UpdateFrom(other Config) {
	if other.UDPAddr != "" {
		c.UDPAddr = other.UDPAddr
	}
	if other.WSAddr != "" {
		c.WSAddr = other.WSAddr
	}
	if other.HTTPAddr != "" {
		c.HTTPAddr = other.HTTPAddr
	}
	if other.Capacity != 0 {
		c.Capacity = other.Capacity
	}
	if other.PongInterval != 0 {
		c.PongInterval = other.PongInterval
	}
	if other.PingInterval != 0 {
		c.PingInterval = other.PingInterval
	}
	if other.RateLimitEnabled {
		c.RateLimitEnabled = other.RateLimitEnabled
	}
	if other.RateLimitPerSecond != 0 {
		c.RateLimitPerSecond = other.RateLimitPerSecond
	}
	if other.RateLimitBurst != 0 {
		c.RateLimitBurst = other.RateLimitBurst
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}
