// Package metrics holds the Prometheus collectors the UDP server and
// dispatcher report through, and the registry the HTTP facade serves at
// /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Server bundles every collector the UDP server updates. Constructed once
// per process and registered with a *prometheus.Registry the HTTP facade
// exposes.
type Server struct {
	RosterSize        prometheus.Gauge
	MessagesReceived   prometheus.Counter
	MessagesSent       prometheus.Counter
	Evictions          prometheus.Counter
	DispatcherQueueLen prometheus.Gauge
	RateLimitDrops     prometheus.Counter
}

// NewServer constructs and registers the UDP server's collectors against
// reg. Passing a fresh *prometheus.Registry keeps test processes from
// colliding on the global default registry.
func NewServer(reg *prometheus.Registry) *Server {
	m := &Server{
		RosterSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "netgram",
			Subsystem: "server",
			Name:      "roster_size",
			Help:      "Number of clients currently in the server roster.",
		}),
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netgram",
			Subsystem: "server",
			Name:      "messages_received_total",
			Help:      "Datagrams accepted past rate limiting and handed to the protocol handler.",
		}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netgram",
			Subsystem: "server",
			Name:      "messages_sent_total",
			Help:      "Datagrams written to client endpoints, including fan-out sends.",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netgram",
			Subsystem: "server",
			Name:      "heartbeat_evictions_total",
			Help:      "Clients evicted for failing to reply within a ping window.",
		}),
		DispatcherQueueLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "netgram",
			Subsystem: "dispatcher",
			Name:      "queue_length",
			Help:      "Staged events awaiting a Tick.",
		}),
		RateLimitDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netgram",
			Subsystem: "server",
			Name:      "rate_limit_drops_total",
			Help:      "Datagrams dropped by the per-endpoint token bucket before dispatch.",
		}),
	}

	reg.MustRegister(
		m.RosterSize,
		m.MessagesReceived,
		m.MessagesSent,
		m.Evictions,
		m.DispatcherQueueLen,
		m.RateLimitDrops,
	)
	return m
}
