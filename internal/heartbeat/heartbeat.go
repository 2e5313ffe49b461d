// Package heartbeat implements the two-phase liveness timer shared by the
// UDP server and, indirectly, its clients: a pong-wait window followed by
// a ping-wait window, each firing exactly one lifecycle event when it
// closes.
package heartbeat

import "time"

// Phase identifies which window the heartbeat is currently running.
type Phase int

const (
	// AwaitingPong is the window that precedes each round of pings; when
	// it closes every client is pinged and marked suspect.
	AwaitingPong Phase = iota
	// AwaitingPing is the window during which clients are pinged and
	// marked suspect until they reply.
	AwaitingPing
)

// Heartbeat advances a monotonic two-phase timer. It holds no socket or
// roster state itself. PongWindowEnded and PingWindowEnded are the only
// two hooks it fires; the owner (internal/udp.Server) is responsible for
// sending pings, marking clients suspect, and evicting silent ones.
type Heartbeat struct {
	pongWindow time.Duration
	pingWindow time.Duration
	remaining  time.Duration
	phase      Phase

	// PongWindowEnded fires when the pong-wait window closes: it is time
	// to ping every client and mark them suspect pending a reply.
	PongWindowEnded func()
	// PingWindowEnded fires when the ping-wait window closes: clients
	// still marked suspect must be evicted.
	PingWindowEnded func()
}

// New constructs a Heartbeat starting in AwaitingPong with
// remaining=pongWindow.
func New(pongWindow, pingWindow time.Duration) *Heartbeat {
	return &Heartbeat{
		pongWindow: pongWindow,
		pingWindow: pingWindow,
		remaining:  pongWindow,
		phase:      AwaitingPong,
	}
}

// Phase reports the window currently in progress.
func (h *Heartbeat) Phase() Phase { return h.phase }

// Remaining reports the time left in the current window.
func (h *Heartbeat) Remaining() time.Duration { return h.remaining }

// Update advances the timer by dt. At most one phase transition occurs
// per call; a dt spanning more than a full window does not coalesce into
// two fired events. The configured event hook, if non-nil, runs
// synchronously before Update returns.
func (h *Heartbeat) Update(dt time.Duration) {
	h.remaining -= dt
	if h.remaining > 0 {
		return
	}

	switch h.phase {
	case AwaitingPong:
		h.phase = AwaitingPing
		h.remaining = h.pingWindow
		if h.PongWindowEnded != nil {
			h.PongWindowEnded()
		}
	case AwaitingPing:
		h.phase = AwaitingPong
		h.remaining = h.pongWindow
		if h.PingWindowEnded != nil {
			h.PingWindowEnded()
		}
	}
}
