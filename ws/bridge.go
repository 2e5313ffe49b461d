// Package ws bridges WebSocket connections into the same tag-routed
// Dispatcher the UDP transport feeds. Frames carry the identical four-byte
// header (sender id, tag) and payload layout as a UDP datagram; only the
// transport underneath differs.
package ws

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/haldorgrim/netgram"
	"github.com/haldorgrim/netgram/internal/dispatcher"
	"github.com/haldorgrim/netgram/internal/udp"
)

// CheckOriginFn validates the origin of an incoming upgrade request.
type CheckOriginFn = func(r *http.Request) bool

// AllOrigins allows every origin. Development use only.
func AllOrigins() CheckOriginFn {
	return func(r *http.Request) bool { return true }
}

// OnConnectFn is called once a connection's websocket handshake completes,
// before its read pump starts.
type OnConnectFn func(conn *Conn)

// OnDisconnectFn is called once a connection's read pump exits. voluntary
// is true for a client-initiated close.
type OnDisconnectFn func(conn *Conn, voluntary bool)

// BridgeConfig configures a Bridge at construction time.
type BridgeConfig struct {
	Addr            string
	Dispatcher      *dispatcher.Dispatcher
	RateLimitConfig *udp.RateLimitConfig
	CheckOrigin     CheckOriginFn
	OnConnect       OnConnectFn
	OnDisconnect    OnDisconnectFn
	Logger          *zerolog.Logger
}

// Bridge upgrades HTTP connections to WebSocket, decodes each frame's
// netgram header, and stages the resulting Message onto a shared
// Dispatcher for delivery on the next Tick.
type Bridge struct {
	addr       string
	dispatcher *dispatcher.Dispatcher
	rateCfg    *udp.RateLimitConfig
	logger     zerolog.Logger
	upgrader   websocket.Upgrader

	httpServer *http.Server
	conns      sync.Map // map[string]*Conn

	mu      sync.Mutex
	running bool

	onConnect    OnConnectFn
	onDisconnect OnDisconnectFn
}

// Conn is one accepted WebSocket connection. Writes are queued on a
// buffered channel and flushed by a dedicated write-pump goroutine so the
// dispatcher and the receive loop never block on a slow socket.
type Conn struct {
	id          string
	conn        *websocket.Conn
	remoteAddr  string
	ctx         context.Context
	cancel      context.CancelFunc
	sendCh      chan []byte
	mu          sync.RWMutex
	closed      bool
	rateLimiter *rateLimiter
}

// ID reports the connection's uuid, unrelated to any netgram sender id.
func (c *Conn) ID() string { return c.id }

// RemoteAddr reports the originating address of the HTTP upgrade request.
func (c *Conn) RemoteAddr() string { return c.remoteAddr }

// Send frames msg and queues it for delivery by the write pump.
func (c *Conn) Send(msg *netgram.Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return fmt.Errorf(netgram.ErrConnectionClosed)
	}
	select {
	case c.sendCh <- msg.Bytes():
		return nil
	case <-c.ctx.Done():
		return fmt.Errorf(netgram.ErrContextCancelled)
	}
}

// Close closes the connection and stops its write pump.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.cancel()
	deadline := time.Now().Add(time.Second)
	c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	close(c.sendCh)
	return c.conn.Close()
}

// NewBridge constructs a Bridge bound to cfg.Dispatcher. The HTTP server
// is not started until Start is called.
func NewBridge(cfg BridgeConfig) *Bridge {
	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = AllOrigins()
	}
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	rateCfg := cfg.RateLimitConfig
	if rateCfg == nil {
		rateCfg = udp.NoRateLimit()
	}
	return &Bridge{
		addr:         cfg.Addr,
		dispatcher:   cfg.Dispatcher,
		rateCfg:      rateCfg,
		logger:       logger,
		onConnect:    cfg.OnConnect,
		onDisconnect: cfg.OnDisconnect,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Start binds an HTTP server at cfg.Addr with a single /ws route and
// begins accepting upgrade requests. Returns once the listener is live or
// fails within a short startup window.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return fmt.Errorf(netgram.ErrServerAlreadyRunning)
	}
	b.running = true
	b.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", b.handleUpgrade)
	b.httpServer = &http.Server{Addr: b.addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		if err := b.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
		return err
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Stop closes every connection and shuts down the HTTP server.
func (b *Bridge) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = false
	b.mu.Unlock()

	b.conns.Range(func(_, v any) bool {
		if c, ok := v.(*Conn); ok {
			c.Close()
		}
		return true
	})

	if b.httpServer != nil {
		return b.httpServer.Shutdown(ctx)
	}
	return nil
}

func (b *Bridge) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	wsConn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "failed to upgrade connection", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	var limiter *rateLimiter
	if b.rateCfg.Enabled {
		limiter = newRateLimiter(b.rateCfg)
	}
	conn := &Conn{
		id:          uuid.NewString(),
		conn:        wsConn,
		remoteAddr:  r.RemoteAddr,
		ctx:         ctx,
		cancel:      cancel,
		sendCh:      make(chan []byte, 256),
		rateLimiter: limiter,
	}
	b.conns.Store(conn.id, conn)

	go b.writePump(conn)
	if b.onConnect != nil {
		b.onConnect(conn)
	}
	go b.readPump(conn)
}

func (b *Bridge) readPump(conn *Conn) {
	voluntary := true
	defer func() {
		if err := conn.ctx.Err(); err != nil {
			voluntary = false
		}
		if b.onDisconnect != nil {
			b.onDisconnect(conn, voluntary)
		}
		b.conns.Delete(conn.id)
		conn.Close()
	}()

	conn.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.conn.SetPongHandler(func(string) error {
		conn.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, err := conn.conn.ReadMessage()
		if err != nil {
			voluntary = websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
			return
		}
		if conn.rateLimiter != nil && !conn.rateLimiter.allow() {
			continue
		}

		msg := netgram.NewIncomingMessage(data)
		b.logger.Debug().
			Str("connId", conn.id).
			Uint16("tag", uint16(msg.Tag())).
			Msg("ws bridge: staging frame")
		b.dispatcher.Stage(msg)
	}
}

func (b *Bridge) writePump(conn *Conn) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		conn.conn.Close()
	}()

	for {
		select {
		case data, ok := <-conn.sendCh:
			conn.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				conn.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-conn.ctx.Done():
			return
		}
	}
}

// Broadcast queues msg for delivery to every currently connected Conn.
func (b *Bridge) Broadcast(msg *netgram.Message) {
	b.conns.Range(func(_, v any) bool {
		if c, ok := v.(*Conn); ok {
			c.Send(msg.Clone())
		}
		return true
	})
}
