// Package udp implements the message-oriented UDP client/server core:
// handshake, heartbeat-driven eviction, tag-routed dispatch, and the
// roster/name-index the server maintains over its accepted connections.
package udp

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/haldorgrim/netgram"
	"github.com/haldorgrim/netgram/internal/codec"
)

// State is the client connection state machine:
// Disconnected -> Connecting -> Connected -> Disconnected.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

// ClientConfig configures a Client at construction time.
type ClientConfig struct {
	Name     string
	Capacity int // datagram buffer capacity; defaults to codec.DefaultCapacity

	OnConnected          netgram.OnConnectedFn
	OnDisconnected       netgram.OnDisconnectedFn
	OnServerUnregistered netgram.OnServerUnregisteredFn
	OnMessageReceived    netgram.OnMessageReceivedFn

	// Logger overrides the package-level logger. Nil uses zerolog's
	// global log.Logger.
	Logger *zerolog.Logger
}

// Client is a UDP socket wrapper implementing the handshake, Ping
// response, and Listen/Send protocol described by the package doc.
//
// The id field is written only from the client's own receive loop (on a
// successful handshake ack) and read by Send to stamp outbound headers;
// since the same goroutine does both, no lock is needed for it as long as
// callers honor "await Connected before calling Send from elsewhere".
type Client struct {
	name     string
	capacity int
	conn     *net.UDPConn
	logger   zerolog.Logger

	mu    sync.Mutex
	state State
	id    int16 // -1 = unassigned

	cancel context.CancelFunc

	onConnected          netgram.OnConnectedFn
	onDisconnected       netgram.OnDisconnectedFn
	onServerUnregistered netgram.OnServerUnregisteredFn
	onMessageReceived    netgram.OnMessageReceivedFn
}

// NewClient constructs a Client in the Disconnected state with
// id=-1 ("unassigned").
func NewClient(cfg ClientConfig) *Client {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = codec.DefaultCapacity
	}
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Client{
		name:                 cfg.Name,
		capacity:             capacity,
		id:                   -1,
		state:                Disconnected,
		logger:               logger,
		onConnected:          cfg.OnConnected,
		onDisconnected:       cfg.OnDisconnected,
		onServerUnregistered: cfg.OnServerUnregistered,
		onMessageReceived:    cfg.OnMessageReceived,
	}
}

// ID reports the server-assigned id, or -1 if not yet handshaken.
func (c *Client) ID() int16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Name reports the client's human-readable name.
func (c *Client) Name() string { return c.name }

// State reports the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect resolves host:port and opens a UDP socket bound to that remote
// address.
func (c *Client) Connect(host string, port int) error {
	return c.ConnectByIP(fmt.Sprintf("%s:%d", host, port))
}

// ConnectByIP opens a UDP socket bound to the given "ip:port" address,
// skipping DNS resolution of a hostname. It does not register with the
// server; call SendConnectionInformation for that.
func (c *Client) ConnectByIP(address string) error {
	c.mu.Lock()
	c.state = Connecting
	c.mu.Unlock()

	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return err
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return err
	}

	c.conn = conn
	c.mu.Lock()
	c.state = Connected
	c.mu.Unlock()
	return nil
}

// SendConnectionInformation sends the handshake request: a
// ClientConnected message carrying {name, id=0, success=false}, stamped
// through Send with the client's current id (-1 until the server has
// assigned one, the previously assigned id on a re-handshake).
func (c *Client) SendConnectionInformation() error {
	msg := netgram.NewOutgoingMessage(netgram.TagClientConnected, c.capacity)
	info := netgram.ClientConnectionInfo{Name: c.name, ID: 0, Success: false}
	if info.Serialize(msg.Writer()) < 0 {
		return fmt.Errorf("%s: handshake payload", netgram.ErrBufferOverflow)
	}
	return c.Send(msg)
}

// Send patches the message's sender-id field with this client's
// assigned id, then transmits it.
func (c *Client) Send(msg *netgram.Message) error {
	msg.PatchSenderID(c.ID())
	return c.sendRaw(msg)
}

func (c *Client) sendRaw(msg *netgram.Message) error {
	if c.conn == nil {
		return fmt.Errorf(netgram.ErrNotConnected)
	}
	_, err := c.conn.Write(msg.Bytes())
	return err
}

// Listen runs the receive loop until ctx is cancelled or the socket is
// closed. Transient read errors are logged and the loop continues unless
// cancellation was requested; a closed/cancelled socket ends the loop
// quietly.
func (c *Client) Listen(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	defer cancel()

	buf := make([]byte, c.capacity)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := c.conn.Read(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				c.logger.Info().Msg("udp client: listen loop cancelled")
				return nil
			default:
			}
			c.logger.Warn().Err(err).Msg("udp client: transient listen error")
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		c.handleDatagram(data)
	}
}

func (c *Client) handleDatagram(data []byte) {
	msg := netgram.NewIncomingMessage(data)

	switch msg.Tag() {
	case netgram.TagClientConnected:
		var info netgram.ClientConnectionInfo
		info.Deserialize(msg.Reader())
		c.mu.Lock()
		c.id = info.ID
		c.state = Connected
		c.mu.Unlock()
		if c.onConnected != nil {
			c.onConnected()
		}

	case netgram.TagClientDisconnected:
		var info netgram.ClientConnectionInfo
		info.Deserialize(msg.Reader())
		c.mu.Lock()
		c.state = Disconnected
		c.mu.Unlock()
		if c.onDisconnected != nil {
			c.onDisconnected(netgram.DisconnectedEvent{Local: info.Success})
		}

	case netgram.TagPing:
		pong := netgram.NewOutgoingMessage(netgram.TagPong, c.capacity)
		if err := c.Send(pong); err != nil {
			c.logger.Warn().Err(err).Msg("udp client: failed to reply to ping")
		}

	case netgram.TagUnknownClient:
		if c.onServerUnregistered != nil {
			c.onServerUnregistered()
		}

	default:
		if c.onMessageReceived != nil {
			c.onMessageReceived(netgram.MessageReceivedEvent{Message: msg})
		}
	}
}

// Disconnect fires the local Disconnected event, sends a graceful
// ClientDisconnected notice, then cancels the listen loop and closes the
// socket.
func (c *Client) Disconnect() error {
	if c.onDisconnected != nil {
		c.onDisconnected(netgram.DisconnectedEvent{Local: true})
	}

	msg := netgram.NewOutgoingMessage(netgram.TagClientDisconnected, c.capacity)
	info := netgram.ClientConnectionInfo{Name: c.name, ID: c.ID(), Success: true}
	info.Serialize(msg.Writer())
	sendErr := c.Send(msg)

	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Lock()
	c.state = Disconnected
	c.mu.Unlock()

	closeErr := c.close()
	if sendErr != nil {
		return sendErr
	}
	return closeErr
}

// DisconnectAsync runs Disconnect in a goroutine and returns immediately.
func (c *Client) DisconnectAsync() {
	go func() {
		if err := c.Disconnect(); err != nil {
			c.logger.Warn().Err(err).Msg("udp client: disconnect failed")
		}
	}()
}

func (c *Client) close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
