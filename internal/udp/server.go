package udp

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/haldorgrim/netgram"
	"github.com/haldorgrim/netgram/internal/heartbeat"
	"github.com/haldorgrim/netgram/internal/metrics"
)

// ClientRecord is the server's bookkeeping for one accepted connection:
// its allocated id, name, remote endpoint, and heartbeat liveness flag.
type ClientRecord struct {
	id       int16
	name     string
	endpoint *net.UDPAddr
	alive    bool
}

var _ netgram.ClientRef = (*ClientRecord)(nil)

func (c *ClientRecord) ID() int16        { return c.id }
func (c *ClientRecord) Name() string     { return c.name }
func (c *ClientRecord) Endpoint() string { return c.endpoint.String() }
func (c *ClientRecord) Alive() bool      { return c.alive }

// ServerConfig configures a Server at construction time.
type ServerConfig struct {
	Addr         string // e.g. ":9000"
	Capacity     int
	PongInterval time.Duration
	PingInterval time.Duration
	RateLimit    *RateLimitConfig
	StartID      int16 // first id the allocator hands out

	OnClientConnected    netgram.OnClientConnectedFn
	OnClientDisconnected netgram.OnClientDisconnectedFn
	OnMessageReceived    netgram.OnMessageReceivedFn

	Logger  *zerolog.Logger
	Metrics *metrics.Server // optional; nil disables metric updates
}

const (
	defaultPongInterval = 15 * time.Second
	defaultPingInterval = 15 * time.Second
)

// Server owns the roster, the name index, the id allocator, the receive
// loop, the heartbeat, and every broadcast/fan-out send variant.
type Server struct {
	addr     string
	capacity int
	conn     *net.UDPConn
	logger   zerolog.Logger
	tracer   trace.Tracer
	metrics  *metrics.Server

	mu      sync.Mutex
	roster  map[int16]*ClientRecord
	byName  map[string]map[int16]struct{}
	nextID  int16
	running bool

	hb        *heartbeat.Heartbeat
	limiters  *endpointLimiters

	cancel context.CancelFunc

	onClientConnected    netgram.OnClientConnectedFn
	onClientDisconnected netgram.OnClientDisconnectedFn
	onMessageReceived    netgram.OnMessageReceivedFn
}

// NewServer applies cfg's defaults and wires a Heartbeat with
// PongWindowEnded/PingWindowEnded hooks bound to the internal ping and
// eviction handlers. The socket is not bound until Start is called.
func NewServer(cfg ServerConfig) (*Server, error) {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 512
	}
	pong := cfg.PongInterval
	if pong <= 0 {
		pong = defaultPongInterval
	}
	ping := cfg.PingInterval
	if ping <= 0 {
		ping = defaultPingInterval
	}
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	s := &Server{
		addr:                 cfg.Addr,
		capacity:             capacity,
		logger:               logger,
		tracer:               otel.Tracer("github.com/haldorgrim/netgram/internal/udp"),
		metrics:              cfg.Metrics,
		roster:               make(map[int16]*ClientRecord),
		byName:               make(map[string]map[int16]struct{}),
		nextID:               cfg.StartID,
		limiters:             newEndpointLimiters(cfg.RateLimit),
		onClientConnected:    cfg.OnClientConnected,
		onClientDisconnected: cfg.OnClientDisconnected,
		onMessageReceived:    cfg.OnMessageReceived,
	}

	s.hb = heartbeat.New(pong, ping)
	s.hb.PongWindowEnded = s.handlePongWindowEnded
	s.hb.PingWindowEnded = s.handlePingWindowEnded

	return s, nil
}

// Start binds the UDP socket and launches the receive loop in a new
// goroutine. It returns once the socket is bound; Stop (or ctx
// cancellation) ends the receive loop.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf(netgram.ErrServerAlreadyRunning)
	}
	addr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.conn = conn
	s.running = true
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	go s.receiveLoop(loopCtx)
	return nil
}

// Stop cancels the receive loop and closes the socket.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel := s.cancel
	conn := s.conn
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// Tick advances the heartbeat by dt. Call this from an embedder-driven
// schedule (a game loop, a time.Ticker); the server does not run its own
// internal timer goroutine.
func (s *Server) Tick(dt time.Duration) {
	s.hb.Update(dt)
}

// RunHeartbeat is a convenience loop that calls Tick every interval until
// ctx is cancelled, for embedders that just want "heartbeat happens"
// without running their own scheduler.
func (s *Server) RunHeartbeat(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(interval)
		}
	}
}

func (s *Server) receiveLoop(ctx context.Context) {
	buf := make([]byte, s.capacity)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("udp server: receive loop cancelled")
			return
		default:
		}

		n, remote, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			s.logger.Warn().Err(err).Msg("udp server: transient listen error")
			continue
		}

		if !s.limiters.Allow(remote.String()) {
			if s.metrics != nil {
				s.metrics.RateLimitDrops.Inc()
			}
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		_, span := s.tracer.Start(ctx, "udp.server.handleDatagram")
		s.handleDatagram(data, remote)
		span.End()
	}
}

func (s *Server) handleDatagram(data []byte, remote *net.UDPAddr) {
	msg := netgram.NewIncomingMessage(data)
	if s.metrics != nil {
		s.metrics.MessagesReceived.Inc()
	}

	switch msg.Tag() {
	case netgram.TagClientConnected:
		var info netgram.ClientConnectionInfo
		info.Deserialize(msg.Reader())
		if s.onClientConnected != nil {
			s.onClientConnected(netgram.ClientConnectedEvent{Info: info, Endpoint: remote.String()})
		}
		s.processConnectionMessage(msg.SenderID(), info, remote)

	case netgram.TagClientDisconnected:
		var info netgram.ClientConnectionInfo
		info.Deserialize(msg.Reader())
		s.evict(msg.SenderID(), info.Success)

	case netgram.TagPong:
		s.markAlive(msg.SenderID(), remote)

	default:
		s.mu.Lock()
		_, known := s.roster[msg.SenderID()]
		s.mu.Unlock()
		if known {
			if s.onMessageReceived != nil {
				s.onMessageReceived(netgram.MessageReceivedEvent{Message: msg})
			}
		} else {
			s.replyUnknownClient(remote)
		}
	}
}

// processConnectionMessage allocates a new id, replaces any stale record
// under the submitted sender id, inserts the new ClientRecord into both
// roster indexes, and acks the handshake.
func (s *Server) processConnectionMessage(submittedID int16, info netgram.ClientConnectionInfo, remote *net.UDPAddr) {
	s.mu.Lock()
	newID := s.nextID
	s.nextID++

	if stale, ok := s.roster[submittedID]; ok {
		delete(s.roster, submittedID)
		s.removeFromNameIndexLocked(stale.name, submittedID)
	}

	rec := &ClientRecord{id: newID, name: info.Name, endpoint: remote, alive: true}
	s.roster[newID] = rec
	if s.byName[info.Name] == nil {
		s.byName[info.Name] = make(map[int16]struct{})
	}
	s.byName[info.Name][newID] = struct{}{}
	rosterSize := len(s.roster)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RosterSize.Set(float64(rosterSize))
	}

	ack := netgram.NewOutgoingMessage(netgram.TagClientConnected, s.capacity)
	ackInfo := netgram.ClientConnectionInfo{Name: info.Name, ID: newID, Success: true}
	ackInfo.Serialize(ack.Writer())
	ack.PatchSenderID(newID)
	s.sendTo(remote, ack)
}

func (s *Server) markAlive(id int16, remote *net.UDPAddr) {
	s.mu.Lock()
	rec, ok := s.roster[id]
	if ok {
		rec.alive = true
	}
	s.mu.Unlock()

	if !ok {
		s.replyUnknownClient(remote)
	}
}

func (s *Server) replyUnknownClient(remote *net.UDPAddr) {
	msg := netgram.NewOutgoingMessage(netgram.TagUnknownClient, s.capacity)
	s.sendTo(remote, msg)
}

// evict removes id from both roster indexes and fires ClientDisconnected
// with Local mirroring the caller's notion of who initiated the
// disconnect. An id that is not in the roster is ignored: no event fires.
func (s *Server) evict(id int16, local bool) {
	s.mu.Lock()
	rec, ok := s.roster[id]
	if ok {
		delete(s.roster, id)
		s.removeFromNameIndexLocked(rec.name, id)
	}
	rosterSize := len(s.roster)
	s.mu.Unlock()

	if !ok {
		return
	}

	s.limiters.Forget(rec.endpoint.String())
	if s.metrics != nil {
		s.metrics.RosterSize.Set(float64(rosterSize))
	}
	if s.onClientDisconnected != nil {
		s.onClientDisconnected(netgram.ClientDisconnectedEvent{ID: id, Name: rec.name, Local: local})
	}
}

func (s *Server) removeFromNameIndexLocked(name string, id int16) {
	ids, ok := s.byName[name]
	if !ok {
		return
	}
	delete(ids, id)
	if len(ids) == 0 {
		delete(s.byName, name)
	}
}

// handlePongWindowEnded is the heartbeat's "send pings" phase: mark every
// roster member suspect (alive=false) and ping them.
func (s *Server) handlePongWindowEnded() {
	s.mu.Lock()
	recs := make([]*ClientRecord, 0, len(s.roster))
	for _, rec := range s.roster {
		rec.alive = false
		recs = append(recs, rec)
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, rec := range recs {
		wg.Add(1)
		go func(endpoint *net.UDPAddr) {
			defer wg.Done()
			s.sendTo(endpoint, netgram.NewOutgoingMessage(netgram.TagPing, s.capacity))
		}(rec.endpoint)
	}
	wg.Wait()
}

// handlePingWindowEnded is the heartbeat's "evict silent" phase: every
// client still marked suspect gets a ClientDisconnected{success=false}
// notice, then is removed from both roster indexes.
func (s *Server) handlePingWindowEnded() {
	s.mu.Lock()
	var suspect []*ClientRecord
	for _, rec := range s.roster {
		if !rec.alive {
			suspect = append(suspect, rec)
		}
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, rec := range suspect {
		wg.Add(1)
		go func(rec *ClientRecord) {
			defer wg.Done()
			msg := netgram.NewOutgoingMessage(netgram.TagClientDisconnected, s.capacity)
			info := netgram.ClientConnectionInfo{Name: rec.name, ID: rec.id, Success: false}
			info.Serialize(msg.Writer())
			s.sendTo(rec.endpoint, msg)
		}(rec)
	}
	wg.Wait()

	for _, rec := range suspect {
		s.evict(rec.id, false)
		if s.metrics != nil {
			s.metrics.Evictions.Inc()
		}
	}
}

func (s *Server) sendTo(addr *net.UDPAddr, msg *netgram.Message) (int, error) {
	n, err := s.conn.WriteToUDP(msg.Bytes(), addr)
	if err == nil && s.metrics != nil {
		s.metrics.MessagesSent.Inc()
	}
	return n, err
}

// Send writes msg to the endpoint registered under id, or reports
// ErrClientNotFound.
func (s *Server) Send(id int16, msg *netgram.Message) (int, error) {
	s.mu.Lock()
	rec, ok := s.roster[id]
	s.mu.Unlock()
	if !ok {
		return -1, fmt.Errorf(netgram.ErrClientNotFound)
	}
	return s.sendTo(rec.endpoint, msg)
}

// SendByName fans msg out to every id currently registered under name.
func (s *Server) SendByName(name string, msg *netgram.Message) error {
	return s.fanOut(s.recordsByName(name), msg)
}

// SendAll fans msg out to the entire roster.
func (s *Server) SendAll(msg *netgram.Message) error {
	return s.fanOut(s.allRecords(), msg)
}

// SendOthers fans msg out to every roster member except id.
func (s *Server) SendOthers(id int16, msg *netgram.Message) error {
	all := s.allRecords()
	filtered := make([]*ClientRecord, 0, len(all))
	for _, rec := range all {
		if rec.id != id {
			filtered = append(filtered, rec)
		}
	}
	return s.fanOut(filtered, msg)
}

// SendOthersByName fans msg out to every roster member not sharing name.
func (s *Server) SendOthersByName(name string, msg *netgram.Message) error {
	all := s.allRecords()
	filtered := make([]*ClientRecord, 0, len(all))
	for _, rec := range all {
		if rec.name != name {
			filtered = append(filtered, rec)
		}
	}
	return s.fanOut(filtered, msg)
}

func (s *Server) allRecords() []*ClientRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ClientRecord, 0, len(s.roster))
	for _, rec := range s.roster {
		out = append(out, rec)
	}
	return out
}

func (s *Server) recordsByName(name string) []*ClientRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.byName[name]
	out := make([]*ClientRecord, 0, len(ids))
	for id := range ids {
		if rec, ok := s.roster[id]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// fanOut issues one concurrent send per record, cloning msg for each so
// concurrent writers never race over the same backing buffer, and waits
// for all sends to complete.
func (s *Server) fanOut(recs []*ClientRecord, msg *netgram.Message) error {
	var wg sync.WaitGroup
	errs := make([]error, len(recs))
	for i, rec := range recs {
		wg.Add(1)
		go func(i int, endpoint *net.UDPAddr) {
			defer wg.Done()
			_, err := s.sendTo(endpoint, msg.Clone())
			errs[i] = err
		}(i, rec.endpoint)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Roster returns a point-in-time snapshot of every ClientRecord, suitable
// for read-only inspection (e.g. the administrative HTTP facade).
func (s *Server) Roster() []*ClientRecord {
	return s.allRecords()
}
