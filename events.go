package netgram

// DisconnectedEvent carries the origin of a disconnection. Local is true
// when the disconnection was initiated by this side (a graceful
// Client.Disconnect); it mirrors the server's success=false eviction
// payload as false when the server silently dropped a peer after a
// missed heartbeat.
type DisconnectedEvent struct {
	Local bool
}

// ClientConnectedEvent is emitted by the server every time it accepts a
// handshake, before the roster mutation in ProcessConnectionMessage runs.
type ClientConnectedEvent struct {
	Info     ClientConnectionInfo
	Endpoint string
}

// ClientDisconnectedEvent is emitted by the server after a client leaves
// the roster, whether by graceful disconnect or heartbeat eviction.
type ClientDisconnectedEvent struct {
	ID    int16
	Name  string
	Local bool
}

// MessageReceivedEvent wraps a user-tagged (non-reserved) incoming
// message for embedder consumption, typically by forwarding it to a
// Dispatcher keyed on Message.Tag().
type MessageReceivedEvent struct {
	Message *Message
}

// Event hook function types. Each hook set is a plain Go callback slot,
// not a multicast delegate: callers assign at most what they need, and
// nil hooks are simply skipped. The Dispatcher (separately) is the
// general many-subscriber mechanism; these are single-purpose lifecycle
// notifications for connect/disconnect events specifically.
type (
	OnConnectedFn           func()
	OnDisconnectedFn        func(DisconnectedEvent)
	OnServerUnregisteredFn  func()
	OnMessageReceivedFn     func(MessageReceivedEvent)
	OnClientConnectedFn     func(ClientConnectedEvent)
	OnClientDisconnectedFn  func(ClientDisconnectedEvent)
)
