package netgram

// ClientRef is the read-only view of a connected client that protocol and
// dispatcher callbacks receive. It never exposes the roster's mutable
// internals directly.
type ClientRef interface {
	ID() int16
	Name() string
	Endpoint() string
	Alive() bool
}
