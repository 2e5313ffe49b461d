// Package netgram provides a message-oriented UDP client/server core: a
// tagged binary protocol over datagram transport, server-assigned client
// identity, a bidirectional Ping/Pong heartbeat that evicts silent peers,
// and a thread-safe dispatcher that routes incoming messages by numeric
// tag to subscriber callbacks.
//
// # Architecture
//
// Every datagram begins with a four-byte header: a server-assigned sender
// id (int16, -1 from a client not yet registered) followed by a tag (uint16) that
// selects how the payload is interpreted. Tags 0-4 and 200 are reserved
// for the protocol itself (handshake, disconnect, ping/pong, unknown-client
// and a spare); application tags should avoid that range.
//
// # Quick Start
//
//	import (
//	    "github.com/haldorgrim/netgram/udp"
//	)
//
//	server, _ := udp.NewServer(udp.ServerConfig{
//	    Addr: ":9000",
//	    OnMessageReceived: func(ev netgram.MessageReceivedEvent) {
//	        // stage onto a Dispatcher, or handle directly
//	    },
//	})
//	server.Start(ctx)
//
// # Protocol Format
//
//	[2 bytes: senderId (int16, big-endian)][2 bytes: tag (uint16, big-endian)][N bytes: payload]
//
// Every multi-byte field is canonical big-endian on the wire, independent
// of host byte order. Default datagram capacity is 512 bytes.
//
// # Scope
//
// Reliable ordered delivery, flow control, encryption, NAT traversal,
// fragmentation across datagrams and IPv6-specific handling are
// deliberately not addressed; each datagram is one self-contained
// message. An administrative HTTP facade (package rest) and a browser
// WebSocket bridge (package ws) exist as thin adapters that feed the same
// Dispatcher as the UDP core, not as independent protocol stacks.
package netgram
