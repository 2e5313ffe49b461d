package netgram

import "github.com/haldorgrim/netgram/internal/codec"

// Message wraps a single datagram buffer and the four-byte header every
// datagram carries (see WireHeaderSize in tags.go): sender id followed by
// tag. It is constructed once per datagram and discarded after dispatch.
//
// An Outgoing message owns a fresh Write-mode buffer with the header
// already framed (sender id 0, the caller's tag). An Incoming message
// wraps a received datagram in a Read-mode buffer with the header already
// decoded, leaving the read cursor at the payload's first byte.
type Message struct {
	stream   *codec.Stream
	senderID int16
	tag      Tag
}

// NewOutgoingMessage allocates a Write-mode message framed with
// senderId=0 (patched later by Client.Send) and the given tag.
func NewOutgoingMessage(tag Tag, capacity int) *Message {
	s := codec.NewWriterStream(capacity)
	w := codec.NewWriter(s)
	w.WriteInt16(0)
	w.WriteUint16(uint16(tag))
	return &Message{stream: s, senderID: 0, tag: tag}
}

// NewIncomingMessage wraps a received datagram and decodes its header.
// The read cursor is left at the first payload byte.
func NewIncomingMessage(data []byte) *Message {
	s := codec.NewReaderStream(data)
	r := codec.NewReader(s)
	senderID := r.ReadInt16()
	tag := Tag(r.ReadUint16())
	return &Message{stream: s, senderID: senderID, tag: tag}
}

// Tag reports the message's routing tag.
func (m *Message) Tag() Tag { return m.tag }

// SenderID reports the id embedded in the header: 0 on an unsent outgoing
// message, the originating client's id on an incoming one.
func (m *Message) SenderID() int16 { return m.senderID }

// Bytes returns the framed datagram ready for transmission (Outgoing) or
// the raw bytes that were received (Incoming).
func (m *Message) Bytes() []byte { return m.stream.Bytes() }

// Len reports the number of valid bytes in the message.
func (m *Message) Len() int { return m.stream.Length() }

// Writer returns the payload writer for an Outgoing message, positioned
// just past the header. Calling it on an Incoming message returns an
// inert writer (all writes fail) rather than panicking.
func (m *Message) Writer() *codec.Writer {
	return codec.NewWriter(m.stream)
}

// Reader returns the payload reader for an Incoming message, positioned
// at the first payload byte. Calling it on an Outgoing message returns an
// inert reader (all reads return zero values) rather than panicking.
func (m *Message) Reader() *codec.Reader {
	return codec.NewReader(m.stream)
}

// PatchSenderID overwrites the header's sender-id field in place, without
// disturbing the write cursor, and updates the message's cached SenderID.
// Client.Send uses this exclusively to stamp the client's server-assigned
// id into an already-framed outgoing message right before transmission.
func (m *Message) PatchSenderID(id int16) bool {
	buf := []byte{byte(uint16(id) >> 8), byte(uint16(id))}
	if !m.stream.WriteAt(0, buf) {
		return false
	}
	m.senderID = id
	return true
}

// Clone returns a new Message carrying a copy of the header and payload
// bytes, never a copy of the user's Go value, which the codec never
// retains a reference to once Serialize returns. Used when the same
// outbound payload must be framed once and enqueued for several
// concurrent per-endpoint sends without sharing a single buffer.
func (m *Message) Clone() *Message {
	data := make([]byte, len(m.stream.Bytes()))
	copy(data, m.stream.Bytes())
	if m.stream.Mode() == codec.Write {
		s := codec.NewWriterStream(m.stream.Capacity())
		s.WriteAt(0, data) // also advances Length to len(data)
		return &Message{stream: s, senderID: m.senderID, tag: m.tag}
	}
	return NewIncomingMessage(data)
}
