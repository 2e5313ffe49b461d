// Package codec implements the fixed-capacity datagram buffer and the
// primitive/string encoding rules used to frame every message on the wire.
//
// The wire format is canonical big-endian for every multi-byte field,
// regardless of the host's native byte order. See Writer/Reader for the
// primitive accessors and Stream for the underlying buffer and its bounds
// policy.
package codec

import "github.com/rs/zerolog/log"

// Mode selects whether a Stream accepts writes (append-only) or reads
// (sequential, bounded by the bytes that were actually written/received).
type Mode int

const (
	// Write is the mode of a freshly constructed outgoing buffer.
	Write Mode = iota
	// Read is the mode of a buffer wrapping a received datagram.
	Read
)

// Stream is a fixed-capacity byte buffer with an append cursor (Length) and
// a read cursor (Position). 0 <= Position <= Length <= Capacity always
// holds. In Write mode Length tracks bytes appended so far; in Read mode
// Length is fixed at construction to the number of valid bytes.
type Stream struct {
	data     []byte
	capacity int
	length   int
	position int
	mode     Mode
}

// DefaultCapacity is the datagram buffer size used when callers do not
// request a specific one.
const DefaultCapacity = 512

// NewWriterStream allocates a Write-mode Stream with the given capacity.
func NewWriterStream(capacity int) *Stream {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Stream{
		data:     make([]byte, capacity),
		capacity: capacity,
		mode:     Write,
	}
}

// NewReaderStream wraps an already-received datagram in a Read-mode Stream.
// The buffer is used in place; callers must not mutate data concurrently.
func NewReaderStream(data []byte) *Stream {
	return &Stream{
		data:     data,
		capacity: len(data),
		length:   len(data),
		mode:     Read,
	}
}

// Mode reports whether the stream is accepting writes or reads.
func (s *Stream) Mode() Mode { return s.mode }

// Capacity returns the fixed buffer size.
func (s *Stream) Capacity() int { return s.capacity }

// Length returns the append cursor in Write mode, or the valid-byte prefix
// in Read mode.
func (s *Stream) Length() int { return s.length }

// Position returns the current read cursor.
func (s *Stream) Position() int { return s.position }

// Bytes returns the valid prefix of the underlying buffer (data[:Length]).
// Callers must not retain it across further writes to this Stream.
func (s *Stream) Bytes() []byte { return s.data[:s.length] }

// Raw returns the full backing array, including capacity beyond Length.
// Used by callers (Message) that need to hand the socket layer the exact
// slice that was written.
func (s *Stream) Raw() []byte { return s.data }

// reserve checks the writer bounds policy: a write of n bytes is rejected,
// unchanged, if it would bring Length to or past Capacity. The boundary is
// intentionally strict ("<", not "<="), forbidding an exactly-fitting final
// write, which costs one byte of headroom on every buffer but is kept for
// consistency with the rest of the bounds checks.
func (s *Stream) reserve(n int) bool {
	if s.mode != Write {
		log.Warn().Str("op", "write").Msg("codec: wrong mode")
		return false
	}
	if s.length+n >= s.capacity {
		log.Warn().Int("overBy", s.length+n-s.capacity+1).Msg("codec: buffer overflow")
		return false
	}
	return true
}

// advanceWrite appends n freshly written bytes to the length cursor.
func (s *Stream) advanceWrite(n int) { s.length += n }

// claim checks the reader bounds policy: a read of n bytes is rejected if
// it would push Position past Length.
func (s *Stream) claim(n int) bool {
	if s.mode != Read {
		log.Warn().Str("op", "read").Msg("codec: wrong mode")
		return false
	}
	if s.position+n > s.length {
		log.Warn().Int("requested", n).Int("available", s.length-s.position).Msg("codec: buffer underflow")
		return false
	}
	return true
}

func (s *Stream) advanceRead(n int) { s.position += n }

// WriteAt overwrites bytes at an arbitrary offset without touching the
// append cursor, except that Length grows if the write extends past it.
// This bypasses the normal mode check because it exists for exactly one
// purpose: patching the sender-id field into an already-framed outgoing
// message right before transmission.
func (s *Stream) WriteAt(offset int, data []byte) bool {
	if offset < 0 || offset+len(data) > s.capacity {
		log.Warn().Int("offset", offset).Int("n", len(data)).Msg("codec: WriteAt out of bounds")
		return false
	}
	copy(s.data[offset:], data)
	if end := offset + len(data); end > s.length {
		s.length = end
	}
	return true
}
