package codec

import "encoding/binary"

// Writer is the append-only view of a Write-mode Stream. All multi-byte
// accessors emit canonical big-endian, independent of the host's native
// byte order. Go has no portable way to observe host-native memory layout
// without unsafe pointer tricks, so encoding/binary.BigEndian is used
// directly rather than conditionally reversing bytes at runtime.
type Writer struct {
	s *Stream
}

// NewWriter wraps a Stream for sequential appends. Returns an inert Writer
// (all writes fail) if s is nil or not in Write mode.
func NewWriter(s *Stream) *Writer {
	return &Writer{s: s}
}

func (w *Writer) stream() *Stream { return w.s }

// WriteByte appends a single, unreversed byte. Returns 1 on success, -1 on
// bounds/mode failure.
func (w *Writer) WriteByte(b byte) int {
	if w.s == nil || !w.s.reserve(1) {
		return -1
	}
	w.s.data[w.s.length] = b
	w.s.advanceWrite(1)
	return 1
}

// WriteBool appends a single byte: 1 for true, 0 for false.
func (w *Writer) WriteBool(v bool) int {
	if v {
		return w.WriteByte(1)
	}
	return w.WriteByte(0)
}

// WriteInt8 appends a signed byte.
func (w *Writer) WriteInt8(v int8) int { return w.WriteByte(byte(v)) }

// WriteUint16 appends a big-endian uint16.
func (w *Writer) WriteUint16(v uint16) int {
	if w.s == nil || !w.s.reserve(2) {
		return -1
	}
	binary.BigEndian.PutUint16(w.s.data[w.s.length:], v)
	w.s.advanceWrite(2)
	return 2
}

// WriteInt16 appends a big-endian int16.
func (w *Writer) WriteInt16(v int16) int { return w.WriteUint16(uint16(v)) }

// WriteUint32 appends a big-endian uint32.
func (w *Writer) WriteUint32(v uint32) int {
	if w.s == nil || !w.s.reserve(4) {
		return -1
	}
	binary.BigEndian.PutUint32(w.s.data[w.s.length:], v)
	w.s.advanceWrite(4)
	return 4
}

// WriteInt32 appends a big-endian int32.
func (w *Writer) WriteInt32(v int32) int { return w.WriteUint32(uint32(v)) }

// WriteUint64 appends a big-endian uint64.
func (w *Writer) WriteUint64(v uint64) int {
	if w.s == nil || !w.s.reserve(8) {
		return -1
	}
	binary.BigEndian.PutUint64(w.s.data[w.s.length:], v)
	w.s.advanceWrite(8)
	return 8
}

// WriteInt64 appends a big-endian int64.
func (w *Writer) WriteInt64(v int64) int { return w.WriteUint64(uint64(v)) }

// WriteFloat32 appends a big-endian IEEE-754 single precision float.
func (w *Writer) WriteFloat32(v float32) int {
	return w.WriteUint32(float32bits(v))
}

// WriteFloat64 appends a big-endian IEEE-754 double precision float.
func (w *Writer) WriteFloat64(v float64) int {
	return w.WriteUint64(float64bits(v))
}

// WriteBytes appends raw bytes verbatim, with no length prefix.
func (w *Writer) WriteBytes(b []byte) int {
	if w.s == nil || !w.s.reserve(len(b)) {
		return -1
	}
	copy(w.s.data[w.s.length:], b)
	w.s.advanceWrite(len(b))
	return len(b)
}

// WriteString appends a u16 length prefix followed by the ASCII bytes of s.
// Returns the total bytes written (2+len(s)), or -1 on failure, in which
// case the buffer is left unchanged.
func (w *Writer) WriteString(s string) int {
	if w.s == nil || !w.s.reserve(2+len(s)) {
		return -1
	}
	binary.BigEndian.PutUint16(w.s.data[w.s.length:], uint16(len(s)))
	w.s.advanceWrite(2)
	copy(w.s.data[w.s.length:], s)
	w.s.advanceWrite(len(s))
	return 2 + len(s)
}

// WriteSerializable delegates to v's own Serialize method, which writes
// through this same Writer and reports the bytes it wrote.
func (w *Writer) WriteSerializable(v Serializable) int {
	return v.Serialize(w)
}
