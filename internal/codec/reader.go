package codec

import "encoding/binary"

// Reader is the sequential view of a Read-mode Stream. Every read past
// Length is rejected and returns the type's zero value without advancing
// Position; see Stream.claim.
type Reader struct {
	s *Stream
}

// NewReader wraps a Stream for sequential consumption.
func NewReader(s *Stream) *Reader {
	return &Reader{s: s}
}

func (r *Reader) stream() *Stream { return r.s }

// ReadByte consumes and returns a single, unreversed byte, or 0 past Length.
func (r *Reader) ReadByte() byte {
	if r.s == nil || !r.s.claim(1) {
		return 0
	}
	b := r.s.data[r.s.position]
	r.s.advanceRead(1)
	return b
}

// ReadBool consumes a single byte and reports whether it was non-zero.
func (r *Reader) ReadBool() bool { return r.ReadByte() != 0 }

// ReadInt8 consumes a signed byte.
func (r *Reader) ReadInt8() int8 { return int8(r.ReadByte()) }

// ReadUint16 consumes a big-endian uint16, or 0 past Length.
func (r *Reader) ReadUint16() uint16 {
	if r.s == nil || !r.s.claim(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.s.data[r.s.position:])
	r.s.advanceRead(2)
	return v
}

// ReadInt16 consumes a big-endian int16.
func (r *Reader) ReadInt16() int16 { return int16(r.ReadUint16()) }

// ReadUint32 consumes a big-endian uint32, or 0 past Length.
func (r *Reader) ReadUint32() uint32 {
	if r.s == nil || !r.s.claim(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.s.data[r.s.position:])
	r.s.advanceRead(4)
	return v
}

// ReadInt32 consumes a big-endian int32.
func (r *Reader) ReadInt32() int32 { return int32(r.ReadUint32()) }

// ReadUint64 consumes a big-endian uint64, or 0 past Length.
func (r *Reader) ReadUint64() uint64 {
	if r.s == nil || !r.s.claim(8) {
		return 0
	}
	v := binary.BigEndian.Uint64(r.s.data[r.s.position:])
	r.s.advanceRead(8)
	return v
}

// ReadInt64 consumes a big-endian int64.
func (r *Reader) ReadInt64() int64 { return int64(r.ReadUint64()) }

// ReadFloat32 consumes a big-endian IEEE-754 single precision float.
func (r *Reader) ReadFloat32() float32 { return float32frombits(r.ReadUint32()) }

// ReadFloat64 consumes a big-endian IEEE-754 double precision float.
func (r *Reader) ReadFloat64() float64 { return float64frombits(r.ReadUint64()) }

// ReadBytes consumes and returns n raw bytes, or a nil slice past Length.
// The returned slice references the underlying buffer; callers must not
// retain it across further reads.
func (r *Reader) ReadBytes(n int) []byte {
	if r.s == nil || !r.s.claim(n) {
		return nil
	}
	b := r.s.data[r.s.position : r.s.position+n]
	r.s.advanceRead(n)
	return b
}

// ReadString consumes a u16 length prefix followed by that many ASCII
// bytes. A declared length of zero returns "" without consuming payload
// bytes. A declared length exceeding the remaining buffer is a buffer
// underflow: the prefix is still consumed (it fit), but the body is not,
// and "" is returned.
func (r *Reader) ReadString() string {
	n := r.ReadUint16()
	if n == 0 {
		return ""
	}
	b := r.ReadBytes(int(n))
	if b == nil {
		return ""
	}
	return string(b)
}

// ReadSerializable delegates to v's own Deserialize method, which reads
// through this same Reader. The caller supplies the (already allocated)
// value to populate; Go has no portable "default-construct this interface"
// operation, so allocation is the caller's responsibility.
func (r *Reader) ReadSerializable(v Serializable) {
	v.Deserialize(r)
}
