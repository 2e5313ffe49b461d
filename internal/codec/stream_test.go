package codec

import "testing"

func TestWriterReaderRoundTripPrimitives(t *testing.T) {
	t.Parallel()

	s := NewWriterStream(64)
	w := NewWriter(s)

	w.WriteBool(true)
	w.WriteInt8(-7)
	w.WriteInt16(-1000)
	w.WriteUint16(40000)
	w.WriteInt32(-123456)
	w.WriteUint32(0xDEADBEEF)
	w.WriteInt64(-9876543210)
	w.WriteUint64(0xFEEDFACECAFEBEEF)
	w.WriteFloat32(3.5)
	w.WriteFloat64(2.71828)

	r := NewReader(NewReaderStream(s.Bytes()))

	if got := r.ReadBool(); got != true {
		t.Errorf("ReadBool() = %v, want true", got)
	}
	if got := r.ReadInt8(); got != -7 {
		t.Errorf("ReadInt8() = %v, want -7", got)
	}
	if got := r.ReadInt16(); got != -1000 {
		t.Errorf("ReadInt16() = %v, want -1000", got)
	}
	if got := r.ReadUint16(); got != 40000 {
		t.Errorf("ReadUint16() = %v, want 40000", got)
	}
	if got := r.ReadInt32(); got != -123456 {
		t.Errorf("ReadInt32() = %v, want -123456", got)
	}
	if got := r.ReadUint32(); got != 0xDEADBEEF {
		t.Errorf("ReadUint32() = %v, want 0xDEADBEEF", got)
	}
	if got := r.ReadInt64(); got != -9876543210 {
		t.Errorf("ReadInt64() = %v, want -9876543210", got)
	}
	if got := r.ReadUint64(); got != 0xFEEDFACECAFEBEEF {
		t.Errorf("ReadUint64() = %v, want 0xFEEDFACECAFEBEEF", got)
	}
	if got := r.ReadFloat32(); got != 3.5 {
		t.Errorf("ReadFloat32() = %v, want 3.5", got)
	}
	if got := r.ReadFloat64(); got != 2.71828 {
		t.Errorf("ReadFloat64() = %v, want 2.71828", got)
	}
}

func TestWriteUint32BigEndianOnWire(t *testing.T) {
	t.Parallel()

	s := NewWriterStream(16)
	w := NewWriter(s)
	w.WriteUint32(0x01020304)

	want := []byte{0x01, 0x02, 0x03, 0x04}
	got := s.Bytes()
	if len(got) != 4 {
		t.Fatalf("wrote %d bytes, want 4", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestWriteStringExactBytes(t *testing.T) {
	t.Parallel()

	s := NewWriterStream(16)
	w := NewWriter(s)

	n := w.WriteString("hi")
	if n != 4 {
		t.Fatalf("WriteString() = %d, want 4", n)
	}

	want := []byte{0x00, 0x02, 'h', 'i'}
	got := s.Bytes()
	if len(got) != len(want) {
		t.Fatalf("got %d bytes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestReadStringEmptyConsumesTwoBytes(t *testing.T) {
	t.Parallel()

	s := NewWriterStream(16)
	w := NewWriter(s)
	w.WriteString("")
	w.WriteByte(0xAA) // sentinel so we can see the cursor landed correctly

	r := NewReader(NewReaderStream(s.Bytes()))
	if got := r.ReadString(); got != "" {
		t.Errorf("ReadString() = %q, want empty", got)
	}
	if r.stream().Position() != 2 {
		t.Errorf("Position() = %d, want 2", r.stream().Position())
	}
	if got := r.ReadByte(); got != 0xAA {
		t.Errorf("sentinel byte = %#x, want 0xAA", got)
	}
}

func TestReadStringRoundTrip(t *testing.T) {
	t.Parallel()

	s := NewWriterStream(32)
	w := NewWriter(s)
	w.WriteString("alice")

	r := NewReader(NewReaderStream(s.Bytes()))
	if got := r.ReadString(); got != "alice" {
		t.Errorf("ReadString() = %q, want %q", got, "alice")
	}
}

func TestWriterRejectsExactlyFittingFinalWrite(t *testing.T) {
	t.Parallel()

	// Capacity 4, writing 4 bytes should be rejected: the boundary check
	// is strict "<", not "<=".
	s := NewWriterStream(4)
	w := NewWriter(s)

	n := w.WriteUint32(1)
	if n != -1 {
		t.Errorf("WriteUint32() = %d, want -1 (exact-fit write must be rejected)", n)
	}
	if s.Length() != 0 {
		t.Errorf("Length() = %d, want 0 (buffer must be unchanged on rejection)", s.Length())
	}
}

func TestWriterAllowsOneByteHeadroom(t *testing.T) {
	t.Parallel()

	s := NewWriterStream(5)
	w := NewWriter(s)

	n := w.WriteUint32(1)
	if n != 4 {
		t.Errorf("WriteUint32() = %d, want 4", n)
	}
}

func TestWriteOnReadModeRejected(t *testing.T) {
	t.Parallel()

	s := NewReaderStream([]byte{1, 2, 3, 4})
	w := NewWriter(s)

	if n := w.WriteByte(9); n != -1 {
		t.Errorf("WriteByte() on Read-mode stream = %d, want -1", n)
	}
	if s.Position() != 0 || s.Length() != 4 {
		t.Errorf("cursors mutated by rejected write: position=%d length=%d", s.Position(), s.Length())
	}
}

func TestReadOnWriteModeRejected(t *testing.T) {
	t.Parallel()

	s := NewWriterStream(16)
	r := NewReader(s)

	if got := r.ReadByte(); got != 0 {
		t.Errorf("ReadByte() on Write-mode stream = %v, want 0", got)
	}
}

func TestReadPastLengthReturnsDefault(t *testing.T) {
	t.Parallel()

	s := NewReaderStream([]byte{0x01})
	r := NewReader(s)

	if got := r.ReadUint32(); got != 0 {
		t.Errorf("ReadUint32() past Length = %v, want 0", got)
	}
	if s.Position() != 0 {
		t.Errorf("Position() = %d, want 0 (rejected read must not advance cursor)", s.Position())
	}
}

func TestWriteAtPatchesWithoutMovingAppendCursor(t *testing.T) {
	t.Parallel()

	s := NewWriterStream(16)
	w := NewWriter(s)
	w.WriteInt16(0) // placeholder sender id
	w.WriteUint16(3)
	before := s.Length()

	if ok := s.WriteAt(0, []byte{0x00, 0x2A}); !ok {
		t.Fatal("WriteAt() = false, want true")
	}
	if s.Length() != before {
		t.Errorf("Length() = %d, want unchanged %d", s.Length(), before)
	}

	r := NewReader(NewReaderStream(s.Bytes()))
	if got := r.ReadInt16(); got != 0x2A {
		t.Errorf("patched sender id = %v, want 42", got)
	}
}

func TestWriteAtExtendsLengthPastPriorWrites(t *testing.T) {
	t.Parallel()

	s := NewWriterStream(16)
	if ok := s.WriteAt(4, []byte{0xFF}); !ok {
		t.Fatal("WriteAt() = false, want true")
	}
	if s.Length() != 5 {
		t.Errorf("Length() = %d, want 5", s.Length())
	}
}

func TestSequenceOfWritesRecoveredInOrder(t *testing.T) {
	t.Parallel()

	s := NewWriterStream(64)
	w := NewWriter(s)
	values := []uint16{1, 200, 65535, 0, 42}
	for _, v := range values {
		w.WriteUint16(v)
	}

	r := NewReader(NewReaderStream(s.Bytes()))
	for i, want := range values {
		if got := r.ReadUint16(); got != want {
			t.Errorf("value %d = %v, want %v", i, got, want)
		}
	}
}

func BenchmarkWriteUint32(b *testing.B) {
	s := NewWriterStream(DefaultCapacity)
	w := NewWriter(s)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.length = 0
		w.WriteUint32(uint32(i))
	}
}

func BenchmarkReadUint32(b *testing.B) {
	s := NewWriterStream(DefaultCapacity)
	w := NewWriter(s)
	w.WriteUint32(0xDEADBEEF)
	data := s.Bytes()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r := NewReader(NewReaderStream(data))
		r.ReadUint32()
	}
}
