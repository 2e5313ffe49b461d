package netgram

import "github.com/haldorgrim/netgram/internal/codec"

// ClientConnectionInfo is the payload carried by both directions of the
// ClientConnected handshake and by ClientDisconnected notifications:
// string name, i16 id, bool success.
type ClientConnectionInfo struct {
	Name    string
	ID      int16
	Success bool
}

var _ codec.Serializable = (*ClientConnectionInfo)(nil)

// Serialize writes Name, then ID, then Success, in that order.
func (c *ClientConnectionInfo) Serialize(w *codec.Writer) int {
	n := w.WriteString(c.Name)
	if n < 0 {
		return -1
	}
	n2 := w.WriteInt16(c.ID)
	if n2 < 0 {
		return -1
	}
	n3 := w.WriteBool(c.Success)
	if n3 < 0 {
		return -1
	}
	return n + n2 + n3
}

// Deserialize populates c by reading Name, ID, Success in order.
func (c *ClientConnectionInfo) Deserialize(r *codec.Reader) {
	c.Name = r.ReadString()
	c.ID = r.ReadInt16()
	c.Success = r.ReadBool()
}

// ClientMessageTagRegistration is an optional payload a client may send to
// tell the server (or any dispatcher-aware peer) which application tags
// it wants delivered: u16 count followed by that many u16 tag values.
type ClientMessageTagRegistration struct {
	Tags []Tag
}

var _ codec.Serializable = (*ClientMessageTagRegistration)(nil)

// Serialize writes the tag count followed by each tag value.
func (c *ClientMessageTagRegistration) Serialize(w *codec.Writer) int {
	total := w.WriteUint16(uint16(len(c.Tags)))
	if total < 0 {
		return -1
	}
	for _, t := range c.Tags {
		n := w.WriteUint16(uint16(t))
		if n < 0 {
			return -1
		}
		total += n
	}
	return total
}

// Deserialize reads the tag count followed by that many tag values.
func (c *ClientMessageTagRegistration) Deserialize(r *codec.Reader) {
	count := r.ReadUint16()
	c.Tags = make([]Tag, 0, count)
	for i := uint16(0); i < count; i++ {
		c.Tags = append(c.Tags, Tag(r.ReadUint16()))
	}
}
