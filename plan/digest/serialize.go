package digest

import (
	"encoding/binary"

	"github.com/chazu/plexc/plan"
)

// ---------------------------------------------------------------------------
// Deterministic binary serialization of a normalized plan.
//
// Encoding conventions:
//   - First byte: Version (0x01)
//   - Integers: big-endian fixed-width (uint16=2B, uint32=4B)
//   - Strings: uint32 big-endian length + UTF-8 bytes
//   - Element: tag byte, element tag, attribute count, attributes, then
//     either the text (leaf) or the child count and children inline
// ---------------------------------------------------------------------------

// Serialize produces a deterministic byte serialization of an element tree.
// The returned bytes are suitable for hashing with SHA-256.
func Serialize(el *plan.Element) []byte {
	s := &serializer{buf: make([]byte, 0, 256)}
	s.writeByte(Version)
	s.serializeElement(el)
	return s.buf
}

type serializer struct {
	buf []byte
}

func (s *serializer) writeByte(b byte) {
	s.buf = append(s.buf, b)
}

func (s *serializer) writeUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeString(v string) {
	s.writeUint32(uint32(len(v)))
	s.buf = append(s.buf, v...)
}

func (s *serializer) serializeElement(el *plan.Element) {
	if el.IsLeaf() {
		s.writeByte(TagLeaf)
	} else {
		s.writeByte(TagElement)
	}
	s.writeString(el.Tag)
	s.writeUint16(uint16(len(el.Attrs)))
	for _, a := range el.Attrs {
		s.writeByte(TagAttr)
		s.writeString(a.Name)
		s.writeString(a.Value)
	}
	if el.IsLeaf() {
		s.writeString(el.Text)
		return
	}
	s.writeUint32(uint32(len(el.Children)))
	for _, c := range el.Children {
		s.serializeElement(c)
	}
}
