// Package entry encodes and decodes directory-table records.
//
// A record is laid out little-endian as
//
//	type:u8 data_offset:u32 data_length:u32 name_length:u8 name:[name_length]byte
//
// Records are packed back to back with no padding.
package entry

import (
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/meigma/rescomp/internal/romtype"
)

// Field offsets within a record.
const (
	TypeField    = 0
	OffsetField  = 1
	LengthField  = 5
	NameLenField = 9
)

// Size returns the encoded size of a record whose name is nameLen bytes.
func Size(nameLen int) int {
	return romtype.EntryBaseSize + nameLen
}

// ValidateName reports whether name can be stored in a record.
func ValidateName(name string) error {
	if len(name) > romtype.MaxNameLen {
		return fmt.Errorf("%w: %q is %d bytes, limit is %d", romtype.ErrInvalidName, name, len(name), romtype.MaxNameLen)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: %q is not valid UTF-8", romtype.ErrInvalidName, name)
	}
	return nil
}

// Encode writes e at the start of dst and returns the number of bytes written.
func Encode(dst []byte, e romtype.Entry) (int, error) {
	if err := ValidateName(e.Name); err != nil {
		return 0, err
	}
	n := Size(len(e.Name))
	if len(dst) < n {
		return 0, io.ErrShortBuffer
	}
	dst[TypeField] = byte(e.Type)
	binary.LittleEndian.PutUint32(dst[OffsetField:], e.DataOffset)
	binary.LittleEndian.PutUint32(dst[LengthField:], e.DataLength)
	dst[NameLenField] = byte(len(e.Name))
	copy(dst[romtype.EntryBaseSize:], e.Name)
	return n, nil
}

// Decode reads one record from the start of src and returns it together
// with its encoded size.
func Decode(src []byte) (romtype.Entry, int, error) {
	if len(src) < romtype.EntryBaseSize {
		return romtype.Entry{}, 0, fmt.Errorf("%w: truncated entry (%d bytes)", romtype.ErrCorrupt, len(src))
	}
	n := Size(int(src[NameLenField]))
	if len(src) < n {
		return romtype.Entry{}, 0, fmt.Errorf("%w: truncated entry name (%d of %d bytes)", romtype.ErrCorrupt, len(src), n)
	}
	return romtype.Entry{
		Type:       romtype.Type(src[TypeField]),
		DataOffset: binary.LittleEndian.Uint32(src[OffsetField:]),
		DataLength: binary.LittleEndian.Uint32(src[LengthField:]),
		Name:       string(src[romtype.EntryBaseSize:n]),
	}, n, nil
}
