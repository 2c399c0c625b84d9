// Package arena provides the fixed-capacity bump allocator that backs an
// image while it is being built.
//
// The arena only ever grows. Space is handed out by Reserve, which never
// moves the cursor past the configured capacity, and reserved bytes are
// always zero until written. Already-reserved bytes may be overwritten in
// place with WriteAt or PutUint32; neither can extend the cursor.
package arena

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/meigma/rescomp/internal/romtype"
)

// ErrOutOfRange is returned when a write targets bytes that have not been
// reserved yet.
var ErrOutOfRange = errors.New("arena: write past cursor")

// initialCap bounds the up-front allocation; the buffer grows on demand
// up to the arena capacity.
const initialCap = 64 << 10

// Arena is a capacity-bounded, monotonically growing byte buffer.
//
// An Arena is not safe for concurrent use.
type Arena struct {
	buf []byte
	max uint32
}

// New returns an arena with the given capacity whose first reserved bytes
// are already reserved (and zeroed), typically for a header.
func New(capacity, reserved uint32) (*Arena, error) {
	a := &Arena{
		buf: make([]byte, 0, min(capacity, initialCap)),
		max: capacity,
	}
	if _, err := a.Reserve(reserved); err != nil {
		return nil, err
	}
	return a, nil
}

// Reserve advances the cursor by n bytes and returns the offset of the
// reserved region. On failure the cursor is left untouched.
func (a *Arena) Reserve(n uint32) (uint32, error) {
	off := a.Size()
	// 64-bit sum so that huge requests cannot wrap around.
	if uint64(off)+uint64(n) > uint64(a.max) {
		return 0, fmt.Errorf("%w: need %d bytes, max %d", romtype.ErrCapacityExceeded, uint64(off)+uint64(n), a.max)
	}
	a.buf = slices.Grow(a.buf, int(n))
	a.buf = a.buf[:int(off)+int(n)]
	clear(a.buf[off:])
	return off, nil
}

// AlignTo4 pads the cursor with zero bytes up to the next multiple of four.
func (a *Arena) AlignTo4() error {
	pad := (4 - a.Size()%4) % 4
	if pad == 0 {
		return nil
	}
	_, err := a.Reserve(pad)
	return err
}

// WriteAt copies p into the already-reserved region starting at off.
func (a *Arena) WriteAt(off uint32, p []byte) error {
	if uint64(off)+uint64(len(p)) > uint64(len(a.buf)) {
		return fmt.Errorf("%w: [%d, %d) with cursor at %d", ErrOutOfRange, off, uint64(off)+uint64(len(p)), len(a.buf))
	}
	copy(a.buf[off:], p)
	return nil
}

// PutUint32 writes v in little-endian order at off.
func (a *Arena) PutUint32(off, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return a.WriteAt(off, b[:])
}

// Slice returns the reserved region [off, off+n) for in-place filling.
// The slice is only valid until the next Reserve.
func (a *Arena) Slice(off, n uint32) ([]byte, error) {
	if uint64(off)+uint64(n) > uint64(len(a.buf)) {
		return nil, fmt.Errorf("%w: [%d, %d) with cursor at %d", ErrOutOfRange, off, uint64(off)+uint64(n), len(a.buf))
	}
	return a.buf[off : off+n : off+n], nil
}

// Bytes returns the reserved bytes. The slice aliases the arena and is
// only valid until the next Reserve.
func (a *Arena) Bytes() []byte {
	return a.buf
}

// Size returns the cursor position, which is also the number of reserved bytes.
func (a *Arena) Size() uint32 {
	return uint32(len(a.buf)) //nolint:gosec // bounded by max
}

// Capacity returns the maximum size the arena may grow to.
func (a *Arena) Capacity() uint32 {
	return a.max
}

// Free returns the number of bytes that can still be reserved.
func (a *Arena) Free() uint32 {
	return a.max - a.Size()
}
