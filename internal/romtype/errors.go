package romtype

import "errors"

// Sentinel errors shared by the arena, codec, packer and reader.
var (
	// ErrCapacityExceeded is returned when a reservation would grow the
	// image past its configured maximum size.
	ErrCapacityExceeded = errors.New("rescomp: capacity exceeded")

	// ErrInvalidName is returned when an entry name cannot be encoded.
	ErrInvalidName = errors.New("rescomp: invalid name")

	// ErrCorrupt is returned when an image does not decode cleanly.
	ErrCorrupt = errors.New("rescomp: corrupt image")
)
