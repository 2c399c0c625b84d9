package rescomp

import (
	"errors"

	"github.com/meigma/rescomp/internal/arena"
	"github.com/meigma/rescomp/internal/romtype"
)

// Sentinel errors re-exported from internal packages.
var (
	// ErrCapacityExceeded is returned when the packed tree does not fit in
	// the configured maximum size. Nothing is produced; retry with a
	// larger WithMaxSize or a smaller input.
	ErrCapacityExceeded = romtype.ErrCapacityExceeded

	// ErrInvalidName is returned when a file or directory name cannot be
	// stored: longer than 255 bytes, not valid UTF-8, or reserved.
	ErrInvalidName = romtype.ErrInvalidName

	// ErrCorrupt is returned when an image does not decode cleanly or
	// violates a layout invariant.
	ErrCorrupt = romtype.ErrCorrupt

	// ErrOutOfRange is returned when a patch targets unreserved bytes.
	// It indicates a packer bug rather than bad input.
	ErrOutOfRange = arena.ErrOutOfRange
)

// ErrNotDirectory is returned when the compile source is not a directory.
var ErrNotDirectory = errors.New("rescomp: not a directory")
