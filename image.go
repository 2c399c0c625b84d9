package rescomp

import (
	"io"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/rescomp/internal/csource"
)

// Image is a finalized, immutable filesystem image.
//
// The first four bytes hold the image length, followed by the root entry
// and then every directory table and file payload in allocation order.
type Image struct {
	data    []byte
	maxSize uint32
	files   int
	dirs    int
}

// Bytes returns the image. The slice must be treated as read-only.
func (img *Image) Bytes() []byte {
	return img.data
}

// Size returns the total image size in bytes.
func (img *Image) Size() uint32 {
	return uint32(len(img.data)) //nolint:gosec // bounded by maxSize
}

// MaxSize returns the capacity the image was compiled against.
func (img *Image) MaxSize() uint32 {
	return img.maxSize
}

// Free returns the capacity left unused.
func (img *Image) Free() uint32 {
	return img.maxSize - img.Size()
}

// Files returns the number of files packed into the image.
func (img *Image) Files() int {
	return img.files
}

// Dirs returns the number of directories packed into the image, root included.
func (img *Image) Dirs() int {
	return img.dirs
}

// Digest returns the SHA-256 content digest of the image.
func (img *Image) Digest() digest.Digest {
	return digest.FromBytes(img.data)
}

// FS returns a read-only view of the image.
func (img *Image) FS() (*FS, error) {
	return Open(img.data)
}

// WriteTo writes the raw image to w.
func (img *Image) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(img.data)
	return int64(n), err
}

// WriteCSource writes the image as a C array definition named name.
//
// Each output line holds up to 16 comma-separated hexadecimal byte
// literals. name is sanitized into a valid C identifier.
func (img *Image) WriteCSource(w io.Writer, name string, opts ...CSourceOption) error {
	cfg := csource.DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return csource.Write(w, name, img.data, cfg)
}

// CSourceOption configures C source output.
type CSourceOption func(*csource.Config)

// CSourceWithIncludes replaces the #include lines. Each value must carry
// its own quotes or angle brackets.
func CSourceWithIncludes(includes ...string) CSourceOption {
	return func(cfg *csource.Config) {
		cfg.Includes = includes
	}
}

// CSourceWithAttribute replaces the attribute macro preceding the
// declaration. An empty string omits it.
func CSourceWithAttribute(attr string) CSourceOption {
	return func(cfg *csource.Config) {
		cfg.Attribute = attr
	}
}

// CSourceWithType replaces the declared element type.
func CSourceWithType(elemType string) CSourceOption {
	return func(cfg *csource.Config) {
		cfg.ElemType = elemType
	}
}

// CSourceWithComments adds leading comment lines.
func CSourceWithComments(lines ...string) CSourceOption {
	return func(cfg *csource.Config) {
		cfg.Comments = append(cfg.Comments, lines...)
	}
}
