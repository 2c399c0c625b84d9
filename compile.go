package rescomp

import (
	"context"
	"fmt"
	"io/fs"
	"os"
)

// Compile packs the directory tree rooted at dir into an image.
//
// Entries are laid out depth-first with each directory's table written
// before the data of its children. Every file and subdirectory data
// region starts on a four-byte boundary. The same tree always yields the
// same bytes.
//
// Symbolic links are followed as long as they stay inside dir. Sockets,
// devices and named pipes are skipped.
//
// Compile fails with ErrCapacityExceeded when the image would outgrow the
// configured maximum size and with ErrInvalidName when a name cannot be
// encoded. On failure no image is returned.
func Compile(ctx context.Context, dir string, opts ...CompileOption) (*Image, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, err
	}
	defer root.Close()

	return CompileFS(ctx, root.FS(), opts...)
}

// CompileFS is like Compile but reads the tree from fsys, whose root
// becomes the image root.
func CompileFS(ctx context.Context, fsys fs.FS, opts ...CompileOption) (*Image, error) {
	cfg := compileConfig{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	info, err := fs.Stat(fsys, ".")
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, info.Name())
	}

	p, err := newPacker(ctx, fsys, &cfg)
	if err != nil {
		return nil, err
	}
	p.log().Info("compiling image", "max_size", cfg.maxSize)

	_, rootLen, err := p.packDirectory(0, 0, ".")
	if err != nil {
		return nil, err
	}

	img, err := p.finalize(rootLen)
	if err != nil {
		return nil, err
	}

	p.log().Info("image compiled",
		"total_size", img.Size(),
		"free", img.Free(),
		"files", img.Files(),
		"dirs", img.Dirs())
	return img, nil
}
