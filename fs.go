package rescomp

import (
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"slices"
	"strings"

	"github.com/meigma/rescomp/internal/entry"
	"github.com/meigma/rescomp/internal/file"
	"github.com/meigma/rescomp/internal/romtype"
)

// Interface compliance.
var (
	_ fs.FS         = (*FS)(nil)
	_ fs.StatFS     = (*FS)(nil)
	_ fs.ReadFileFS = (*FS)(nil)
	_ fs.ReadDirFS  = (*FS)(nil)
)

// FS provides read access to the tree stored in an image.
//
// FS implements fs.FS, fs.StatFS, fs.ReadFileFS, and fs.ReadDirFS. Files
// are served straight from the image bytes. Directory listings never
// include the "." and ".." records.
type FS struct {
	data []byte
	root romtype.Entry
}

// Open parses the image header in data and returns a view of its tree.
//
// Bytes past the recorded image size are ignored. data is retained and
// must not be modified while the FS is in use.
func Open(data []byte) (*FS, error) {
	if len(data) < romtype.HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", romtype.ErrCorrupt, len(data))
	}
	total := binary.LittleEndian.Uint32(data)
	if total < romtype.HeaderSize || uint64(total) > uint64(len(data)) {
		return nil, fmt.Errorf("%w: header size %d, have %d bytes", romtype.ErrCorrupt, total, len(data))
	}
	data = data[:total]

	root, _, err := entry.Decode(data[romtype.RootEntryOffset:])
	if err != nil {
		return nil, err
	}
	if root.Type != romtype.TypeDir || root.Name != "" {
		return nil, fmt.Errorf("%w: root entry is not an unnamed directory", romtype.ErrCorrupt)
	}
	f := &FS{data: data, root: root}
	if _, err := f.region(&root); err != nil {
		return nil, err
	}
	return f, nil
}

// Size returns the image size recorded in the header.
func (f *FS) Size() uint32 {
	return uint32(len(f.data)) //nolint:gosec // read from a u32 field
}

// Root returns the root entry.
func (f *FS) Root() Entry {
	return f.root
}

// Open implements fs.FS.
func (f *FS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	e, err := f.lookup(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	if e.IsDir() {
		return &openDir{f: f, name: name, entry: e}, nil
	}
	data, err := f.region(&e)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return file.NewFile(&e, file.Base(name), data), nil
}

// Stat implements fs.StatFS.
func (f *FS) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	e, err := f.lookup(name)
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: err}
	}
	return file.InfoFor(&e, file.Base(name)), nil
}

// ReadFile implements fs.ReadFileFS. The returned slice is a copy.
func (f *FS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}
	e, err := f.lookup(name)
	if err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: err}
	}
	if e.IsDir() {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}
	data, err := f.region(&e)
	if err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: err}
	}
	return slices.Clone(data), nil
}

// ReadDir implements fs.ReadDirFS.
//
// ReadDir returns directory entries for the named directory, sorted by name.
func (f *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	e, err := f.lookup(name)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
	}
	if !e.IsDir() {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	children, err := f.children(&e)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
	}
	return dirEntries(children), nil
}

// Entry returns the record for the named path.
func (f *FS) Entry(name string) (Entry, bool) {
	if !fs.ValidPath(name) {
		return Entry{}, false
	}
	e, err := f.lookup(name)
	return e, err == nil
}

// lookup resolves a valid fs path by walking directory tables from the root.
func (f *FS) lookup(name string) (romtype.Entry, error) {
	cur := f.root
	if name == "." {
		return cur, nil
	}
	for part := range strings.SplitSeq(name, "/") {
		if !cur.IsDir() {
			return romtype.Entry{}, fs.ErrNotExist
		}
		children, err := f.children(&cur)
		if err != nil {
			return romtype.Entry{}, err
		}
		i, found := slices.BinarySearchFunc(children, part, func(e romtype.Entry, target string) int {
			return strings.Compare(e.Name, target)
		})
		if !found {
			return romtype.Entry{}, fs.ErrNotExist
		}
		cur = children[i]
	}
	return cur, nil
}

// region returns the data region of e.
func (f *FS) region(e *romtype.Entry) ([]byte, error) {
	end := uint64(e.DataOffset) + uint64(e.DataLength)
	if end > uint64(len(f.data)) {
		return nil, fmt.Errorf("%w: %q region [%d, %d) exceeds image size %d", romtype.ErrCorrupt, e.Name, e.DataOffset, end, len(f.data))
	}
	return f.data[e.DataOffset:end:end], nil
}

// table decodes every record in the directory table of dir, "." and ".."
// included.
func (f *FS) table(dir *romtype.Entry) ([]romtype.Entry, error) {
	data, err := f.region(dir)
	if err != nil {
		return nil, err
	}
	var entries []romtype.Entry
	for len(data) > 0 {
		e, n, err := entry.Decode(data)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
		data = data[n:]
	}
	return entries, nil
}

// children returns the records of dir excluding "." and "..".
func (f *FS) children(dir *romtype.Entry) ([]romtype.Entry, error) {
	entries, err := f.table(dir)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(entries, func(e romtype.Entry) bool {
		return e.IsSynthetic()
	}), nil
}

func dirEntries(children []romtype.Entry) []fs.DirEntry {
	out := make([]fs.DirEntry, 0, len(children))
	for i := range children {
		out = append(out, file.NewDirEntry(file.InfoFor(&children[i], children[i].Name)))
	}
	return out
}

// openDir implements fs.File and fs.ReadDirFile for directories.
type openDir struct {
	f       *FS
	name    string
	entry   romtype.Entry
	entries []fs.DirEntry
	loaded  bool
	offset  int
}

func (d *openDir) Read(_ []byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}

func (d *openDir) Stat() (fs.FileInfo, error) {
	return file.NewDirInfo(&d.entry, file.Base(d.name)), nil
}

func (d *openDir) Close() error {
	return nil
}

func (d *openDir) ReadDir(n int) ([]fs.DirEntry, error) {
	if !d.loaded {
		children, err := d.f.children(&d.entry)
		if err != nil {
			return nil, &fs.PathError{Op: "readdir", Path: d.name, Err: err}
		}
		d.entries = dirEntries(children)
		d.loaded = true
	}

	remaining := d.entries[d.offset:]
	if n <= 0 {
		d.offset = len(d.entries)
		return remaining, nil
	}
	if len(remaining) == 0 {
		return nil, io.EOF
	}
	n = min(n, len(remaining))
	d.offset += n
	return remaining[:n], nil
}
