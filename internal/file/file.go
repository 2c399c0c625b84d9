// Package file provides the fs.File and fs.FileInfo implementations served
// by an image reader.
package file

import (
	"bytes"
	"io"
	"io/fs"
	"path"
	"time"

	"github.com/meigma/rescomp/internal/romtype"
)

// Entry is the decoded record backing a file or directory.
type Entry = romtype.Entry

// File implements fs.File over a file's data region. Reads are served
// directly from the image without copying.
type File struct {
	*bytes.Reader
	entry Entry
	name  string
}

// Interface compliance.
var (
	_ fs.File     = (*File)(nil)
	_ io.ReaderAt = (*File)(nil)
	_ io.Seeker   = (*File)(nil)
)

// NewFile returns a File reading data, which must be the entry's data region.
func NewFile(entry *Entry, name string, data []byte) *File {
	return &File{Reader: bytes.NewReader(data), entry: *entry, name: name}
}

// Stat returns file info.
func (f *File) Stat() (fs.FileInfo, error) {
	return NewInfo(&f.entry, f.name), nil
}

// Close is a no-op; the data region belongs to the image.
func (f *File) Close() error {
	return nil
}

// Info implements fs.FileInfo for regular files.
type Info struct {
	entry Entry
	name  string
}

// NewInfo creates an Info from an entry.
func NewInfo(entry *Entry, name string) *Info {
	return &Info{entry: *entry, name: name}
}

func (fi *Info) Name() string       { return fi.name }
func (fi *Info) Size() int64        { return int64(fi.entry.DataLength) }
func (fi *Info) Mode() fs.FileMode  { return 0o444 }
func (fi *Info) ModTime() time.Time { return time.Time{} }
func (fi *Info) IsDir() bool        { return false }
func (fi *Info) Sys() any           { return nil }

// Entry returns the underlying record.
func (fi *Info) Entry() *Entry {
	return &fi.entry
}

// DirInfo implements fs.FileInfo for directories.
type DirInfo struct {
	entry Entry
	name  string
}

// NewDirInfo creates a DirInfo with the given name.
func NewDirInfo(entry *Entry, name string) *DirInfo {
	return &DirInfo{entry: *entry, name: name}
}

func (di *DirInfo) Name() string       { return di.name }
func (di *DirInfo) Size() int64        { return 0 }
func (di *DirInfo) Mode() fs.FileMode  { return fs.ModeDir | 0o555 }
func (di *DirInfo) ModTime() time.Time { return time.Time{} }
func (di *DirInfo) IsDir() bool        { return true }
func (di *DirInfo) Sys() any           { return nil }

// Entry returns the underlying record.
func (di *DirInfo) Entry() *Entry {
	return &di.entry
}

// InfoFor returns the FileInfo matching the entry's type.
func InfoFor(entry *Entry, name string) fs.FileInfo {
	if entry.IsDir() {
		return NewDirInfo(entry, name)
	}
	return NewInfo(entry, name)
}

// DirEntry implements fs.DirEntry by wrapping fs.FileInfo.
type DirEntry struct {
	info fs.FileInfo
}

// NewDirEntry creates a DirEntry wrapping the given FileInfo.
func NewDirEntry(info fs.FileInfo) *DirEntry {
	return &DirEntry{info: info}
}

func (de *DirEntry) Name() string               { return de.info.Name() }
func (de *DirEntry) IsDir() bool                { return de.info.IsDir() }
func (de *DirEntry) Type() fs.FileMode          { return de.info.Mode().Type() }
func (de *DirEntry) Info() (fs.FileInfo, error) { return de.info, nil }
func (de *DirEntry) String() string             { return fs.FormatDirEntry(de) }

// Base returns the last element of a slash-separated path, with "." for
// the root.
func Base(name string) string {
	if name == "." || name == "" {
		return "."
	}
	return path.Base(name)
}
