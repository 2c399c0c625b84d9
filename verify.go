package rescomp

import (
	"fmt"
	"path"
	"strings"

	"github.com/meigma/rescomp/internal/romtype"
)

// WalkFunc is called by Walk for every file and directory in the image.
// name is slash-separated and relative to the root; the root itself is
// visited first as ".".
type WalkFunc func(name string, e Entry) error

// Walk visits every entry depth-first in table order, skipping the "."
// and ".." records. It stops at the first error returned by fn.
func (f *FS) Walk(fn WalkFunc) error {
	if err := fn(".", f.root); err != nil {
		return err
	}
	return f.walkDir(".", &f.root, fn)
}

func (f *FS) walkDir(name string, dir *romtype.Entry, fn WalkFunc) error {
	children, err := f.children(dir)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	for i := range children {
		c := &children[i]
		// Data always follows the table that points at it; anything else
		// could loop forever.
		if c.IsDir() && c.DataOffset < dir.DataOffset+dir.DataLength {
			return fmt.Errorf("%w: %s: directory %q points backwards", romtype.ErrCorrupt, name, c.Name)
		}
		if err := validateChildName(c.Name); err != nil {
			return fmt.Errorf("%w: %s: %w", romtype.ErrCorrupt, name, err)
		}
		childName := path.Join(name, c.Name)
		if err := fn(childName, *c); err != nil {
			return err
		}
		if c.IsDir() {
			if err := f.walkDir(childName, c, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Verify checks the layout invariants of every directory table:
//
//   - the root entry points just past the header
//   - each table opens with a "." record describing the table itself
//   - each non-root table follows with a ".." record describing its parent
//   - remaining names are valid and strictly ascending byte-wise
//   - every non-empty data region is four-byte aligned and in bounds
//
// Violations are reported as ErrCorrupt.
func (f *FS) Verify() error {
	if f.root.DataOffset != romtype.HeaderSize {
		return fmt.Errorf("%w: root table at %d, want %d", romtype.ErrCorrupt, f.root.DataOffset, romtype.HeaderSize)
	}
	return f.verifyDir(".", &f.root, nil)
}

func (f *FS) verifyDir(name string, dir, parent *romtype.Entry) error {
	corrupt := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", romtype.ErrCorrupt, name, fmt.Sprintf(format, args...))
	}

	entries, err := f.table(dir)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	want := 1
	if parent != nil {
		want = 2
	}
	if len(entries) < want {
		return corrupt("table has %d records, want at least %d", len(entries), want)
	}

	self := entries[0]
	if self.Name != romtype.SelfName || !self.IsDir() {
		return corrupt("first record is %q, want %q", self.Name, romtype.SelfName)
	}
	if self.DataOffset != dir.DataOffset || self.DataLength != dir.DataLength {
		return corrupt("self reference (%d, %d) != table (%d, %d)", self.DataOffset, self.DataLength, dir.DataOffset, dir.DataLength)
	}

	if parent != nil {
		up := entries[1]
		if up.Name != romtype.ParentName || !up.IsDir() {
			return corrupt("second record is %q, want %q", up.Name, romtype.ParentName)
		}
		if up.DataOffset != parent.DataOffset || up.DataLength != parent.DataLength {
			return corrupt("parent reference (%d, %d) != parent table (%d, %d)", up.DataOffset, up.DataLength, parent.DataOffset, parent.DataLength)
		}
	}

	tableEnd := dir.DataOffset + dir.DataLength
	prev := ""
	for i, c := range entries[want:] {
		if err := validateChildName(c.Name); err != nil {
			return fmt.Errorf("%w: %s: %w", romtype.ErrCorrupt, name, err)
		}
		if i > 0 && strings.Compare(prev, c.Name) >= 0 {
			return corrupt("%q does not sort after %q", c.Name, prev)
		}
		prev = c.Name

		if c.Type != romtype.TypeDir && c.Type != romtype.TypeFile {
			return corrupt("%q has unknown type %d", c.Name, c.Type)
		}
		if c.DataLength != 0 && c.DataOffset%DataAlignment != 0 {
			return corrupt("%q data at %d is not %d-byte aligned", c.Name, c.DataOffset, DataAlignment)
		}
		if _, err := f.region(&c); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if c.IsDir() {
			if c.DataOffset < tableEnd {
				return corrupt("directory %q points backwards", c.Name)
			}
			if err := f.verifyDir(path.Join(name, c.Name), &c, dir); err != nil {
				return err
			}
		}
	}
	return nil
}
