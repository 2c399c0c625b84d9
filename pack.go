package rescomp

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"path"
	"slices"
	"strings"

	"github.com/meigma/rescomp/internal/arena"
	"github.com/meigma/rescomp/internal/entry"
	"github.com/meigma/rescomp/internal/romtype"
)

// packer holds state for a single compilation.
type packer struct {
	ctx    context.Context
	fsys   fs.FS
	arena  *arena.Arena
	logger *slog.Logger
	cfg    *compileConfig

	files int
	dirs  int
}

// child is one directory member selected for packing.
type child struct {
	name string
	typ  romtype.Type
}

// newPacker reserves the header and writes the root entry, whose data
// offset is fixed to the first byte after the header.
func newPacker(ctx context.Context, fsys fs.FS, cfg *compileConfig) (*packer, error) {
	a, err := arena.New(cfg.maxSize, romtype.HeaderSize)
	if err != nil {
		return nil, err
	}
	p := &packer{ctx: ctx, fsys: fsys, arena: a, logger: cfg.logger, cfg: cfg}
	if err := p.writeEntry(romtype.RootEntryOffset, romtype.Entry{
		Type:       romtype.TypeDir,
		DataOffset: romtype.HeaderSize,
	}); err != nil {
		return nil, err
	}
	return p, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (p *packer) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.logger
}

// reportProgress sends a progress event if a callback is configured.
func (p *packer) reportProgress(name string) {
	if p.cfg.progress == nil {
		return
	}
	p.cfg.progress(ProgressEvent{
		Stage:      StagePacking,
		Path:       name,
		BytesDone:  uint64(p.arena.Size()),
		BytesTotal: uint64(p.arena.Capacity()),
		FilesDone:  p.files,
	})
}

// packDirectory writes the table for dir followed by the data of every
// child, and returns the table's offset and length.
//
// The table is written first with placeholder locations, then re-read
// record by record: each child's data is appended at the aligned cursor
// and its record patched in place once the data length is known.
func (p *packer) packDirectory(parentOffset, parentLength uint32, dir string) (uint32, uint32, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, 0, err
	}
	p.log().Debug("packing directory", "path", dir)
	p.dirs++

	pos := p.arena.Size()
	if err := p.appendEntry(romtype.Entry{Type: romtype.TypeDir, Name: romtype.SelfName}); err != nil {
		return 0, 0, err
	}
	if parentOffset != 0 && parentLength != 0 {
		if err := p.appendEntry(romtype.Entry{
			Type:       romtype.TypeDir,
			DataOffset: parentOffset,
			DataLength: parentLength,
			Name:       romtype.ParentName,
		}); err != nil {
			return 0, 0, err
		}
	}

	children, err := p.listChildren(dir)
	if err != nil {
		return 0, 0, err
	}
	for _, c := range children {
		if err := p.appendEntry(romtype.Entry{Type: c.typ, Name: c.name}); err != nil {
			return 0, 0, fmt.Errorf("pack %s: %w", path.Join(dir, c.name), err)
		}
	}
	dirLength := p.arena.Size() - pos

	end := pos + dirLength
	for off := pos; off < end; {
		// Re-slice on every record: packing a child may grow the arena.
		table, err := p.arena.Slice(off, end-off)
		if err != nil {
			return 0, 0, err
		}
		e, n, err := entry.Decode(table)
		if err != nil {
			return 0, 0, err
		}

		switch e.Name {
		case romtype.SelfName:
			err = p.patchLocation(off, pos, dirLength)
		case romtype.ParentName:
			err = p.patchLocation(off, parentOffset, parentLength)
		default:
			err = p.packChild(off, pos, dirLength, path.Join(dir, e.Name), &e)
		}
		if err != nil {
			return 0, 0, err
		}
		off += uint32(n) //nolint:gosec // n <= EntryBaseSize+MaxNameLen
	}

	return pos, dirLength, nil
}

// packChild appends the data of one child at the next aligned offset and
// patches its record at recordOff.
func (p *packer) packChild(recordOff, dirOffset, dirLength uint32, name string, e *romtype.Entry) error {
	if err := p.arena.AlignTo4(); err != nil {
		return fmt.Errorf("pack %s: %w", name, err)
	}
	dataOffset := p.arena.Size()

	var (
		dataLength uint32
		err        error
	)
	if e.IsDir() {
		_, dataLength, err = p.packDirectory(dirOffset, dirLength, name)
	} else {
		dataLength, err = p.packFile(name)
	}
	if err != nil {
		return err
	}
	return p.patchLocation(recordOff, dataOffset, dataLength)
}

// packFile copies the contents of name into a freshly reserved region.
func (p *packer) packFile(name string) (uint32, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}

	f, err := p.fsys.Open(name)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	size := info.Size()
	if size < 0 || size > math.MaxUint32 {
		return 0, fmt.Errorf("pack %s: %w: file is %d bytes, max %d", name, romtype.ErrCapacityExceeded, size, p.arena.Capacity())
	}

	off, err := p.arena.Reserve(uint32(size))
	if err != nil {
		return 0, fmt.Errorf("pack %s: %w", name, err)
	}
	dst, err := p.arena.Slice(off, uint32(size))
	if err != nil {
		return 0, err
	}
	if _, err := io.ReadFull(f, dst); err != nil {
		return 0, fmt.Errorf("read %s: %w", name, err)
	}

	p.files++
	p.log().Debug("packed file", "path", name, "size", size, "offset", off)
	p.reportProgress(name)
	return uint32(size), nil
}

// listChildren returns the packable members of dir sorted byte-wise by name.
func (p *packer) listChildren(dir string) ([]child, error) {
	des, err := fs.ReadDir(p.fsys, dir)
	if err != nil {
		return nil, err
	}

	children := make([]child, 0, len(des))
	for _, d := range des {
		name := d.Name()
		full := path.Join(dir, name)
		if err := validateChildName(name); err != nil {
			return nil, fmt.Errorf("pack %s: %w", full, err)
		}

		typ, ok, err := p.resolveType(full, d)
		if err != nil {
			return nil, err
		}
		if !ok {
			p.log().Debug("skipped non-regular file", "path", full, "mode", d.Type().String())
			continue
		}
		children = append(children, child{name: name, typ: typ})
	}

	slices.SortFunc(children, func(a, b child) int {
		return strings.Compare(a.name, b.name)
	})
	return children, nil
}

// resolveType maps a directory entry to an entry type, following symbolic
// links. ok is false for entries that should be skipped.
func (p *packer) resolveType(full string, d fs.DirEntry) (romtype.Type, bool, error) {
	mode := d.Type()
	if mode&fs.ModeSymlink != 0 {
		info, err := fs.Stat(p.fsys, full)
		if err != nil {
			return 0, false, err
		}
		mode = info.Mode().Type()
	}

	switch {
	case mode.IsDir():
		return romtype.TypeDir, true, nil
	case mode.IsRegular():
		return romtype.TypeFile, true, nil
	default:
		return 0, false, nil
	}
}

// validateChildName rejects names that cannot appear in a directory table.
func validateChildName(name string) error {
	if name == "" || name == romtype.SelfName || name == romtype.ParentName {
		return fmt.Errorf("%w: reserved name %q", romtype.ErrInvalidName, name)
	}
	if strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("%w: %q contains a separator or NUL", romtype.ErrInvalidName, name)
	}
	return entry.ValidateName(name)
}

// appendEntry reserves space for e at the cursor and encodes it there.
func (p *packer) appendEntry(e romtype.Entry) error {
	if err := entry.ValidateName(e.Name); err != nil {
		return err
	}
	off, err := p.arena.Reserve(uint32(entry.Size(len(e.Name)))) //nolint:gosec // name length validated
	if err != nil {
		return err
	}
	return p.writeEntry(off, e)
}

// writeEntry encodes e into already-reserved space at off.
func (p *packer) writeEntry(off uint32, e romtype.Entry) error {
	dst, err := p.arena.Slice(off, uint32(entry.Size(len(e.Name)))) //nolint:gosec // name length validated by Encode
	if err != nil {
		return err
	}
	_, err = entry.Encode(dst, e)
	return err
}

// patchLocation back-patches the data offset and length of the record at off.
func (p *packer) patchLocation(off, dataOffset, dataLength uint32) error {
	if err := p.arena.PutUint32(off+entry.OffsetField, dataOffset); err != nil {
		return err
	}
	return p.arena.PutUint32(off+entry.LengthField, dataLength)
}

// finalize records the image size and the root table length in the header
// and hands the arena's bytes to a new Image.
func (p *packer) finalize(rootLength uint32) (*Image, error) {
	total := p.arena.Size()
	if err := p.arena.PutUint32(0, total); err != nil {
		return nil, err
	}
	if err := p.arena.PutUint32(romtype.RootEntryOffset+entry.LengthField, rootLength); err != nil {
		return nil, err
	}
	return &Image{
		data:    p.arena.Bytes(),
		maxSize: p.arena.Capacity(),
		files:   p.files,
		dirs:    p.dirs,
	}, nil
}
