package rescomp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/meigma/rescomp/internal/romtype"
)

// CopyStats reports what CopyDir did.
type CopyStats struct {
	// FileCount is the number of files written.
	FileCount int

	// DirCount is the number of directories created or already present.
	DirCount int

	// TotalBytes is the sum of the sizes of written files.
	TotalBytes uint64

	// Skipped is the number of files left alone because they already existed.
	Skipped int
}

// copyConfig holds configuration for extraction.
type copyConfig struct {
	overwrite bool
}

// CopyOption configures CopyDir.
type CopyOption func(*copyConfig)

// CopyWithOverwrite replaces files that already exist at the destination.
// By default they are skipped.
func CopyWithOverwrite(overwrite bool) CopyOption {
	return func(cfg *copyConfig) {
		cfg.overwrite = overwrite
	}
}

// CopyDir extracts every file and directory under prefix to destDir,
// keeping paths relative to the image root.
//
// If prefix is "" or ".", the whole image is extracted. Files are written
// atomically using temp files and renames. Parent directories are
// created as needed.
func (f *FS) CopyDir(destDir, prefix string, opts ...CopyOption) (CopyStats, error) {
	cfg := copyConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if prefix == "" {
		prefix = "."
	}
	if !fs.ValidPath(prefix) {
		return CopyStats{}, &fs.PathError{Op: "copy", Path: prefix, Err: fs.ErrInvalid}
	}
	start, err := f.lookup(prefix)
	if err != nil {
		return CopyStats{}, &fs.PathError{Op: "copy", Path: prefix, Err: err}
	}
	if !start.IsDir() {
		return CopyStats{}, &fs.PathError{Op: "copy", Path: prefix, Err: errors.New("not a directory")}
	}

	var stats CopyStats
	visit := func(name string, e romtype.Entry) error {
		if !fs.ValidPath(name) {
			return fmt.Errorf("%w: refusing to extract %q", romtype.ErrCorrupt, name)
		}
		target := filepath.Join(destDir, filepath.FromSlash(name))
		if e.IsDir() {
			if err := os.MkdirAll(target, 0o750); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
			stats.DirCount++
			return nil
		}
		return f.copyFile(target, &e, &cfg, &stats)
	}

	if err := visit(prefix, start); err != nil {
		return stats, err
	}
	if err := f.walkDir(prefix, &start, visit); err != nil {
		return stats, err
	}
	return stats, nil
}

func (f *FS) copyFile(target string, e *romtype.Entry, cfg *copyConfig, stats *CopyStats) error {
	if !cfg.overwrite {
		if _, err := os.Lstat(target); err == nil {
			stats.Skipped++
			return nil
		}
	}
	if cfg.overwrite {
		if info, err := os.Stat(target); err == nil && info.IsDir() {
			return &fs.PathError{Op: "copy", Path: target, Err: errors.New("is a directory")}
		}
	}

	data, err := f.region(e)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(target, func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(data))
		return err
	}); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	stats.FileCount++
	stats.TotalBytes += uint64(len(data))
	return nil
}
