package rescomp

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// IsCSourcePath reports whether path names a C source or header file,
// in which case Save emits a C array instead of raw bytes.
func IsCSourcePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".c", ".h":
		return true
	default:
		return false
	}
}

// Save writes the image to path.
//
// Paths ending in .c or .h receive a C array named after the file's base
// name; anything else receives the raw image bytes. Options only apply to
// C output.
//
// Uses atomic writes (temp file + rename) to prevent partial writes on
// failure. Parent directories are created as needed.
func (img *Image) Save(path string, opts ...CSourceOption) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	write := func(w io.Writer) error {
		_, err := img.WriteTo(w)
		return err
	}
	if IsCSourcePath(path) {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		write = func(w io.Writer) error {
			return img.WriteCSource(w, name, opts...)
		}
	}

	if err := writeFileAtomic(path, write); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// writeFileAtomic streams into a temp file then renames to target,
// ensuring atomic replacement of the target file.
func writeFileAtomic(target string, write func(io.Writer) error) error {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, ".rescomp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil { //nolint:gosec // build artifact, world-readable
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
