package precompress

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// SkipFunc returns true when a file should be copied verbatim instead of
// compressed. It is called once per file and should be inexpensive.
type SkipFunc func(path string, info fs.FileInfo) bool

// DefaultSkip returns a SkipFunc that skips files smaller than minSize and
// files whose extension marks them as already compressed.
func DefaultSkip(minSize int64) SkipFunc {
	return func(path string, info fs.FileInfo) bool {
		if info != nil && minSize > 0 && info.Size() < minSize {
			return true
		}
		ext := strings.ToLower(filepath.Ext(path))
		_, ok := compressedExts[ext]
		return ok
	}
}

// shouldSkip checks if any predicate returns true for the given file.
func shouldSkip(path string, info fs.FileInfo, predicates []SkipFunc) bool {
	for _, fn := range predicates {
		if fn == nil {
			continue
		}
		if fn(path, info) {
			return true
		}
	}
	return false
}

var compressedExts = map[string]struct{}{
	".7z":    {},
	".br":    {},
	".bz2":   {},
	".gif":   {},
	".gz":    {},
	".ico":   {},
	".jpeg":  {},
	".jpg":   {},
	".mp3":   {},
	".mp4":   {},
	".ogg":   {},
	".png":   {},
	".webm":  {},
	".webp":  {},
	".woff":  {},
	".woff2": {},
	".xz":    {},
	".zip":   {},
	".zst":   {},
}
