package rescomp

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyDirRoundTrip(t *testing.T) {
	t.Parallel()

	files := map[string][]byte{
		"index.html":   []byte("<html></html>"),
		"css/site.css": []byte("body{}"),
		"js/a/b/c.js":  []byte("c"),
		"empty.txt":    {},
		"fonts/":       nil,
	}
	img := compileTestImage(t, files)
	fsys, err := img.FS()
	require.NoError(t, err)

	dest := t.TempDir()
	stats, err := fsys.CopyDir(dest, "")
	require.NoError(t, err)

	assert.Equal(t, 4, stats.FileCount)
	assert.Equal(t, 6, stats.DirCount) // ., css, fonts, js, js/a, js/a/b
	assert.Equal(t, uint64(13+6+1), stats.TotalBytes)
	assert.Zero(t, stats.Skipped)

	for name, content := range files {
		target := filepath.Join(dest, filepath.FromSlash(name))
		if content == nil {
			info, err := os.Stat(target)
			require.NoError(t, err)
			assert.True(t, info.IsDir())
			continue
		}
		got, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, content, got, name)
	}
}

func TestCopyDirPrefix(t *testing.T) {
	t.Parallel()

	img := compileTestImage(t, map[string][]byte{
		"index.html":   []byte("<html></html>"),
		"css/site.css": []byte("body{}"),
	})
	fsys, err := img.FS()
	require.NoError(t, err)

	dest := t.TempDir()
	stats, err := fsys.CopyDir(dest, "css")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FileCount)

	got, err := os.ReadFile(filepath.Join(dest, "css", "site.css"))
	require.NoError(t, err)
	assert.Equal(t, []byte("body{}"), got)

	_, err = os.Stat(filepath.Join(dest, "index.html"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestCopyDirOverwrite(t *testing.T) {
	t.Parallel()

	img := compileTestImage(t, map[string][]byte{"a.txt": []byte("new")})
	fsys, err := img.FS()
	require.NoError(t, err)

	dest := t.TempDir()
	target := filepath.Join(dest, "a.txt")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o600))

	stats, err := fsys.CopyDir(dest, ".")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Zero(t, stats.FileCount)
	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), got)

	stats, err = fsys.CopyDir(dest, ".", CopyWithOverwrite(true))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FileCount)
	got, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestCopyDirOverwriteDirectoryFails(t *testing.T) {
	t.Parallel()

	img := compileTestImage(t, map[string][]byte{"a.txt": []byte("new")})
	fsys, err := img.FS()
	require.NoError(t, err)

	dest := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dest, "a.txt"), 0o755))

	_, err = fsys.CopyDir(dest, ".", CopyWithOverwrite(true))
	require.Error(t, err)
}

func TestCopyDirBadPrefix(t *testing.T) {
	t.Parallel()

	img := compileTestImage(t, map[string][]byte{"a.txt": []byte("a")})
	fsys, err := img.FS()
	require.NoError(t, err)

	tests := []struct {
		prefix string
		want   error
	}{
		{"missing", fs.ErrNotExist},
		{"/a.txt", fs.ErrInvalid},
	}
	for _, tt := range tests {
		_, err := fsys.CopyDir(t.TempDir(), tt.prefix)
		require.ErrorIs(t, err, tt.want, tt.prefix)
	}

	_, err = fsys.CopyDir(t.TempDir(), "a.txt")
	require.Error(t, err)
}

// traversalImage compiles a single file and renames it in place to a
// name that would escape the extraction directory.
func traversalImage(t *testing.T, evil string) []byte {
	t.Helper()
	plain := strings.Repeat("a", len(evil))
	img := compileTestImage(t, map[string][]byte{plain: []byte("owned")})

	data := bytes.Clone(img.Bytes())
	i := bytes.Index(data, []byte(plain))
	require.Positive(t, i)
	copy(data[i:], evil)
	return data
}

func TestCopyDirRejectsEscapingNames(t *testing.T) {
	t.Parallel()

	for _, evil := range []string{"x/../../pwned", "../../pwned", "a\x00b"} {
		base := t.TempDir()
		dest := filepath.Join(base, "a", "out")

		fsys, err := Open(traversalImage(t, evil))
		require.NoError(t, err)
		require.ErrorIs(t, fsys.Verify(), ErrCorrupt, evil)

		_, err = fsys.CopyDir(dest, "")
		require.ErrorIs(t, err, ErrCorrupt, evil)

		for _, escaped := range []string{
			filepath.Join(base, "a", "pwned"),
			filepath.Join(base, "pwned"),
		} {
			_, err := os.Lstat(escaped)
			assert.ErrorIs(t, err, fs.ErrNotExist, escaped)
		}
	}
}
