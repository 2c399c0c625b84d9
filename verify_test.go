package rescomp

import (
	"encoding/binary"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/rescomp/internal/entry"
)

// buildImage lays out a root table holding entries verbatim, with the
// header and the "." record filled in.
func buildImage(t *testing.T, children ...Entry) []byte {
	t.Helper()

	tableLen := entry.Size(1)
	for _, c := range children {
		tableLen += entry.Size(len(c.Name))
	}
	buf := make([]byte, HeaderSize+tableLen)
	binary.LittleEndian.PutUint32(buf, uint32(len(buf)))

	put := func(off int, e Entry) int {
		n, err := entry.Encode(buf[off:], e)
		require.NoError(t, err)
		return off + n
	}
	root := Entry{Type: TypeDir, DataOffset: HeaderSize, DataLength: uint32(tableLen)}
	put(4, root)
	off := put(HeaderSize, Entry{Type: TypeDir, DataOffset: HeaderSize, DataLength: uint32(tableLen), Name: "."})
	for _, c := range children {
		off = put(off, c)
	}
	return buf
}

func TestVerifyCompiledImages(t *testing.T) {
	t.Parallel()

	for name, files := range map[string]map[string][]byte{
		"empty":  nil,
		"single": {"a.txt": []byte("abc")},
		"nested": {"sub/x": []byte("1"), "sub/deeper/y": []byte("22"), "z": {}},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			img := compileTestImage(t, files)
			fsys, err := img.FS()
			require.NoError(t, err)
			require.NoError(t, fsys.Verify())
		})
	}
}

func TestVerifyDetectsCorruption(t *testing.T) {
	t.Parallel()

	// Layout of the nested image:
	//   14 "."   25 "sub"   40 sub "."   51 sub ".."   63 "x"   76 data
	nested := compileTestImage(t, map[string][]byte{"sub/x": []byte("1")}).Bytes()
	// 14 "."   25 "a.txt"   40 data
	single := compileTestImage(t, map[string][]byte{"a.txt": []byte("abc")}).Bytes()

	mutate := func(src []byte, fn func(b []byte)) []byte {
		b := slices.Clone(src)
		fn(b)
		return b
	}
	putLE := func(b []byte, off int, v uint32) {
		binary.LittleEndian.PutUint32(b[off:], v)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"root self offset", mutate(nested, func(b []byte) { putLE(b, 15, 16) })},
		{"root self length", mutate(nested, func(b []byte) { putLE(b, 19, 23) })},
		{"root self renamed", mutate(nested, func(b []byte) { b[24] = '!' })},
		{"sub self offset", mutate(nested, func(b []byte) { putLE(b, 41, 44) })},
		{"sub parent length", mutate(nested, func(b []byte) { putLE(b, 56, 99) })},
		{"sub parent renamed", mutate(nested, func(b []byte) { b[62] = '!' })},
		{"misaligned file", mutate(single, func(b []byte) { putLE(b, 26, 41); putLE(b, 30, 2) })},
		{"file past end", mutate(single, func(b []byte) { putLE(b, 30, 4) })},
		{"unknown type", mutate(single, func(b []byte) { b[25] = 7 })},
		{"malformed child record", mutate(single, func(b []byte) { copy(b[35:40], "..\x00\x00\x00"); b[34] = 2 })},
		{"truncated table", mutate(single, func(b []byte) { putLE(b, 9, 27); putLE(b, 19, 27) })},
		{"root moved", mutate(nested, func(b []byte) { putLE(b, 5, 16) })},
		{"backward directory", mutate(nested, func(b []byte) { putLE(b, 26, 16) })},
		{"unsorted names", buildImage(t,
			Entry{Type: TypeFile, Name: "b"},
			Entry{Type: TypeFile, Name: "a"},
		)},
		{"name with separator", buildImage(t,
			Entry{Type: TypeFile, Name: "x/../../pwned"},
		)},
		{"name with NUL", buildImage(t,
			Entry{Type: TypeFile, Name: "a\x00b"},
		)},
		{"duplicate names", buildImage(t,
			Entry{Type: TypeFile, Name: "a"},
			Entry{Type: TypeFile, Name: "a"},
		)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fsys, err := Open(tt.data)
			if err == nil {
				err = fsys.Verify()
			}
			require.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestVerifyAcceptsHandBuiltImage(t *testing.T) {
	t.Parallel()

	data := buildImage(t,
		Entry{Type: TypeFile, Name: "a"},
		Entry{Type: TypeFile, Name: "b"},
	)
	fsys, err := Open(data)
	require.NoError(t, err)
	require.NoError(t, fsys.Verify())

	content, err := fsys.ReadFile("b")
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestWalk(t *testing.T) {
	t.Parallel()

	img := compileTestImage(t, map[string][]byte{
		"b/2": []byte("2"),
		"b/1": []byte("1"),
		"a":   []byte("a"),
		"c/":  nil,
	})
	fsys, err := img.FS()
	require.NoError(t, err)

	var visited []string
	require.NoError(t, fsys.Walk(func(name string, e Entry) error {
		if e.IsDir() {
			visited = append(visited, name+"/")
		} else {
			visited = append(visited, name)
		}
		return nil
	}))
	assert.Equal(t, []string{"./", "a", "b/", "b/1", "b/2", "c/"}, visited)

	stop := errors.New("stop")
	var count int
	err = fsys.Walk(func(name string, _ Entry) error {
		count++
		if name == "b" {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 3, count)
}

func TestWalkRejectsBackwardDirectory(t *testing.T) {
	t.Parallel()

	b := slices.Clone(compileTestImage(t, map[string][]byte{"sub/x": []byte("1")}).Bytes())
	// Point "sub" at the root table, which would otherwise recurse forever.
	binary.LittleEndian.PutUint32(b[26:], HeaderSize)
	binary.LittleEndian.PutUint32(b[30:], 24)

	fsys, err := Open(b)
	require.NoError(t, err)
	err = fsys.Walk(func(string, Entry) error { return nil })
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestWalkRejectsSeparatorInName(t *testing.T) {
	t.Parallel()

	fsys, err := Open(buildImage(t, Entry{Type: TypeFile, Name: "x/../y"}))
	require.NoError(t, err)
	err = fsys.Walk(func(string, Entry) error { return nil })
	require.ErrorIs(t, err, ErrCorrupt)
}
