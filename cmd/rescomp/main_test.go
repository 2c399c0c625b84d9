package main

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/rescomp"
)

// execute runs the CLI with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func writeDist(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "dist")
	files := map[string]string{
		"index.html":   strings.Repeat("<p>hello</p>", 50),
		"css/site.css": "body{margin:0}",
		"img/logo.png": "not really a png",
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestBuildCompressed(t *testing.T) {
	t.Parallel()

	dist := writeDist(t)
	work := t.TempDir()
	resources := filepath.Join(work, "resources")
	output := filepath.Join(work, "res.bin")

	out, err := execute(t, dist, resources, output, "--skip-compressed")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Resource compilation completed successfully")
	assert.Contains(t, out, "Compressed 2 files (1 copied)")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	fsys, err := rescomp.Open(data)
	require.NoError(t, err)
	require.NoError(t, fsys.Verify())

	for _, name := range []string{"index.html.gz", "css/site.css.gz", "img/logo.png"} {
		_, ok := fsys.Entry(name)
		assert.True(t, ok, name)
	}
	assert.Contains(t, out, fmt.Sprintf("Free space:         %d bytes", rescomp.DefaultMaxSize-fsys.Size()))
}

func TestBuildNoCompressCSource(t *testing.T) {
	t.Parallel()

	dist := writeDist(t)
	work := t.TempDir()
	output := filepath.Join(work, "out", "web_res.c")

	out, err := execute(t, "-n", dist, filepath.Join(work, "unused"), output)
	require.NoError(t, err, out)

	_, err = os.Stat(filepath.Join(work, "unused"))
	assert.True(t, os.IsNotExist(err), "compression stage must not run")

	src, err := os.ReadFile(output)
	require.NoError(t, err)
	text := string(src)
	assert.True(t, strings.HasPrefix(text, "// Generated by rescomp from "+dist+". Do not edit.\n// digest: sha256:"), text)
	assert.Contains(t, text, "#include \"tcs_xxx_config.h\"\n#include <stdint.h>\n")
	assert.Contains(t, text, "EXTFLASH_MEM_ATTRIBUTE const uint8_t web_res[] =\n{\n")
	assert.True(t, strings.HasSuffix(text, "\n};\n"))
}

func TestBuildCapacityExceeded(t *testing.T) {
	t.Parallel()

	dist := writeDist(t)
	work := t.TempDir()
	output := filepath.Join(work, "res.bin")

	out, err := execute(t, "-n", "-m", "64", dist, filepath.Join(work, "resources"), output)
	require.ErrorIs(t, err, rescomp.ErrCapacityExceeded)
	assert.Contains(t, err.Error(), "64 bytes")
	assert.NotContains(t, out, "completed successfully")

	_, err = os.Stat(output)
	assert.True(t, os.IsNotExist(err), "no output on failure")
}

func TestBuildMissingInput(t *testing.T) {
	t.Parallel()

	work := t.TempDir()
	_, err := execute(t, filepath.Join(work, "dist"), filepath.Join(work, "resources"), filepath.Join(work, "res.c"))
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestBuildTooManyArgs(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "a", "b", "c", "d")
	require.Error(t, err)
}

func TestInspectAndExtract(t *testing.T) {
	t.Parallel()

	dist := writeDist(t)
	work := t.TempDir()
	image := filepath.Join(work, "res.bin")

	out, err := execute(t, "-n", dist, filepath.Join(work, "resources"), image)
	require.NoError(t, err, out)

	out, err = execute(t, "inspect", image)
	require.NoError(t, err, out)
	assert.Contains(t, out, "[FILE] css/site.css")
	assert.Contains(t, out, "[DIR]  img")
	assert.Contains(t, out, "3 files, 3 directories")

	out, err = execute(t, "inspect", image, "/css/")
	require.NoError(t, err, out)
	assert.Contains(t, out, "[FILE] css/site.css")
	assert.NotContains(t, out, "index.html")

	dest := filepath.Join(work, "extracted")
	out, err = execute(t, "extract", image, dest)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Extracted 3 files")

	got, err := os.ReadFile(filepath.Join(dest, "css", "site.css"))
	require.NoError(t, err)
	assert.Equal(t, "body{margin:0}", string(got))

	out, err = execute(t, "extract", image, dest, "--prefix", "img")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Extracted 0 files")
	assert.Contains(t, out, "1 skipped")
}

func TestInspectRejectsCorruptImage(t *testing.T) {
	t.Parallel()

	work := t.TempDir()
	image := filepath.Join(work, "bad.bin")
	require.NoError(t, os.WriteFile(image, []byte{1, 2, 3}, 0o644))

	_, err := execute(t, "inspect", image)
	require.ErrorIs(t, err, rescomp.ErrCorrupt)

	_, err = execute(t, "inspect", filepath.Join(work, "res.c"))
	require.Error(t, err)
}

func TestParseMaxSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"1048576", 1 << 20, false},
		{"1MiB", 1 << 20, false},
		{"512KiB", 512 << 10, false},
		{"64", 64, false},
		{"4GiB", 0, true},
		{"lots", 0, true},
	}
	for _, tt := range tests {
		got, err := parseMaxSize(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestMaxSizeFromEnvironment(t *testing.T) {
	t.Setenv(maxSizeEnv, "64")

	dist := writeDist(t)
	work := t.TempDir()
	_, err := execute(t, "-n", dist, filepath.Join(work, "resources"), filepath.Join(work, "res.bin"))
	require.ErrorIs(t, err, rescomp.ErrCapacityExceeded)
}
