package rescomp

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageDigest(t *testing.T) {
	t.Parallel()

	img := compileTestImage(t, map[string][]byte{"a.txt": []byte("abc")})
	sum := sha256.Sum256(img.Bytes())

	d := img.Digest()
	require.NoError(t, d.Validate())
	assert.Equal(t, "sha256:"+hex.EncodeToString(sum[:]), d.String())
}

func TestImageWriteTo(t *testing.T) {
	t.Parallel()

	img := compileTestImage(t, map[string][]byte{"a.txt": []byte("abc")})

	var buf bytes.Buffer
	n, err := img.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(img.Size()), n)
	assert.Equal(t, img.Bytes(), buf.Bytes())
}

func TestImageWriteCSourceLineLayout(t *testing.T) {
	t.Parallel()

	img := compileTestImage(t, map[string][]byte{"a.txt": []byte("abc")})

	var buf bytes.Buffer
	require.NoError(t, img.WriteCSource(&buf, "res", CSourceWithIncludes(), CSourceWithAttribute("")))

	lines := bytes.Split(bytes.TrimSuffix(buf.Bytes(), []byte("\n")), []byte("\n"))
	// Declaration, "{", three data lines for 43 bytes, "};".
	require.Len(t, lines, 6)
	assert.Equal(t, "const uint8_t res[] =", string(lines[0]))
	assert.Equal(t, "{", string(lines[1]))
	assert.Equal(t, 16, bytes.Count(lines[2], []byte("0x")))
	assert.Equal(t, 16, bytes.Count(lines[3], []byte("0x")))
	assert.Equal(t, 11, bytes.Count(lines[4], []byte("0x")))
	assert.False(t, bytes.HasSuffix(lines[4], []byte(",")))
	assert.Equal(t, "};", string(lines[5]))
}
