package file

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeRoundTrip(t *testing.T) {
	type payload struct {
		Frequency int
		Samples   []uint8
	}

	path := filepath.Join(t.TempDir(), "state.gob")
	in := payload{Frequency: 1043, Samples: []uint8{128, 255, 0}}
	require.NoError(t, Serialize(path, in))

	var out payload
	require.NoError(t, Unserialize(path, &out))
	assert.Equal(t, in, out)
}

func TestUnserializeMissing(t *testing.T) {
	var out int
	assert.Error(t, Unserialize(filepath.Join(t.TempDir(), "nope.gob"), &out))
}

func TestAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	require.NoError(t, Append(path, []byte("one\n")))
	require.NoError(t, Append(path, []byte("two\n")))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(b))
}

func TestExistsAndEmpty(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing")
	assert.False(t, Exists(missing))
	assert.True(t, Empty(missing))

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, nil, 0600))
	assert.True(t, Exists(empty))
	assert.True(t, Empty(empty))

	full := filepath.Join(dir, "full")
	require.NoError(t, os.WriteFile(full, []byte("x"), 0600))
	assert.True(t, Exists(full))
	assert.False(t, Empty(full))
}

func TestWriteAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	require.NoError(t, WriteAtomically(path, bytes.NewReader([]byte("payload"))))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(b))
}

func TestCopyOver(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dest := filepath.Join(dir, "dest")
	require.NoError(t, os.WriteFile(src, []byte("binary"), 0755))
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0644))

	require.NoError(t, CopyOver(src, dest))

	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "binary", string(b))
}