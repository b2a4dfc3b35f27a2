package update

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"code.sztanpet.net/zvpsz/tone-box/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	*httptest.Server
	body []byte
}

func newFakeServer(t *testing.T, published []byte) *fakeServer {
	t.Helper()

	fs := &fakeServer{body: published}
	mux := http.NewServeMux()
	mux.HandleFunc("/tone-box.sha256", func(w http.ResponseWriter, r *http.Request) {
		sum := sha256.Sum256(fs.body)
		fmt.Fprintf(w, "%v  tone-box\n", hex.EncodeToString(sum[:]))
	})
	mux.HandleFunc("/tone-box", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(fs.body)
	})

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)

	return fs
}

func testBinary(t *testing.T, srv *fakeServer, installed []byte) (*Binary, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "tone-box")
	require.NoError(t, ioutil.WriteFile(path, installed, 0755))

	cfg := &config.Config{
		StatePath:     t.TempDir(),
		UpdateBaseURL: srv.URL,
	}
	b, err := NewBinary(path, cfg)
	require.NoError(t, err)
	assert.Equal(t, "tone-box", b.Name)

	return b, path
}

func TestCheckUpToDate(t *testing.T) {
	body := []byte("v1 binary")
	srv := newFakeServer(t, body)
	b, path := testBinary(t, srv, body)

	require.NoError(t, b.Check())

	assert.False(t, b.ShouldRestart())
	assert.False(t, fileExists(path+".bak"))
}

func TestCheckSwapsBinary(t *testing.T) {
	srv := newFakeServer(t, []byte("v2 binary"))
	b, path := testBinary(t, srv, []byte("v1 binary"))

	require.NoError(t, b.Check())

	got, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2 binary"), got)

	bak, err := ioutil.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1 binary"), bak)

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), fi.Mode().Perm())

	assert.True(t, b.ShouldRestart())
	b.Cleanup()
	assert.False(t, b.ShouldRestart())

	// second check is a no-op, the new hash is the installed one now
	require.NoError(t, b.Check())
	assert.False(t, b.ShouldRestart())
}

func TestCheckRejectsCorruptDownload(t *testing.T) {
	// the manifest advertises v2 but the download serves something else
	mux := http.NewServeMux()
	sum := sha256.Sum256([]byte("v2 binary"))
	mux.HandleFunc("/tone-box.sha256", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%v  tone-box\n", hex.EncodeToString(sum[:]))
	})
	mux.HandleFunc("/tone-box", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("tampered"))
	})
	srv := &fakeServer{Server: httptest.NewServer(mux)}
	t.Cleanup(srv.Close)

	b, path := testBinary(t, srv, []byte("v1 binary"))

	err := b.Check()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "published hash")

	got, rerr := ioutil.ReadFile(path)
	require.NoError(t, rerr)
	assert.Equal(t, []byte("v1 binary"), got)
	assert.False(t, b.ShouldRestart())
}

func TestCheckSkipsBlacklisted(t *testing.T) {
	srv := newFakeServer(t, []byte("v2 binary"))
	b, path := testBinary(t, srv, []byte("v1 binary"))

	// pretend v2 was installed once and crashed: its hash is recorded
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad")
	require.NoError(t, ioutil.WriteFile(bad, []byte("v2 binary"), 0755))
	require.NoError(t, BlacklistUpdate(bad, b.cfg.StatePath))

	require.NoError(t, b.Check())

	got, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1 binary"), got)
	assert.False(t, b.ShouldRestart())
}

func TestRestoreToBackup(t *testing.T) {
	srv := newFakeServer(t, []byte("v2 binary"))
	b, path := testBinary(t, srv, []byte("v1 binary"))

	require.NoError(t, b.Check())
	require.NoError(t, b.RestoreToBackup())

	got, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1 binary"), got)

	// restored hash means the published v2 counts as an update again
	require.NoError(t, b.Check())
	got, err = ioutil.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2 binary"), got)
}

func TestRestoreWithoutBackup(t *testing.T) {
	srv := newFakeServer(t, []byte("v1 binary"))
	b, _ := testBinary(t, srv, []byte("v1 binary"))

	err := b.RestoreToBackup()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no backup")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
