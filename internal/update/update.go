// package update keeps the installed binaries current. For every binary
// the update server publishes a sha256 manifest at <baseurl>/<name>.sha256
// and the binary itself at <baseurl>/<name>. When the published hash
// differs from the installed one the new binary is downloaded, verified,
// backed up over and swapped in place, and a restart signal file is left
// in the state directory for the running process to pick up.
//
// A swapped-in binary that crashes gets blacklisted by the error-checker,
// blacklisted hashes are never installed again and the backup is restored.
package update

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"code.sztanpet.net/zvpsz/tone-box/internal/config"
	"code.sztanpet.net/zvpsz/tone-box/internal/file"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("main.update")

var httpClient = &http.Client{
	Timeout: 1 * time.Minute,
}

const blacklistName = "update-blacklist"

type Binary struct {
	// Name is the base name of the managed binary.
	Name string

	cfg  *config.Config
	path string

	mu   sync.Mutex
	hash []byte
}

// NewBinary manages the binary at path, which has to exist already:
// its hash is what update checks compare against.
func NewBinary(path string, cfg *config.Config) (*Binary, error) {
	h, err := hashFile(path)
	if err != nil {
		return nil, err
	}

	return &Binary{
		Name: filepath.Base(path),
		cfg:  cfg,
		path: path,
		hash: h,
	}, nil
}

// Check fetches the published hash and swaps in the new binary when it
// differs from the installed one. The caller learns about a completed
// update through ShouldRestart.
func (b *Binary) Check() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	want, err := b.fetchManifest()
	if err != nil {
		return err
	}

	if bytes.Equal(want, b.hash) {
		logger.Tracef("%v is up to date", b.Name)
		return nil
	}

	if b.isBlacklisted(want) {
		logger.Infof("update %x for %v is blacklisted, skipping", want, b.Name)
		return nil
	}

	logger.Infof("new version of %v published (%x -> %x), downloading", b.Name, b.hash, want)

	body, err := b.download()
	if err != nil {
		return err
	}

	ok, err := shaMatches(want, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("downloaded %v does not match its published hash", b.Name)
	}

	err = b.swap(body)
	if err != nil {
		return err
	}

	b.hash = want
	logger.Infof("%v updated, signalling restart", b.Name)

	return ioutil.WriteFile(b.signalPath(), nil, 0600)
}

// ShouldRestart reports whether an update was swapped in since the
// process started.
func (b *Binary) ShouldRestart() bool {
	return file.Exists(b.signalPath())
}

// Cleanup removes a stale restart signal, call it right after startup.
func (b *Binary) Cleanup() {
	_ = os.Remove(b.signalPath())
}

// RestoreToBackup copies the pre-update backup over the binary.
func (b *Binary) RestoreToBackup() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	bak := b.path + ".bak"
	if !file.Exists(bak) {
		return fmt.Errorf("no backup for %v", b.Name)
	}

	err := file.CopyOver(bak, b.path)
	if err != nil {
		return err
	}

	h, err := hashFile(b.path)
	if err != nil {
		return err
	}
	b.hash = h

	return nil
}

// BlacklistUpdate records the hash of the binary at binPath so Check
// never installs that version again. The error-checker calls this when
// a freshly updated binary fails to run.
func BlacklistUpdate(binPath, stateDir string) error {
	h, err := hashFile(binPath)
	if err != nil {
		return err
	}

	return file.Append(
		filepath.Join(stateDir, blacklistName),
		[]byte(hex.EncodeToString(h)+"\n"),
	)
}

func (b *Binary) fetchManifest() ([]byte, error) {
	raw, err := b.get(b.url() + ".sha256")
	if err != nil {
		return nil, err
	}

	// sha256sum output: the hash is the first field
	fields := strings.Fields(string(raw))
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty manifest for %v", b.Name)
	}

	h, err := hex.DecodeString(fields[0])
	if err != nil {
		return nil, fmt.Errorf("malformed manifest for %v: %v", b.Name, err)
	}
	if len(h) != sha256.Size {
		return nil, fmt.Errorf("malformed manifest for %v: %v bytes", b.Name, len(h))
	}

	return h, nil
}

func (b *Binary) download() ([]byte, error) {
	return b.get(b.url())
}

func (b *Binary) get(url string) ([]byte, error) {
	resp, err := httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %v: %v", url, resp.Status)
	}

	return ioutil.ReadAll(resp.Body)
}

func (b *Binary) url() string {
	return strings.TrimRight(b.cfg.UpdateBaseURL, "/") + "/" + b.Name
}

func (b *Binary) signalPath() string {
	return filepath.Join(b.cfg.StatePath, b.Name+".restart")
}

// swap backs up the installed binary and renames the new one into place.
func (b *Binary) swap(body []byte) error {
	err := file.CopyOver(b.path, b.path+".bak")
	if err != nil {
		return err
	}

	err = file.WriteAtomically(b.path, bytes.NewReader(body))
	if err != nil {
		return err
	}

	return os.Chmod(b.path, 0755)
}

func (b *Binary) isBlacklisted(hash []byte) bool {
	raw, err := ioutil.ReadFile(filepath.Join(b.cfg.StatePath, blacklistName))
	if err != nil {
		return false
	}

	needle := hex.EncodeToString(hash)
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.TrimSpace(line) == needle {
			return true
		}
	}

	return false
}

func hashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	_, err = io.Copy(h, f)
	if err != nil {
		return nil, err
	}

	return h.Sum(nil), nil
}

func shaMatches(expected []byte, actual io.Reader) (bool, error) {
	h := sha256.New()
	_, err := io.Copy(h, actual)
	if err != nil {
		return false, err
	}

	return bytes.Equal(h.Sum(nil), expected), nil
}
