package playlog

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"code.sztanpet.net/zvpsz/tone-box/internal/config"
	"code.sztanpet.net/zvpsz/tone-box/internal/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog(t *testing.T) (*Log, string) {
	t.Helper()

	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{
		StatePath: dir,
		// port 1 refuses connections, inserts fail and events stay spilled
		DatabaseDSN: "tonebox:tonebox@tcp(127.0.0.1:1)/tonebox",
	}
	l, err := New(ctx, cfg)
	require.NoError(t, err)

	return l, filepath.Join(dir, "playlog")
}

func TestInsertSpillsToDisk(t *testing.T) {
	l, dir := testLog(t)

	ev := Event{
		Frequency: 1043,
		Duration:  1500 * time.Millisecond,
		Trigger:   "button",
		MachineID: "test-machine",
		StartedAt: time.Now(),
	}
	l.Insert(ev)

	files, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)

	var got Event
	require.NoError(t, file.Unserialize(filepath.Join(dir, files[0].Name()), &got))
	assert.Equal(t, ev.Frequency, got.Frequency)
	assert.Equal(t, ev.Duration, got.Duration)
	assert.Equal(t, ev.Trigger, got.Trigger)
	assert.True(t, ev.StartedAt.Equal(got.StartedAt))
}

func TestInsertRequiresStartedAt(t *testing.T) {
	l, _ := testLog(t)

	assert.Panics(t, func() {
		l.Insert(Event{Frequency: 440})
	})
}

func TestEventFileNamedByStart(t *testing.T) {
	l, dir := testLog(t)

	at := time.Unix(1700000000, 123456789)
	l.Insert(Event{Frequency: 440, Trigger: "tty", StartedAt: at})

	files, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "1700000000123456789", files[0].Name())
}
