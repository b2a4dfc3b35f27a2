package wavcapture

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.wav")

	r, err := New(path, 62500)
	require.NoError(t, err)

	require.NoError(t, r.Enable())
	samples := []uint8{128, 255, 0, 74, 200}
	for _, s := range samples {
		require.NoError(t, r.SetDuty(s))
	}
	r.Disable()

	assert.Equal(t, len(samples), r.Len())
	require.NoError(t, r.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	d := wav.NewDecoder(f)
	buf, err := d.FullPCMBuffer()
	require.NoError(t, err)

	assert.Equal(t, uint32(62500), d.SampleRate)
	assert.Equal(t, uint16(8), d.BitDepth)
	require.Len(t, buf.Data, len(samples))
	for i, s := range samples {
		assert.Equal(t, int(s), buf.Data[i], "sample %d", i)
	}
}

func TestRecorderDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.wav")

	r, err := New(path, 1000)
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		require.NoError(t, r.SetDuty(128))
	}

	assert.Equal(t, 500*time.Millisecond, r.Duration())
	require.NoError(t, r.Close())
}

func TestRecorderBadRate(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "x.wav"), 0)
	assert.Error(t, err)
}
