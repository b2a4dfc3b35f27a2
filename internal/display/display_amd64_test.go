package display

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScreenLines(t *testing.T) {
	s, err := NewScreen(context.Background())
	require.NoError(t, err)

	s.WriteTitle("TONE BOX")
	s.WriteLine(1, "Frequency:")
	s.WriteLine(2, "1043 Hz")
	s.WriteHelp("press space to play")

	assert.Equal(t, []string{"TONE BOX", "Frequency:", "1043 Hz", "press space to play"}, s.Lines())
}

func TestScreenReadoutReplacesContentLines(t *testing.T) {
	s, err := NewScreen(context.Background())
	require.NoError(t, err)

	s.WriteLine(1, "Frequency:")
	s.WriteReadout("1043 Hz")

	lines := s.Lines()
	assert.Empty(t, lines[1])
	assert.Empty(t, lines[2])
	assert.Equal(t, "1043 Hz", s.Readout())

	s.WriteLine(2, "back to text")
	assert.Empty(t, s.Readout())
}

func TestScreenClear(t *testing.T) {
	s, err := NewScreen(context.Background())
	require.NoError(t, err)

	s.WriteTitle("TONE BOX")
	s.WriteReadout("440 Hz")
	s.Clear()

	assert.Equal(t, make([]string, 4), s.Lines())
	assert.Empty(t, s.Readout())
}
