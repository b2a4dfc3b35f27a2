package chime

import (
	"testing"

	"code.sztanpet.net/zvpsz/tone-box/internal/resample"
	"code.sztanpet.net/zvpsz/tone-box/internal/tone"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChimesBuild(t *testing.T) {
	tests := []struct {
		name  string
		build func(int) (*tone.Table, error)
	}{
		{name: "startup", build: Startup},
		{name: "success", build: Success},
		{name: "fail", build: Fail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := tt.build(62500)
			require.NoError(t, err)

			assert.Equal(t, resample.Rate16(62500), tbl.Rate())
			assert.True(t, tbl.Len() > 0)
			assert.Zero(t, tbl.Len()%resample.Factor, "length must be a whole number of interpolation frames")

			// clips fade in from silence, no click at the start
			assert.InDelta(t, 128, float64(tbl.At(0)), 2)
		})
	}
}

func TestChimeDurations(t *testing.T) {
	startup, err := Startup(62500)
	require.NoError(t, err)
	fail, err := Fail(62500)
	require.NoError(t, err)

	// the failure buzz pattern is the longest clip we ship; it still
	// has to fit a single duty sequence
	assert.True(t, fail.Len() > startup.Len())
}
