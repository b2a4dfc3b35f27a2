package resample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsampleLength(t *testing.T) {
	tests := []struct {
		name string
		in   int
	}{
		{name: "empty", in: 0},
		{name: "single", in: 1},
		{name: "clip", in: 481},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := make([]uint8, tt.in)
			out := Upsample16(src)
			assert.Len(t, out, tt.in*Factor)
		})
	}
}

func TestUpsampleSilence(t *testing.T) {
	src := make([]uint8, 64)
	for i := range src {
		src[i] = 128
	}

	// silence is exactly the midpoint; the filter state stays zero
	for i, v := range Upsample16(src) {
		require.Equal(t, uint8(128), v, "sample %d", i)
	}
}

func TestUpsampleConvergesToDC(t *testing.T) {
	src := make([]uint8, 128)
	for i := range src {
		src[i] = 255
	}

	out := Upsample16(src)
	require.Len(t, out, 128*Factor)

	// unity passband gain times the 15/16 stuffing gain lands full
	// scale input near 247; the stuffing images that survive the
	// stopband ride on top as a ripple of roughly +-15
	tail := out[len(out)/2:]
	sum := 0.0
	for i, v := range tail {
		require.InDelta(t, 240, float64(v), 20, "sample %d", i)
		sum += float64(v)
	}
	assert.InDelta(t, 245, sum/float64(len(tail)), 6, "settled mean")
}

func TestUpsampleImpulseDecays(t *testing.T) {
	src := make([]uint8, 96)
	for i := range src {
		src[i] = 128
	}
	src[4] = 255

	out := Upsample16(src)

	// the lowpass rings briefly, then settles back to silence
	tail := out[len(out)/2:]
	for i, v := range tail {
		assert.InDelta(t, 128, float64(v), 2, "tail sample %d", i)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in   float32
		want uint8
	}{
		{in: -40.2, want: 0},
		{in: 0, want: 0},
		{in: 127.7, want: 127},
		{in: 255, want: 255},
		{in: 308.9, want: 255},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, clamp(tt.in), "clamp(%v)", tt.in)
	}
}

func TestRate16(t *testing.T) {
	assert.Equal(t, 62496, Rate16(62500))
	assert.Equal(t, 64000, Rate16(64000))
	assert.Equal(t, Rate16(62500)/Factor*Factor, Rate16(62500))
}
