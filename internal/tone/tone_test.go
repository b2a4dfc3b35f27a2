package tone

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTableLength(t *testing.T) {
	tests := []struct {
		name    string
		rate    int
		freq    int
		wantLen int
		wantErr bool
	}{
		{name: "reference tone", rate: 62500, freq: 1043, wantLen: 60},
		{name: "nyquist", rate: 62500, freq: 31250, wantLen: 2},
		{name: "dc", rate: 62500, freq: 62500, wantLen: 1},
		{name: "rounds up", rate: 62500, freq: 41666, wantLen: 2},
		{name: "concert a", rate: 62500, freq: 440, wantLen: 142},
		{name: "rounds to zero", rate: 62500, freq: 150000, wantErr: true},
		{name: "way too high", rate: 62500, freq: 1000000, wantErr: true},
		{name: "too many samples", rate: 62500, freq: 1, wantErr: true},
		{name: "just fits", rate: 62500, freq: 2, wantLen: 31250},
		{name: "zero frequency", rate: 62500, freq: 0, wantErr: true},
		{name: "zero rate", rate: 0, freq: 440, wantErr: true},
		{name: "negative frequency", rate: 62500, freq: -5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := NewTable(tt.rate, tt.freq)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrFrequency), "want ErrFrequency, got: %v", err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, tbl.Len())
			assert.Equal(t, tt.rate, tbl.Rate())
			assert.Equal(t, tt.freq, tbl.Frequency())
		})
	}
}

func TestTableSineShape(t *testing.T) {
	tbl, err := NewTable(62500, 1043)
	require.NoError(t, err)
	require.Equal(t, 60, tbl.Len())

	// phase zero is the midpoint of the amplitude range
	assert.Equal(t, uint8(128), tbl.At(0))
	// quarter period is the positive peak, three quarters the negative
	assert.Equal(t, uint8(255), tbl.At(15))
	assert.Equal(t, uint8(0), tbl.At(45))
}

func TestTableNyquistSquare(t *testing.T) {
	tbl, err := NewTable(62500, 31250)
	require.NoError(t, err)

	// sine sampled at 0 and pi is flat silence; the degenerate two
	// sample table carries the full swing square instead
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, uint8(255), tbl.At(0))
	assert.Equal(t, uint8(0), tbl.At(1))
}

func TestTableDC(t *testing.T) {
	tbl, err := NewTable(62500, 62500)
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, uint8(128), tbl.At(0))
}

func TestTableFromSamples(t *testing.T) {
	src := []uint8{128, 200, 128, 56}
	tbl, err := TableFromSamples(62496, src)
	require.NoError(t, err)

	assert.Equal(t, 4, tbl.Len())
	assert.Equal(t, 62496, tbl.Rate())
	assert.Equal(t, 0, tbl.Frequency())

	// the table keeps its own copy
	src[1] = 0
	assert.Equal(t, uint8(200), tbl.At(1))

	_, err = TableFromSamples(62496, nil)
	assert.True(t, errors.Is(err, ErrFrequency))
}
