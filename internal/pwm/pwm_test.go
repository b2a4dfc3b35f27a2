package pwm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodNs(t *testing.T) {
	tests := []struct {
		hz   int
		want int64
	}{
		{hz: 62500, want: 16000},
		{hz: 500, want: 2000000},
		{hz: 1, want: 1000000000},
		{hz: 2068, want: 483558},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, periodNs(tt.hz), "periodNs(%d)", tt.hz)
	}
}

func TestDutyNs(t *testing.T) {
	const period = int64(16000)

	tests := []struct {
		v    uint8
		want int64
	}{
		{v: 0, want: 0},
		{v: 255, want: 16000},
		{v: 128, want: 8031},
		{v: 51, want: 3200},
	}

	for _, tt := range tests {
		got := dutyNs(period, tt.v)
		assert.Equal(t, tt.want, got, "dutyNs(%d, %d)", period, tt.v)
		assert.True(t, got <= period, "duty must never exceed the period")
	}
}

func TestOpenMissingChip(t *testing.T) {
	_, err := Open(9999, 0, 62500)
	require.Error(t, err)
}
