package sweep

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDriver struct {
	mu       sync.Mutex
	freqs    []int
	divs     []int
	enables  int
	disables int
	failAt   int // fail the nth SetSquare call, 0 for never
}

func (f *fakeDriver) SetSquare(hz, dutyDiv int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAt > 0 && len(f.freqs)+1 == f.failAt {
		return errors.New("peripheral gone")
	}
	f.freqs = append(f.freqs, hz)
	f.divs = append(f.divs, dutyDiv)
	return nil
}

func (f *fakeDriver) Enable() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enables++
	return nil
}

func (f *fakeDriver) Disable() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disables++
}

func (f *fakeDriver) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.freqs)
}

func TestStepSequence(t *testing.T) {
	drv := &fakeDriver{}
	s, err := New(drv, Config{Tick: 4, Stop: 5, Hold: time.Second, DutyDiv: 3})
	require.NoError(t, err)

	for i := 0; i < 12; i++ {
		require.NoError(t, s.Step())
	}

	// ramp to 5 hz, hold for four ticks, wrap around to 1 hz
	assert.Equal(t, []int{1, 2, 3, 4, 5, 5, 5, 5, 1, 2, 3, 4}, drv.freqs)
	for _, d := range drv.divs {
		assert.Equal(t, 3, d)
	}
}

func TestStepDefaultHold(t *testing.T) {
	drv := &fakeDriver{}
	s, err := New(drv, Config{})
	require.NoError(t, err)

	// one full sweep: 499 ramp ticks, then DefaultHold worth at the top
	total := (DefaultStop - 1) + DefaultTick*int(DefaultHold/time.Second)
	for i := 0; i < total+1; i++ {
		require.NoError(t, s.Step())
	}

	assert.Equal(t, DefaultStop, drv.freqs[total-1], "last tick of the sweep holds the stop frequency")
	assert.Equal(t, 1, drv.freqs[total], "wraps back to 1 hz")
	assert.Equal(t, DefaultDutyDiv, drv.divs[0])
}

func TestNewValidatesConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "defaults", cfg: Config{}},
		{name: "full duty", cfg: Config{DutyDiv: 1}, wantErr: true},
		{name: "too shallow", cfg: Config{DutyDiv: 5}, wantErr: true},
		{name: "third duty", cfg: Config{DutyDiv: 3}},
		{name: "negative tick", cfg: Config{Tick: -1}, wantErr: true},
		{name: "negative stop", cfg: Config{Stop: -10}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&fakeDriver{}, tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	drv := &fakeDriver{}
	s, err := New(drv, Config{Tick: 1000})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for drv.calls() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()

	err = <-errc
	assert.Equal(t, context.Canceled, err)
	assert.True(t, drv.calls() >= 3, "ticker never fired")
	assert.Equal(t, 1, drv.enables)
	assert.Equal(t, 1, drv.disables)
}

func TestRunStopsOnDriverFault(t *testing.T) {
	drv := &fakeDriver{failAt: 2}
	s, err := New(drv, Config{Tick: 1000})
	require.NoError(t, err)

	err = s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retuning")
	assert.Equal(t, 1, drv.disables, "output left enabled after fault")
}
