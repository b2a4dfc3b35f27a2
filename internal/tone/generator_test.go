package tone

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutput struct {
	mu        sync.Mutex
	writes    []uint8
	enables   int
	disables  int
	failWrite bool
}

func (f *fakeOutput) SetDuty(v uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite {
		return errors.New("peripheral gone")
	}
	f.writes = append(f.writes, v)
	return nil
}

func (f *fakeOutput) Enable() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enables++
	return nil
}

func (f *fakeOutput) Disable() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disables++
}

func (f *fakeOutput) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func (f *fakeOutput) at(i int) uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes[i]
}

// waitFor polls cond for up to two seconds.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestAdvanceLoopsTable(t *testing.T) {
	tbl, err := NewTable(62500, 31250)
	require.NoError(t, err)

	out := &fakeOutput{}
	g := NewGenerator(out, tbl)

	for i := 0; i < 4; i++ {
		require.NoError(t, g.Advance())
	}

	// two full periods, identical duty sequences
	assert.Equal(t, []uint8{255, 0, 255, 0}, out.writes)
}

func TestAdvanceRepeatsCycle(t *testing.T) {
	tbl, err := NewTable(62500, 1043)
	require.NoError(t, err)

	out := &fakeOutput{}
	g := NewGenerator(out, tbl)

	n := tbl.Len()
	for i := 0; i < 2*n; i++ {
		require.NoError(t, g.Advance())
	}

	require.Len(t, out.writes, 2*n)
	for i := 0; i < n; i++ {
		assert.Equal(t, out.writes[i], out.writes[n+i], "sample %d differs between cycles", i)
	}
}

func TestStartRestartsFromPhaseZero(t *testing.T) {
	tbl, err := NewTable(62500, 1043)
	require.NoError(t, err)

	out := &fakeOutput{}
	g := NewGenerator(out, tbl)

	// walk the cursor into the middle of the period
	for i := 0; i < 7; i++ {
		require.NoError(t, g.Advance())
	}

	require.NoError(t, g.Start())
	assert.True(t, g.Playing())

	waitFor(t, func() bool { return out.count() >= 10 })
	g.Stop()

	assert.False(t, g.Playing())
	// playback picked up at the first sample, not at the old cursor
	assert.Equal(t, tbl.At(0), out.at(7))
	assert.Equal(t, tbl.At(1), out.at(8))
	assert.Equal(t, tbl.At(2), out.at(9))

	assert.Equal(t, 1, out.enables)
	assert.Equal(t, 1, out.disables)
}

func TestStartWhilePlaying(t *testing.T) {
	tbl, err := NewTable(62500, 440)
	require.NoError(t, err)

	out := &fakeOutput{}
	g := NewGenerator(out, tbl)

	require.NoError(t, g.Start())
	require.NoError(t, g.Start())
	assert.Equal(t, 1, out.enables, "second Start must not re-enable")

	g.Stop()
	g.Stop()
	assert.Equal(t, 1, out.disables, "second Stop must not re-disable")
}

func TestWriteFaultStopsPlayback(t *testing.T) {
	tbl, err := NewTable(62500, 440)
	require.NoError(t, err)

	out := &fakeOutput{failWrite: true}
	g := NewGenerator(out, tbl)

	require.NoError(t, g.Start())
	waitFor(t, func() bool { return g.Err() != nil })

	assert.False(t, g.Playing())
	assert.Contains(t, g.Err().Error(), "duty write failed")

	// Stop after a fault is a harmless no-op
	g.Stop()
}

func TestRetune(t *testing.T) {
	low, err := NewTable(62500, 440)
	require.NoError(t, err)
	high, err := NewTable(62500, 1043)
	require.NoError(t, err)

	out := &fakeOutput{}
	g := NewGenerator(out, low)

	require.NoError(t, g.Retune(high))
	require.NoError(t, g.Advance())
	assert.Equal(t, high.At(0), out.at(0))

	require.NoError(t, g.Start())
	assert.Error(t, g.Retune(low), "retuning while playing must fail")
	g.Stop()

	require.NoError(t, g.Retune(low))
	assert.Equal(t, low, g.Table())
}

func TestOncePlaysWholeTable(t *testing.T) {
	src := []uint8{128, 180, 255, 74, 0}
	tbl, err := TableFromSamples(62500, src)
	require.NoError(t, err)

	out := &fakeOutput{}
	require.NoError(t, Once(context.Background(), out, tbl))

	assert.Equal(t, src, out.writes)
	assert.Equal(t, 1, out.enables)
	assert.Equal(t, 1, out.disables)
}

func TestOnceHonorsContext(t *testing.T) {
	// one second per sample: the canceled context must win the race
	tbl, err := TableFromSamples(1, []uint8{1, 2, 3})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := &fakeOutput{}
	err = Once(ctx, out, tbl)
	require.Error(t, err)
	assert.Equal(t, 0, out.count())
	assert.Equal(t, 1, out.disables, "output must be disabled on the way out")
}
