package kernel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S4 -- timed sleep: threads sleeping for different durations must wake in
// ascending tick order, not creation order.
func TestSleepWakesInAscendingTickOrder(t *testing.T) {
	k, _ := newTestKernel(t)
	require.NoError(t, k.SetPriority(0))

	var order []string
	var done [3]bool

	_, err := k.ThreadCreate("long", PriDefault, func(aux any) {
		k.Sleep(30)
		order = append(order, "long")
		done[0] = true
	}, nil)
	require.NoError(t, err)
	_, err = k.ThreadCreate("short", PriDefault, func(aux any) {
		k.Sleep(10)
		order = append(order, "short")
		done[1] = true
	}, nil)
	require.NoError(t, err)
	_, err = k.ThreadCreate("mid", PriDefault, func(aux any) {
		k.Sleep(20)
		order = append(order, "mid")
		done[2] = true
	}, nil)
	require.NoError(t, err)

	// Drive ticks forward; main is the only thread left runnable between
	// wakeups (everyone else is asleep), so it must be the one pumping the
	// clock forward, the way an external timer driver would.
	for i := 0; i < 40 && !(done[0] && done[1] && done[2]); i++ {
		k.Tick()
		k.CheckPreempt()
	}

	require.True(t, done[0] && done[1] && done[2], "all sleepers must eventually wake")
	assert.Equal(t, []string{"short", "mid", "long"}, order)
}

func TestSleepNonPositiveTicksReturnsImmediately(t *testing.T) {
	k, _ := newTestKernel(t)
	var ran bool
	_, err := k.ThreadCreate("t", PriDefault+1, func(aux any) {
		ran = true
	}, nil)
	require.NoError(t, err)
	assert.True(t, ran, "higher-priority thread must run before ThreadCreate returns")

	// ticks<=0 must return immediately without blocking or yielding, per
	// §4.2/§7 -- it must not even give the waiter (already run to
	// completion above) another turn.
	k.Sleep(0)
	k.Sleep(-5)
}

func TestSleepPreemptsOnWakeIfHigherPriority(t *testing.T) {
	k, _ := newTestKernel(t)
	require.NoError(t, k.SetPriority(0))

	var ran bool
	_, err := k.ThreadCreate("sleeper", 10, func(aux any) {
		k.Sleep(5)
		ran = true
	}, nil)
	require.NoError(t, err)
	assert.False(t, ran)

	for i := 0; i < 10 && !ran; i++ {
		k.Tick()
		k.CheckPreempt()
	}
	assert.True(t, ran, "sleeper must wake and run since it outranks main")
}
