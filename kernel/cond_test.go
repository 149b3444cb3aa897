package kernel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCondSignalWakesOneWaiter(t *testing.T) {
	k, _ := newTestKernel(t)
	require.NoError(t, k.SetPriority(0))
	l := k.NewLock()
	c := k.NewCond()

	var ready bool
	var woke bool
	_, err := k.ThreadCreate("waiter", 10, func(aux any) {
		l.Acquire()
		ready = true
		c.Wait(l)
		woke = true
		l.Release()
	}, nil)
	require.NoError(t, err)

	ok := pump(k, func() bool { return ready }, time.Second)
	require.True(t, ok)
	assert.False(t, woke)

	l.Acquire()
	c.Signal()
	l.Release()

	ok = pump(k, func() bool { return woke }, time.Second)
	require.True(t, ok)
}

func TestCondBroadcastWakesEveryWaiter(t *testing.T) {
	k, _ := newTestKernel(t)
	require.NoError(t, k.SetPriority(0))
	l := k.NewLock()
	c := k.NewCond()

	const n = 3
	woke := make([]bool, n)
	readyCount := 0

	for i := 0; i < n; i++ {
		i := i
		_, err := k.ThreadCreate("waiter", 10, func(aux any) {
			l.Acquire()
			readyCount++
			c.Wait(l)
			woke[i] = true
			l.Release()
		}, nil)
		require.NoError(t, err)
	}

	ok := pump(k, func() bool { return readyCount == n }, time.Second)
	require.True(t, ok)

	l.Acquire()
	c.Broadcast()
	l.Release()

	ok = pump(k, func() bool {
		for _, w := range woke {
			if !w {
				return false
			}
		}
		return true
	}, time.Second)
	require.True(t, ok)
}

// S6 -- condvar signal must wake the waiter with the highest priority as of
// when it called Wait, not FIFO order.
func TestCondSignalPicksHighestPriorityWaiter(t *testing.T) {
	k, _ := newTestKernel(t)
	require.NoError(t, k.SetPriority(0))
	l := k.NewLock()
	c := k.NewCond()

	var order []string
	var lowReady, highReady bool

	_, err := k.ThreadCreate("low", 10, func(aux any) {
		l.Acquire()
		lowReady = true
		c.Wait(l)
		order = append(order, "low")
		l.Release()
	}, nil)
	require.NoError(t, err)

	ok := pump(k, func() bool { return lowReady }, time.Second)
	require.True(t, ok)

	_, err = k.ThreadCreate("high", 20, func(aux any) {
		l.Acquire()
		highReady = true
		c.Wait(l)
		order = append(order, "high")
		l.Release()
	}, nil)
	require.NoError(t, err)

	ok = pump(k, func() bool { return highReady }, time.Second)
	require.True(t, ok)

	l.Acquire()
	c.Signal()
	l.Release()

	ok = pump(k, func() bool { return len(order) == 1 }, time.Second)
	require.True(t, ok)
	assert.Equal(t, []string{"high"}, order)
}
