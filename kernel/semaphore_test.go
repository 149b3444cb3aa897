package kernel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemaphoreTryDownRespectsValue(t *testing.T) {
	k, _ := newTestKernel(t)
	s := k.NewSemaphore(1)
	assert.True(t, s.TryDown())
	assert.False(t, s.TryDown())
	s.Up()
	assert.True(t, s.TryDown())
}

func TestSemaphoreDownBlocksUntilUp(t *testing.T) {
	k, _ := newTestKernel(t)
	require.NoError(t, k.SetPriority(0))
	s := k.NewSemaphore(0)

	var waiterDone bool
	_, err := k.ThreadCreate("waiter", 10, func(aux any) {
		s.Down()
		waiterDone = true
	}, nil)
	require.NoError(t, err)

	// The waiter blocked on s, control returned to main without it ever
	// completing.
	assert.False(t, waiterDone)

	s.Up()
	ok := pump(k, func() bool { return waiterDone }, time.Second)
	require.True(t, ok)
	assert.True(t, waiterDone)
}

// S3-adjacent: sema_up wakes the highest *current* effective priority
// waiter, not the one that was highest when it first blocked.
func TestSemaphoreUpWakesHighestCurrentPriority(t *testing.T) {
	k, _ := newTestKernel(t)
	require.NoError(t, k.SetPriority(0))
	s := k.NewSemaphore(0)

	var order []string
	_, err := k.ThreadCreate("low", 10, func(aux any) {
		s.Down()
		order = append(order, "low")
	}, nil)
	require.NoError(t, err)
	_, err = k.ThreadCreate("high", 20, func(aux any) {
		s.Down()
		order = append(order, "high")
	}, nil)
	require.NoError(t, err)

	s.Up()
	ok := pump(k, func() bool { return len(order) == 1 }, time.Second)
	require.True(t, ok)
	assert.Equal(t, []string{"high"}, order)

	s.Up()
	ok = pump(k, func() bool { return len(order) == 2 }, time.Second)
	require.True(t, ok)
	assert.Equal(t, []string{"high", "low"}, order)
}

func TestSemaphoreUpYieldsWhenWokenOutranksCurrent(t *testing.T) {
	k, _ := newTestKernel(t)
	require.NoError(t, k.SetPriority(0)) // take main out of contention
	s := k.NewSemaphore(0)

	var ran bool
	_, err := k.ThreadCreate("blocker", 20, func(aux any) {
		s.Down()
		ran = true
	}, nil)
	require.NoError(t, err)
	assert.False(t, ran, "blocker must still be parked on s.Down()")

	// upper outranks main but not blocker: its sole job is calling Up,
	// which must yield straight into blocker (now ready at priority 20,
	// above upper's own 10) before upper's ThreadCreate call returns here.
	_, err = k.ThreadCreate("upper", 10, func(aux any) {
		s.Up()
	}, nil)
	require.NoError(t, err)

	assert.True(t, ran, "blocker must run before control returns from creating upper")
}
