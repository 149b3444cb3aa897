package kernel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockTryAcquireAndRelease(t *testing.T) {
	k, _ := newTestKernel(t)
	l := k.NewLock()
	assert.True(t, l.TryAcquire())
	assert.True(t, l.HeldByCurrent())
	assert.False(t, l.TryAcquire())
	l.Release()
	assert.False(t, l.HeldByCurrent())
	assert.True(t, l.TryAcquire())
}

// S2 -- single donation: a low-priority holder blocking a higher-priority
// acquirer must have its effective priority raised to the acquirer's for as
// long as the lock is held, then drop back once released.
func TestLockSingleDonation(t *testing.T) {
	k, _ := newTestKernel(t)
	require.NoError(t, k.SetPriority(0))
	l := k.NewLock()

	var lowEffAtPeak, lowEffAfterRelease int
	holderDone := make(chan struct{})
	releaseGate := k.NewSemaphore(0)

	_, err := k.ThreadCreate("low", 10, func(aux any) {
		l.Acquire()
		releaseGate.Down() // wait to be told the high thread has donated
		lowEffAtPeak = k.Current().Priority()
		l.Release()
		lowEffAfterRelease = k.Current().Priority()
		close(holderDone)
	}, nil)
	require.NoError(t, err)

	var highAcquired bool
	_, err = k.ThreadCreate("high", 30, func(aux any) {
		l.Acquire()
		highAcquired = true
		l.Release()
	}, nil)
	require.NoError(t, err)

	// high is now blocked donating to low; release the gate so low can
	// observe its boosted priority and then give the lock back.
	releaseGate.Up()

	ok := pump(k, func() bool {
		select {
		case <-holderDone:
			return true
		default:
			return false
		}
	}, time.Second)
	require.True(t, ok)
	ok = pump(k, func() bool { return highAcquired }, time.Second)
	require.True(t, ok)

	assert.Equal(t, 30, lowEffAtPeak, "low must be boosted to high's priority while holding the contested lock")
	assert.Equal(t, 10, lowEffAfterRelease, "low's priority must drop back once the donation is withdrawn")
	assert.True(t, highAcquired)
}

// S3 -- nested donation: a chain of three threads, each blocked on the
// next, must propagate the top priority all the way down to the bottom
// holder.
func TestLockNestedDonation(t *testing.T) {
	k, _ := newTestKernel(t)
	require.NoError(t, k.SetPriority(0))
	lA := k.NewLock() // held by bottom, wanted by middle
	lB := k.NewLock() // held by middle, wanted by top

	bottomAcquiredB := k.NewSemaphore(0)
	middleAcquiredA := k.NewSemaphore(0)
	var bottomEffWhileBlocking int
	var proceed = k.NewSemaphore(0)

	_, err := k.ThreadCreate("bottom", 10, func(aux any) {
		lA.Acquire()
		middleAcquiredA.Up()
		proceed.Down()
		bottomEffWhileBlocking = k.Current().Priority()
		lA.Release()
	}, nil)
	require.NoError(t, err)

	_, err = k.ThreadCreate("middle", 20, func(aux any) {
		middleAcquiredA.Down()
		lB.Acquire()
		bottomAcquiredB.Up()
		lA.Acquire() // blocks on bottom, donating 20 (its base) upward
		lA.Release()
		lB.Release()
	}, nil)
	require.NoError(t, err)

	_, err = k.ThreadCreate("top", 40, func(aux any) {
		bottomAcquiredB.Down()
		lB.Acquire() // blocks on middle, donating 40, which must reach bottom
		lB.Release()
	}, nil)
	require.NoError(t, err)

	// ThreadCreate only returns once top has run up to its blocking point,
	// so top is already parked on lB, donating transitively down to
	// bottom, by the time control reaches here.
	proceed.Up()

	ok := pump(k, func() bool { return bottomEffWhileBlocking != 0 }, time.Second)
	require.True(t, ok)
	assert.Equal(t, 40, bottomEffWhileBlocking, "top's priority must propagate through middle down to bottom")
}

func TestLockMLFQSDegeneratesToSemaphore(t *testing.T) {
	cfg := DefaultBootConfig()
	cfg.MLFQS = true
	k := New(cfg)
	_, err := k.Start()
	require.NoError(t, err)

	l := k.NewLock()
	assert.True(t, l.TryAcquire())
	assert.True(t, l.HeldByCurrent())
	l.Release()
	assert.False(t, l.HeldByCurrent())
}
