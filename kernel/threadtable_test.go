package kernel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadsSnapshotIncludesMainAndIdle(t *testing.T) {
	k, main := newTestKernel(t)
	names := map[string]bool{}
	for _, th := range k.Threads() {
		names[th.Name()] = true
	}
	assert.True(t, names["main"])
	assert.True(t, names["idle"])
	assert.Same(t, main, k.ThreadByTID(main.TID()))
}

func TestThreadsByPrioritySortsDescending(t *testing.T) {
	k, _ := newTestKernel(t)
	require.NoError(t, k.SetPriority(5))
	_, err := k.ThreadCreate("a", 50, func(aux any) {}, nil)
	require.NoError(t, err)

	out := k.ThreadsByPriority()
	require.GreaterOrEqual(t, len(out), 2)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Priority(), out[i].Priority())
	}
}

func TestThreadByTIDUnknownIsNil(t *testing.T) {
	k, _ := newTestKernel(t)
	assert.Nil(t, k.ThreadByTID(9999))
}

func TestExitedThreadIsReapedEventually(t *testing.T) {
	k, _ := newTestKernel(t)
	var done bool
	child, err := k.ThreadCreate("child", PriDefault, func(aux any) {
		done = true
	}, nil)
	require.NoError(t, err)
	tid := child.TID()

	ok := pump(k, func() bool { return done }, time.Second)
	require.True(t, ok)

	// Reclamation happens lazily on the next schedule pass, not
	// synchronously at Exit; give it one more.
	k.Yield()
	assert.Nil(t, k.ThreadByTID(tid))

	for _, th := range k.Threads() {
		assert.NotEqual(t, tid, th.TID())
	}
}
