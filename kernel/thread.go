package kernel

import (
	"github.com/opencore/threadcore/internal/dlist"
	"github.com/opencore/threadcore/internal/fixedpoint"
)

// threadMagic guards against stack overflow the way the source kernel's
// THREAD_MAGIC canary does: it is written once at the base of a thread's
// (simulated) stack region and checked on status transitions. Since this
// rewrite doesn't allocate raw stack memory (Go manages goroutine stacks),
// the canary instead guards against use of a Thread value that was never
// initialized through newThread, which is the failure mode that survives
// the translation.
const threadMagic = 0xcd6abf4b

// maxNameLen bounds a thread's name to 15 characters plus NUL, matching the
// source kernel's fixed-size name buffer.
const maxNameLen = 15

// Thread is the thread control block (§3). All fields are only ever
// mutated under the owning Kernel's interrupt mask; see Kernel.mu in
// kernel.go.
type Thread struct {
	magic uint32

	tid  int32
	name string

	status Status

	// Strict-priority scheduling.
	basePriority int // last value set by SetPriority (or the create-time value)
	donors       dlist.List[*Thread]
	waitingFor   *Lock // the lock this thread is blocked trying to acquire, if any

	// Linkage. A thread is a member of at most one scheduling queue
	// (ready/sleep/semaphore-waiters/lock-waiters) via schedElem, and at
	// most one donor set via donorElem -- two distinct nodes, per the
	// invariant in §3.
	schedElem dlist.Elem[*Thread]
	donorElem dlist.Elem[*Thread]
	allElem   dlist.Elem[*Thread]

	// queuedPriority is the bucket the ready queue last pushed this thread
	// into, recorded because donation can change effectivePriority() after
	// the push, which would otherwise make the pop-time bucket lookup miss.
	queuedPriority int

	// Timed sleep.
	wakeupTick uint64

	// MLFQS.
	nice      int
	recentCPU fixedpoint.Fixed

	// Machine state: the source's switch_context saves/restores registers
	// on a real stack; here the "saved context" is simply "parked on a
	// channel", and resume is the rendezvous point standing in for
	// switch_context's return. See dispatch.go.
	resume chan struct{}

	entry func(aux any)
	aux   any

	k *Kernel
}

// newThread allocates and initializes a TCB. It never returns nil; the
// sentinel-error path lives in ThreadCreate, which is where the source
// kernel's actual allocation (of a stack page) can fail.
func newThread(k *Kernel, tid int32, name string, priority int, entry func(aux any), aux any) *Thread {
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	t := &Thread{
		magic:        threadMagic,
		tid:          tid,
		name:         name,
		status:       StatusBlocked, // placed on ready queue by the caller
		basePriority: priority,
		resume:       make(chan struct{}),
		entry:        entry,
		aux:          aux,
		k:            k,
	}
	// Inherit nice/recent_cpu from the creating thread (§4.6), except for
	// the bootstrap thread itself: Start creates "main" before k.current is
	// set, and the source kernel starts it at nice=0, recent_cpu=0 rather
	// than inheriting from anything (§3).
	if k.mlfqs && k.current != nil {
		t.nice = k.current.nice
		t.recentCPU = k.current.recentCPU
	}
	return t
}

// checkMagic asserts the canary is intact, the rewritten equivalent of the
// source's ASSERT(is_thread(t)) calls sprinkled through thread.c.
func (t *Thread) checkMagic() {
	if t == nil || t.magic != threadMagic {
		fatalf("thread: corrupt or uninitialized TCB")
	}
}

// effectivePriority computes max(base_priority, max donor effective
// priority), per the invariant in §3. Donors is kept sorted by descending
// effective priority as of insertion time (for FIFO-stable iteration order),
// but since donations can change after insertion, this always recomputes
// the max fresh rather than trusting sort order.
func (t *Thread) effectivePriority() int {
	best := t.basePriority
	t.donors.Each(func(d *Thread) {
		if p := d.effectivePriority(); p > best {
			best = p
		}
	})
	return best
}

// TID returns the thread's stable identity handle.
func (t *Thread) TID() int32 { return t.tid }

// Name returns the thread's (possibly truncated) name.
func (t *Thread) Name() string { return t.name }

// Status returns the thread's current status.
func (t *Thread) Status() Status { return t.status }

// Priority returns the thread's effective priority (thread_get_priority).
// In MLFQS mode this is the MLFQS-computed priority; in strict-priority
// mode it includes any active donation.
func (t *Thread) Priority() int { return t.effectivePriority() }

// BasePriority returns the last user-set priority (floor for donation),
// ignoring any active donation.
func (t *Thread) BasePriority() int { return t.basePriority }

// Nice returns the thread's MLFQS niceness.
func (t *Thread) Nice() int { return t.nice }

// RecentCPU returns the thread's recent_cpu, scaled by 100 and rounded,
// per thread_get_recent_cpu.
func (t *Thread) RecentCPU() int { return t.recentCPU.Scale100Round() }
