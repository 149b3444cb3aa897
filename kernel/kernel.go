package kernel

import (
	"sync"

	"github.com/opencore/threadcore/internal/dlist"
	"github.com/opencore/threadcore/internal/fixedpoint"
)

// Priority constants (§6), bit-exact with the source kernel.
const (
	PriMin     = 0
	PriDefault = 31
	PriMax     = 63
)

// TimeSlice is TIME_SLICE: ticks before the running thread is charged a
// preemption (§4.1).
const TimeSlice = 4

// TimerFreq is the default TIMER_FREQ in Hz (§6).
const TimerFreq = 100

// Kernel is the scheduler singleton: the run-queue, sleep list, all-threads
// list, and the handful of scalars (§3 "Global state") that every
// operation in this package implicitly shares. The source kernel models
// this as module-level static variables in thread.c/timer.c; this rewrite
// follows the design note in §9 and makes it an explicit struct, since a
// package-level singleton would make it impossible to run more than one
// scheduler instance per process (useful for tests that want isolation).
type Kernel struct {
	// mu is the sole mutual-exclusion mechanism for scheduler state,
	// standing in for the source's intr_disable/intr_set_level pairs: on a
	// single real CPU, masking interrupts is sufficient because nothing
	// else can run concurrently. Go threads are real OS threads, so a
	// mutex is what actually provides that guarantee here; it is held for
	// the entire span the source would have interrupts masked, including
	// across a context switch -- see dispatch.go for why that's safe.
	mu sync.Mutex

	cfg BootConfig

	mlfqs bool

	ready           readyQueue
	sleepList       dlist.List[*Thread]
	destructionList dlist.List[*Thread]
	allThreads      dlist.List[*Thread]

	tidCounter int32
	loadAvg    fixedpoint.Fixed
	ticks      uint64

	ticksSinceYield int
	deferredYield   bool
	inTick          bool

	current *Thread
	idle    *Thread

	started bool

	metrics *Metrics
}

// New constructs a Kernel from a boot configuration. It must be followed by
// Start before any thread may be created, mirroring the source
// kernel's two-phase thread_init/thread_start split (§6).
func New(cfg BootConfig) *Kernel {
	return &Kernel{
		cfg:     cfg,
		mlfqs:   cfg.MLFQS,
		metrics: newMetrics(),
	}
}

// MLFQS reports whether this kernel instance is running the multi-level
// feedback queue scheduler rather than strict priority with donation.
func (k *Kernel) MLFQS() bool { return k.mlfqs }

// Ticks returns the monotonic tick counter (timer_ticks), reading it under
// the interrupt mask as the source requires.
func (k *Kernel) Ticks() uint64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.ticks
}

// Current returns the calling thread's own TCB (thread_current). It must
// only be called from within a thread body running under this Kernel.
func (k *Kernel) Current() *Thread {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.current
}

// LoadAvg returns the system load average, scaled by 100 and rounded
// (thread_get_load_avg). Zero in strict-priority mode.
func (k *Kernel) LoadAvg() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.loadAvg.Scale100Round()
}

// Metrics returns the kernel's live metrics snapshot.
func (k *Kernel) Metrics() MetricsSnapshot {
	return k.metrics.Snapshot()
}
