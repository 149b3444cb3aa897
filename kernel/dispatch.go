package kernel

// This file is the rewritten equivalent of thread.c's dispatch half:
// thread_create, thread_block, thread_unblock, thread_yield, thread_exit,
// and schedule/switch_threads. The source implements a context switch with
// hand-written assembly that saves/restores registers on two different
// kernel stacks and never "returns" from the caller's point of view until
// the thread is rescheduled. This rewrite uses one goroutine per thread and
// an unbuffered channel (Thread.resume) as the rendezvous point: parking on
// that channel is the Go equivalent of switch_threads' stack swap, and
// waking from it is the equivalent of switch_threads "returning" into a
// different stack.
//
// The mutex (Kernel.mu) is the simulated interrupt mask. It is taken by
// whichever goroutine is logically "running" while that goroutine touches
// scheduler state (threads run their own code with it released), and it is
// passed, never simply released, across a context switch: the outgoing thread sends the resume
// signal and then unlocks; the incoming thread's first act on waking is to
// re-lock. Exactly one goroutine is ever unblocked and contending for the
// mutex at a time, so this never deadlocks and never races: every other
// thread is parked on its own unbuffered channel receive.

// Start brings up the kernel: it adopts the calling goroutine as the
// initial thread (named "main", priority PriDefault) and creates the idle
// thread, mirroring thread_init/thread_start's split (§6). It must be
// called exactly once, from the goroutine that will act as the initial
// thread, before any other Kernel method.
func (k *Kernel) Start() (*Thread, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.started {
		return nil, ErrAlreadyStarted
	}
	k.started = true

	main := newThread(k, k.nextTID(), "main", PriDefault, nil, nil)
	main.status = StatusRunning
	k.allThreads.PushBack(&main.allElem, main)
	k.current = main

	idle := newThread(k, k.nextTID(), "idle", PriMin, idleBody, k)
	k.allThreads.PushBack(&idle.allElem, idle)
	k.idle = idle
	k.startThreadGoroutine(idle)
	k.readyLocked(idle)

	logDebugf(CategoryDispatch, "kernel started")
	return main, nil
}

func (k *Kernel) nextTID() int32 {
	k.tidCounter++
	return k.tidCounter
}

// ThreadCreate allocates a new thread, places it on the ready queue, and --
// per thread_create's documented behavior -- yields immediately if the new
// thread's priority exceeds the caller's, since that's a thread-context
// unblock (§4.1, §9).
func (k *Kernel) ThreadCreate(name string, priority int, entry func(aux any), aux any) (*Thread, error) {
	if priority < PriMin || priority > PriMax {
		return nil, ErrInvalidPriority
	}
	if entry == nil {
		return nil, ErrAllocFailed
	}
	k.mu.Lock()
	if !k.started {
		k.mu.Unlock()
		return nil, ErrNotStarted
	}
	t := newThread(k, k.nextTID(), name, priority, entry, aux)
	k.allThreads.PushBack(&t.allElem, t)
	k.startThreadGoroutine(t)
	preempt := k.readyLocked(t)
	logDispatch(k, CategoryDispatch, "thread_create", t, nil)
	if preempt {
		k.yieldLocked()
		return t, nil
	}
	k.mu.Unlock()
	return t, nil
}

// startThreadGoroutine launches t's goroutine body. The goroutine parks
// immediately, waiting for its first dispatch; on waking it re-acquires
// and immediately releases k.mu (mirroring every other resume point: the
// lock is only ever held transiently across the handoff itself, never for
// the duration of a thread's ordinary execution) before running the
// thread's entry function.
func (k *Kernel) startThreadGoroutine(t *Thread) {
	go func() {
		<-t.resume
		k.mu.Lock()
		k.mu.Unlock()
		t.entry(t.aux)
		k.Exit()
	}()
}

// readyLocked transitions t to Ready and enqueues it, called with k.mu
// held. It reports whether t's priority now exceeds the current thread's,
// i.e. whether a thread-context caller should yield immediately.
func (k *Kernel) readyLocked(t *Thread) bool {
	t.status = StatusReady
	k.ready.push(t)
	k.metrics.observeReadyDepth(k.ready.len())
	return k.current != nil && t.effectivePriority() > k.current.effectivePriority()
}

// Unblock moves t from Blocked to Ready (thread_unblock). The caller must
// have already removed t from whatever wait set it was parked in. If
// called from thread context and t now outranks the running thread, it
// yields immediately (§4.1: "directly if called from thread context").
func (k *Kernel) Unblock(t *Thread) {
	k.mu.Lock()
	if t.status != StatusBlocked {
		fatalf("thread: Unblock of non-blocked thread %d", t.tid)
	}
	t.checkMagic()
	preempt := k.readyLocked(t)
	logDispatch(k, CategoryDispatch, "thread_unblock", t, nil)
	if preempt && !k.inTick {
		k.yieldLocked()
		return
	}
	if preempt {
		k.deferredYield = true
	}
	k.mu.Unlock()
}

// Block transitions the calling thread to Blocked and relinquishes the
// CPU. The caller must have already linked the current thread onto the
// relevant wait list (a semaphore's waiters, a lock's waiters, the sleep
// list) before calling Block.
func (k *Kernel) Block() {
	k.mu.Lock()
	k.current.status = StatusBlocked
	logDispatch(k, CategorySleep, "thread_block", k.current, nil)
	k.scheduleLocked()
	k.mu.Unlock()
}

// Yield returns the calling thread to Ready and dispatches the next
// highest-priority ready thread, possibly itself again if it remains the
// highest priority (thread_yield).
func (k *Kernel) Yield() {
	k.mu.Lock()
	k.yieldLocked()
}

// yieldLocked is Yield's body for callers that already hold k.mu. It
// always releases k.mu before returning, including across the scheduling
// handoff; every caller must treat it as ending their locked section.
func (k *Kernel) yieldLocked() {
	cur := k.current
	k.readyLocked(cur)
	logDispatch(k, CategoryDispatch, "thread_yield", cur, nil)
	k.scheduleLocked()
	k.mu.Unlock()
}

// Exit marks the calling thread Dying and hands the CPU to whoever is
// next. It returns, like any other Go function, but the goroutine it
// returns into has nothing left to do: nothing will ever dispatch this
// thread again, so the goroutine body that called Exit simply ends.
// scheduleLocked releases k.mu on the dying-thread path itself, so Exit
// must not unlock again.
func (k *Kernel) Exit() {
	k.mu.Lock()
	k.current.status = StatusDying
	logDispatch(k, CategoryDispatch, "thread_exit", k.current, nil)
	k.scheduleLocked()
}

// scheduleLocked is the rewritten switch_threads/schedule pair. It must be
// called with k.mu held and current thread status already updated
// (Ready/Blocked/Dying). It selects the next thread to run, hands off the
// CPU, and -- for threads other than the one calling Exit -- blocks until
// rescheduled, re-acquiring k.mu before returning.
func (k *Kernel) scheduleLocked() {
	k.reapLocked()

	old := k.current
	next := k.ready.pop()
	if next == nil {
		// The idle thread is always either running or ready; reaching here
		// means neither holds, which is a scheduler invariant violation.
		fatalf("thread: scheduleLocked: no ready thread available")
	}
	next.checkMagic()
	next.status = StatusRunning
	k.current = next

	if old.status == StatusDying {
		k.destructionList.PushBack(&old.schedElem, old)
	}

	k.ticksSinceYield = 0

	if next == old {
		// Only possible if old re-enqueued itself and was immediately
		// re-selected (the sole-ready-thread case): no real handoff needed.
		return
	}

	next.resume <- struct{}{}
	k.mu.Unlock()

	if old.status == StatusDying {
		// This goroutine is ending; never park, never re-lock.
		return
	}

	<-old.resume
	k.mu.Lock()
}

// GetPriority returns the calling thread's own effective priority
// (thread_get_priority with an implicit "current thread" receiver).
func (k *Kernel) GetPriority() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.current.effectivePriority()
}

// SetPriority sets the calling thread's base priority (thread_set_priority).
// In MLFQS mode an in-range value is silently ignored (nil is returned and
// nothing changes), since nice and recent_cpu fully determine priority there.
func (k *Kernel) SetPriority(priority int) error {
	if priority < PriMin || priority > PriMax {
		return ErrInvalidPriority
	}
	k.mu.Lock()
	if k.mlfqs {
		k.mu.Unlock()
		return nil
	}
	cur := k.current
	old := cur.effectivePriority()
	cur.basePriority = priority
	now := cur.effectivePriority()
	logDispatch(k, CategoryDispatch, "thread_set_priority", cur, map[string]int{"old": old, "new": now})
	if now < old {
		if hp, ok := k.ready.highestReady(); ok && hp > now {
			k.yieldLocked()
			return nil
		}
	}
	k.mu.Unlock()
	return nil
}

// GetNice returns the calling thread's niceness (thread_get_nice).
func (k *Kernel) GetNice() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.current.nice
}

// SetNice sets the calling thread's niceness and immediately recomputes its
// MLFQS priority, yielding if it no longer holds the highest priority
// (thread_set_nice, §4.6).
func (k *Kernel) SetNice(nice int) error {
	if nice < -20 || nice > 20 {
		return ErrInvalidNice
	}
	k.mu.Lock()
	cur := k.current
	cur.nice = nice
	if k.mlfqs {
		recomputePriority(cur)
	}
	if hp, ok := k.ready.highestReady(); ok && hp > cur.effectivePriority() {
		k.yieldLocked()
		return nil
	}
	k.mu.Unlock()
	return nil
}
