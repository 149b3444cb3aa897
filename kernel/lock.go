package kernel

// Lock is a binary lock with nested priority donation (§4.4), grounded on
// thread.c's lock_acquire/lock_release plus sync.c's lock_init.
//
// In MLFQS mode donation is meaningless (priority is entirely a function
// of recent_cpu and nice) and the lock degenerates exactly to a semaphore
// of initial value 1 (waking the highest-priority waiter, FIFO among
// equals), so that codepath is a thin wrapper around
// Semaphore. In strict-priority mode, per §9's open question, lock_acquire
// deliberately does not go through the semaphore at all: the thread
// releasing the lock selects the next holder and assigns it directly,
// rather than the woken thread re-acquiring by decrementing a counter.
// This is what makes the handoff exact -- there is never a window where
// the lock looks unheld between one owner releasing and the next
// acquiring it.
type Lock struct {
	k      *Kernel
	mlfqs  bool
	sema   *Semaphore // used only when mlfqs is true
	waiters waiterList // used only when mlfqs is false
	holder *Thread
}

// maxDonationChain bounds how far a single Acquire call walks the
// wait-for chain to re-bucket ready threads after a donation, matching the
// source kernel's own depth limit on nested donation.
const maxDonationChain = 8

// NewLock constructs an unheld lock, fixing its donation mode to the
// kernel's current scheduling policy for its entire lifetime.
func (k *Kernel) NewLock() *Lock {
	l := &Lock{k: k, mlfqs: k.mlfqs}
	if l.mlfqs {
		l.sema = k.NewSemaphore(1)
	}
	return l
}

// HeldByCurrent reports whether the calling thread holds l.
func (l *Lock) HeldByCurrent() bool {
	l.k.mu.Lock()
	defer l.k.mu.Unlock()
	return l.holder == l.k.current
}

// Acquire blocks until l is free, then takes it (lock_acquire). In
// strict-priority mode, if l is already held, the calling thread donates
// its effective priority to the holder (and transitively, through the
// holder's own donors, to whatever that holder may itself be waiting on,
// since effective priority is computed recursively) before blocking.
func (l *Lock) Acquire() {
	k := l.k
	if l.mlfqs {
		k.mu.Lock()
		if l.holder == k.current {
			fatalf("lock: thread %d acquiring a lock it already holds", k.current.tid)
		}
		k.mu.Unlock()
		l.sema.Down()
		k.mu.Lock()
		l.holder = k.current
		k.mu.Unlock()
		return
	}

	k.mu.Lock()
	cur := k.current
	if l.holder == cur {
		fatalf("lock: thread %d acquiring a lock it already holds", cur.tid)
	}
	if l.holder == nil {
		l.holder = cur
		k.mu.Unlock()
		return
	}

	cur.waitingFor = l
	l.holder.donors.InsertSorted(&cur.donorElem, cur, func(a, b *Thread) bool {
		return a.effectivePriority() > b.effectivePriority()
	})
	logDispatch(k, CategoryDonation, "lock_acquire:donate", cur, map[string]int{"to": int(l.holder.tid)})
	k.rebucketChainLocked(l.holder)

	l.waiters.push(cur)
	cur.status = StatusBlocked
	logDispatch(k, CategoryDonation, "lock_acquire:block", cur, nil)
	k.scheduleLocked()
	// Release set l.holder = cur directly before unblocking it; nothing
	// left to do here but release the lock we reacquired on resume.
	k.mu.Unlock()
}

// TryAcquire takes l without blocking, reporting whether it succeeded
// (lock_try_acquire). It never donates, matching the source kernel: a
// thread that merely probes a lock isn't queued up waiting for it.
func (l *Lock) TryAcquire() bool {
	k := l.k
	if l.mlfqs {
		if !l.sema.TryDown() {
			return false
		}
		k.mu.Lock()
		l.holder = k.current
		k.mu.Unlock()
		return true
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if l.holder != nil {
		return false
	}
	l.holder = k.current
	return true
}

// Release gives up l (lock_release). In MLFQS mode this is a plain
// semaphore up. In strict-priority mode, it withdraws any donations this
// lock was responsible for and, if anyone is waiting, transfers ownership
// directly to the highest-priority waiter rather than merely unblocking
// it and letting it race to re-acquire.
func (l *Lock) Release() {
	k := l.k
	if l.mlfqs {
		k.mu.Lock()
		if l.holder != k.current {
			fatalf("lock: Release by non-owner thread %d", k.current.tid)
		}
		l.holder = nil
		k.mu.Unlock()
		l.sema.Up()
		return
	}

	k.mu.Lock()
	if l.holder != k.current {
		fatalf("lock: Release by non-owner thread %d", k.current.tid)
	}
	withdrawDonationsFor(l.holder, l)
	logDispatch(k, CategoryDonation, "lock_release", l.holder, nil)

	next := l.waiters.popHighest()
	if next == nil {
		l.holder = nil
		k.mu.Unlock()
		return
	}
	next.waitingFor = nil
	l.holder = next
	preempt := k.readyLocked(next)
	logDispatch(k, CategoryDonation, "lock_release:transfer", next, nil)
	if preempt && !k.inTick {
		k.yieldLocked()
		return
	}
	if preempt {
		k.deferredYield = true
	}
	k.mu.Unlock()
}

// withdrawDonationsFor removes from holder's donor set every thread that
// was waiting specifically for l, since their donation no longer applies
// once l is released. Donations from other locks holder may still be
// holding are left untouched.
func withdrawDonationsFor(holder *Thread, l *Lock) {
	e := holder.donors.Front()
	for e != nil {
		next := e.Next()
		if e.Value().waitingFor == l {
			holder.donors.Remove(e)
		}
		e = next
	}
}

// rebucketChainLocked walks the wait-for chain starting at t (t is blocked
// waiting on some lock, or not blocked at all) and, for any thread in the
// chain that is sitting on the ready queue, re-buckets it: effectivePriority
// is always computed fresh, so the ready queue's bucket array is the only
// stale cache a donation can leave behind.
func (k *Kernel) rebucketChainLocked(t *Thread) {
	for i := 0; t != nil && i < maxDonationChain; i++ {
		if t.status == StatusReady && t.schedElem.Linked() {
			k.ready.remove(t)
			k.ready.push(t)
		}
		if t.waitingFor == nil {
			return
		}
		t = t.waitingFor.holder
	}
}
