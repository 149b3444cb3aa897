package kernel

// Semaphore is a classic counting semaphore (§4.3), grounded directly on
// thread.c's sema_init/sema_down/sema_try_down/sema_up. Waiters block on
// the owning Kernel's scheduler rather than spinning with interrupts
// disabled, but the waiter set is the same intrusive FIFO list, and Up
// re-selects the highest *current* effective priority waiter rather than
// simply popping FIFO, since a waiter's priority may have changed (via
// donation) after it started waiting.
type Semaphore struct {
	k       *Kernel
	value   int
	waiters Waiters
}

// Waiters is the intrusive wait set shared by semaphores, locks, and
// condition variables: a thread parked on one of these is linked in via
// its own schedElem, safe because a blocked thread is never simultaneously
// on the ready queue or sleep list.
type Waiters = waiterList

// NewSemaphore constructs a semaphore with the given initial value.
func (k *Kernel) NewSemaphore(value int) *Semaphore {
	return &Semaphore{k: k, value: value}
}

// Down decrements the semaphore, blocking the calling thread while the
// value is zero (sema_down).
func (s *Semaphore) Down() {
	k := s.k
	k.mu.Lock()
	for s.value == 0 {
		cur := k.current
		s.waiters.push(cur)
		cur.status = StatusBlocked
		logDispatch(k, CategoryDonation, "sema_down:block", cur, nil)
		k.scheduleLocked()
	}
	s.value--
	k.mu.Unlock()
}

// TryDown decrements the semaphore without blocking, reporting whether it
// succeeded (sema_try_down).
func (s *Semaphore) TryDown() bool {
	k := s.k
	k.mu.Lock()
	defer k.mu.Unlock()
	if s.value == 0 {
		return false
	}
	s.value--
	return true
}

// Up increments the semaphore and, if any thread is waiting, wakes the one
// with the highest current effective priority (sema_up). If called from
// thread context and the woken thread now outranks the caller, it yields
// immediately.
func (s *Semaphore) Up() {
	k := s.k
	k.mu.Lock()
	s.value++
	woken := s.waiters.popHighest()
	if woken == nil {
		k.mu.Unlock()
		return
	}
	preempt := k.readyLocked(woken)
	logDispatch(k, CategoryDonation, "sema_up:wake", woken, nil)
	if preempt && !k.inTick {
		k.yieldLocked()
		return
	}
	if preempt {
		k.deferredYield = true
	}
	k.mu.Unlock()
}
