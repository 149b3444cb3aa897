package kernel

import "github.com/opencore/threadcore/internal/dlist"

// Cond is a Mesa-semantics condition variable (§4.5), grounded on
// synch.c's cond_init/cond_wait/cond_signal/cond_broadcast. Each waiter
// gets its own private binary semaphore (a "semaphore_elem" in the
// source), so Signal can wake exactly one waiter without the thundering
// herd a single shared semaphore would cause, and so waiters can be
// ordered by priority at signal time rather than FIFO.
type Cond struct {
	k       *Kernel
	waiters dlist.List[*condWaiter]
}

type condWaiter struct {
	elem     dlist.Elem[*condWaiter]
	gate     *Semaphore
	priority int // snapshotted at Wait time; see Signal's doc comment
}

// NewCond constructs an unwatched condition variable.
func (k *Kernel) NewCond() *Cond {
	return &Cond{k: k}
}

// Wait atomically releases l and blocks the calling thread until signaled,
// then reacquires l before returning (cond_wait). l must be held by the
// caller. Mesa semantics: a woken waiter only gets a chance to recheck its
// condition, it is not guaranteed the condition still holds by the time it
// resumes, so callers must loop on their predicate.
func (c *Cond) Wait(l *Lock) {
	w := &condWaiter{gate: c.k.NewSemaphore(0)}

	c.k.mu.Lock()
	w.priority = c.k.current.effectivePriority()
	c.waiters.PushBack(&w.elem, w)
	c.k.mu.Unlock()

	l.Release()
	w.gate.Down()
	l.Acquire()
}

// Signal wakes the highest-priority waiter, if any (cond_signal). Priority
// is the snapshot taken when that thread called Wait: §9 records this as a
// deliberate choice to preserve the source kernel's non-reordering
// behavior rather than re-ranking waiters against donations they've
// received since parking, which cond_signal never does either.
func (c *Cond) Signal() {
	c.k.mu.Lock()
	w, ok := c.waiters.Max(func(a, b *condWaiter) bool {
		return a.priority > b.priority
	})
	c.k.mu.Unlock()
	if !ok {
		return
	}
	w.gate.Up()
}

// Broadcast wakes every waiter, highest priority first (cond_broadcast).
func (c *Cond) Broadcast() {
	for {
		c.k.mu.Lock()
		if c.waiters.Empty() {
			c.k.mu.Unlock()
			return
		}
		c.k.mu.Unlock()
		c.Signal()
	}
}
