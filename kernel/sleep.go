package kernel

// Sleep blocks the calling thread until at least ticks timer ticks have
// elapsed (timer_sleep). It is a thin busy-free replacement for the
// original's spin-loop implementation: the thread links itself onto the
// sleep list in ascending wakeup-tick order and blocks, to be woken by
// Tick's wakeup scan (§4.2).
func (k *Kernel) Sleep(ticks int64) {
	if ticks <= 0 {
		return
	}
	k.mu.Lock()
	cur := k.current
	cur.wakeupTick = k.ticks + uint64(ticks)
	k.sleepList.InsertSorted(&cur.schedElem, cur, func(a, b *Thread) bool {
		return a.wakeupTick < b.wakeupTick
	})
	cur.status = StatusBlocked
	logDispatch(k, CategorySleep, "timer_sleep", cur, map[string]int{"ticks": int(ticks)})
	k.scheduleLocked()
	k.mu.Unlock()
}

// wakeLocked scans the front of the sleep list -- which is kept in
// ascending wakeup-tick order, so it can stop at the first thread not yet
// due -- and unblocks everyone whose wakeup tick has arrived. Called from
// Tick with k.mu held.
func (k *Kernel) wakeLocked() {
	for {
		e := k.sleepList.Front()
		if e == nil {
			return
		}
		t := e.Value()
		if t.wakeupTick > k.ticks {
			return
		}
		k.sleepList.Remove(e)
		preempt := k.readyLocked(t)
		logDispatch(k, CategorySleep, "timer_wake", t, nil)
		if preempt {
			k.deferredYield = true
		}
	}
}
