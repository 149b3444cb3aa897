package kernel

import "golang.org/x/exp/slices"

// ThreadByTID looks up a live thread by its stable identity handle,
// returning nil if no such thread exists (including if it has already
// exited and been reclaimed). Grounded on the weak-pointer scavenging
// registry pattern the event loop uses to enumerate live timers: here the
// "registry" is simply the kernel's own all-threads list, since a TCB's
// lifetime is already scoped to the kernel that owns it.
func (k *Kernel) ThreadByTID(tid int32) *Thread {
	k.mu.Lock()
	defer k.mu.Unlock()
	var found *Thread
	k.allThreads.Each(func(t *Thread) {
		if found == nil && t.tid == tid {
			found = t
		}
	})
	return found
}

// Threads returns a snapshot of every thread currently known to the
// kernel, in creation order. Callers must not retain the result past a
// point where exited threads could be reclaimed.
func (k *Kernel) Threads() []*Thread {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]*Thread, 0, k.allThreads.Len())
	k.allThreads.Each(func(t *Thread) {
		out = append(out, t)
	})
	return out
}

// ThreadsByPriority returns the same snapshot as Threads, sorted by
// descending effective priority (ties broken by tid), for diagnostics
// surfaces where creation order is less useful than scheduling order --
// the same slices.SortFunc-over-a-snapshot pattern catrate's rate window
// uses to report its busiest events first.
func (k *Kernel) ThreadsByPriority() []*Thread {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]*Thread, 0, k.allThreads.Len())
	k.allThreads.Each(func(t *Thread) {
		out = append(out, t)
	})
	slices.SortFunc(out, func(a, b *Thread) int {
		pa, pb := a.effectivePriority(), b.effectivePriority()
		if pa != pb {
			return pb - pa
		}
		return int(a.tid - b.tid)
	})
	return out
}

// reapLocked removes every thread on the destruction list from all_threads,
// releasing the kernel's last reference to it. Called lazily by the next
// thread to dispatch through scheduleLocked, mirroring the source kernel's
// "a dying thread can't free its own stack" constraint -- here there's no
// stack to free, but the pattern (reclaim on someone else's behalf) is
// kept because a goroutine also cannot safely deregister itself mid-exit.
func (k *Kernel) reapLocked() {
	for {
		e := k.destructionList.Front()
		if e == nil {
			return
		}
		t := e.Value()
		k.destructionList.Remove(e)
		k.allThreads.Remove(&t.allElem)
	}
}
