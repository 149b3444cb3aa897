package kernel

import "github.com/opencore/threadcore/internal/dlist"

// waiterList is the FIFO set used by semaphores, locks, and condvars to
// hold blocked threads. It links through Thread.schedElem, which is always
// free to reuse here because a blocked thread is never simultaneously
// linked into the ready queue or the sleep list.
type waiterList struct {
	list dlist.List[*Thread]
}

func (w *waiterList) push(t *Thread) {
	w.list.PushBack(&t.schedElem, t)
}

func (w *waiterList) empty() bool { return w.list.Empty() }

func (w *waiterList) len() int { return w.list.Len() }

// popHighest removes and returns the waiter with the greatest current
// effective priority, breaking ties in FIFO order, or nil if no one is
// waiting. This is the re-selection behavior §4.3/§4.4 require: a waiter's
// priority can rise via donation after it started waiting, so the set must
// be re-examined at wake time rather than trusting insertion order.
func (w *waiterList) popHighest() *Thread {
	t, ok := w.list.Max(func(a, b *Thread) bool {
		return a.effectivePriority() > b.effectivePriority()
	})
	if !ok {
		return nil
	}
	return t
}
