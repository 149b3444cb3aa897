package kernel

import "github.com/opencore/threadcore/internal/dlist"

// readyQueue is the run-queue: one FIFO bucket per priority level
// (PriMin..PriMax), searched highest-first on pop (§4.1, "Data structure:
// 64-bucket array of FIFO queues, one per priority level 0..63, searched
// highest-first"). This gives O(1) push and O(PriMax) pop, which the spec
// prefers over a single priority-ordered list because re-priority-ing a
// thread already on the queue (donation, nice change, MLFQS recompute) is
// then just remove-and-reinsert into a different bucket rather than an
// in-place reorder.
type readyQueue struct {
	buckets [PriMax + 1]dlist.List[*Thread]
	size    int
}

// push places t at the back of its current effective-priority bucket.
func (q *readyQueue) push(t *Thread) {
	p := clampPriority(t.effectivePriority())
	t.queuedPriority = p
	q.buckets[p].PushBack(&t.schedElem, t)
	q.size++
}

// pop removes and returns the front thread of the highest non-empty
// bucket, or nil if the queue is empty.
func (q *readyQueue) pop() *Thread {
	for p := PriMax; p >= PriMin; p-- {
		if t, ok := q.buckets[p].PopFront(); ok {
			q.size--
			return t
		}
	}
	return nil
}

// remove unlinks t from whichever bucket it currently occupies, used when a
// waiting thread's priority changes while still on the ready queue (a
// donation can be revoked or a nice value changed before the thread is
// dispatched). It is a no-op if t is not queued.
func (q *readyQueue) remove(t *Thread) {
	if t.schedElem.Linked() {
		q.buckets[t.queuedPriority].Remove(&t.schedElem)
		q.size--
	}
}

// empty reports whether any thread is ready to run.
func (q *readyQueue) empty() bool { return q.size == 0 }

// len returns the number of ready (non-running) threads.
func (q *readyQueue) len() int { return q.size }

// highestReady reports the priority of the highest-priority ready thread,
// and whether one exists. Used by SetPriority/SetNice to decide whether a
// priority drop requires yielding (§4.1 edge case, §9 open question).
func (q *readyQueue) highestReady() (int, bool) {
	for p := PriMax; p >= PriMin; p-- {
		if !q.buckets[p].Empty() {
			return p, true
		}
	}
	return 0, false
}

func clampPriority(p int) int {
	if p < PriMin {
		return PriMin
	}
	if p > PriMax {
		return PriMax
	}
	return p
}
