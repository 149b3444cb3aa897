package kernel

import "github.com/opencore/threadcore/internal/fixedpoint"

// This file is the rewritten thread.c MLFQS half: the three accounting
// formulas from §4.6, evaluated at the three cadences the timer interrupt
// drives them at (every tick, every TimeSlice ticks, every TimerFreq
// ticks). All arithmetic goes through internal/fixedpoint, which is
// bit-exact with the source kernel's 17.14 fixed-point representation --
// required here, since recent_cpu and load_avg are specified as exact
// fixed-point quantities, not merely "roughly decaying averages".

var (
	fp59  = fixedpoint.FromInt(59).Div(fixedpoint.FromInt(60))
	fp159 = fixedpoint.FromInt(1).Div(fixedpoint.FromInt(60))
)

// recomputeLoadAvgAndDecayLocked runs once per second of ticks (§4.6):
//
//	load_avg = (59/60) * load_avg + (1/60) * ready_threads
//
// where ready_threads counts the running thread (unless it's idle) plus
// everyone on the ready queue other than the idle thread, which waits there
// whenever it is not running. It must run before recentCPU is decayed for
// every thread, since the decay formula below reads the just-updated
// load_avg.
func (k *Kernel) recomputeLoadAvgAndDecayLocked() {
	readyThreads := k.ready.len()
	if k.idle != nil && k.idle.status == StatusReady {
		readyThreads--
	}
	if k.current != k.idle {
		readyThreads++
	}
	k.loadAvg = fp59.Mul(k.loadAvg).Add(fp159.MulInt(readyThreads))

	decay := fixedpoint.FromInt(2).Mul(k.loadAvg).Div(
		fixedpoint.FromInt(2).Mul(k.loadAvg).AddInt(1),
	)
	k.allThreads.Each(func(t *Thread) {
		t.recentCPU = decay.Mul(t.recentCPU).AddInt(t.nice)
		if t == k.idle {
			t.recentCPU = fixedpoint.Fixed(0)
		}
	})
	logDebugf(CategoryMLFQS, "load_avg/recent_cpu recomputed")
}

// recomputePriority sets t's MLFQS priority (§4.6):
//
//	priority = PRI_MAX - (recent_cpu / 4) - (nice * 2)
//
// clamped to [PriMin, PriMax]. recent_cpu/4 is truncated to an integer
// before the subtraction, not rounded as part of the whole expression --
// the source kernel computes this with a truncating integer division
// baked into its fixed-point div, and rounding the combined expression
// instead gives the wrong answer whenever recent_cpu/4 has a fractional
// remainder (e.g. recent_cpu=14.4 must floor to 3, not round to 4). It
// does not reposition t on the ready queue; callers that need that call
// recomputeAllPrioritiesLocked instead.
func recomputePriority(t *Thread) {
	recentCPU4 := t.recentCPU.DivInt(4).ToIntTrunc()
	p := PriMax - recentCPU4 - t.nice*2
	if p < PriMin {
		p = PriMin
	}
	if p > PriMax {
		p = PriMax
	}
	t.basePriority = p
}

// recomputeAllPrioritiesLocked runs every TimeSlice ticks (§4.6): it
// recomputes every thread's MLFQS priority and re-buckets any that are
// currently sitting on the ready queue, since their bucket may now be
// stale.
func (k *Kernel) recomputeAllPrioritiesLocked() {
	k.allThreads.Each(func(t *Thread) {
		if t == k.idle {
			return
		}
		wasReady := t.status == StatusReady && t.schedElem.Linked()
		if wasReady {
			k.ready.remove(t)
		}
		recomputePriority(t)
		if wasReady {
			k.ready.push(t)
		}
	})
	if k.current != nil && k.current != k.idle {
		recomputePriority(k.current)
	}
	logDebugf(CategoryMLFQS, "priorities recomputed")
}
