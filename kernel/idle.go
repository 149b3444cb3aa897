package kernel

// idleBody is the idle thread's entry point (idle_thread in thread.c): it
// never blocks on any real wait condition, it just repeatedly gives up the
// CPU. It exists only so the ready queue is never truly empty, which
// simplifies scheduleLocked: there is always at least one thread to
// dispatch. aux is the owning Kernel, passed at creation time in Start.
func idleBody(aux any) {
	k := aux.(*Kernel)
	for {
		k.Yield()
	}
}
