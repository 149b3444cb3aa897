package kernel

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by kernel entry points. Invariant violations
// (double-acquire, release by non-owner, blocking from interrupt context,
// bad thread magic) are never returned as errors: they are programming bugs
// in kernel code and are reported by panicking with a diagnostic, the same
// way the source kernel prints a backtrace and halts.
var (
	// ErrAllocFailed is returned by ThreadCreate, paired with a nil *Thread,
	// when the new thread cannot be set up; the only such case is a nil
	// entry function, since Go itself manages goroutine stacks. It is the
	// rewritten equivalent of the source's TID_ERROR return, which this API
	// has no separate need for since Go lets the failure be reported through
	// the return value itself.
	ErrAllocFailed = errors.New("kernel: thread_create: allocation failed")

	// ErrNotStarted is returned when a kernel operation is attempted before
	// Start has been called.
	ErrNotStarted = errors.New("kernel: scheduler not started")

	// ErrAlreadyStarted is returned by Start when called more than once.
	ErrAlreadyStarted = errors.New("kernel: scheduler already started")

	// ErrInvalidNice is returned by SetNice when n is outside [-20, 20].
	ErrInvalidNice = errors.New("kernel: nice out of range")

	// ErrInvalidPriority is returned by ThreadCreate/SetPriority when the
	// priority is outside [PRI_MIN, PRI_MAX].
	ErrInvalidPriority = errors.New("kernel: priority out of range")
)

// fatalf reports an invariant violation the way the source kernel's PANIC
// does: print a diagnostic and halt. Unlike a returned error, callers are
// never expected to recover from this; it indicates a bug in kernel code
// itself, not in caller input.
func fatalf(format string, args ...any) {
	panic(kernelPanic{msg: fmt.Sprintf(format, args...)})
}

// kernelPanic distinguishes an asserted kernel invariant violation from an
// arbitrary panic, so tests can assert on it specifically via errors.As-style
// type switches on recover().
type kernelPanic struct{ msg string }

func (p kernelPanic) Error() string { return p.msg }
