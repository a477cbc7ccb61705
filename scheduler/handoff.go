package scheduler

// handoff re-expresses spec.md §4.1's ContextSwitch (manual register/stack
// swap) in terms Go actually supports. Go exposes no manual stack-switch
// primitive and deliberately offers no API to suspend one goroutine and run
// another on demand — the runtime scheduler owns that decision. The nearest
// faithful equivalent, used by other_examples/dbca1385_thanhhungg97-jvm__runtime-fiber_native.go.go,
// is to give every fiber its own persistent goroutine and synchronize the
// "switch to it" / "switch back" moments with a pair of unbuffered,
// rendezvous channels: sending on resume blocks the worker until the fiber
// goroutine has received it (the fiber "becomes live"), and sending on
// yield blocks the fiber until the worker has received it (the fiber "goes
// dormant"). Exactly one side is ever runnable at a time, which is the
// property ContextSwitch guarantees on the original call stack.
type handoff struct {
	resume chan struct{}
	yield  chan struct{}
}

func newHandoff() handoff {
	return handoff{
		resume: make(chan struct{}),
		yield:  make(chan struct{}),
	}
}

// awaitResume is called on the fiber's own goroutine; it blocks until a
// worker hands control to it.
func (h handoff) awaitResume() {
	<-h.resume
}

// yieldToWorker is called on the fiber's own goroutine when it finishes or
// suspends; it blocks until the worker has taken back control, so the
// fiber's goroutine never races ahead of the worker's bookkeeping.
func (h handoff) yieldToWorker() {
	h.yield <- struct{}{}
}

// resumeAndWait is called on a worker's goroutine to run the fiber until
// its next suspend point.
func (h handoff) resumeAndWait() {
	h.resume <- struct{}{}
	<-h.yield
}
