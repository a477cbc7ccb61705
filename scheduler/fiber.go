package scheduler

// Work is the one-shot, move-only closure a spawned fiber runs. ctx gives
// the closure access to Spawn/Wait/ParallelFor from within the same fiber,
// the idiomatic-Go replacement for the thread-local "current fiber" pointer
// described in spec.md §4.5 — see handoff.go's doc comment for why.
type Work func(ctx *TaskContext)

// Fiber is a reusable unit of cooperative execution. Every fiber is backed
// by its own persistent goroutine (see handoff.go) rather than a manually
// managed stack — see SPEC_FULL.md §9/§4.1 for the rationale. At any moment
// a fiber is in exactly one of: the pool's free list, a worker's deque,
// running on a worker, or a counter's wait list (spec.md §3's invariant),
// enforced structurally by the fact that nextInPool and nextInWait are only
// ever read by whichever single structure currently owns the fiber.
type Fiber struct {
	id   uint64
	name string

	work          Work
	signalCounter *Counter

	// pendingWaitCounter is set by the fiber's own goroutine (via
	// TaskContext.Wait) just before it hands control back to its worker.
	// The worker reads and clears it in (*worker).runFiber.
	pendingWaitCounter *Counter

	finished bool

	// runningOn is the worker currently driving this fiber. Set by
	// (*worker).runFiber before each resume, read by the fiber's own
	// goroutine when it needs to know "my current worker" — e.g. to hand
	// drained waiters to the right local deque (spec.md §4.4).
	runningOn *worker

	// homePool is the pool this fiber was acquired from; finished fibers
	// are always released back here regardless of which worker happened
	// to be driving them when they finished (relevant for the ad hoc
	// helper worker a non-fiber Wait call spins up — see scheduler.go).
	homePool *FiberPool

	nextInPool *Fiber
	nextInWait *Fiber

	h handoff
}

// newFiber allocates a fresh fiber with its own persistent goroutine. Only
// called by FiberPool when the free list is exhausted.
func newFiber(id uint64) *Fiber {
	f := &Fiber{
		id: id,
		h:  newHandoff(),
	}
	go f.loop()
	return f
}

// reset installs new work on a pooled fiber before it re-enters a worker's
// deque. Mirrors spec.md §4.2's "reset with closure" lifecycle step.
func (f *Fiber) reset(name string, work Work, signalCounter *Counter) {
	f.name = name
	f.work = work
	f.signalCounter = signalCounter
	f.pendingWaitCounter = nil
	f.finished = false
	f.nextInPool = nil
	f.nextInWait = nil
}

// loop is the fiber's common entry stub (spec.md §4.5's "fiber entry
// protocol"), run once per fiber goroutine for its entire pooled lifetime.
// It parks on the handoff's resume channel between activations instead of
// exiting, which is the goroutine-reuse analogue of "stack is retained and
// fiber returns to pool."
func (f *Fiber) loop() {
	for {
		f.h.awaitResume()

		ctx := &TaskContext{fiber: f}
		f.work(ctx)

		// Step (iii): decrement the signal counter and, on zero-transition,
		// reschedule every waiter onto the current worker's local deque.
		if f.signalCounter != nil {
			if f.signalCounter.fetchSubReturningOld(1) == 1 {
				f.signalCounter.drain(f.runningOn.reschedule)
			}
		}
		f.finished = true
		f.h.yieldToWorker()
	}
}
