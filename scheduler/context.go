package scheduler

// TaskContext is handed to every Work closure and stands in for spec.md
// §4.5's thread-local "current fiber" pointer: Go intentionally gives user
// code no way to ask "which fiber is running me," so instead of reaching
// for a goroutine-local hack, the fiber handle is threaded through
// explicitly as a parameter, the same way context.Context is threaded
// through call chains elsewhere in the ecosystem. Spawn/Wait/ParallelFor
// called through a TaskContext know which worker is driving the calling
// fiber and can take the fast local-deque path; the TaskScheduler-level
// equivalents are for code that isn't running inside a fiber at all.
type TaskContext struct {
	fiber *Fiber
}

// Spawn enqueues work as a new fiber on the calling fiber's own worker,
// the fast path: no round-robin choice, no contention with other workers
// picking a landing spot.
func (c *TaskContext) Spawn(name string, work Work, counter *Counter) {
	w := c.fiber.runningOn
	w.s.spawnOn(w, name, work, counter)
}

// SpawnOnMain enqueues work onto the main queue that only worker 0 drains.
func (c *TaskContext) SpawnOnMain(work Work, counter *Counter) {
	c.fiber.runningOn.s.SpawnOnMain(work, counter)
}

// Wait cooperatively suspends the calling fiber until counter reaches
// zero. Unlike TaskScheduler.Wait, this never blocks an OS thread: the
// fiber hands control back to its worker (handoff.yieldToWorker), which
// goes on to run other work, and is resumed only once the counter's
// zero-transition reschedules it (Counter.drain).
func (c *TaskContext) Wait(counter *Counter, onIdle func()) {
	for counter.Load() != 0 {
		c.fiber.pendingWaitCounter = counter
		c.fiber.h.yieldToWorker()
		c.fiber.h.awaitResume()
		if onIdle != nil {
			onIdle()
		}
	}
}

// ParallelFor splits [0, count) into chunks of at most chunkSize, runs
// each chunk as a sibling fiber spawned on the calling fiber's worker, and
// cooperatively waits for all of them — the fiber-context counterpart of
// TaskScheduler.ParallelFor. See TaskScheduler.ParallelFor's doc comment
// for the chunkStart convention.
func (c *TaskContext) ParallelFor(count, chunkSize int, body func(ctx *TaskContext, i, chunkStart int)) {
	if count <= 0 {
		return
	}
	if chunkSize <= 0 {
		chunkSize = 1
	}
	numChunks := (count + chunkSize - 1) / chunkSize
	counter := NewCounter(int64(numChunks))
	for start := 0; start < count; start += chunkSize {
		start := start
		end := start + chunkSize
		if end > count {
			end = count
		}
		c.Spawn("parallel_for.chunk", func(sub *TaskContext) {
			for i := start; i < end; i++ {
				body(sub, i, start)
			}
		}, counter)
	}
	c.Wait(counter, nil)
}
