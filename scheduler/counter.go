package scheduler

import "sync/atomic"

// Counter is the fork-join primitive from spec.md §4.4: an atomic count of
// outstanding work plus a lock-free intrusive list of fibers waiting for it
// to reach zero. A fresh Counter is ready to use; the zero value has count
// 0 and an empty wait list.
type Counter struct {
	value atomic.Int64
	waitHead atomic.Pointer[Fiber]
}

// NewCounter returns a Counter initialized to n outstanding units of work.
func NewCounter(n int64) *Counter {
	c := &Counter{}
	c.value.Store(n)
	return c
}

// Load returns the current count.
func (c *Counter) Load() int64 {
	return c.value.Load()
}

// fetchAddReturningOld adds delta and returns the value before the add,
// matching the fetch_add convention spec.md's pseudocode assumes.
func (c *Counter) fetchAddReturningOld(delta int64) int64 {
	return c.value.Add(delta) - delta
}

// fetchSubReturningOld subtracts delta and returns the value before the
// subtraction. A return value of 1 is the zero-transition signal that
// triggers draining the wait list.
func (c *Counter) fetchSubReturningOld(delta int64) int64 {
	return c.value.Add(-delta) + delta
}

// attachWaiter pushes f onto the counter's wait list (Treiber-stack push).
// Called by (*worker).runFiber immediately after a fiber suspends with a
// pending wait counter.
func (c *Counter) attachWaiter(f *Fiber) {
	for {
		head := c.waitHead.Load()
		f.nextInWait = head
		if c.waitHead.CompareAndSwap(head, f) {
			return
		}
	}
}

// drain atomically takes the entire wait list and reschedules every waiter
// by calling reschedule once per waiter, per spec.md §4.4's "the
// decrementer's current worker queue" rule: whichever worker observed the
// zero-transition pays the (small, local) cost of waking the waiters.
// Taking a callback rather than a *worker directly lets every call site
// supply its own fallback (local deque push, or the scheduler's main
// queue) without Counter needing to know about worker internals.
func (c *Counter) drain(reschedule func(*Fiber)) {
	var head *Fiber
	for {
		head = c.waitHead.Load()
		if head == nil {
			return
		}
		if c.waitHead.CompareAndSwap(head, nil) {
			break
		}
	}
	for f := head; f != nil; {
		next := f.nextInWait
		f.nextInWait = nil
		reschedule(f)
		f = next
	}
}
