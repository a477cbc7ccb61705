// Package scheduler implements the fiber-based work-stealing task scheduler
// described in spec.md §4: fibers (Fiber, FiberPool), fork-join
// synchronization (Counter), and the worker pool that drives them
// (TaskScheduler). Fiber, FiberPool, Counter, and TaskScheduler are kept in
// one package rather than split across package boundaries because they
// share unexported state (a worker's deque, a fiber's pool/wait-list
// pointers) that would otherwise force artificial interfaces purely to
// cross an import boundary — the same reasoning the teacher repo applies
// when it keeps a renderer and its backend, or an animator and its
// backends, in a single package directory.
package scheduler

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emberforge/emberforge/deque"
)

// worker owns one local work-stealing deque and one fiber pool. Workers
// with index >= 1 run their own goroutine pinned to an OS thread via
// runtime.LockOSThread, matching spec.md §4.5's "one OS thread per worker."
// Worker 0 is special: per spec.md §4.6 it has main-thread affinity and is
// never given its own goroutine loop — the thread that owns main-thread
// affinity drives it by calling PumpMainThreadTasks between frame stages
// instead.
type worker struct {
	index int
	s     *TaskScheduler
	dq    *deque.Deque[*Fiber]
	pool  *FiberPool
}

// stepOnce performs one iteration of the worker loop from spec.md §4.5:
// for worker 0, first drain one task from the scheduler's main queue; then
// pop from the local deque; then steal round-robin from every other
// worker starting just past this worker's own index. Returns false if
// there was no work to do.
func (w *worker) stepOnce() bool {
	if w.index == 0 {
		w.drainMain()
	}
	f, ok := w.dq.Pop()
	if !ok {
		f, ok = w.steal()
	}
	if !ok {
		return false
	}
	w.runFiber(f)
	return true
}

func (w *worker) drainMain() {
	f := w.s.dequeueMain()
	if f == nil {
		return
	}
	if !w.dq.Push(f) {
		w.s.enqueueMain(f)
	}
}

func (w *worker) steal() (*Fiber, bool) {
	n := len(w.s.workers)
	if n == 0 {
		return nil, false
	}
	for i := 1; i <= n; i++ {
		victim := w.s.workers[((w.index+i)%n+n)%n]
		if victim == w {
			continue
		}
		if f, ok := victim.dq.Steal(); ok {
			return f, true
		}
	}
	return nil, false
}

// runFiber hands the fiber its slice of execution (the ContextSwitch
// re-expression in handoff.go) and, on return, routes it to wherever it
// belongs next: the wait list of a counter it suspended on, its home pool
// if it finished, or straight back onto this worker's deque if neither —
// the "voluntary yield, no specific reason" case spec.md's protocol leaves
// room for even though nothing in this package currently triggers it.
func (w *worker) runFiber(f *Fiber) {
	f.runningOn = w
	f.h.resumeAndWait()

	switch {
	case f.pendingWaitCounter != nil:
		c := f.pendingWaitCounter
		f.pendingWaitCounter = nil
		c.attachWaiter(f)
		// The counter may have reached zero between the fiber deciding to
		// suspend and this attach completing; re-check and drain ourselves
		// if so, or the waiter would sleep forever (spec.md §4.4).
		if c.Load() == 0 {
			c.drain(w.reschedule)
		}
	case f.finished:
		f.homePool.release(f)
	default:
		w.reschedule(f)
	}
}

// reschedule pushes f back onto w's local deque, falling back to the
// scheduler's main queue if the deque is at capacity.
func (w *worker) reschedule(f *Fiber) {
	if !w.dq.Push(f) {
		w.s.enqueueMain(f)
	}
}

func (w *worker) runLoop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	for !w.s.shutdown.Load() {
		if !w.stepOnce() {
			time.Sleep(w.s.backoff)
		}
	}
}

// TaskScheduler is the fork-join work-stealing scheduler from spec.md §4.
// Construct with New; worker 0 never gets a background goroutine loop of
// its own, so the thread that owns main-thread affinity (typically the
// frame orchestrator) must call PumpMainThreadTasks between frame stages
// to give main-queue work and worker 0's local deque a chance to run.
type TaskScheduler struct {
	workers []*worker

	mainMu sync.Mutex
	mainQ  []*Fiber

	spawnCursor atomic.Uint64
	shutdown    atomic.Bool
	backoff     time.Duration
}

// New constructs a TaskScheduler and starts one background goroutine per
// worker with index >= 1. Worker 0 is left unstarted; see
// PumpMainThreadTasks.
func New(opts ...Option) *TaskScheduler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &TaskScheduler{backoff: cfg.backoff}
	s.workers = make([]*worker, cfg.numWorkers)
	for i := range s.workers {
		s.workers[i] = &worker{
			index: i,
			s:     s,
			dq:    deque.New[*Fiber](cfg.dequeCapacity),
			pool:  newFiberPool(cfg.fibersPerWorker),
		}
	}
	for i := 1; i < len(s.workers); i++ {
		go s.workers[i].runLoop()
	}
	return s
}

// NumWorkers returns the number of workers, including worker 0.
func (s *TaskScheduler) NumWorkers() int {
	return len(s.workers)
}

// Shutdown stops every background worker goroutine. Fibers still in flight
// are abandoned; Shutdown does not wait for them to finish.
func (s *TaskScheduler) Shutdown() {
	s.shutdown.Store(true)
}

// PumpMainThreadTasks runs one iteration of worker 0's loop. Callers with
// main-thread affinity requirements (window/swapchain calls, GPU command
// submission on platforms that require it) call this between frame stages
// instead of letting worker 0 run its own goroutine loop, per spec.md §4.6.
func (s *TaskScheduler) PumpMainThreadTasks() {
	s.workers[0].stepOnce()
}

// Spawn enqueues work as a new fiber on a worker chosen round-robin. Spawn
// does not change counter's count: the caller creates counter holding one
// unit per fiber it spawns against it (NewCounter(n) before n Spawn calls),
// and each fiber decrements it by one when its work returns. Safe to call from
// any goroutine, including one not managed by this scheduler — callers
// already running inside a fiber should prefer TaskContext.Spawn, which
// lands the new fiber on the calling fiber's own worker instead of a
// round-robin choice.
func (s *TaskScheduler) Spawn(name string, work Work, counter *Counter) {
	w := s.workers[int(s.spawnCursor.Add(1))%len(s.workers)]
	s.spawnOn(w, name, work, counter)
}

// SpawnOnMain enqueues work onto the main queue that only worker 0 drains,
// for tasks that must run with main-thread affinity (spec.md §4.6).
func (s *TaskScheduler) SpawnOnMain(work Work, counter *Counter) {
	f := s.workers[0].pool.acquire()
	f.reset("main", work, counter)
	s.enqueueMain(f)
}

func (s *TaskScheduler) spawnOn(w *worker, name string, work Work, counter *Counter) {
	f := w.pool.acquire()
	f.reset(name, work, counter)
	w.reschedule(f)
}

func (s *TaskScheduler) enqueueMain(f *Fiber) {
	s.mainMu.Lock()
	s.mainQ = append(s.mainQ, f)
	s.mainMu.Unlock()
}

func (s *TaskScheduler) dequeueMain() *Fiber {
	s.mainMu.Lock()
	defer s.mainMu.Unlock()
	if len(s.mainQ) == 0 {
		return nil
	}
	f := s.mainQ[0]
	s.mainQ = s.mainQ[1:]
	return f
}

// Wait blocks the calling goroutine until counter reaches zero. Use this
// form from a goroutine that is not itself running as a fiber (e.g. the
// frame orchestrator's outer loop, or main() before any work has been
// spawned) — it spins up a throwaway helper that behaves like an
// additional worker, stealing and running fibers from the real workers
// while it waits, invoking onIdle (if non-nil) on every poll that finds
// nothing to do. Code running inside a fiber must use TaskContext.Wait
// instead, which suspends the fiber cooperatively rather than blocking an
// OS thread.
//
// The helper's own pool is discarded when Wait returns; fibers it finishes
// are still released to their correct home pool (see Fiber.homePool), so
// the only cost of a long-lived non-fiber Wait call is the helper's own
// small deque, not leaked fiber goroutines.
func (s *TaskScheduler) Wait(counter *Counter, onIdle func()) {
	helper := &worker{index: -1, s: s, dq: deque.New[*Fiber](64), pool: newFiberPool(0)}
	for counter.Load() != 0 {
		if f, ok := helper.dq.Pop(); ok {
			helper.runFiber(f)
			continue
		}
		if f, ok := helper.steal(); ok {
			helper.runFiber(f)
			continue
		}
		if onIdle != nil {
			onIdle()
		} else {
			time.Sleep(s.backoff)
		}
	}
}

// ParallelFor splits [0, count) into chunks of at most chunkSize and runs
// each chunk as its own fiber, blocking until all chunks complete. body
// receives the chunk's starting index as its second argument (spec.md
// §4.7's open question, resolved in SPEC_FULL.md §9: the start-index
// overload lets a caller derive its chunk's position without a separate
// end parameter, the convention the spec's own pseudocode chunking
// example implies).
func (s *TaskScheduler) ParallelFor(count, chunkSize int, body func(ctx *TaskContext, i, chunkStart int)) {
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
		s.Spawn("parallel_for.chunk", func(ctx *TaskContext) {
			for i := start; i < end; i++ {
				body(ctx, i, start)
			}
		}, counter)
	}
	s.Wait(counter, nil)
}
