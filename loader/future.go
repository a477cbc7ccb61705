// Package loader provides narrow, scheduler-driven asynchronous asset
// loading: LoadMeshAsync and LoadImageAsync each spawn a fiber that
// decodes one file and hand back a Future the caller waits on, so asset
// I/O and decode work run off the logic/render threads without blocking
// either. Trimmed from the teacher's loader: no skeleton/animation
// extraction, no material/bind-group wiring — those live one layer up,
// built on the MeshData/ImageData this package hands back.
package loader

import "github.com/emberforge/emberforge/scheduler"

// Future is the result of one LoadMeshAsync/LoadImageAsync call. Wait
// blocks (cooperatively, if called from inside a fiber via ctx, or via
// the scheduler's helper-worker path otherwise) until the decode finishes,
// then returns its result.
type Future[T any] struct {
	counter *scheduler.Counter
	value   T
	err     error
}

// Wait blocks the calling goroutine until the future's work completes,
// using the scheduler's non-fiber Wait path. Safe to call from a
// goroutine that is not itself a fiber.
func (f *Future[T]) Wait(sched *scheduler.TaskScheduler) (T, error) {
	sched.Wait(f.counter, nil)
	return f.value, f.err
}

// WaitIn blocks the calling fiber cooperatively via ctx until the
// future's work completes. Use from code already running inside a fiber.
func (f *Future[T]) WaitIn(ctx *scheduler.TaskContext) (T, error) {
	ctx.Wait(f.counter, nil)
	return f.value, f.err
}

// Done reports whether the future's work has finished, without blocking.
func (f *Future[T]) Done() bool {
	return f.counter.Load() == 0
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{counter: scheduler.NewCounter(1)}
}
