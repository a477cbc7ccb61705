package scheduler

import (
	"sync"
	"sync/atomic"
	"testing"
)

// TestSpawnManyTasksAllComplete exercises S1 from spec.md §8: spawning a
// large number of independent tasks under one counter and waiting on it
// must not return until every task has actually run.
func TestSpawnManyTasksAllComplete(t *testing.T) {
	s := New(WithWorkerCount(4))
	defer s.Shutdown()

	const n = 10000
	var completed atomic.Int64
	counter := NewCounter(n)
	for i := 0; i < n; i++ {
		s.Spawn("", func(ctx *TaskContext) {
			completed.Add(1)
		}, counter)
	}
	s.Wait(counter, nil)

	if got := completed.Load(); got != n {
		t.Fatalf("completed = %d, want %d", got, n)
	}
	if got := counter.Load(); got != 0 {
		t.Fatalf("counter after Wait = %d, want 0", got)
	}
}

// TestForkJoinTreeCompletesEverySlot exercises S2: a root task spawns 3
// children, each of which spawns 3 grandchildren, for 1 + 3 + 9 = 13 task
// slots total, all synchronized through nested counters and
// TaskContext.Wait from inside the fiber tree.
func TestForkJoinTreeCompletesEverySlot(t *testing.T) {
	s := New(WithWorkerCount(4))
	defer s.Shutdown()

	var ran atomic.Int64
	rootDone := NewCounter(1)
	s.Spawn("root", func(ctx *TaskContext) {
		ran.Add(1)
		childDone := NewCounter(3)
		for i := 0; i < 3; i++ {
			ctx.Spawn("child", func(ctx *TaskContext) {
				ran.Add(1)
				grandchildDone := NewCounter(3)
				for j := 0; j < 3; j++ {
					ctx.Spawn("grandchild", func(ctx *TaskContext) {
						ran.Add(1)
					}, grandchildDone)
				}
				ctx.Wait(grandchildDone, nil)
			}, childDone)
		}
		ctx.Wait(childDone, nil)
	}, rootDone)
	s.Wait(rootDone, nil)

	const wantSlots = 1 + 3 + 9
	if got := ran.Load(); got != wantSlots {
		t.Fatalf("ran = %d task slots, want %d", got, wantSlots)
	}
}

// TestParallelForCoversEveryIndexExactlyOnce exercises S3 and property 3
// from spec.md §8.
func TestParallelForCoversEveryIndexExactlyOnce(t *testing.T) {
	s := New(WithWorkerCount(4))
	defer s.Shutdown()

	const count = 1000
	seen := make([]int32, count)
	var sum atomic.Int64
	s.ParallelFor(count, 64, func(ctx *TaskContext, i, chunkStart int) {
		atomic.AddInt32(&seen[i], 1)
		sum.Add(int64(i))
	})

	for i, c := range seen {
		if c != 1 {
			t.Fatalf("index %d visited %d times, want exactly 1", i, c)
		}
	}
	const want = count * (count - 1) / 2
	if got := sum.Load(); got != want {
		t.Fatalf("sum = %d, want %d", got, want)
	}
}

// TestParallelForChunkStartIsChunkAligned checks the resolved open
// question from spec.md §9: the chunk-start argument body receives is the
// first index of that chunk, not a running counter or the chunk index.
func TestParallelForChunkStartIsChunkAligned(t *testing.T) {
	s := New(WithWorkerCount(2))
	defer s.Shutdown()

	var mu sync.Mutex
	var pairs [][2]int
	s.ParallelFor(10, 4, func(ctx *TaskContext, i, chunkStart int) {
		mu.Lock()
		pairs = append(pairs, [2]int{i, chunkStart})
		mu.Unlock()
	})

	for _, p := range pairs {
		i, chunkStart := p[0], p[1]
		if chunkStart > i || i-chunkStart >= 4 {
			t.Fatalf("index %d reported chunkStart %d, not within a 4-wide chunk", i, chunkStart)
		}
		if chunkStart%4 != 0 {
			t.Fatalf("chunkStart %d is not aligned to the chunk size", chunkStart)
		}
	}
}

// TestMainQueueOnlyDrainedByPump exercises property 4: a task spawned with
// SpawnOnMain must not run until PumpMainThreadTasks is called, even
// though background workers are actively running.
func TestMainQueueOnlyDrainedByPump(t *testing.T) {
	s := New(WithWorkerCount(4))
	defer s.Shutdown()

	var ran atomic.Bool
	counter := NewCounter(1)
	s.SpawnOnMain(func(ctx *TaskContext) {
		ran.Store(true)
	}, counter)

	// Give background workers a chance to (incorrectly) pick up the task;
	// they never touch the main queue, so this must remain false.
	busyWork := NewCounter(100)
	for i := 0; i < 100; i++ {
		s.Spawn("", func(ctx *TaskContext) {}, busyWork)
	}
	s.Wait(busyWork, nil)

	if ran.Load() {
		t.Fatalf("main-queue task ran without PumpMainThreadTasks being called")
	}

	s.PumpMainThreadTasks()
	s.Wait(counter, nil)
	if !ran.Load() {
		t.Fatalf("main-queue task did not run after PumpMainThreadTasks")
	}
}
