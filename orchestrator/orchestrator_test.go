package orchestrator

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/emberforge/emberforge/common"
	"github.com/emberforge/emberforge/logicscene"
	"github.com/emberforge/emberforge/rendergraph"
	"github.com/emberforge/emberforge/rhi"
	"github.com/emberforge/emberforge/scheduler"
	"github.com/emberforge/emberforge/snapshot"
)

// fakeBackend is a minimal rhi.Backend test double, just enough surface
// for a render graph with one pass to compile and execute against.
type fakeBackend struct {
	nextHandle  rhi.TextureHandle
	pool        *rhi.ResourcePool
	frameCount  atomic.Int32
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{pool: rhi.NewResourcePool()}
}

func (b *fakeBackend) BeginFrame() (rhi.FrameToken, error) {
	b.frameCount.Add(1)
	return rhi.FrameToken{}, nil
}
func (b *fakeBackend) EndFrame(rhi.FrameToken) error { return nil }
func (b *fakeBackend) WaitIdle()                     {}
func (b *fakeBackend) CurrentSwapchainTexture() rhi.TextureHandle {
	return 0
}
func (b *fakeBackend) CreateTexture(desc rhi.TextureDesc) (rhi.TextureHandle, error) {
	b.nextHandle++
	return b.nextHandle, nil
}
func (b *fakeBackend) DestroyTexture(rhi.TextureHandle) {}
func (b *fakeBackend) CreateGPUBuffer(desc rhi.BufferDesc) (rhi.BufferHandle, error) {
	return 1, nil
}
func (b *fakeBackend) CreateUploadBuffer(size uint64) (rhi.BufferHandle, error) { return 1, nil }
func (b *fakeBackend) DestroyBuffer(rhi.BufferHandle)                          {}
func (b *fakeBackend) CopyBufferImmediate(dst rhi.BufferHandle, data []byte, offset uint64) error {
	return nil
}
func (b *fakeBackend) UpdateBindlessTexture(slot uint32, tex rhi.TextureHandle) error { return nil }
func (b *fakeBackend) ResourceBarrier(tok rhi.FrameToken, barriers []rhi.Barrier)      {}
func (b *fakeBackend) SetDebugName(resource any, name string)                         {}
func (b *fakeBackend) CmdBeginDebugLabel(tok rhi.FrameToken, name string)              {}
func (b *fakeBackend) CmdEndDebugLabel(tok rhi.FrameToken)                             {}
func (b *fakeBackend) ResourcePool() *rhi.ResourcePool                                 { return b.pool }

var _ rhi.Backend = (*fakeBackend)(nil)

func buildTestScene() *logicscene.Scene {
	scene := logicscene.New("test")
	mesh := logicscene.NewMesh(1, common.AABB{Min: [3]float32{-1, -1, -1}, Max: [3]float32{1, 1, 1}})
	for i := 0; i < 8; i++ {
		e := logicscene.NewEntity(uint64(i+1), mesh)
		scene.AddEntity(e)
	}
	cam := logicscene.NewCamera(1.0, 16.0/9.0, 0.1, 100)
	cam.SetLookAt([3]float32{0, 0, 5}, [3]float32{0, 0, 0}, [3]float32{0, 1, 0})
	scene.SetCamera(cam)
	scene.SetLight(logicscene.NewDirectionalLight([3]float32{0, -1, 0}, [3]float32{1, 1, 1}, 1.0, true))
	scene.SetActive(true)
	return scene
}

// TestFrameOrchestratorRunsLogicAndRenderPhases exercises S5 from
// spec.md §8: over a short run, the fixed-timestep logic callback fires
// and each fired render frame carries a snapshot whose instance count
// matches the scene's enabled entity count, and the render graph actually
// executes (the fake backend's frame count advances).
func TestFrameOrchestratorRunsLogicAndRenderPhases(t *testing.T) {
	sched := scheduler.New(scheduler.WithWorkerCount(2))
	defer sched.Shutdown()

	scene := buildTestScene()
	backend := newFakeBackend()

	var ticks atomic.Int32
	var renders atomic.Int32
	var lastInstanceCount atomic.Int32

	o := New(sched, scene, backend, 64,
		WithTickRate(200),
		WithTickCallback(func(dt float32) { ticks.Add(1) }),
		WithRenderCallback(func(dt float32) { renders.Add(1) }),
		WithGraphBuilder(func(g *rendergraph.Graph, snap *snapshot.RenderSceneSnapshot, cascades []CascadeSplit) {
			lastInstanceCount.Store(snap.InstanceCount.Load())
			g.AddPass("main", func(b *rendergraph.Builder) rendergraph.ExecuteFunc {
				return func(ctx *rendergraph.ExecuteContext) {}
			})
		}),
	)

	done := make(chan struct{})
	go func() {
		o.Run()
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	o.Quit()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Quit")
	}

	if ticks.Load() == 0 {
		t.Fatal("tick callback never fired")
	}
	if renders.Load() == 0 {
		t.Fatal("render callback never fired")
	}
	if backend.frameCount.Load() == 0 {
		t.Fatal("backend.BeginFrame was never called")
	}
	if lastInstanceCount.Load() != 8 {
		t.Fatalf("last snapshot instance count = %d, want 8", lastInstanceCount.Load())
	}
}

// TestFrameOrchestratorQuitIsIdempotent ensures calling Quit more than
// once, including concurrently, never panics.
func TestFrameOrchestratorQuitIsIdempotent(t *testing.T) {
	sched := scheduler.New(scheduler.WithWorkerCount(1))
	defer sched.Shutdown()

	o := New(sched, buildTestScene(), newFakeBackend(), 8)
	o.Quit()
	o.Quit()
	o.Quit()
}

// TestAccumulateTicksExactFloorDivision proves spec.md §8 property 5
// precisely: accumulateTicks must emit exactly floor(elapsed/fixedDT)
// logic ticks, not merely "some nonzero number," whether that elapsed
// duration arrives in one frame or is spread unevenly across several.
func TestAccumulateTicksExactFloorDivision(t *testing.T) {
	const fixedDT = 10 * time.Millisecond
	const maxFrameTime = 250 * time.Millisecond

	t.Run("single frame", func(t *testing.T) {
		ticks, remainder := accumulateTicks(0, 100*time.Millisecond, maxFrameTime, fixedDT)
		if ticks != 10 {
			t.Fatalf("ticks = %d, want 10 (floor(100ms/10ms))", ticks)
		}
		if remainder != 0 {
			t.Fatalf("remainder = %v, want 0", remainder)
		}
	})

	t.Run("spiral of death clamp", func(t *testing.T) {
		// A 500ms stall clamps to maxFrameTime before accumulating, so the
		// catch-up burst is bounded by maxFrameTime/fixedDT, not the real
		// elapsed time — the whole point of the clamp.
		ticks, remainder := accumulateTicks(0, 500*time.Millisecond, maxFrameTime, fixedDT)
		wantTicks := int(maxFrameTime / fixedDT)
		wantRemainder := maxFrameTime - time.Duration(wantTicks)*fixedDT
		if ticks != wantTicks {
			t.Fatalf("ticks = %d, want %d", ticks, wantTicks)
		}
		if remainder != wantRemainder {
			t.Fatalf("remainder = %v, want %v", remainder, wantRemainder)
		}
	})

	t.Run("uneven frames sum to exact elapsed", func(t *testing.T) {
		frames := []time.Duration{
			30 * time.Millisecond,
			30 * time.Millisecond,
			25 * time.Millisecond,
			15 * time.Millisecond,
		}
		var totalElapsed time.Duration
		var acc time.Duration
		var totalTicks int
		for _, f := range frames {
			var ticks int
			ticks, acc = accumulateTicks(acc, f, maxFrameTime, fixedDT)
			totalTicks += ticks
			totalElapsed += f
		}
		wantTicks := int(totalElapsed / fixedDT)
		if totalTicks != wantTicks {
			t.Fatalf("totalTicks = %d, want %d (floor(%v/%v))", totalTicks, wantTicks, totalElapsed, fixedDT)
		}
	})
}

// TestLogicTickWaitsOnRenderInflightCollision exercises S8 from spec.md
// §8: when the next write slot logicTick is about to select equals
// render_inflight_index, logicTick must block on render_task_counter
// before advancing rather than overwrite a slot the in-flight render task
// is still reading.
func TestLogicTickWaitsOnRenderInflightCollision(t *testing.T) {
	sched := scheduler.New(scheduler.WithWorkerCount(2))
	defer sched.Shutdown()

	o := New(sched, buildTestScene(), newFakeBackend(), 8)

	// Force a predicted collision: currentWriteIndex=0 means logicTick
	// will compute nextWriteIndex=1, so declare slot 1 as the one the
	// (simulated) in-flight render task is reading.
	o.currentWriteIndex = 0
	o.renderInflightIndex.Store(1)
	inFlight := scheduler.NewCounter(1)
	o.renderTaskCounter.Store(inFlight)

	const renderDelay = 60 * time.Millisecond
	go func() {
		time.Sleep(renderDelay)
		// Simulate the in-flight render task completing: spawning a no-op
		// fiber against the same counter drives it to zero exactly as the
		// real render task's own completion would.
		sched.Spawn("simulate-render-done", func(ctx *scheduler.TaskContext) {}, inFlight)
	}()

	start := time.Now()
	o.logicTick()
	elapsed := time.Since(start)

	if elapsed < renderDelay/2 {
		t.Fatalf("logicTick returned after %v, want to have blocked for roughly %v waiting on render_task_counter", elapsed, renderDelay)
	}
	if o.currentWriteIndex != 1 {
		t.Fatalf("currentWriteIndex = %d, want 1 (the slot that was in flight, now free)", o.currentWriteIndex)
	}
	if o.renderTaskCounter.Load().Load() != 0 {
		t.Fatalf("renderTaskCounter = %d, want 0 after the simulated render task completed", o.renderTaskCounter.Load().Load())
	}
}
