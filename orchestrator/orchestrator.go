// Package orchestrator implements the frame orchestrator from spec.md §7
// (component numbering in spec.md's own prose is §4.9): a single
// accumulator-driven main loop that decouples a fixed-timestep logic
// phase from an asynchronously-scheduled render task via a triple-buffered
// scene snapshot, driving a declarative render graph against an
// rhi.Backend every frame.
//
// Grounded on the teacher's engine.handleEngine/handleRender split
// (engine/engine.go) for the broad "logic and render are different
// concerns with different timing" shape, but the actual loop structure
// follows spec.md §4.9's pseudocode literally: one loop pumps main-thread
// tasks, polls the window, measures and clamps frame_time, runs the
// catch-up `while accumulator >= fixed_dt` logic phase, and then spawns
// one asynchronous render task per iteration rather than rendering
// inline — the render task runs concurrently with the next iterations'
// logic phase, synchronized only through last_committed_index/
// render_inflight_index and render_task_counter, exactly as spec.md
// describes.
package orchestrator

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emberforge/emberforge/logicscene"
	"github.com/emberforge/emberforge/profiler"
	"github.com/emberforge/emberforge/rendergraph"
	"github.com/emberforge/emberforge/rhi"
	"github.com/emberforge/emberforge/scheduler"
	"github.com/emberforge/emberforge/snapshot"
	"github.com/emberforge/emberforge/window"
)

// renderIdle is render_inflight_index's sentinel value meaning "no render
// task is currently in flight," per spec.md §3's triple-buffer index
// triple.
const renderIdle int32 = -1

// TickFunc is called once per fixed logic tick, before the scene is
// extracted into that tick's snapshot, so it may safely mutate scene
// state (entity transforms, camera, light) for this tick.
type TickFunc func(dt float32)

// RenderFunc is called once per completed render task, after the frame's
// render graph has executed, for any non-graph per-frame bookkeeping (UI
// overlays, GPU buffer uploads outside the graph, and the like).
type RenderFunc func(dt float32)

// GraphBuilderFunc declares a frame's passes against g using snap (the
// most recently published scene snapshot) and cascades (this frame's
// shadow cascade splits). Called fresh every render task, since a
// rendergraph.Graph is a single-use, per-frame declaration rather than a
// persistent object — spec.md §6's design.
type GraphBuilderFunc func(g *rendergraph.Graph, snap *snapshot.RenderSceneSnapshot, cascades []CascadeSplit)

// FrameOrchestrator drives the logic/render pipeline described in
// spec.md §4.9. Construct with New and configure with the With* options,
// then call Run from the thread that must own main-thread affinity
// (typically the process's actual main goroutine, since windowing and
// some GPU presentation calls require it).
type FrameOrchestrator struct {
	sched   *scheduler.TaskScheduler
	scene   *logicscene.Scene
	backend rhi.Backend
	win     window.Window

	prof             *profiler.Profiler
	profilingEnabled bool

	// snapshots is the triple-buffered array from spec.md §3. currentWriteIndex
	// is logic-phase-owned and never read concurrently; lastCommittedIndex,
	// renderInflightIndex, and renderTaskCounter are the atomics the render
	// task, the next logic tick, and (possibly) a concurrent Shutdown call
	// coordinate through.
	snapshots           [3]*snapshot.RenderSceneSnapshot
	currentWriteIndex   int
	lastCommittedIndex  atomic.Int32
	renderInflightIndex atomic.Int32
	renderTaskCounter   atomic.Pointer[scheduler.Counter]
	extractChunkSize    int

	fixedDT      time.Duration
	maxFrameTime time.Duration
	accumulator  time.Duration

	shadowNear, shadowFar float32
	numCascades           int
	cascadeLambda         float32

	tickCallback   TickFunc
	renderCallback RenderFunc
	buildGraph     GraphBuilderFunc

	quitCh       chan struct{}
	quitOnce     sync.Once
	shutdownOnce sync.Once
	running      atomic.Bool
}

// New constructs a FrameOrchestrator driving scene's logic and backend's
// rendering through sched. snapshotCapacity bounds how many instances any
// one snapshot can hold (see snapshot.New); it should be sized generously
// relative to the scene's expected entity count.
func New(sched *scheduler.TaskScheduler, scene *logicscene.Scene, backend rhi.Backend, snapshotCapacity int, opts ...Option) *FrameOrchestrator {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	o := &FrameOrchestrator{
		sched:            sched,
		scene:            scene,
		backend:          backend,
		win:              cfg.win,
		prof:             profiler.NewProfiler(),
		extractChunkSize: cfg.extractChunkSize,
		fixedDT:          cfg.fixedDT,
		maxFrameTime:     cfg.maxFrameTime,
		shadowNear:       cfg.shadowNear,
		shadowFar:        cfg.shadowFar,
		numCascades:      cfg.numCascades,
		cascadeLambda:    cfg.cascadeLambda,
		tickCallback:     cfg.tickCallback,
		renderCallback:   cfg.renderCallback,
		buildGraph:       cfg.buildGraph,
		quitCh:           make(chan struct{}),
		// currentWriteIndex starts at 2 so the first logic tick's
		// next_write_index computes to 0, matching every slot being
		// equally "the next one up" before any frame has run.
		currentWriteIndex: 2,
	}
	for i := range o.snapshots {
		o.snapshots[i] = snapshot.New(snapshotCapacity)
	}
	o.lastCommittedIndex.Store(renderIdle)
	o.renderInflightIndex.Store(renderIdle)
	// A zero-valued counter so the very first collision check and the
	// very first Shutdown call never block on a render task that was
	// never spawned.
	o.renderTaskCounter.Store(scheduler.NewCounter(0))
	return o
}

// EnableProfiler turns on per-second tick/render-rate and memory logging
// during Run.
func (o *FrameOrchestrator) EnableProfiler() { o.profilingEnabled = true }

// DisableProfiler turns off per-second tick/render-rate and memory
// logging during Run.
func (o *FrameOrchestrator) DisableProfiler() { o.profilingEnabled = false }

// Quit signals Run's main loop to stop after its current iteration. Safe
// to call multiple times and from any goroutine, including from inside a
// TickFunc/RenderFunc/GraphBuilderFunc callback; subsequent calls are
// no-ops.
func (o *FrameOrchestrator) Quit() {
	o.quitOnce.Do(func() {
		close(o.quitCh)
	})
}

// Run executes spec.md §4.9's main loop on the calling goroutine until
// Quit is called or (if a window was configured) the window reports it
// should close, then performs an orderly Shutdown before returning. The
// caller must be the goroutine with main-thread affinity.
func (o *FrameOrchestrator) Run() {
	o.running.Store(true)
	defer o.running.Store(false)
	defer o.Shutdown()

	last := time.Now()
	for {
		select {
		case <-o.quitCh:
			return
		default:
		}

		// Step 1: pump main-thread tasks.
		o.sched.PumpMainThreadTasks()

		// Step 2: poll window events.
		if o.win != nil && !o.win.PollEvents() {
			o.Quit()
			return
		}

		// Step 3: measure frame_time and compute, via the pure helper
		// below, how many whole fixed_dt ticks the spiral-of-death clamp
		// and accumulator allow this iteration.
		now := time.Now()
		frameTime := now.Sub(last)
		last = now
		var ticks int
		ticks, o.accumulator = accumulateTicks(o.accumulator, frameTime, o.maxFrameTime, o.fixedDT)

		// Step 4: logic phase — catch up on every whole fixed_dt the
		// accumulator had banked.
		for i := 0; i < ticks; i++ {
			o.logicTick()
		}

		// Step 5: render phase — spawn (at most) one async render task
		// against the most recently committed snapshot.
		o.maybeSpawnRenderTask()

		if !o.running.Load() {
			return
		}
		if o.win == nil && o.accumulator < o.fixedDT {
			// No window to block on PollEvents; avoid busy-spinning the
			// main loop while waiting for the next whole tick.
			time.Sleep(o.fixedDT - o.accumulator)
		}
	}
}

// Running reports whether Run is currently executing.
func (o *FrameOrchestrator) Running() bool {
	return o.running.Load()
}

// accumulateTicks is spec.md §4.9's spiral-of-death clamp and fixed-
// timestep accumulator, factored out as a pure function of its inputs so
// the exact floor(elapsed/fixedDT) catch-up property can be tested without
// any wall-clock involvement. frameTime is clamped to maxFrameTime before
// being added to accumulator; the result is how many whole fixedDT periods
// that banked duration covers, plus the remainder left in the accumulator
// for the next call.
func accumulateTicks(accumulator, frameTime, maxFrameTime, fixedDT time.Duration) (ticks int, newAccumulator time.Duration) {
	if frameTime > maxFrameTime {
		frameTime = maxFrameTime
	}
	newAccumulator = accumulator + frameTime
	for newAccumulator >= fixedDT {
		ticks++
		newAccumulator -= fixedDT
	}
	return ticks, newAccumulator
}

// logicTick runs exactly one spec.md §4.9 logic-phase iteration: pick the
// next write slot (waiting on the in-flight render task if that slot is
// the one it's currently reading), run the tick callback as a scheduled
// task, extract the resulting scene into that slot, and publish it.
func (o *FrameOrchestrator) logicTick() {
	nextWriteIndex := (o.currentWriteIndex + 1) % 3

	// spec.md §3: the logic writer must never select an index equal to
	// render_inflight_index. If that collision is predicted, wait
	// cooperatively for the in-flight render task to finish before
	// advancing — the render task clears render_inflight_index back to
	// renderIdle as the last thing it does before completing.
	if int32(nextWriteIndex) == o.renderInflightIndex.Load() {
		o.sched.Wait(o.renderTaskCounter.Load(), nil)
	}
	o.currentWriteIndex = nextWriteIndex

	dt := float32(o.fixedDT.Seconds())
	tickCounter := scheduler.NewCounter(1)
	o.sched.Spawn("orchestrator.logic_tick", func(ctx *scheduler.TaskContext) {
		if o.tickCallback != nil {
			o.tickCallback(dt)
		}
	}, tickCounter)
	o.sched.Wait(tickCounter, nil)

	snapshot.ExtractChunked(o.sched, o.scene, o.snapshots[o.currentWriteIndex], o.extractChunkSize)

	// Release-store: every write into the snapshot above must be visible
	// to whichever goroutine observes this store (spec.md §5's
	// publication happens-before edge).
	o.lastCommittedIndex.Store(int32(o.currentWriteIndex))

	if o.profilingEnabled {
		o.prof.RecordTick()
	}
}

// maybeSpawnRenderTask implements spec.md §4.9's render phase: acquire
// the most recently committed snapshot, mark it in flight, and spawn a
// task that culls/builds/compiles/executes the frame's render graph
// against it. If no snapshot has ever been committed (the process just
// started) or a render task is already in flight, this is a no-op —
// spec.md's pseudocode spawns one render task per main-loop iteration,
// which only makes sense once a slot is actually ready and free.
func (o *FrameOrchestrator) maybeSpawnRenderTask() {
	if o.renderTaskCounter.Load().Load() != 0 {
		return // previous render task hasn't finished yet
	}
	renderIdx := o.lastCommittedIndex.Load()
	if renderIdx < 0 {
		return // nothing committed yet
	}

	snap := o.snapshots[renderIdx]
	cascades := ComputeCascadeSplits(o.shadowNear, o.shadowFar, o.numCascades, o.cascadeLambda)

	o.renderInflightIndex.Store(renderIdx)
	counter := scheduler.NewCounter(1)
	o.renderTaskCounter.Store(counter)

	o.sched.Spawn("orchestrator.render_task", func(ctx *scheduler.TaskContext) {
		o.runRenderTask(snap, cascades)
		// Clear render_inflight_index before the fiber's own completion
		// decrement fires, so a logic tick waking from Wait(counter) on
		// zero-transition never observes a stale in-flight index.
		o.renderInflightIndex.Store(renderIdle)
	}, counter)
}

// runRenderTask builds, compiles, and executes exactly one frame's render
// graph against snap, per spec.md §4.9's render task description.
func (o *FrameOrchestrator) runRenderTask(snap *snapshot.RenderSceneSnapshot, cascades []CascadeSplit) {
	tok, err := o.backend.BeginFrame()
	if err != nil {
		log.Printf("orchestrator: BeginFrame failed: %v", err)
		return
	}

	g := rendergraph.New()
	if o.buildGraph != nil {
		o.buildGraph(g, snap, cascades)
	}
	// Compile always leaves the graph executable over whatever reachable
	// prefix it found, even when it reports a cycle (spec.md §8 scenario
	// S6) — log and keep going rather than skip the frame outright.
	if err := g.Compile(); err != nil {
		log.Printf("orchestrator: render graph compile failed: %v", err)
	}

	if err := g.Execute(o.backend, tok); err != nil {
		log.Printf("orchestrator: render graph execute failed: %v", err)
	}
	if err := o.backend.EndFrame(tok); err != nil {
		log.Printf("orchestrator: EndFrame failed: %v", err)
	}

	if o.renderCallback != nil {
		o.renderCallback(float32(o.fixedDT.Seconds()))
	}
	if o.profilingEnabled {
		o.prof.RecordRender()
	}
}

// Shutdown waits for any in-flight render task to finish, drives the GPU
// backend idle, then closes the window and finally shuts the scheduler
// down, per spec.md §4.9's shutdown sequence. Run calls this automatically
// before returning; it's exported so a caller that never calls Run (or
// that wants to force an early, orderly stop) can invoke it directly.
// Safe to call more than once; only the first call has effect.
func (o *FrameOrchestrator) Shutdown() {
	o.shutdownOnce.Do(func() {
		o.sched.Wait(o.renderTaskCounter.Load(), nil)
		o.backend.WaitIdle()
		if o.win != nil {
			if err := o.win.Close(); err != nil {
				log.Printf("orchestrator: closing window: %v", err)
			}
		}
		o.sched.Shutdown()
	})
}
