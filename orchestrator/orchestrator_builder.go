package orchestrator

import (
	"time"

	"github.com/emberforge/emberforge/window"
)

// config holds FrameOrchestrator construction parameters assembled from
// functional options, matching the builder pattern the teacher repo uses
// for its engine and window types.
type config struct {
	win window.Window

	extractChunkSize int
	fixedDT          time.Duration
	maxFrameTime     time.Duration

	shadowNear, shadowFar float32
	numCascades           int
	cascadeLambda         float32

	tickCallback   TickFunc
	renderCallback RenderFunc
	buildGraph     GraphBuilderFunc
}

func defaultConfig() config {
	return config{
		extractChunkSize: snapshotDefaultChunkSize,
		fixedDT:          time.Second / 60,
		maxFrameTime:     defaultMaxFrameTime,
		shadowNear:       0.1,
		shadowFar:        100,
		numCascades:      4,
		cascadeLambda:    DefaultCascadeLambda,
	}
}

// defaultMaxFrameTime is spec.md §4.9's spiral-of-death clamp: a measured
// frame_time above this is capped before being added to the accumulator,
// so a long stall (a debugger pause, a slow disk load) can never force
// the logic phase into an unbounded catch-up burst of fixed_dt ticks.
const defaultMaxFrameTime = 250 * time.Millisecond

// snapshotDefaultChunkSize mirrors snapshot.DefaultExtractChunkSize
// without importing it solely for a constant, keeping this file's import
// list scoped to what config's fields actually need.
const snapshotDefaultChunkSize = 64

// Option configures a FrameOrchestrator at construction time.
type Option func(*config)

// WithWindow attaches a window whose events are polled once per main-loop
// iteration and whose PollEvents() == false return signals Run to quit.
func WithWindow(w window.Window) Option {
	return func(c *config) { c.win = w }
}

// WithTickRate sets spec.md §4.9's fixed_logic_timestep, expressed as
// ticks per second. Defaults to 60. Values <= 0 are ignored.
func WithTickRate(fps float64) Option {
	return func(c *config) {
		if fps > 0 {
			c.fixedDT = time.Duration(float64(time.Second) / fps)
		}
	}
}

// WithMaxFrameTime overrides the spiral-of-death clamp applied to each
// measured frame_time before it's added to the logic accumulator (spec.md
// §4.9). Defaults to 250ms. Values <= 0 are ignored.
func WithMaxFrameTime(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.maxFrameTime = d
		}
	}
}

// WithExtractChunkSize sets the parallel_for chunk size used when
// extracting a scene into a snapshot each logic tick.
func WithExtractChunkSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.extractChunkSize = n
		}
	}
}

// WithShadowCascades configures the shadow cascade split computation:
// near/far along the camera's view axis, the number of cascades, and the
// logarithmic/uniform blend factor (see ComputeCascadeSplits).
func WithShadowCascades(near, far float32, numCascades int, lambda float32) Option {
	return func(c *config) {
		c.shadowNear = near
		c.shadowFar = far
		if numCascades > 0 {
			c.numCascades = numCascades
		}
		c.cascadeLambda = lambda
	}
}

// WithTickCallback registers the function called once per fixed logic
// tick, before that tick's snapshot is extracted.
func WithTickCallback(fn TickFunc) Option {
	return func(c *config) { c.tickCallback = fn }
}

// WithRenderCallback registers the function called once per render frame,
// after the frame's render graph has executed.
func WithRenderCallback(fn RenderFunc) Option {
	return func(c *config) { c.renderCallback = fn }
}

// WithGraphBuilder registers the function that declares each frame's
// render graph passes. Required for Run to do any actual rendering; if
// unset, every frame compiles and executes an empty graph.
func WithGraphBuilder(fn GraphBuilderFunc) Option {
	return func(c *config) { c.buildGraph = fn }
}
