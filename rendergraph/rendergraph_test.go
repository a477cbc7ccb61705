package rendergraph

import (
	"testing"

	"github.com/emberforge/emberforge/rhi"
)

// fakeBackend is a minimal rhi.Backend test double that hands out
// incrementing texture handles and records every barrier and debug label
// it's asked to insert, so tests can assert on pass ordering and barrier
// placement without a real GPU.
type fakeBackend struct {
	nextHandle rhi.TextureHandle
	pool       *rhi.ResourcePool

	createdCount int
	barrierLog   [][]rhi.Barrier
	labelLog     []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{pool: rhi.NewResourcePool()}
}

func (b *fakeBackend) BeginFrame() (rhi.FrameToken, error) { return rhi.FrameToken{}, nil }
func (b *fakeBackend) EndFrame(rhi.FrameToken) error        { return nil }
func (b *fakeBackend) WaitIdle()                            {}
func (b *fakeBackend) CurrentSwapchainTexture() rhi.TextureHandle {
	return 0
}

func (b *fakeBackend) CreateTexture(desc rhi.TextureDesc) (rhi.TextureHandle, error) {
	b.nextHandle++
	b.createdCount++
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

func (b *fakeBackend) ResourceBarrier(tok rhi.FrameToken, barriers []rhi.Barrier) {
	b.barrierLog = append(b.barrierLog, barriers)
}
func (b *fakeBackend) SetDebugName(resource any, name string)        {}
func (b *fakeBackend) CmdBeginDebugLabel(tok rhi.FrameToken, name string) {
	b.labelLog = append(b.labelLog, name)
}
func (b *fakeBackend) CmdEndDebugLabel(tok rhi.FrameToken) {}

func (b *fakeBackend) ResourcePool() *rhi.ResourcePool { return b.pool }

var _ rhi.Backend = (*fakeBackend)(nil)

func shadowDesc() rhi.TextureDesc {
	return rhi.TextureDesc{Name: "shadow", Width: 2048, Height: 2048, Format: rhi.FormatDepth32Float, Usage: rhi.UsageDepthStencil | rhi.UsageSampled}
}

func colorDesc() rhi.TextureDesc {
	return rhi.TextureDesc{Name: "color", Width: 1920, Height: 1080, Format: rhi.FormatRGBA16Float, Usage: rhi.UsageRenderTarget | rhi.UsageSampled}
}

// TestExecuteRunsPassesInDependencyOrder exercises S4 from spec.md §8: a
// pass that reads a resource must run after the pass that produced it. The
// producer is registered first here, so registration order and dependency
// order coincide.
func TestExecuteRunsPassesInDependencyOrder(t *testing.T) {
	var ran []string
	backend := newFakeBackend()

	g2 := New()
	var shadowHandle ResourceHandle
	g2.AddPass("shadow", func(b *Builder) ExecuteFunc {
		shadowHandle = b.CreateTexture("shadow", shadowDesc())
		return func(ctx *ExecuteContext) { ran = append(ran, "shadow") }
	})
	g2.AddPass("main", func(b *Builder) ExecuteFunc {
		shadowHandle = b.Read(shadowHandle, rhi.StateShaderRead)
		return func(ctx *ExecuteContext) { ran = append(ran, "main") }
	})

	if err := g2.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	tok, _ := backend.BeginFrame()
	if err := g2.Execute(backend, tok); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(ran) != 2 || ran[0] != "shadow" || ran[1] != "main" {
		t.Fatalf("execution order = %v, want [shadow main]", ran)
	}
}

// TestBarrierInsertedOnStateTransition checks that a resource moving from
// one declared state to another produces barriers for its transitions: at
// least the initial undefined->depthwrite and the depthwrite->shaderread
// between the two passes.
func TestBarrierInsertedOnStateTransition(t *testing.T) {
	g := New()
	var tex ResourceHandle
	g.AddPass("depth", func(b *Builder) ExecuteFunc {
		tex = b.CreateTexture("depth", shadowDesc())
		tex = b.Write(tex, rhi.StateDepthWrite)
		return func(ctx *ExecuteContext) {}
	})
	g.AddPass("sample", func(b *Builder) ExecuteFunc {
		tex = b.Read(tex, rhi.StateShaderRead)
		return func(ctx *ExecuteContext) {}
	})

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	backend := newFakeBackend()
	tok, _ := backend.BeginFrame()
	if err := g.Execute(backend, tok); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	total := 0
	for _, batch := range backend.barrierLog {
		total += len(batch)
	}
	if total < 2 {
		t.Fatalf("expected at least 2 barrier transitions (undefined->depthwrite, depthwrite->shaderread), got %d", total)
	}
}

// TestTransientResourceIsReusedNotReallocated checks spec.md §6's pooling
// requirement: a second graph requesting a texture of the same shape
// reuses the first graph's released allocation instead of creating a new
// physical resource.
func TestTransientResourceIsReusedNotReallocated(t *testing.T) {
	backend := newFakeBackend()

	runOnce := func() {
		g := New()
		g.AddPass("p", func(b *Builder) ExecuteFunc {
			b.CreateTexture("scratch", colorDesc())
			return func(ctx *ExecuteContext) {}
		})
		if err := g.Compile(); err != nil {
			t.Fatalf("Compile: %v", err)
		}
		tok, _ := backend.BeginFrame()
		if err := g.Execute(backend, tok); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	}

	runOnce()
	runOnce()
	runOnce()

	if backend.createdCount != 1 {
		t.Fatalf("backend.createdCount = %d, want 1 (later frames should reuse the pooled texture)", backend.createdCount)
	}
}

// TestKahnSortDetectsCycle ensures the topological sort refuses to
// silently mis-order a dependency set that isn't actually a DAG —
// something Compile itself can't construct through the public Builder
// API (reads always depend on an earlier producer), so this exercises the
// sort's own cycle guard directly.
func TestKahnSortDetectsCycle(t *testing.T) {
	deps := []map[int]bool{
		0: {1: true},
		1: {0: true},
	}
	if _, err := kahnSort(deps); err == nil {
		t.Fatalf("expected kahnSort to detect a cycle, got nil error")
	}
}

// TestGraphCompileAndExecuteSurviveACycle exercises S6 from spec.md §8 at
// the Graph level (not just kahnSort in isolation): two passes that read
// each other's output form a cycle the public Builder API can never
// construct (every Read targets a handle an earlier AddPass call already
// returned), so the cyclic pair is wired directly onto the graph's
// internal fields here. Compile must report the cycle but still leave the
// graph executable over whatever reachable prefix it found — here, the
// one pass with no dependency on the cyclic pair — and Execute must run
// that prefix without deadlocking or panicking.
func TestGraphCompileAndExecuteSurviveACycle(t *testing.T) {
	g := New()

	vA := len(g.versions)
	g.versions = append(g.versions, &resourceVersion{name: "a", base: vA, producedBy: 0})
	vB := len(g.versions)
	g.versions = append(g.versions, &resourceVersion{name: "b", base: vB, producedBy: 1})

	var ran []string
	g.passes = append(g.passes,
		&passRecord{
			name: "p0",
			accesses: []access{
				{version: vA, kind: accessCreate, state: rhi.StateUndefined},
				{version: vB, kind: accessRead, state: rhi.StateShaderRead},
			},
			execute: func(ctx *ExecuteContext) { ran = append(ran, "p0") },
		},
		&passRecord{
			name: "p1",
			accesses: []access{
				{version: vB, kind: accessCreate, state: rhi.StateUndefined},
				{version: vA, kind: accessRead, state: rhi.StateShaderRead},
			},
			execute: func(ctx *ExecuteContext) { ran = append(ran, "p1") },
		},
		&passRecord{
			name:    "p2",
			execute: func(ctx *ExecuteContext) { ran = append(ran, "p2") },
		},
	)

	err := g.Compile()
	if err == nil {
		t.Fatal("expected Compile to report the p0<->p1 cycle, got nil")
	}
	if !g.compiled {
		t.Fatal("Compile must still mark the graph executable over its reachable prefix")
	}
	if len(g.order) != 1 || g.order[0] != 2 {
		t.Fatalf("g.order = %v, want [2] (only the acyclic pass p2 is reachable)", g.order)
	}

	backend := newFakeBackend()
	tok, _ := backend.BeginFrame()
	if err := g.Execute(backend, tok); err != nil {
		t.Fatalf("Execute on a partially-cyclic graph must still run the reachable prefix, got error: %v", err)
	}
	if len(ran) != 1 || ran[0] != "p2" {
		t.Fatalf("ran = %v, want [p2]: the cyclic pair must never run", ran)
	}
}
