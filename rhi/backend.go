// Package rhi defines the abstract render hardware interface the render
// graph targets. A RenderGraph pass only ever calls through Backend — it
// never imports a concrete GPU API package directly — so the same graph
// can run unmodified against any backend that implements this interface.
// Grounded on the teacher's wgpuRendererBackend interface
// (engine/renderer/wgpu_renderer_backend.go), trimmed to the
// resource/barrier/command surface the render graph actually needs and
// stripped of pipeline/shader/bind-group-provider specifics, which are the
// concrete backend's problem, not the graph's.
package rhi

// TextureHandle and BufferHandle are opaque references to backend-owned
// GPU resources. The zero value of each is never a valid handle.
type TextureHandle uint32
type BufferHandle uint32

// ResourceState is the GPU resource state used to derive automatic
// barriers between passes, per spec.md §6's state-transition model.
type ResourceState int

const (
	StateUndefined ResourceState = iota
	StateRenderTarget
	StateDepthWrite
	StateDepthRead
	StateShaderRead
	StateShaderReadWrite
	StateCopySrc
	StateCopyDst
	StatePresent
)

// TextureDesc describes a texture to create, transient or persistent.
type TextureDesc struct {
	Name          string
	Width, Height uint32
	DepthOrArray  uint32
	MipLevels     uint32
	Format        TextureFormat
	Usage         TextureUsage
	SampleCount   uint32
}

// TextureFormat mirrors the handful of GPU texture formats the render
// graph's passes actually request.
type TextureFormat int

const (
	FormatUnknown TextureFormat = iota
	FormatRGBA8UnormSRGB
	FormatRGBA16Float
	FormatDepth32Float
	FormatBGRA8UnormSRGB
)

// TextureUsage is a bitmask of how a texture will be bound.
type TextureUsage uint32

const (
	UsageRenderTarget TextureUsage = 1 << iota
	UsageDepthStencil
	UsageSampled
	UsageStorage
	UsageCopySrc
	UsageCopyDst
)

// BufferDesc describes a GPU buffer to create.
type BufferDesc struct {
	Name  string
	Size  uint64
	Usage BufferUsage
}

// BufferUsage is a bitmask of how a buffer will be bound.
type BufferUsage uint32

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageCopySrc
	BufferUsageCopyDst
)

// Barrier describes a resource state transition the backend must insert
// between two passes that access the same resource in incompatible ways.
type Barrier struct {
	Texture  TextureHandle // zero if this barrier targets a buffer instead
	Buffer   BufferHandle
	IsBuffer bool
	Before   ResourceState
	After    ResourceState
}

// FrameToken is returned by BeginFrame and threaded through EndFrame so a
// backend can associate per-frame command-encoder state without the
// render graph needing to know what that state looks like.
type FrameToken struct {
	encoder any
}

// NewFrameToken wraps backend-private per-frame state (e.g. a command
// encoder) in a FrameToken a concrete Backend can hand back to the render
// graph and receive again in EndFrame/ResourceBarrier calls.
func NewFrameToken(encoder any) FrameToken {
	return FrameToken{encoder: encoder}
}

// Encoder returns the opaque per-frame state a concrete Backend stashed
// via NewFrameToken. A pass that needs backend-specific command recording
// type-asserts the result to its backend's own encoder type.
func (t FrameToken) Encoder() any {
	return t.encoder
}

// Backend is the abstract render hardware interface. One concrete
// implementation lives in rhi/wgpubackend.
type Backend interface {
	// BeginFrame acquires the next swapchain image and opens a command
	// encoder for the frame. The frame orchestrator calls it from its
	// render task, on whichever worker runs that task.
	BeginFrame() (FrameToken, error)

	// EndFrame submits the frame's recorded commands and presents.
	EndFrame(tok FrameToken) error

	// WaitIdle blocks until all submitted GPU work has completed. Used
	// during shutdown, never in the steady-state frame loop.
	WaitIdle()

	// CurrentSwapchainTexture returns the texture handle for the frame
	// acquired by the most recent BeginFrame.
	CurrentSwapchainTexture() TextureHandle

	CreateTexture(desc TextureDesc) (TextureHandle, error)
	DestroyTexture(h TextureHandle)

	CreateGPUBuffer(desc BufferDesc) (BufferHandle, error)
	CreateUploadBuffer(size uint64) (BufferHandle, error)
	DestroyBuffer(h BufferHandle)

	// CopyBufferImmediate uploads data into dst at offset outside of any
	// render-graph pass's recorded commands, used for one-shot uploads
	// (e.g. the snapshot's instance buffer) that don't need to be
	// sequenced against a particular pass.
	CopyBufferImmediate(dst BufferHandle, data []byte, offset uint64) error

	// UpdateBindlessTexture installs tex into slot of the backend's
	// bindless texture table, used by materials referencing textures by
	// index rather than a per-draw bind group.
	UpdateBindlessTexture(slot uint32, tex TextureHandle) error

	// ResourceBarrier inserts the given state transitions into the
	// current frame's command encoder, in order. Called by the render
	// graph's executor between passes per spec.md §6's barrier-placement
	// algorithm — passes never call this directly.
	ResourceBarrier(tok FrameToken, barriers []Barrier)

	SetDebugName(resource any, name string)
	CmdBeginDebugLabel(tok FrameToken, name string)
	CmdEndDebugLabel(tok FrameToken)

	// ResourcePool returns the backend's transient texture pool, keyed
	// by TextureDesc shape so the render graph can reuse a physical
	// allocation across passes whose lifetimes don't overlap.
	ResourcePool() *ResourcePool
}
