// Package wgpubackend implements rhi.Backend on top of cogentcore/webgpu,
// the WebGPU binding the teacher repo already uses for its own renderer
// backend. Grounded on engine/renderer/wgpu_renderer_backend.go, trimmed
// to the resource/barrier/command surface rhi.Backend declares — pipeline
// creation, shader modules, and bind groups are out of scope here; a
// render-graph pass that needs them type-asserts FrameToken.Encoder() to
// *wgpu.CommandEncoder and drives the wgpu API directly, the same way a
// concrete GPU backend always ends up doing more than its abstract
// interface describes.
package wgpubackend

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/emberforge/emberforge/rhi"
)

// Backend implements rhi.Backend against a single wgpu device, queue, and
// presentable surface.
type Backend struct {
	mu sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode

	nextTextureHandle rhi.TextureHandle
	textures          map[rhi.TextureHandle]*textureEntry

	nextBufferHandle rhi.BufferHandle
	buffers          map[rhi.BufferHandle]*wgpu.Buffer

	bindlessTable map[uint32]rhi.TextureHandle

	pool *rhi.ResourcePool

	// frame holds the in-flight frame's acquired swapchain image and
	// command encoder between BeginFrame and EndFrame.
	frame *frameState
}

type textureEntry struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

type frameState struct {
	surfaceTexture *wgpu.Texture
	view           *wgpu.TextureView
	viewHandle     rhi.TextureHandle
	encoder        *wgpu.CommandEncoder
}

// New creates an Instance/Adapter/Device/Queue and configures surface for
// presentation at width x height, mirroring the teacher's
// newWGPURendererBackend + ConfigureSurface sequence.
func New(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, forceFallbackAdapter bool) (*Backend, error) {
	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(surfaceDescriptor)

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    surface,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: request adapter: %w", err)
	}

	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 8

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "emberforge device",
		RequiredLimits: &wgpu.RequiredLimits{Limits: limits},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: request device: %w", err)
	}

	b := &Backend{
		instance:      instance,
		adapter:       adapter,
		device:        device,
		queue:         device.GetQueue(),
		surface:       surface,
		presentMode:   wgpu.PresentModeImmediate,
		textures:      make(map[rhi.TextureHandle]*textureEntry),
		buffers:       make(map[rhi.BufferHandle]*wgpu.Buffer),
		bindlessTable: make(map[uint32]rhi.TextureHandle),
		pool:          rhi.NewResourcePool(),
	}
	if err := b.configureSurface(width, height); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backend) configureSurface(width, height int) error {
	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 {
		return fmt.Errorf("wgpubackend: surface reports no supported formats")
	}
	b.surfaceFormat = capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	return nil
}

// Resize reconfigures the surface for a new client size, e.g. on window
// resize. Must not be called between BeginFrame and EndFrame.
func (b *Backend) Resize(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.configureSurface(width, height)
}

// BeginFrame acquires the next swapchain image and opens a command
// encoder for the frame.
func (b *Backend) BeginFrame() (rhi.FrameToken, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame != nil {
		return rhi.FrameToken{}, fmt.Errorf("wgpubackend: previous frame not yet ended")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return rhi.FrameToken{}, fmt.Errorf("wgpubackend: acquire swapchain texture: %w", err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return rhi.FrameToken{}, fmt.Errorf("wgpubackend: create swapchain view: %w", err)
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return rhi.FrameToken{}, fmt.Errorf("wgpubackend: create command encoder: %w", err)
	}

	b.nextTextureHandle++
	handle := b.nextTextureHandle
	b.textures[handle] = &textureEntry{texture: surfaceTexture, view: view}

	b.frame = &frameState{
		surfaceTexture: surfaceTexture,
		view:           view,
		viewHandle:     handle,
		encoder:        encoder,
	}
	return rhi.NewFrameToken(encoder), nil
}

// EndFrame finishes the frame's command encoder, submits it, and presents.
func (b *Backend) EndFrame(tok rhi.FrameToken) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame == nil {
		return fmt.Errorf("wgpubackend: EndFrame called without a matching BeginFrame")
	}
	frame := b.frame
	b.frame = nil
	delete(b.textures, frame.viewHandle)

	commandBuffer, err := frame.encoder.Finish(nil)
	if err != nil {
		frame.encoder.Release()
		frame.view.Release()
		frame.surfaceTexture.Release()
		return fmt.Errorf("wgpubackend: finish command encoder: %w", err)
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	frame.encoder.Release()
	frame.view.Release()

	b.surface.Present()
	frame.surfaceTexture.Release()
	return nil
}

// WaitIdle blocks until all submitted GPU work has completed.
func (b *Backend) WaitIdle() {
	b.device.Poll(true, nil)
}

// CurrentSwapchainTexture returns the texture handle acquired by the most
// recent BeginFrame, valid until the matching EndFrame.
func (b *Backend) CurrentSwapchainTexture() rhi.TextureHandle {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frame == nil {
		return 0
	}
	return b.frame.viewHandle
}

// ResourcePool returns the backend's transient resource pool.
func (b *Backend) ResourcePool() *rhi.ResourcePool {
	return b.pool
}

var _ rhi.Backend = (*Backend)(nil)
