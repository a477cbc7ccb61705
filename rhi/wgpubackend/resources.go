package wgpubackend

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/emberforge/emberforge/rhi"
)

// CreateTexture allocates a wgpu texture and a default view for desc,
// mirroring the wgpu.TextureDescriptor fields the teacher backend already
// populates for its MSAA/depth/shadow textures (engine/renderer/
// wgpu_renderer_backend.go's ConfigureSurface and
// CreateShadowDepthTexture).
func (b *Backend) CreateTexture(desc rhi.TextureDesc) (rhi.TextureHandle, error) {
	depthOrArray := desc.DepthOrArray
	if depthOrArray == 0 {
		depthOrArray = 1
	}
	mipLevels := desc.MipLevels
	if mipLevels == 0 {
		mipLevels = 1
	}
	sampleCount := desc.SampleCount
	if sampleCount == 0 {
		sampleCount = 1
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Name,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: depthOrArray,
		},
		MipLevelCount: mipLevels,
		SampleCount:   sampleCount,
		Dimension:     wgpu.TextureDimension2D,
		Format:        toWGPUFormat(desc.Format),
		Usage:         toWGPUTextureUsage(desc.Usage),
	})
	if err != nil {
		return 0, fmt.Errorf("wgpubackend: create texture %q: %w", desc.Name, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return 0, fmt.Errorf("wgpubackend: create texture view %q: %w", desc.Name, err)
	}

	b.mu.Lock()
	b.nextTextureHandle++
	handle := b.nextTextureHandle
	b.textures[handle] = &textureEntry{texture: tex, view: view}
	b.mu.Unlock()
	return handle, nil
}

// DestroyTexture releases the wgpu texture and view backing h. A no-op if
// h is unknown (already destroyed, or the swapchain handle from a frame
// that has already ended).
func (b *Backend) DestroyTexture(h rhi.TextureHandle) {
	b.mu.Lock()
	entry, ok := b.textures[h]
	if ok {
		delete(b.textures, h)
	}
	b.mu.Unlock()
	if !ok {
		return
	}
	entry.view.Release()
	entry.texture.Release()
}

// CreateGPUBuffer allocates a device-local wgpu buffer, matching the usage
// combinations the teacher backend requests for vertex/index buffers
// (wgpu.BufferUsageVertex|CopyDst, wgpu.BufferUsageIndex|CopyDst) and
// uniform/storage buffers in InitBindGroup.
func (b *Backend) CreateGPUBuffer(desc rhi.BufferDesc) (rhi.BufferHandle, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            desc.Name,
		Size:             desc.Size,
		Usage:            toWGPUBufferUsage(desc.Usage),
		MappedAtCreation: false,
	})
	if err != nil {
		return 0, fmt.Errorf("wgpubackend: create buffer %q: %w", desc.Name, err)
	}
	return b.registerBuffer(buf), nil
}

// CreateUploadBuffer allocates a host-visible buffer sized for a one-shot
// upload of size bytes, used for data CopyBufferImmediate will write
// before a pass consumes it.
func (b *Backend) CreateUploadBuffer(size uint64) (rhi.BufferHandle, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "upload buffer",
		Size:             size,
		Usage:            wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return 0, fmt.Errorf("wgpubackend: create upload buffer: %w", err)
	}
	return b.registerBuffer(buf), nil
}

func (b *Backend) registerBuffer(buf *wgpu.Buffer) rhi.BufferHandle {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextBufferHandle++
	handle := b.nextBufferHandle
	b.buffers[handle] = buf
	return handle
}

// DestroyBuffer releases the wgpu buffer backing h.
func (b *Backend) DestroyBuffer(h rhi.BufferHandle) {
	b.mu.Lock()
	buf, ok := b.buffers[h]
	if ok {
		delete(b.buffers, h)
	}
	b.mu.Unlock()
	if ok {
		buf.Release()
	}
}

// CopyBufferImmediate uploads data into dst at offset via the device
// queue, matching the teacher's queue.WriteBuffer calls in WriteBuffers
// and RegisterRenderPipeline's vertex/index buffer initialization.
func (b *Backend) CopyBufferImmediate(dst rhi.BufferHandle, data []byte, offset uint64) error {
	b.mu.Lock()
	buf, ok := b.buffers[dst]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("wgpubackend: CopyBufferImmediate: unknown buffer handle %d", dst)
	}
	b.queue.WriteBuffer(buf, offset, data)
	return nil
}

// UpdateBindlessTexture records tex at slot in the backend's bindless
// texture table. The table is kept on the Go side; wiring it into an
// actual bindless bind group is left to whatever pipeline/bind-group
// layer a caller builds on top of this backend, since bind group layout
// is explicitly out of rhi.Backend's scope.
func (b *Backend) UpdateBindlessTexture(slot uint32, tex rhi.TextureHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.textures[tex]; !ok {
		return fmt.Errorf("wgpubackend: UpdateBindlessTexture: unknown texture handle %d", tex)
	}
	b.bindlessTable[slot] = tex
	return nil
}

// BindlessTexture returns the texture handle currently installed at slot,
// and whether one has been set.
func (b *Backend) BindlessTexture(slot uint32) (rhi.TextureHandle, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, ok := b.bindlessTable[slot]
	return h, ok
}

// TextureView resolves h to its underlying *wgpu.TextureView, for a pass
// that needs to bind it directly.
func (b *Backend) TextureView(h rhi.TextureHandle) (*wgpu.TextureView, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.textures[h]
	if !ok {
		return nil, false
	}
	return entry.view, true
}

// Buffer resolves h to its underlying *wgpu.Buffer, for a pass that needs
// to bind it directly.
func (b *Backend) Buffer(h rhi.BufferHandle) (*wgpu.Buffer, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.buffers[h]
	return buf, ok
}
