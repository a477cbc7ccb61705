package wgpubackend

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/emberforge/emberforge/rhi"
)

// toWGPUFormat maps the render graph's small, backend-agnostic format set
// onto concrete wgpu texture formats. Grounded on the literal formats the
// teacher backend already requests (wgpu.TextureFormatDepth24Plus/
// Depth32Float/RGBA8UnormSrgb in engine/renderer/wgpu_renderer_backend.go).
func toWGPUFormat(f rhi.TextureFormat) wgpu.TextureFormat {
	switch f {
	case rhi.FormatRGBA8UnormSRGB:
		return wgpu.TextureFormatRGBA8UnormSrgb
	case rhi.FormatRGBA16Float:
		return wgpu.TextureFormatRGBA16Float
	case rhi.FormatDepth32Float:
		return wgpu.TextureFormatDepth32Float
	case rhi.FormatBGRA8UnormSRGB:
		return wgpu.TextureFormatBGRA8UnormSrgb
	default:
		return wgpu.TextureFormatRGBA8UnormSrgb
	}
}

// toWGPUTextureUsage maps a rhi.TextureUsage bitmask onto the equivalent
// wgpu.TextureUsage bitmask.
func toWGPUTextureUsage(u rhi.TextureUsage) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	if u&rhi.UsageRenderTarget != 0 {
		out |= wgpu.TextureUsageRenderAttachment
	}
	if u&rhi.UsageDepthStencil != 0 {
		out |= wgpu.TextureUsageRenderAttachment
	}
	if u&rhi.UsageSampled != 0 {
		out |= wgpu.TextureUsageTextureBinding
	}
	if u&rhi.UsageStorage != 0 {
		out |= wgpu.TextureUsageStorageBinding
	}
	if u&rhi.UsageCopySrc != 0 {
		out |= wgpu.TextureUsageCopySrc
	}
	if u&rhi.UsageCopyDst != 0 {
		out |= wgpu.TextureUsageCopyDst
	}
	return out
}

// toWGPUBufferUsage maps a rhi.BufferUsage bitmask onto the equivalent
// wgpu.BufferUsage bitmask, matching the combinations the teacher backend
// already requests (e.g. wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst).
func toWGPUBufferUsage(u rhi.BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	if u&rhi.BufferUsageVertex != 0 {
		out |= wgpu.BufferUsageVertex
	}
	if u&rhi.BufferUsageIndex != 0 {
		out |= wgpu.BufferUsageIndex
	}
	if u&rhi.BufferUsageUniform != 0 {
		out |= wgpu.BufferUsageUniform
	}
	if u&rhi.BufferUsageStorage != 0 {
		out |= wgpu.BufferUsageStorage
	}
	if u&rhi.BufferUsageCopySrc != 0 {
		out |= wgpu.BufferUsageCopySrc
	}
	if u&rhi.BufferUsageCopyDst != 0 {
		out |= wgpu.BufferUsageCopyDst
	}
	return out
}
