package wgpubackend

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/emberforge/emberforge/rhi"
)

func TestToWGPUFormatKnownFormats(t *testing.T) {
	cases := map[rhi.TextureFormat]wgpu.TextureFormat{
		rhi.FormatRGBA8UnormSRGB: wgpu.TextureFormatRGBA8UnormSrgb,
		rhi.FormatRGBA16Float:    wgpu.TextureFormatRGBA16Float,
		rhi.FormatDepth32Float:   wgpu.TextureFormatDepth32Float,
		rhi.FormatBGRA8UnormSRGB: wgpu.TextureFormatBGRA8UnormSrgb,
	}
	for in, want := range cases {
		if got := toWGPUFormat(in); got != want {
			t.Errorf("toWGPUFormat(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestToWGPUTextureUsageCombinesBits(t *testing.T) {
	got := toWGPUTextureUsage(rhi.UsageRenderTarget | rhi.UsageSampled)
	want := wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding
	if got != want {
		t.Errorf("toWGPUTextureUsage(RenderTarget|Sampled) = %v, want %v", got, want)
	}
}

func TestToWGPUBufferUsageCombinesBits(t *testing.T) {
	got := toWGPUBufferUsage(rhi.BufferUsageVertex | rhi.BufferUsageCopyDst)
	want := wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	if got != want {
		t.Errorf("toWGPUBufferUsage(Vertex|CopyDst) = %v, want %v", got, want)
	}
}
