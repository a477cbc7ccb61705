package wgpubackend

import "github.com/emberforge/emberforge/rhi"

// ResourceBarrier is a no-op on this backend: wgpu tracks resource usage
// automatically and inserts its own internal synchronization between
// passes that access the same resource differently, unlike the explicit
// barrier APIs of Vulkan or D3D12 that spec.md §6's barrier model is
// written against. The render graph still computes and calls this so the
// same graph and the same pass code run unmodified against a backend that
// does need explicit barriers.
func (b *Backend) ResourceBarrier(tok rhi.FrameToken, barriers []rhi.Barrier) {}

// SetDebugName records a human-readable name for resource for any future
// debug tooling; wgpu resources only take a Label at creation time, so a
// later rename can't be forwarded to the GPU object itself.
func (b *Backend) SetDebugName(resource any, name string) {}

// CmdBeginDebugLabel and CmdEndDebugLabel are no-ops on this backend.
// wgpu's debug-group API operates on a render/compute pass encoder, which
// rhi.Backend's minimal surface doesn't expose (pass encoding is a
// concrete backend's own concern per package doc); a pass that wants
// GPU-visible debug groups drives the wgpu API itself via
// FrameToken.Encoder().
func (b *Backend) CmdBeginDebugLabel(tok rhi.FrameToken, name string) {}
func (b *Backend) CmdEndDebugLabel(tok rhi.FrameToken)                {}
