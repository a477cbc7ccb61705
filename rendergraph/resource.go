// Package rendergraph implements the declarative, single-threaded render
// graph from spec.md §6: passes declare what resources they create, read,
// and write; Compile derives a dependency order via Kahn's algorithm,
// places GPU resource-state barriers automatically, and schedules
// transient resource allocation/release around each resource's actual
// lifetime.
package rendergraph

import "github.com/emberforge/emberforge/rhi"

// ResourceHandle identifies one version of one logical resource within a
// single Graph build. Write returns a new handle representing the
// resource after that pass's modification — later passes that want the
// updated contents read the new handle, the same "resource versioning"
// convention used by every production frame graph (Frostbite's
// FrameGraph, Unreal's RDG) to make the producer of any given read
// unambiguous without a separate dependency-declaration step.
//
// version 0 is never handed out by New/CreateTexture/ImportTexture (see
// Graph.New's sentinel entry), so the zero value ResourceHandle{} always
// reads as the invalid handle spec.md §3 requires, rather than silently
// aliasing whichever resource a graph happened to create first.
type ResourceHandle struct {
	version int
}

type accessKind int

const (
	accessCreate accessKind = iota
	accessRead
	accessWrite
)

type access struct {
	version int
	kind    accessKind
	state   rhi.ResourceState
}

// resourceVersion is one entry in the graph's version table. base groups
// every version of the same logical resource together for lifetime
// tracking and transient pooling.
type resourceVersion struct {
	name         string
	desc         rhi.TextureDesc
	base         int
	producedBy   int // pass index, -1 until a pass creates/writes this version
	imported     bool
	importedHandle rhi.TextureHandle
}
