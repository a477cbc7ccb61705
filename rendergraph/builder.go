package rendergraph

import "github.com/emberforge/emberforge/rhi"

// Builder is handed to a pass's setup function so it can declare its
// resource creates/reads/writes before Compile derives pass ordering and
// barrier placement from those declarations. A Builder is only valid for
// the duration of one AddPass call.
type Builder struct {
	graph     *Graph
	passIndex int
}

// CreateTexture registers a brand-new transient texture owned by this
// pass and returns the handle to its first version.
func (b *Builder) CreateTexture(name string, desc rhi.TextureDesc) ResourceHandle {
	idx := len(b.graph.versions)
	v := &resourceVersion{name: name, desc: desc, base: idx, producedBy: b.passIndex}
	b.graph.versions = append(b.graph.versions, v)
	b.graph.passes[b.passIndex].accesses = append(b.graph.passes[b.passIndex].accesses,
		access{version: idx, kind: accessCreate, state: rhi.StateUndefined})
	return ResourceHandle{version: idx}
}

// ImportTexture registers a backend-owned texture (e.g. the swapchain
// image) that the graph does not allocate or pool itself, returning a
// handle usable like any other resource in Read/Write calls.
func (b *Builder) ImportTexture(name string, handle rhi.TextureHandle, desc rhi.TextureDesc) ResourceHandle {
	idx := len(b.graph.versions)
	v := &resourceVersion{
		name: name, desc: desc, base: idx, producedBy: -1,
		imported: true, importedHandle: handle,
	}
	b.graph.versions = append(b.graph.versions, v)
	return ResourceHandle{version: idx}
}

// Read declares that this pass reads h in the given state, establishing a
// dependency on whichever pass produced h.
func (b *Builder) Read(h ResourceHandle, state rhi.ResourceState) ResourceHandle {
	b.graph.passes[b.passIndex].accesses = append(b.graph.passes[b.passIndex].accesses,
		access{version: h.version, kind: accessRead, state: state})
	return h
}

// Write declares that this pass writes h in the given state and returns a
// new handle representing the resource's contents after this pass runs.
// Downstream passes that want the updated contents must use the returned
// handle, not h.
func (b *Builder) Write(h ResourceHandle, state rhi.ResourceState) ResourceHandle {
	src := b.graph.versions[h.version]
	idx := len(b.graph.versions)
	next := &resourceVersion{
		name: src.name, desc: src.desc, base: src.base, producedBy: b.passIndex,
		imported: src.imported, importedHandle: src.importedHandle,
	}
	b.graph.versions = append(b.graph.versions, next)
	b.graph.passes[b.passIndex].accesses = append(b.graph.passes[b.passIndex].accesses,
		access{version: h.version, kind: accessRead, state: state},
		access{version: idx, kind: accessWrite, state: state},
	)
	return ResourceHandle{version: idx}
}
