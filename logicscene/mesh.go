package logicscene

import "github.com/emberforge/emberforge/common"

// Mesh is a static, GPU-resident triangle mesh referenced by one or more
// entities. The logic scene only needs to know a mesh's identity (for
// snapshot instancing buckets) and its local-space bounding box (for
// world-space AABB derivation and shadow cascade fitting); vertex/index
// buffer upload and layout are the loader/RHI's concern, not the scene's.
type Mesh struct {
	id        uint64
	localAABB common.AABB
}

// NewMesh registers a mesh's identity and local bounds with the logic
// scene. id must be stable for the mesh's lifetime — it is the key render
// snapshots and the render graph use to bucket instances by draw call.
func NewMesh(id uint64, localAABB common.AABB) *Mesh {
	return &Mesh{id: id, localAABB: localAABB}
}

// ID returns the mesh's stable identifier.
func (m *Mesh) ID() uint64 {
	return m.id
}

// LocalAABB returns the mesh's bounding box in its own local space.
func (m *Mesh) LocalAABB() common.AABB {
	return m.localAABB
}
