// Package snapshot holds the immutable, structure-of-arrays render-ready
// view of a logic scene extracted once per tick, and the parallel
// extractor that produces it.
package snapshot

import (
	"sync/atomic"

	"github.com/emberforge/emberforge/common"
)

// RenderSceneSnapshot is the read-only, structure-of-arrays (SoA) view of
// every enabled entity at one tick (no camera culling is applied), plus
// the camera and light state, consumed by the render
// graph's passes. Every slice is preallocated to Capacity() and indices
// claimed by InstanceCount are the only ones populated — extraction never
// grows the backing arrays mid-frame, so concurrent writers from
// scheduler.ParallelFor never race a reallocation.
type RenderSceneSnapshot struct {
	WorldMatrices   [][16]float32
	WorldAABBs      []common.AABB
	MeshIndices     []uint64
	MaterialIndices []uint32
	StaticFlags     []bool

	// InstanceCount is the number of instances actually populated this
	// tick. Claimed via atomic fetch-add during extraction so that
	// concurrent workers never write to the same slot.
	InstanceCount atomic.Int32

	CameraViewProjection [16]float32
	CameraFrustum        common.Frustum
	CameraPosition       [3]float32

	LightDirection [3]float32
	LightColor     [3]float32
	LightIntensity float32
	HasShadowLight bool
}

// New allocates a snapshot with room for capacity instances.
func New(capacity int) *RenderSceneSnapshot {
	return &RenderSceneSnapshot{
		WorldMatrices:   make([][16]float32, capacity),
		WorldAABBs:      make([]common.AABB, capacity),
		MeshIndices:     make([]uint64, capacity),
		MaterialIndices: make([]uint32, capacity),
		StaticFlags:     make([]bool, capacity),
	}
}

// Capacity returns the maximum number of instances this snapshot can hold
// without growing.
func (s *RenderSceneSnapshot) Capacity() int {
	return len(s.WorldMatrices)
}

// reset clears InstanceCount so the snapshot can be reused by the next
// extraction pass. The backing slices are overwritten slot-by-slot during
// extraction and don't need clearing themselves.
func (s *RenderSceneSnapshot) reset() {
	s.InstanceCount.Store(0)
}

// claimSlot atomically reserves the next free instance slot and returns
// its index, or -1 if the snapshot is at capacity.
func (s *RenderSceneSnapshot) claimSlot() int {
	idx := int(s.InstanceCount.Add(1)) - 1
	if idx >= s.Capacity() {
		s.InstanceCount.Add(-1)
		return -1
	}
	return idx
}
