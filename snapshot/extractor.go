package snapshot

import (
	"github.com/emberforge/emberforge/common"
	"github.com/emberforge/emberforge/logicscene"
	"github.com/emberforge/emberforge/scheduler"
)

// DefaultExtractChunkSize is the default parallel_for chunk size used by
// Extract, chosen so a chunk's matrix/AABB math comfortably amortizes one
// fiber's scheduling overhead without making any single chunk a
// load-imbalance outlier.
const DefaultExtractChunkSize = 64

// Parallelizer is satisfied by both *scheduler.TaskScheduler (for callers
// outside any fiber) and *scheduler.TaskContext (for callers already
// running inside one), so Extract can be driven from either the logic
// thread's outer loop or from within a spawned logic task.
type Parallelizer interface {
	ParallelFor(count, chunkSize int, body func(ctx *scheduler.TaskContext, i, chunkStart int))
}

// Extract walks every entity in scene and populates dst in place,
// fanning the per-entity model-matrix and world-AABB computation out
// across p via parallel_for (spec.md §5.3's "extraction is
// embarrassingly parallel over entities" requirement). dst is reset
// first, so a snapshot can be reused frame over frame without
// reallocating its backing arrays — callers should size dst generously
// enough that scene.Count() never exceeds dst.Capacity(); entities
// beyond capacity are silently dropped rather than causing a data race
// on a grown slice.
func Extract(p Parallelizer, scene *logicscene.Scene, dst *RenderSceneSnapshot) {
	ExtractChunked(p, scene, dst, DefaultExtractChunkSize)
}

// ExtractChunked is Extract with an explicit parallel_for chunk size.
func ExtractChunked(p Parallelizer, scene *logicscene.Scene, dst *RenderSceneSnapshot, chunkSize int) {
	dst.reset()

	if cam := scene.Camera(); cam != nil {
		dst.CameraViewProjection = cam.ViewProjectionMatrix()
		dst.CameraFrustum = cam.Frustum()
		dst.CameraPosition = cam.Position()
	}
	if light := scene.Light(); light != nil {
		dst.LightDirection = light.Direction()
		dst.LightColor = light.Color()
		dst.LightIntensity = light.Intensity()
		dst.HasShadowLight = light.CastsShadows()
	} else {
		dst.HasShadowLight = false
	}

	entities := scene.Snapshot()
	if len(entities) == 0 {
		return
	}
	if chunkSize <= 0 {
		chunkSize = DefaultExtractChunkSize
	}

	p.ParallelFor(len(entities), chunkSize, func(ctx *scheduler.TaskContext, i, chunkStart int) {
		e := entities[i]
		if !e.Enabled() {
			return
		}
		idx := dst.claimSlot()
		if idx < 0 {
			return
		}

		pos, rot, scale := e.Transform()
		var model [16]float32
		common.BuildModelMatrix(model[:],
			pos[0], pos[1], pos[2],
			rot[0], rot[1], rot[2],
			scale[0], scale[1], scale[2])

		mesh := e.Mesh()
		dst.WorldMatrices[idx] = model
		dst.MeshIndices[idx] = mesh.ID()
		dst.WorldAABBs[idx] = common.TransformAABB(mesh.LocalAABB(), model[:])
		dst.MaterialIndices[idx] = e.MaterialIndex()
		dst.StaticFlags[idx] = e.Static()
	})
}
