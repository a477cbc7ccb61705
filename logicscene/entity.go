package logicscene

import "sync/atomic"

// Entity is a scene-graph node binding a mesh, a material index, and a
// transform. Trimmed from the teacher's gameObject: skeletal animation and
// particle-ephemeral lifetime are out of scope (see SPEC_FULL.md's
// Non-goals), so position/rotation/scale live directly on the entity
// instead of being derived from an animator instance each frame.
type Entity struct {
	id      uint64
	enabled atomic.Bool
	static  bool

	mesh          *Mesh
	materialIndex uint32

	position [3]float32
	rotation [3]float32
	scale    [3]float32
}

// NewEntity creates an entity bound to mesh, configured by opts.
func NewEntity(id uint64, mesh *Mesh, opts ...EntityOption) *Entity {
	e := &Entity{
		id:       id,
		mesh:     mesh,
		scale:    [3]float32{1, 1, 1},
		rotation: [3]float32{},
		position: [3]float32{},
	}
	e.enabled.Store(true)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ID returns the entity's stable identifier.
func (e *Entity) ID() uint64 { return e.id }

// Enabled reports whether this entity should be extracted into render
// snapshots. Safe to toggle from any goroutine between frames.
func (e *Entity) Enabled() bool { return e.enabled.Load() }

// SetEnabled toggles whether this entity is extracted into render
// snapshots.
func (e *Entity) SetEnabled(enabled bool) { e.enabled.Store(enabled) }

// Static reports whether this entity was marked as having a transform that
// never changes after creation. The snapshot extractor copies the flag into
// the snapshot's StaticFlags; it still recomputes the world matrix and AABB
// of static entities on every extraction.
func (e *Entity) Static() bool { return e.static }

// Mesh returns the entity's bound mesh.
func (e *Entity) Mesh() *Mesh { return e.mesh }

// MaterialIndex returns the bindless material table index this entity
// draws with.
func (e *Entity) MaterialIndex() uint32 { return e.materialIndex }

// Transform returns position, rotation (Euler angles, radians), and scale.
func (e *Entity) Transform() (pos, rot, scale [3]float32) {
	return e.position, e.rotation, e.scale
}

// SetPosition updates the entity's world-space position.
func (e *Entity) SetPosition(x, y, z float32) {
	e.position = [3]float32{x, y, z}
}

// SetRotation updates the entity's Euler rotation, in radians.
func (e *Entity) SetRotation(x, y, z float32) {
	e.rotation = [3]float32{x, y, z}
}

// SetScale updates the entity's per-axis scale.
func (e *Entity) SetScale(x, y, z float32) {
	e.scale = [3]float32{x, y, z}
}

// EntityOption configures an Entity at construction time.
type EntityOption func(*Entity)

// WithStatic marks the entity as static (see Static).
func WithStatic(static bool) EntityOption {
	return func(e *Entity) { e.static = static }
}

// WithMaterialIndex sets the entity's bindless material table index.
func WithMaterialIndex(index uint32) EntityOption {
	return func(e *Entity) { e.materialIndex = index }
}

// WithInitialTransform sets the entity's starting position, rotation, and
// scale.
func WithInitialTransform(pos, rot, scale [3]float32) EntityOption {
	return func(e *Entity) {
		e.position = pos
		e.rotation = rot
		e.scale = scale
	}
}
