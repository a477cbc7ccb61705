package logicscene

import (
	"sync"

	"github.com/emberforge/emberforge/common"
)

// Camera holds perspective settings and the derived view/projection
// matrices, recomputed by SetLookAt and SetAspect. Trimmed from the teacher's cameraImpl:
// no CameraController or bind group provider — the logic scene owns plain
// position/target state directly, and matrix upload to the GPU is the RHI
// backend's concern.
type Camera struct {
	mu sync.Mutex

	position [3]float32
	target   [3]float32
	up       [3]float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix       [16]float32
	projectionMatrix [16]float32
	viewProjMatrix   [16]float32
	frustum          common.Frustum
}

// NewCamera creates a camera with the given perspective parameters. Eye and
// target both start at the origin, which gives a degenerate view matrix
// until SetLookAt sets a real position and target.
func NewCamera(fovRadians, aspect, near, far float32) *Camera {
	c := &Camera{
		up:     [3]float32{0, 1, 0},
		fov:    fovRadians,
		aspect: aspect,
		near:   near,
		far:    far,
	}
	common.Identity(c.viewMatrix[:])
	c.recomputeLocked()
	return c
}

// SetLookAt positions the camera and points it at target.
func (c *Camera) SetLookAt(position, target, up [3]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = position
	c.target = target
	c.up = up
	c.recomputeLocked()
}

// SetAspect updates the aspect ratio (width / height), e.g. on window
// resize, and recomputes the projection matrix.
func (c *Camera) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.recomputeLocked()
}

// Position returns the camera's world-space eye position.
func (c *Camera) Position() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

// Near returns the near clipping plane distance.
func (c *Camera) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

// Far returns the far clipping plane distance.
func (c *Camera) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

// Fov returns the vertical field of view in radians.
func (c *Camera) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

// ViewMatrix returns the current column-major view matrix.
func (c *Camera) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

// ProjectionMatrix returns the current column-major projection matrix.
func (c *Camera) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

// ViewProjectionMatrix returns the combined view-projection matrix.
func (c *Camera) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjMatrix
}

// Frustum returns the world-space frustum extracted from the current
// view-projection matrix. The snapshot extractor copies it into each
// snapshot's CameraFrustum; extraction does not cull against it.
func (c *Camera) Frustum() common.Frustum {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frustum
}

func (c *Camera) recomputeLocked() {
	common.LookAt(c.viewMatrix[:],
		c.position[0], c.position[1], c.position[2],
		c.target[0], c.target[1], c.target[2],
		c.up[0], c.up[1], c.up[2])
	common.Perspective(c.projectionMatrix[:], c.fov, c.aspect, c.near, c.far)
	common.Mul4(c.viewProjMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
	c.frustum = common.ExtractFrustumFromMatrix(c.viewProjMatrix[:])
}
