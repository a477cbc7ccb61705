package logicscene

import "math"

// DirectionalLight is a single directional light source — the only light
// type the cascaded shadow pass in rendergraph needs (point/spot lights
// and Forward+ tile culling are out of scope; see SPEC_FULL.md). Trimmed
// from the teacher's lightImpl, dropping the range/cone fields that only
// apply to point and spot lights.
type DirectionalLight struct {
	direction [3]float32
	color     [3]float32
	intensity float32
	castsShadows bool
}

// NewDirectionalLight creates a directional light pointed along direction
// (normalized on construction).
func NewDirectionalLight(direction, color [3]float32, intensity float32, castsShadows bool) *DirectionalLight {
	l := &DirectionalLight{color: color, intensity: intensity, castsShadows: castsShadows}
	l.SetDirection(direction[0], direction[1], direction[2])
	return l
}

// Direction returns the light's normalized direction.
func (l *DirectionalLight) Direction() [3]float32 { return l.direction }

// Color returns the light's RGB color.
func (l *DirectionalLight) Color() [3]float32 { return l.color }

// Intensity returns the light's scalar intensity multiplier.
func (l *DirectionalLight) Intensity() float32 { return l.intensity }

// CastsShadows reports whether this light should drive the cascaded
// shadow map pass.
func (l *DirectionalLight) CastsShadows() bool { return l.castsShadows }

// SetDirection sets and normalizes the light's direction.
func (l *DirectionalLight) SetDirection(x, y, z float32) {
	length := float32(math.Sqrt(float64(x*x + y*y + z*z)))
	if length == 0 {
		l.direction = [3]float32{0, -1, 0}
		return
	}
	l.direction = [3]float32{x / length, y / length, z / length}
}

// SetIntensity sets the light's scalar intensity multiplier.
func (l *DirectionalLight) SetIntensity(intensity float32) {
	l.intensity = intensity
}
