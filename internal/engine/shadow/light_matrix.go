package shadow

import (
	gomath "math"

	"github.com/Faultbox/midgard-mirror/pkg/math"
)

// LightMatrix computes the light-space view-projection of a directional
// light travelling along lightDir so that the whole of bounds fits the
// shadow map.
func LightMatrix(lightDir math.Vec3, bounds math.AABB) math.Mat4 {
	toLight := lightDir.Normalize().Negate()
	center := bounds.Center()
	radius := bounds.Radius()

	// Far enough back that nothing in bounds is behind the light.
	lightDistance := radius * 2.0
	lightPos := center.Add(toLight.Scale(lightDistance))

	// Avoid an up vector parallel to the light.
	up := math.Up
	if abs32(toLight.Y) > 0.99 {
		up = math.Vec3{Z: 1}
	}
	view := math.LookAt(lightPos, center, up)

	// Padding avoids clipping at the map edges.
	halfSize := radius * 1.1
	near := float32(0.1)
	far := lightDistance + halfSize

	return math.Ortho(-halfSize, halfSize, -halfSize, halfSize, near, far).Mul(view)
}

// TexelSize returns the world-space width of one shadow map texel for a
// map of resolution covering bounds. Useful for sizing depth bias.
func TexelSize(bounds math.AABB, resolution int32) float32 {
	if resolution <= 0 {
		return 0
	}
	return 2 * bounds.Radius() * 1.1 / float32(resolution)
}

func abs32(x float32) float32 {
	return float32(gomath.Abs(float64(x)))
}
