// Package mirror computes planar reflection cameras: the reflection matrix
// about a plane, the reflected plane in camera space, and an oblique
// projection whose near plane coincides with the mirror.
//
// Matrices follow pkg/math: column-major, element (row, col) at col*4+row.
// Planes are (nx, ny, nz, d) with dot(n, p) + d == 0 on the plane.
package mirror

import (
	"errors"
	gomath "math"

	"github.com/Faultbox/midgard-mirror/pkg/math"
)

// DegenerateEpsilon bounds |dot(clip, q)| below which the oblique
// projection is numerically unstable.
const DegenerateEpsilon = 1e-6

// ErrDegenerateClipPlane is returned with the oblique projection when the
// clip plane passes too close to the eye for a stable result.
var ErrDegenerateClipPlane = errors.New("mirror: degenerate oblique clip plane")

// ReflectionMatrix returns the affine reflection about plane:
// M = I - 2·n·nᵗ with translation -2·d·n.
func ReflectionMatrix(plane math.Vec4) math.Mat4 {
	x, y, z, d := plane.X, plane.Y, plane.Z, plane.W

	m := math.Identity()
	m.Set(0, 0, 1-2*x*x)
	m.Set(0, 1, -2*x*y)
	m.Set(0, 2, -2*x*z)
	m.Set(0, 3, -2*d*x)

	m.Set(1, 0, -2*y*x)
	m.Set(1, 1, 1-2*y*y)
	m.Set(1, 2, -2*y*z)
	m.Set(1, 3, -2*d*y)

	m.Set(2, 0, -2*z*x)
	m.Set(2, 1, -2*z*y)
	m.Set(2, 2, 1-2*z*z)
	m.Set(2, 3, -2*d*z)
	return m
}

// CameraSpacePlane transforms the plane through offsetPos with the given
// normal into the space of worldToCamera. sideSign flips the plane for
// passes that render with inverted culling.
func CameraSpacePlane(worldToCamera math.Mat4, normal, offsetPos math.Vec3, sideSign float32) math.Vec4 {
	camPos := worldToCamera.TransformPoint(offsetPos)
	camNormal := worldToCamera.TransformDirection(normal).Normalize().Scale(sideSign)
	return math.PlaneFrom(camNormal, -camPos.Dot(camNormal))
}

// ObliqueProjection replaces the near plane of a perspective projection
// with clip (given in camera space). The far plane is skewed as a side
// effect, which is inherent to the technique.
//
// When the clip plane passes near the eye the denominator vanishes and the
// result is unstable. The matrix is still returned as computed, together
// with ErrDegenerateClipPlane.
func ObliqueProjection(projection math.Mat4, clip math.Vec4) (math.Mat4, error) {
	q := math.Vec4{
		X: (math.Sign(clip.X) + projection.At(0, 2)) / projection.At(0, 0),
		Y: (math.Sign(clip.Y) + projection.At(1, 2)) / projection.At(1, 1),
		Z: -1,
		W: (1 + projection.At(2, 2)) / projection.At(2, 3),
	}

	denom := clip.Dot(q)
	c := clip.Scale(2 / denom)

	m := projection
	m.SetRow(2, math.Vec4{X: c.X, Y: c.Y, Z: c.Z + 1, W: c.W})

	if gomath.Abs(float64(denom)) < DegenerateEpsilon || !m.IsFinite() {
		return m, ErrDegenerateClipPlane
	}
	return m, nil
}
