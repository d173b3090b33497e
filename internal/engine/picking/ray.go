// Package picking provides ray casting and object picking utilities.
package picking

import (
	gomath "math"

	"github.com/Faultbox/midgard-mirror/pkg/math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// ScreenToRay converts screen coordinates to a world-space ray.
// screenX, screenY are pixel coordinates, viewportW/H are viewport dimensions.
// invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj math.Mat4) Ray {
	ndcX := 2.0*screenX/viewportW - 1.0
	ndcY := 1.0 - 2.0*screenY/viewportH // Flip Y

	// Unproject the near and far plane points.
	near := invViewProj.TransformPoint(math.Vec3{X: ndcX, Y: ndcY, Z: -1})
	far := invViewProj.TransformPoint(math.Vec3{X: ndcX, Y: ndcY, Z: 1})

	return Ray{Origin: near, Direction: far.Sub(near).Normalize()}
}

// IntersectPlane intersects the ray with the plane n·x + d = 0 given as
// (n, d). It returns the distance along the ray and false when the ray is
// parallel to the plane or the plane is behind the origin.
func (r Ray) IntersectPlane(plane math.Vec4) (t float32, ok bool) {
	n := plane.XYZ()
	denom := n.Dot(r.Direction)
	if gomath.Abs(float64(denom)) < 1e-6 {
		return 0, false
	}
	t = -(n.Dot(r.Origin) + plane.W) / denom
	if t < 0 {
		return 0, false
	}
	return t, true
}

// NearestPlane returns the index of the first plane the ray reaches
// while travelling against its normal, and the distance to it. Planes
// seen from behind are skipped, so from inside a box of inward facing
// planes exactly the wall in front of the ray is found.
func (r Ray) NearestPlane(planes []math.Vec4) (index int, t float32, ok bool) {
	index = -1
	best := float32(gomath.MaxFloat32)
	for i, p := range planes {
		if p.XYZ().Dot(r.Direction) >= 0 {
			continue
		}
		if d, hit := r.IntersectPlane(p); hit && d < best {
			index, best = i, d
		}
	}
	if index < 0 {
		return -1, 0, false
	}
	return index, best, true
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box math.AABB) (t float32, hit bool) {
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)

	origin := [3]float32{r.Origin.X, r.Origin.Y, r.Origin.Z}
	dir := [3]float32{r.Direction.X, r.Direction.Y, r.Direction.Z}
	lo := [3]float32{box.Min.X, box.Min.Y, box.Min.Z}
	hi := [3]float32{box.Max.X, box.Max.Y, box.Max.Z}

	for axis := 0; axis < 3; axis++ {
		if dir[axis] == 0 {
			if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
				return 0, false
			}
			continue
		}
		t1 := (lo[axis] - origin[axis]) / dir[axis]
		t2 := (hi[axis] - origin[axis]) / dir[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}

	// Entry point, or exit point when starting inside.
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}
