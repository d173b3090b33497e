package picking

import (
	"testing"

	"github.com/Faultbox/midgard-mirror/pkg/math"
)

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func TestScreenToRayThroughCenter(t *testing.T) {
	eye := math.Vec3{X: 0, Y: 1, Z: 5}
	vp := math.Perspective(1.0, 1.0, 0.1, 100).Mul(math.LookAt(eye, math.Vec3{Y: 1}, math.Up))
	inv, ok := vp.Inverse()
	if !ok {
		t.Fatal("view-projection should be invertible")
	}

	r := ScreenToRay(400, 400, 800, 800, inv)
	if !r.Direction.ApproxEqual(math.Vec3{Z: -1}, 1e-4) {
		t.Errorf("center ray direction = %v, want -Z", r.Direction)
	}
	if d := r.Origin.Sub(eye).Length(); d < 0.09 || d > 0.11 {
		t.Errorf("ray origin %v should sit on the near plane, %f from the eye", r.Origin, d)
	}

	// Top of the screen looks up.
	if up := ScreenToRay(400, 0, 800, 800, inv); up.Direction.Y <= 0 {
		t.Errorf("top-edge ray direction = %v, want positive Y", up.Direction)
	}
}

func TestIntersectPlane(t *testing.T) {
	r := Ray{Origin: math.Vec3{Y: 2}, Direction: math.Vec3{Y: -1}}

	tests := []struct {
		name  string
		plane math.Vec4
		want  float32
		ok    bool
	}{
		{"floor", math.PlaneFrom(math.Vec3{Y: 1}, 0), 2, true},
		{"raised floor", math.PlaneFrom(math.Vec3{Y: 1}, -0.5), 1.5, true},
		{"behind", math.PlaneFrom(math.Vec3{Y: 1}, -3), 0, false},
		{"parallel", math.PlaneFrom(math.Vec3{X: 1}, 0), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.IntersectPlane(tt.plane)
			if ok != tt.ok || (ok && abs(got-tt.want) > 1e-5) {
				t.Errorf("IntersectPlane = (%f, %t), want (%f, %t)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNearestPlaneInsideBox(t *testing.T) {
	// Inward facing walls of the box [-2,2] x [0,3] x [-4,4].
	planes := []math.Vec4{
		math.PlaneFrom(math.Vec3{Y: 1}, 0),
		math.PlaneFrom(math.Vec3{Y: -1}, 3),
		math.PlaneFrom(math.Vec3{X: 1}, 2),
		math.PlaneFrom(math.Vec3{X: -1}, 2),
		math.PlaneFrom(math.Vec3{Z: 1}, 4),
		math.PlaneFrom(math.Vec3{Z: -1}, 4),
	}
	origin := math.Vec3{Y: 1.5}

	tests := []struct {
		name string
		dir  math.Vec3
		want int
		dist float32
	}{
		{"down", math.Vec3{Y: -1}, 0, 1.5},
		{"up", math.Vec3{Y: 1}, 1, 1.5},
		{"left", math.Vec3{X: -1}, 2, 2},
		{"right", math.Vec3{X: 1}, 3, 2},
		{"back", math.Vec3{Z: -1}, 4, 4},
		{"shallow toward floor", math.Vec3{X: 1, Y: -0.2}.Normalize(), 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Ray{Origin: origin, Direction: tt.dir}
			idx, dist, ok := r.NearestPlane(planes)
			if !ok || idx != tt.want {
				t.Fatalf("NearestPlane = (%d, %t), want %d", idx, ok, tt.want)
			}
			if tt.dist > 0 && abs(dist-tt.dist) > 1e-5 {
				t.Errorf("distance = %f, want %f", dist, tt.dist)
			}
		})
	}
}

func TestNearestPlaneMiss(t *testing.T) {
	r := Ray{Origin: math.Vec3{}, Direction: math.Vec3{Y: 1}}
	if _, _, ok := r.NearestPlane([]math.Vec4{math.PlaneFrom(math.Vec3{Y: 1}, 0)}); ok {
		t.Error("a plane seen from behind should not be picked")
	}
}

func TestIntersectAABB(t *testing.T) {
	box := math.NewAABB(math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1})

	tests := []struct {
		name string
		ray  Ray
		want float32
		hit  bool
	}{
		{"in front", Ray{Origin: math.Vec3{Z: 5}, Direction: math.Vec3{Z: -1}}, 4, true},
		{"inside", Ray{Origin: math.Vec3{}, Direction: math.Vec3{X: 1}}, 1, true},
		{"miss", Ray{Origin: math.Vec3{X: 3, Z: 5}, Direction: math.Vec3{Z: -1}}, 0, false},
		{"behind", Ray{Origin: math.Vec3{Z: 5}, Direction: math.Vec3{Z: 1}}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := tt.ray.IntersectAABB(box)
			if hit != tt.hit || got != tt.want {
				t.Errorf("IntersectAABB = (%f, %t), want (%f, %t)", got, hit, tt.want, tt.hit)
			}
		})
	}
}
