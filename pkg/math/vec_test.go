package math

import (
	"math"
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Normalize(t *testing.T) {
	n := Vec3{3, 4, 12}.Normalize()
	l := n.Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}
	if z := (Vec3{}).Normalize(); z != (Vec3{}) {
		t.Errorf("zero vector normalized to %v", z)
	}
}

func TestVec4Dot(t *testing.T) {
	got := Vec4{1, 2, 3, 4}.Dot(Vec4{5, 6, 7, 8})
	if got != 70 {
		t.Errorf("Vec4.Dot() = %v, want 70", got)
	}
}

func TestPlaneFrom(t *testing.T) {
	p := PlaneFrom(Vec3{0, 1, 0}, -2)
	if p.XYZ() != (Vec3{0, 1, 0}) || p.W != -2 {
		t.Errorf("PlaneFrom() = %v", p)
	}
}

func TestSign(t *testing.T) {
	tests := []struct {
		in   float32
		want float32
	}{
		{-3, -1},
		{0, 1},
		{2.5, 1},
	}
	for _, tt := range tests {
		if got := Sign(tt.in); got != tt.want {
			t.Errorf("Sign(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatRotate(t *testing.T) {
	q := QuatFromAxisAngle(Up, float32(math.Pi/2))
	got := q.Rotate(Vec3{1, 0, 0})

	// 90 degrees about +Y takes +X to -Z.
	if !got.ApproxEqual(Vec3{0, 0, -1}, 1e-5) {
		t.Errorf("Rotate = %v, want (0, 0, -1)", got)
	}
}

func TestQuatMulComposes(t *testing.T) {
	quarter := QuatFromAxisAngle(Up, float32(math.Pi/2))
	half := quarter.Mul(quarter).Normalize()
	got := half.Rotate(Vec3{1, 0, 0})

	if !got.ApproxEqual(Vec3{-1, 0, 0}, 1e-5) {
		t.Errorf("two quarter turns = %v, want (-1, 0, 0)", got)
	}
}
