package math

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	// Diagonal should be 1
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	// Off-diagonal should be 0
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestAtUsesColumnMajorLayout(t *testing.T) {
	m := Translate(5, 10, 15)

	// Translation lives in column 3.
	if m.At(0, 3) != 5 || m.At(1, 3) != 10 || m.At(2, 3) != 15 {
		t.Errorf("At(row, 3): got (%f, %f, %f), want (5, 10, 15)", m.At(0, 3), m.At(1, 3), m.At(2, 3))
	}
	if m[12] != 5 {
		t.Errorf("index 12 should hold x translation, got %f", m[12])
	}
}

func TestRowRoundTrip(t *testing.T) {
	m := Identity()
	m.SetRow(2, Vec4{1, 2, 3, 4})

	if got := m.Row(2); got != (Vec4{1, 2, 3, 4}) {
		t.Errorf("Row(2) = %v, want {1 2 3 4}", got)
	}
	if m[2] != 1 || m[6] != 2 || m[10] != 3 || m[14] != 4 {
		t.Errorf("SetRow wrote wrong indices: %v", m)
	}
}

func TestMulMatchesMathGL(t *testing.T) {
	a := Translate(1, 2, 3).Mul(Scale(2, 3, 4))
	b := Perspective(1.1, 1.5, 0.3, 250)

	ga := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.Scale3D(2, 3, 4))
	gb := mgl32.Perspective(1.1, 1.5, 0.3, 250)

	got := a.Mul(b)
	want := Mat4(ga.Mul4(gb))
	if !got.ApproxEqual(want, 1e-4) {
		t.Errorf("Mul mismatch:\n got %v\nwant %v", got, want)
	}
}

func TestPerspectiveMatchesMathGL(t *testing.T) {
	fov := float32(math.Pi / 4)
	got := Perspective(fov, 16.0/9.0, 0.1, 100)
	want := Mat4(mgl32.Perspective(fov, 16.0/9.0, 0.1, 100))

	if !got.ApproxEqual(want, 1e-5) {
		t.Errorf("Perspective mismatch:\n got %v\nwant %v", got, want)
	}
	// Element [11] should be -1 for perspective projection
	if got[11] != -1 {
		t.Errorf("Perspective [11] should be -1, got %f", got[11])
	}
}

func TestLookAtMatchesMathGL(t *testing.T) {
	eye := Vec3{3, 4, 5}
	center := Vec3{0, 1, 0}

	got := LookAt(eye, center, Up)
	want := Mat4(mgl32.LookAtV(mgl32.Vec3{3, 4, 5}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 1, 0}))

	if !got.ApproxEqual(want, 1e-5) {
		t.Errorf("LookAt mismatch:\n got %v\nwant %v", got, want)
	}

	// The eye maps to the camera-space origin.
	if p := got.TransformPoint(eye); !p.ApproxEqual(Vec3{}, 1e-5) {
		t.Errorf("eye in camera space = %v, want origin", p)
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(10, 20, 30)
	got := m.TransformPoint(Vec3{1, 2, 3})

	want := Vec3{11, 22, 33}
	if got != want {
		t.Errorf("TransformPoint: got %v, want %v", got, want)
	}
}

func TestTransformDirectionIgnoresTranslation(t *testing.T) {
	m := Translate(10, 20, 30).Mul(Scale(2, 2, 2))
	got := m.TransformDirection(Vec3{1, 0, 0})

	if got != (Vec3{2, 0, 0}) {
		t.Errorf("TransformDirection: got %v, want (2, 0, 0)", got)
	}
}

func TestIsFinite(t *testing.T) {
	m := Identity()
	if !m.IsFinite() {
		t.Error("identity should be finite")
	}
	m[5] = float32(math.NaN())
	if m.IsFinite() {
		t.Error("matrix with NaN reported finite")
	}
	m[5] = float32(math.Inf(1))
	if m.IsFinite() {
		t.Error("matrix with +Inf reported finite")
	}
}

func TestQuatMat4MatchesMathGL(t *testing.T) {
	axis := Vec3{1, 2, -0.5}.Normalize()
	q := QuatFromAxisAngle(axis, 0.8)

	want := Mat4(mgl32.QuatRotate(0.8, mgl32.Vec3{axis.X, axis.Y, axis.Z}).Mat4())
	if got := q.Mat4(); !got.ApproxEqual(want, 1e-5) {
		t.Errorf("Quat.Mat4 = %v, want %v", got, want)
	}

	v := Vec3{0.3, -1, 2}
	if got, want := q.Mat4().TransformDirection(v), q.Rotate(v); !got.ApproxEqual(want, 1e-5) {
		t.Errorf("matrix rotation %v disagrees with Rotate %v", got, want)
	}
}

func TestOrthoMatchesMathGL(t *testing.T) {
	got := Ortho(-4, 6, -2, 3, 0.5, 40)
	want := Mat4(mgl32.Ortho(-4, 6, -2, 3, 0.5, 40))
	if !got.ApproxEqual(want, 1e-6) {
		t.Errorf("Ortho mismatch:\n got %v\nwant %v", got, want)
	}
}

func TestInverseMatchesMathGL(t *testing.T) {
	m := Perspective(1.0, 1.5, 0.1, 50).Mul(LookAt(Vec3{2, 3, 4}, Vec3{0, 1, 0}, Up))

	got, ok := m.Inverse()
	if !ok {
		t.Fatal("Inverse reported a singular matrix")
	}
	want := Mat4(mgl32.Mat4(m).Inv())
	if !got.ApproxEqual(want, 1e-3) {
		t.Errorf("Inverse mismatch:\n got %v\nwant %v", got, want)
	}
	if product := m.Mul(got); !product.ApproxEqual(Identity(), 1e-4) {
		t.Errorf("m * m^-1 = %v, want identity", product)
	}
}

func TestInverseSingular(t *testing.T) {
	got, ok := Scale(1, 0, 1).Inverse()
	if ok {
		t.Error("Inverse of a flat scale should report singular")
	}
	if got != Identity() {
		t.Errorf("singular Inverse = %v, want identity", got)
	}
}
