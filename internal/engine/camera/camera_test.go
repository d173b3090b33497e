package camera

import (
	"testing"

	"github.com/Faultbox/midgard-mirror/pkg/math"
)

func TestPoolReusesReleasedCameras(t *testing.T) {
	p := NewPool()

	a := p.AcquireVirtualCamera()
	b := p.AcquireVirtualCamera()
	if a == b {
		t.Fatal("two acquisitions returned the same camera")
	}
	if p.Len() != 2 || p.InUse() != 2 {
		t.Errorf("expected 2 created / 2 in use, got %d / %d", p.Len(), p.InUse())
	}

	p.ReleaseVirtualCamera(a)
	if p.InUse() != 1 {
		t.Errorf("expected 1 in use after release, got %d", p.InUse())
	}

	c := p.AcquireVirtualCamera()
	if c != a {
		t.Error("expected released camera to be reused")
	}
	if p.Len() != 2 {
		t.Errorf("pool should not grow when a camera is free, got %d", p.Len())
	}
}

func TestPoolCamerasAreVirtual(t *testing.T) {
	c := NewPool().AcquireVirtualCamera()
	if c.Kind != KindVirtual {
		t.Errorf("expected KindVirtual, got %v", c.Kind)
	}
}

func TestPoolIgnoresForeignAndDoubleRelease(t *testing.T) {
	p := NewPool()
	a := p.AcquireVirtualCamera()

	p.ReleaseVirtualCamera(&Camera{})
	p.ReleaseVirtualCamera(nil)
	p.ReleaseVirtualCamera(a)
	p.ReleaseVirtualCamera(a)

	if p.InUse() != 0 {
		t.Errorf("expected 0 in use, got %d", p.InUse())
	}
	if x, y := p.AcquireVirtualCamera(), p.AcquireVirtualCamera(); x == y {
		t.Error("double release handed the same camera out twice")
	}
}

func TestPoolEach(t *testing.T) {
	p := NewPool()
	p.AcquireVirtualCamera()
	p.ReleaseVirtualCamera(p.AcquireVirtualCamera())

	count := 0
	p.Each(func(*Camera) { count++ })
	if count != 2 {
		t.Errorf("expected Each to visit 2 cameras, got %d", count)
	}
}

func TestNewPerspectiveAspect(t *testing.T) {
	c := NewPerspective("main", 1920, 1080, 1.0, 0.1, 100)
	if c.Aspect < 1.777 || c.Aspect > 1.778 {
		t.Errorf("expected aspect ~1.778, got %f", c.Aspect)
	}
	if c.Projection[11] != -1 {
		t.Errorf("expected perspective projection, got %v", c.Projection)
	}

	c.Resize(0, 0)
	if c.PixelWidth != 1 || c.PixelHeight != 1 {
		t.Errorf("resize should clamp to 1x1, got %dx%d", c.PixelWidth, c.PixelHeight)
	}
}

func TestOrbitCameraLooksAtCenter(t *testing.T) {
	o := NewOrbitCamera()
	o.Center = math.Vec3{X: 1, Y: 2, Z: 3}

	var cam Camera
	o.Apply(&cam)

	c := cam.WorldToCamera.TransformPoint(o.Center)
	// The center lies straight ahead on -Z at the orbit distance.
	if !c.ApproxEqual(math.Vec3{X: 0, Y: 0, Z: -o.Distance}, 1e-4) {
		t.Errorf("center in camera space = %v, want (0, 0, %v)", c, -o.Distance)
	}

	// The rotation's forward axis (-Z) points at the center too.
	fwd := cam.Rotation.Rotate(math.Vec3{X: 0, Y: 0, Z: -1})
	want := o.Center.Sub(cam.Position).Normalize()
	if !fwd.ApproxEqual(want, 1e-4) {
		t.Errorf("rotation forward = %v, want %v", fwd, want)
	}
}

func TestOrbitCameraClamps(t *testing.T) {
	o := NewOrbitCamera()
	o.HandleDrag(0, 1e6)
	if o.RotationX != o.MaxPitch {
		t.Errorf("pitch not clamped: %f", o.RotationX)
	}
	o.HandleZoom(1e3)
	if o.Distance != o.MinDistance {
		t.Errorf("distance not clamped: %f", o.Distance)
	}
}
