package mirror

import (
	"github.com/Faultbox/midgard-mirror/pkg/math"
)

// Executor runs one job and returns when it has completed.
type Executor interface {
	Do(job func() error) error
}

type inline struct{}

func (inline) Do(job func() error) error { return job() }

// Input describes one mirror as seen from one viewer.
type Input struct {
	Normal     math.Vec3 // unit plane normal
	ClipOffset float32   // signed distance of the plane along Normal
	SideSign   float32   // +1 for inverted-culling passes, -1 otherwise

	WorldToCamera math.Mat4 // viewer
	Projection    math.Mat4 // viewer
}

// Plane returns the mirror plane (n, -offset).
func (in Input) Plane() math.Vec4 {
	return math.PlaneFrom(in.Normal, -in.ClipOffset)
}

// Derivation is the reflected camera derived from an Input.
type Derivation struct {
	Reflection    math.Mat4
	WorldToCamera math.Mat4
	ClipPlane     math.Vec4
	Projection    math.Mat4
}

// Derive computes the reflection camera as three dependent jobs submitted to
// exec in order; each waits for the previous to finish. A nil exec runs the
// jobs on the calling goroutine.
//
// ErrDegenerateClipPlane is returned with a fully populated Derivation. Any
// other executor error stops the chain and is returned as is.
func Derive(exec Executor, in Input) (Derivation, error) {
	if exec == nil {
		exec = inline{}
	}

	var d Derivation
	if err := exec.Do(func() error {
		d.Reflection = ReflectionMatrix(in.Plane())
		return nil
	}); err != nil {
		return d, err
	}

	if err := exec.Do(func() error {
		d.WorldToCamera = in.WorldToCamera.Mul(d.Reflection)
		d.ClipPlane = CameraSpacePlane(d.WorldToCamera, in.Normal, in.Normal.Scale(in.ClipOffset), in.SideSign)
		return nil
	}); err != nil {
		return d, err
	}

	err := exec.Do(func() error {
		var perr error
		d.Projection, perr = ObliqueProjection(in.Projection, d.ClipPlane)
		return perr
	})
	return d, err
}
