package reflection

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-mirror/internal/engine/camera"
	"github.com/Faultbox/midgard-mirror/internal/engine/render"
	"github.com/Faultbox/midgard-mirror/pkg/mirror"
)

// Pipeline is the host renderer as seen by a reflection pass. Every method
// is called on the render thread.
type Pipeline interface {
	// RenderCameraNow draws the scene from cam into cam.Target.
	RenderCameraNow(ctx render.Context, cam *camera.Camera) error
	// SetGlobalTexture binds t to a shader-visible global name.
	SetGlobalTexture(name string, t render.Target)

	RenderScale() float32
	MSAASamples() int

	Fog() bool
	SetFog(enabled bool)
	InvertCulling() bool
	SetInvertCulling(inverted bool)
}

// CameraPool supplies reusable virtual cameras.
type CameraPool interface {
	AcquireVirtualCamera() *camera.Camera
	ReleaseVirtualCamera(c *camera.Camera)
}

// Notifier delivers begin-camera events.
type Notifier interface {
	Subscribe(fn camera.BeginFunc) (unsubscribe func())
}

// Deps are the host services a Surface draws with. Jobs may be nil, in
// which case derivations run on the calling goroutine.
type Deps struct {
	Pipeline  Pipeline
	Allocator render.Allocator
	Cameras   CameraPool
	Jobs      mirror.Executor
}

// ErrMissingDependency is returned by New when a required host service is nil.
var ErrMissingDependency = errors.New("reflection: missing dependency")

func (d Deps) validate() error {
	switch {
	case d.Pipeline == nil:
		return fmt.Errorf("%w: pipeline is nil", ErrMissingDependency)
	case d.Allocator == nil:
		return fmt.Errorf("%w: allocator is nil", ErrMissingDependency)
	case d.Cameras == nil:
		return fmt.Errorf("%w: camera pool is nil", ErrMissingDependency)
	}
	return nil
}
