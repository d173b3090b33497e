// Package camera provides the render camera state shared by the host
// pipeline and the reflection passes, a pool of reusable virtual cameras,
// and an orbit controller for interactive viewers.
package camera

import (
	"github.com/Faultbox/midgard-mirror/internal/engine/render"
	"github.com/Faultbox/midgard-mirror/pkg/math"
)

// Kind classifies what a camera is used for.
type Kind int

const (
	// KindGame is a regular scene camera owned by the application.
	KindGame Kind = iota
	// KindVirtual is a pooled camera driven by a reflection pass.
	KindVirtual
	// KindReflection marks cameras used by external reflection capture
	// (probes). Planar surfaces never render from them.
	KindReflection
)

func (k Kind) String() string {
	switch k {
	case KindGame:
		return "game"
	case KindVirtual:
		return "virtual"
	case KindReflection:
		return "reflection"
	default:
		return "unknown"
	}
}

// ClearFlags selects what the camera clears its target to before drawing.
type ClearFlags int

const (
	ClearSkybox ClearFlags = iota
	ClearColor
	ClearDepth
	ClearNothing
)

// Color is an RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Black is opaque black.
var Black = Color{0, 0, 0, 1}

// Camera is the full state the host pipeline needs to draw a view.
type Camera struct {
	Name string
	Kind Kind

	Position math.Vec3
	Rotation math.Quat

	WorldToCamera math.Mat4
	Projection    math.Mat4

	PixelWidth  int
	PixelHeight int

	ClearFlags ClearFlags
	Background Color

	Near, Far        float32
	FieldOfView      float32 // vertical, radians
	Aspect           float32
	Orthographic     bool
	OrthographicSize float32

	CullingMask render.LayerMask

	RenderShadows    bool
	AllowHDR         bool
	AllowMSAA        bool
	OcclusionCulling bool

	// Target is the render target the camera draws into; nil is the screen.
	Target render.Target
}

// NewPerspective builds a game camera with a perspective projection.
func NewPerspective(name string, width, height int, fovY, near, far float32) *Camera {
	c := &Camera{
		Name:        name,
		Kind:        KindGame,
		Rotation:    math.QuatIdentity(),
		PixelWidth:  width,
		PixelHeight: height,
		Near:        near,
		Far:         far,
		FieldOfView: fovY,
		CullingMask: render.AllLayers,
		Background:  Color{0.1, 0.1, 0.15, 1},
	}
	c.WorldToCamera = math.Identity()
	c.Resize(width, height)
	return c
}

// Resize updates the pixel size and rebuilds the projection.
func (c *Camera) Resize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	c.PixelWidth = width
	c.PixelHeight = height
	c.Aspect = float32(width) / float32(height)
	c.Projection = math.Perspective(c.FieldOfView, c.Aspect, c.Near, c.Far)
}

// ViewProjection returns Projection * WorldToCamera.
func (c *Camera) ViewProjection() math.Mat4 {
	return c.Projection.Mul(c.WorldToCamera)
}

// CopyLens copies the projection parameters of src without touching the
// matrices, the target or the identity of c.
func (c *Camera) CopyLens(src *Camera) {
	c.Near = src.Near
	c.Far = src.Far
	c.Orthographic = src.Orthographic
	c.FieldOfView = src.FieldOfView
	c.Aspect = src.Aspect
	c.OrthographicSize = src.OrthographicSize
}
