package reflection

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-mirror/internal/engine/camera"
	"github.com/Faultbox/midgard-mirror/internal/engine/render"
	"github.com/Faultbox/midgard-mirror/internal/logger"
	"github.com/Faultbox/midgard-mirror/pkg/mirror"
)

// ErrTargetAllocation wraps render target allocation failures.
var ErrTargetAllocation = errors.New("reflection: render target allocation failed")

// DepthBits is the depth buffer precision of every reflection target.
const DepthBits = 24

// frameCounterLimit bounds the frame-skip counter.
const frameCounterLimit = 1000

// Surface mirrors a viewer across one plane and renders the reflected view
// into a render target it owns exclusively. A Surface is driven from the
// render thread only.
type Surface struct {
	name     string
	settings Settings
	owner    *camera.Camera
	deps     Deps
	log      *zap.Logger

	target render.Target
	hdr    bool // HDR flag target was allocated with
	width  int  // width target was allocated at
	drawn  bool // target holds at least one finished draw

	cam *camera.Camera // virtual camera, held until Close

	frame       int
	enabled     bool
	closed      bool
	unsubscribe func()
}

// New creates a surface rendering reflections of owner. Owner may be nil
// when every Render call passes an explicit viewer.
func New(settings Settings, owner *camera.Camera, deps Deps) (*Surface, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}

	s := &Surface{
		name:     settings.ShaderProperty,
		settings: settings.normalized(),
		owner:    owner,
		deps:     deps,
		enabled:  true,
	}
	s.log = logger.Named("reflection").With(zap.String("surface", s.name))
	return s, nil
}

// Clone returns a surface with settings that shares this surface's owner
// and host services but owns its own target and virtual camera.
func (s *Surface) Clone(settings Settings, name string) (*Surface, error) {
	c, err := New(settings, s.owner, s.deps)
	if err != nil {
		return nil, fmt.Errorf("clone %s: %w", name, err)
	}
	c.name = name
	c.log = logger.Named("reflection").With(zap.String("surface", name))
	return c, nil
}

// Render draws the reflection of viewer, or of the owner when viewer is
// nil, and returns the virtual camera it derived. Inverted flips backface
// culling and the clip plane side. When present is false only the camera
// is derived; nothing is drawn or published.
//
// A nil camera with a nil error means the surface declined this frame:
// it is disabled, has no viewer, the viewer is a reflection camera, or
// the frame is skipped.
func (s *Surface) Render(ctx render.Context, viewer *camera.Camera, inverted, present bool) (*camera.Camera, error) {
	if s.closed || !s.enabled {
		return nil, nil
	}
	if viewer == nil {
		viewer = s.owner
	}
	if viewer == nil || viewer.Kind == camera.KindReflection {
		return nil, nil
	}
	if s.frame%s.settings.FrameSkip != 0 {
		return nil, nil
	}
	if s.frame > frameCounterLimit {
		s.frame = 0
	}

	p := s.deps.Pipeline
	fog := p.Fog()
	p.SetFog(false)
	defer p.SetFog(fog)

	if err := s.ensureTarget(viewer); err != nil {
		s.log.Error("reflection target unavailable", zap.Error(err))
		return nil, err
	}

	if s.cam == nil {
		s.cam = s.deps.Cameras.AcquireVirtualCamera()
		s.cam.Name = s.name
	}
	rc := s.cam
	s.syncCameraModes(viewer, rc)
	rc.CullingMask = s.settings.Layers

	sideSign := float32(-1)
	if inverted {
		sideSign = 1
	}
	d, err := mirror.Derive(s.deps.Jobs, mirror.Input{
		Normal:        s.settings.Direction,
		ClipOffset:    s.settings.ClipPlaneOffset,
		SideSign:      sideSign,
		WorldToCamera: viewer.WorldToCamera,
		Projection:    viewer.Projection,
	})
	if errors.Is(err, mirror.ErrDegenerateClipPlane) {
		s.log.Warn("degenerate clip plane", zap.String("viewer", viewer.Name))
	} else if err != nil {
		return nil, fmt.Errorf("derive %s: %w", s.name, err)
	}
	rc.Position = viewer.Position
	rc.Rotation = viewer.Rotation
	rc.WorldToCamera = d.WorldToCamera
	rc.Projection = d.Projection

	culling := p.InvertCulling()
	p.SetInvertCulling(inverted)
	defer p.SetInvertCulling(culling)

	rc.Target = s.target
	rc.PixelWidth = s.target.Width()
	rc.PixelHeight = s.target.Height()

	if !present {
		return rc, nil
	}

	if err := p.RenderCameraNow(ctx, rc); err != nil {
		s.log.Error("reflection render failed", zap.Error(err))
		return nil, fmt.Errorf("render %s: %w", s.name, err)
	}

	s.drawn = true
	s.Publish()
	return rc, nil
}

// ensureTarget allocates the render target on first use and whenever the
// HDR flag or the target width changes. A height change alone keeps the
// current target. On failure the previous target, if any, stays in place
// and allocation is retried on the next call.
func (s *Surface) ensureTarget(viewer *camera.Camera) error {
	width, height := s.TargetSize(viewer)
	if s.target != nil && s.hdr == s.settings.HDR && s.width == width {
		return nil
	}

	desc := render.TargetDesc{
		Width:     width,
		Height:    height,
		DepthBits: DepthBits,
		HDR:       s.settings.HDR,
		Samples:   max(s.deps.Pipeline.MSAASamples(), 1),
	}
	t, err := s.deps.Allocator.Allocate(desc)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTargetAllocation, desc, err)
	}

	s.releaseTarget()
	s.target = t
	s.drawn = false
	s.hdr = s.settings.HDR
	s.width = width
	s.log.Debug("allocated reflection target", zap.Stringer("desc", desc))
	return nil
}

// TargetSize returns the target size for viewer: its pixel size scaled by
// the pipeline render scale and the resolution multiplier, at least 1x1.
func (s *Surface) TargetSize(viewer *camera.Camera) (width, height int) {
	scale := s.deps.Pipeline.RenderScale() * s.settings.Resolution.Scale()
	width = int(float32(viewer.PixelWidth) * scale)
	height = int(float32(viewer.PixelHeight) * scale)
	return max(width, 1), max(height, 1)
}

func (s *Surface) syncCameraModes(src, dst *camera.Camera) {
	if s.settings.BlackBackground {
		dst.ClearFlags = camera.ClearColor
		dst.Background = camera.Black
	} else {
		dst.ClearFlags = src.ClearFlags
		dst.Background = src.Background
	}

	dst.RenderShadows = s.settings.Shadows
	dst.CopyLens(src)
	dst.AllowHDR = s.settings.HDR
	dst.AllowMSAA = s.settings.MSAA
	dst.OcclusionCulling = s.settings.Occlusion
}

// Publish binds the current target to the surface's shader property.
// Until the target has been drawn into, the previous binding is left
// untouched.
func (s *Surface) Publish() {
	if s.target == nil || !s.drawn {
		return
	}
	s.deps.Pipeline.SetGlobalTexture(s.settings.ShaderProperty, s.target)
}

// Tick advances the frame-skip counter; call it once per frame.
func (s *Surface) Tick() {
	s.frame++
}

// Subscribe renders the surface from its owner whenever a game camera
// begins rendering. Virtual and reflection cameras are ignored so the
// surface's own draws do not re-enter it. Close removes the subscription.
func (s *Surface) Subscribe(n Notifier) {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.unsubscribe = n.Subscribe(func(ctx render.Context, cam *camera.Camera) {
		if cam.Kind != camera.KindGame {
			return
		}
		_, _ = s.Render(ctx, nil, true, true)
	})
}

// SetEnabled turns the surface on or off. Disabling releases the target.
func (s *Surface) SetEnabled(enabled bool) {
	if s.enabled == enabled {
		return
	}
	s.enabled = enabled
	if !enabled {
		s.releaseTarget()
	}
}

// Update replaces the surface settings. Target changes take effect on the
// next Render; the frame counter is kept.
func (s *Surface) Update(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	s.settings = settings.normalized()
	return nil
}

// SetLayerMask replaces the layers the surface reflects.
func (s *Surface) SetLayerMask(mask render.LayerMask) {
	s.settings.Layers = mask
}

// Close unsubscribes, releases the target and returns the virtual camera.
// Calling Close again has no effect.
func (s *Surface) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.releaseTarget()
	if s.cam != nil {
		s.deps.Cameras.ReleaseVirtualCamera(s.cam)
		s.cam = nil
	}
}

func (s *Surface) releaseTarget() {
	if s.target == nil {
		return
	}
	if s.cam != nil {
		s.cam.Target = nil
	}
	s.deps.Allocator.Release(s.target)
	s.target = nil
	s.drawn = false
}

// Name identifies the surface in logs.
func (s *Surface) Name() string { return s.name }

// Settings returns the normalized settings in use.
func (s *Surface) Settings() Settings { return s.settings }

// Target returns the current render target or nil.
func (s *Surface) Target() render.Target { return s.target }

// Camera returns the virtual camera, nil before the first derivation.
func (s *Surface) Camera() *camera.Camera { return s.cam }

// Owner returns the camera reflected when Render gets no viewer.
func (s *Surface) Owner() *camera.Camera { return s.owner }

// Frame returns the frame-skip counter.
func (s *Surface) Frame() int { return s.frame }

// Enabled reports whether the surface renders.
func (s *Surface) Enabled() bool { return s.enabled }
