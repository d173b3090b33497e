package reflection

import (
	"errors"
	"testing"

	"github.com/Faultbox/midgard-mirror/internal/engine/camera"
	"github.com/Faultbox/midgard-mirror/internal/engine/render"
	"github.com/Faultbox/midgard-mirror/internal/engine/render/rendertest"
	"github.com/Faultbox/midgard-mirror/internal/jobs"
	"github.com/Faultbox/midgard-mirror/pkg/math"
)

type harness struct {
	pipeline  *rendertest.Pipeline
	allocator *rendertest.Allocator
	cameras   *camera.Pool
	owner     *camera.Camera
	deps      Deps
}

func newHarness() *harness {
	h := &harness{
		pipeline:  rendertest.NewPipeline(),
		allocator: rendertest.NewAllocator(),
		cameras:   camera.NewPool(),
		owner:     camera.NewPerspective("main", 800, 600, 1.0, 0.1, 100),
	}
	h.owner.Position = math.Vec3{X: 0, Y: 2, Z: 5}
	h.owner.WorldToCamera = math.LookAt(h.owner.Position, math.Vec3{}, math.Up)
	h.deps = Deps{
		Pipeline:  h.pipeline,
		Allocator: h.allocator,
		Cameras:   h.cameras,
		Jobs:      jobs.Inline{},
	}
	return h
}

func groundSettings() Settings {
	s := DefaultSettings()
	s.Direction = math.Vec3{X: 0, Y: 1, Z: 0}
	s.ShaderProperty = "_PlanarGround"
	s.HDR = true
	return s
}

func (h *harness) surface(t *testing.T, s Settings) *Surface {
	t.Helper()
	surf, err := New(s, h.owner, h.deps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(surf.Close)
	return surf
}

func TestNewValidates(t *testing.T) {
	h := newHarness()

	tests := []struct {
		name   string
		modify func(s *Settings, d *Deps)
		want   error
	}{
		{"zero direction", func(s *Settings, d *Deps) { s.Direction = math.Vec3{} }, ErrInvalidSettings},
		{"no shader property", func(s *Settings, d *Deps) { s.ShaderProperty = "" }, ErrInvalidSettings},
		{"negative frame skip", func(s *Settings, d *Deps) { s.FrameSkip = -1 }, ErrInvalidSettings},
		{"no pipeline", func(s *Settings, d *Deps) { d.Pipeline = nil }, ErrMissingDependency},
		{"no allocator", func(s *Settings, d *Deps) { d.Allocator = nil }, ErrMissingDependency},
		{"no cameras", func(s *Settings, d *Deps) { d.Cameras = nil }, ErrMissingDependency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, d := groundSettings(), h.deps
			tt.modify(&s, &d)
			if _, err := New(s, h.owner, d); !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewNormalizesSettings(t *testing.T) {
	h := newHarness()
	s := groundSettings()
	s.Direction = math.Vec3{X: 0, Y: 4, Z: 0}
	s.FrameSkip = 0

	surf := h.surface(t, s)
	got := surf.Settings()
	if !got.Direction.ApproxEqual(math.Vec3{X: 0, Y: 1, Z: 0}, 1e-6) {
		t.Errorf("direction = %v, want unit Y", got.Direction)
	}
	if got.FrameSkip != 1 {
		t.Errorf("frame skip = %d, want 1", got.FrameSkip)
	}
}

func TestRenderFrameSkip(t *testing.T) {
	h := newHarness()
	s := groundSettings()
	s.FrameSkip = 3
	surf := h.surface(t, s)

	var drawn []uint64
	for frame := uint64(0); frame < 10; frame++ {
		cam, err := surf.Render(render.Context{Frame: frame}, nil, true, true)
		if err != nil {
			t.Fatalf("frame %d: Render() error = %v", frame, err)
		}
		if cam != nil {
			drawn = append(drawn, frame)
		}
		surf.Tick()
	}

	want := []uint64{0, 3, 6, 9}
	if len(drawn) != len(want) {
		t.Fatalf("drawn frames = %v, want %v", drawn, want)
	}
	for i := range want {
		if drawn[i] != want[i] || h.pipeline.Draws[i].Frame != want[i] {
			t.Errorf("draw %d on frame %d, want %d", i, drawn[i], want[i])
		}
	}
}

func TestFrameCounterWraps(t *testing.T) {
	h := newHarness()
	surf := h.surface(t, groundSettings())

	for i := 0; i <= frameCounterLimit; i++ {
		surf.Tick()
	}
	if _, err := surf.Render(render.Context{}, nil, true, true); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if surf.Frame() != 0 {
		t.Errorf("frame counter = %d after wrap, want 0", surf.Frame())
	}
}

func TestRenderAllocatesTargetOnce(t *testing.T) {
	h := newHarness()
	surf := h.surface(t, groundSettings())

	for i := 0; i < 5; i++ {
		if _, err := surf.Render(render.Context{Frame: uint64(i)}, nil, true, true); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
	}

	if h.allocator.Allocated != 1 {
		t.Errorf("allocations = %d, want 1", h.allocator.Allocated)
	}
	if len(h.pipeline.Draws) != 5 {
		t.Errorf("draws = %d, want 5", len(h.pipeline.Draws))
	}
	desc := h.allocator.Descs[0]
	if desc.Width != 800 || desc.Height != 600 || desc.DepthBits != DepthBits || !desc.HDR || desc.Samples != 1 {
		t.Errorf("target desc = %s", desc)
	}
}

func TestTargetReallocation(t *testing.T) {
	tests := []struct {
		name        string
		change      func(h *harness, surf *Surface)
		wantRealloc bool
	}{
		{
			name: "hdr toggled",
			change: func(h *harness, surf *Surface) {
				s := surf.Settings()
				s.HDR = !s.HDR
				_ = surf.Update(s)
			},
			wantRealloc: true,
		},
		{
			name:        "width changed",
			change:      func(h *harness, surf *Surface) { h.owner.Resize(1024, 600) },
			wantRealloc: true,
		},
		{
			name:        "height changed",
			change:      func(h *harness, surf *Surface) { h.owner.Resize(800, 900) },
			wantRealloc: false,
		},
		{
			name:        "layers changed",
			change:      func(h *harness, surf *Surface) { surf.SetLayerMask(1) },
			wantRealloc: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			surf := h.surface(t, groundSettings())

			if _, err := surf.Render(render.Context{}, nil, true, true); err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			first := surf.Target()

			tt.change(h, surf)
			if _, err := surf.Render(render.Context{Frame: 1}, nil, true, true); err != nil {
				t.Fatalf("Render() error = %v", err)
			}

			realloc := surf.Target() != first
			if realloc != tt.wantRealloc {
				t.Errorf("reallocated = %v, want %v", realloc, tt.wantRealloc)
			}
			if tt.wantRealloc && h.allocator.Released != 1 {
				t.Errorf("released = %d, want 1", h.allocator.Released)
			}
			if len(h.allocator.Live) != 1 {
				t.Errorf("live targets = %d, want 1", len(h.allocator.Live))
			}
		})
	}
}

func TestTargetSize(t *testing.T) {
	h := newHarness()
	h.pipeline.Scale = 0.5

	tests := []struct {
		res        Resolution
		w, h       int
		wantW, wantH int
	}{
		{ResolutionFull, 800, 600, 400, 300},
		{ResolutionHalf, 800, 600, 200, 150},
		{ResolutionThird, 800, 600, 132, 99},
		{ResolutionQuarter, 800, 600, 100, 75},
		{ResolutionQuarter, 2, 2, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.res.String(), func(t *testing.T) {
			s := groundSettings()
			s.Resolution = tt.res
			surf := h.surface(t, s)

			viewer := camera.NewPerspective("v", tt.w, tt.h, 1, 0.1, 10)
			gotW, gotH := surf.TargetSize(viewer)
			if gotW != tt.wantW || gotH != tt.wantH {
				t.Errorf("TargetSize() = %dx%d, want %dx%d", gotW, gotH, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestAllocationFailure(t *testing.T) {
	h := newHarness()
	surf := h.surface(t, groundSettings())
	h.allocator.Fail = true

	cam, err := surf.Render(render.Context{}, nil, true, true)
	if !errors.Is(err, ErrTargetAllocation) {
		t.Fatalf("Render() error = %v, want ErrTargetAllocation", err)
	}
	if cam != nil || surf.Target() != nil {
		t.Error("failed allocation must not produce a camera or target")
	}
	if len(h.pipeline.Draws) != 0 {
		t.Errorf("draws = %d, want 0", len(h.pipeline.Draws))
	}
	if !h.pipeline.Fog() || h.pipeline.InvertCulling() {
		t.Error("fog and culling not restored after allocation failure")
	}

	// Retried on the next frame.
	h.allocator.Fail = false
	surf.Tick()
	if _, err := surf.Render(render.Context{Frame: 1}, nil, true, true); err != nil {
		t.Fatalf("retry Render() error = %v", err)
	}
	if surf.Target() == nil || len(h.pipeline.Draws) != 1 {
		t.Error("retry did not allocate and draw")
	}
}

func TestAllocationFailureKeepsStaleTarget(t *testing.T) {
	h := newHarness()
	surf := h.surface(t, groundSettings())

	if _, err := surf.Render(render.Context{}, nil, true, true); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	stale := surf.Target()

	h.owner.Resize(1280, 600)
	h.allocator.Fail = true
	if _, err := surf.Render(render.Context{Frame: 1}, nil, true, true); !errors.Is(err, ErrTargetAllocation) {
		t.Fatalf("Render() error = %v, want ErrTargetAllocation", err)
	}

	if surf.Target() != stale {
		t.Error("previous target was dropped")
	}
	if bound, _ := h.pipeline.Bindings.Get("_PlanarGround"); bound != stale {
		t.Error("binding no longer points at the last rendered target")
	}
	if h.allocator.Released != 0 {
		t.Errorf("released = %d, want 0", h.allocator.Released)
	}
}

func TestRenderRestoresStateOnDrawFailure(t *testing.T) {
	h := newHarness()
	surf := h.surface(t, groundSettings())
	boom := errors.New("device lost")
	h.pipeline.FailOn = func(*camera.Camera) error { return boom }

	if _, err := surf.Render(render.Context{}, nil, true, true); !errors.Is(err, boom) {
		t.Fatalf("Render() error = %v, want %v", err, boom)
	}
	if !h.pipeline.Fog() {
		t.Error("fog left disabled")
	}
	if h.pipeline.InvertCulling() {
		t.Error("culling left inverted")
	}
	if len(h.pipeline.Publishes) != 0 {
		t.Error("failed draw was published")
	}
}

func TestRenderScopesFogAndCulling(t *testing.T) {
	h := newHarness()
	surf := h.surface(t, groundSettings())

	if _, err := surf.Render(render.Context{}, nil, true, true); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	d := h.pipeline.Draws[0]
	if d.Fog || !d.Inverted {
		t.Errorf("during draw fog = %v inverted = %v, want false/true", d.Fog, d.Inverted)
	}
	if !h.pipeline.Fog() || h.pipeline.InvertCulling() {
		t.Error("state not restored after draw")
	}
}

func TestRenderDeclines(t *testing.T) {
	h := newHarness()
	surf := h.surface(t, groundSettings())

	probe := camera.NewPerspective("probe", 256, 256, 1, 0.1, 10)
	probe.Kind = camera.KindReflection
	if cam, err := surf.Render(render.Context{}, probe, true, true); cam != nil || err != nil {
		t.Errorf("reflection viewer: got %v, %v", cam, err)
	}

	orphan, err := New(groundSettings(), nil, h.deps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer orphan.Close()
	if cam, err := orphan.Render(render.Context{}, nil, true, true); cam != nil || err != nil {
		t.Errorf("no viewer: got %v, %v", cam, err)
	}

	surf.SetEnabled(false)
	if cam, _ := surf.Render(render.Context{}, nil, true, true); cam != nil {
		t.Error("disabled surface rendered")
	}

	if len(h.pipeline.Draws) != 0 || h.allocator.Allocated != 0 {
		t.Error("declined renders must not draw or allocate")
	}
}

func TestRenderWithoutPresent(t *testing.T) {
	h := newHarness()
	surf := h.surface(t, groundSettings())

	cam, err := surf.Render(render.Context{}, nil, true, false)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if cam == nil || cam.Kind != camera.KindVirtual {
		t.Fatalf("Render() camera = %v, want virtual camera", cam)
	}
	if cam.Target != surf.Target() || cam.Target == nil {
		t.Error("derived camera not pointed at the surface target")
	}
	if len(h.pipeline.Draws) != 0 || len(h.pipeline.Publishes) != 0 {
		t.Error("present=false must not draw or publish")
	}
}

func TestDerivedCameraMirrorsViewer(t *testing.T) {
	h := newHarness()
	s := groundSettings()
	s.ClipPlaneOffset = 0
	s.Layers = 0b101
	s.BlackBackground = true
	s.Shadows = true
	s.MSAA = true
	surf := h.surface(t, s)

	cam, err := surf.Render(render.Context{}, nil, true, true)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	p := math.Vec3{X: 1, Y: -3, Z: 2}
	mirrored := math.Vec3{X: 1, Y: 3, Z: 2}
	got := cam.WorldToCamera.TransformPoint(p)
	want := h.owner.WorldToCamera.TransformPoint(mirrored)
	if !got.ApproxEqual(want, 1e-4) {
		t.Errorf("reflected view of %v = %v, want %v", p, got, want)
	}

	if cam.Position != h.owner.Position {
		t.Errorf("position = %v, want %v", cam.Position, h.owner.Position)
	}
	if cam.CullingMask != 0b101 {
		t.Errorf("culling mask = %b, want 101", cam.CullingMask)
	}
	if cam.ClearFlags != camera.ClearColor || cam.Background != camera.Black {
		t.Error("black background not applied")
	}
	if !cam.RenderShadows || !cam.AllowMSAA || !cam.AllowHDR {
		t.Error("quality flags not synced from settings")
	}
	if cam.Near != h.owner.Near || cam.Far != h.owner.Far || cam.FieldOfView != h.owner.FieldOfView {
		t.Error("lens not copied from viewer")
	}
	if cam.PixelWidth != 800 || cam.PixelHeight != 600 {
		t.Errorf("pixel size = %dx%d, want target size", cam.PixelWidth, cam.PixelHeight)
	}
}

func TestDerivedCameraCopiesViewerClear(t *testing.T) {
	h := newHarness()
	h.owner.ClearFlags = camera.ClearSkybox
	h.owner.Background = camera.Color{R: 0.3, G: 0.4, B: 0.5, A: 1}
	surf := h.surface(t, groundSettings())

	cam, err := surf.Render(render.Context{}, nil, false, false)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if cam.ClearFlags != camera.ClearSkybox || cam.Background != h.owner.Background {
		t.Errorf("clear = %v %v, want viewer's", cam.ClearFlags, cam.Background)
	}
}

func TestRenderUsesJobChain(t *testing.T) {
	h := newHarness()
	counting := &jobs.Counting{}
	h.deps.Jobs = counting
	surf := h.surface(t, groundSettings())

	if _, err := surf.Render(render.Context{}, nil, true, false); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if counting.Count() != 3 {
		t.Errorf("jobs = %d, want 3", counting.Count())
	}
}

func TestPublish(t *testing.T) {
	h := newHarness()
	surf := h.surface(t, groundSettings())

	surf.Publish()
	if h.pipeline.Bindings.Len() != 0 {
		t.Fatal("publish without a target bound something")
	}

	if _, err := surf.Render(render.Context{}, nil, true, true); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	bound, ok := h.pipeline.Bindings.Get("_PlanarGround")
	if !ok || bound != surf.Target() {
		t.Errorf("binding = %v, want %v", bound, surf.Target())
	}
}

func TestSubscribe(t *testing.T) {
	h := newHarness()
	surf := h.surface(t, groundSettings())
	var n camera.Notifier
	surf.Subscribe(&n)

	n.BeginCamera(render.Context{}, h.owner)
	if len(h.pipeline.Draws) != 1 {
		t.Fatalf("draws after game camera = %d, want 1", len(h.pipeline.Draws))
	}
	if !h.pipeline.Draws[0].Inverted {
		t.Error("subscribed render must invert culling")
	}

	virtual := h.cameras.AcquireVirtualCamera()
	n.BeginCamera(render.Context{}, virtual)
	if len(h.pipeline.Draws) != 1 {
		t.Error("virtual camera triggered a reflection render")
	}

	surf.Close()
	if n.Len() != 0 {
		t.Errorf("subscriptions after Close = %d, want 0", n.Len())
	}
	n.BeginCamera(render.Context{}, h.owner)
	if len(h.pipeline.Draws) != 1 {
		t.Error("closed surface still renders")
	}
}

func TestCloseReleasesResources(t *testing.T) {
	h := newHarness()
	surf := h.surface(t, groundSettings())

	if _, err := surf.Render(render.Context{}, nil, true, true); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if h.cameras.InUse() != 1 {
		t.Fatalf("cameras in use = %d, want 1", h.cameras.InUse())
	}

	surf.Close()
	surf.Close()

	if h.allocator.Released != 1 || len(h.allocator.Live) != 0 {
		t.Errorf("released = %d live = %d, want 1/0", h.allocator.Released, len(h.allocator.Live))
	}
	if h.cameras.InUse() != 0 {
		t.Errorf("cameras in use = %d, want 0", h.cameras.InUse())
	}
}

func TestSetEnabledReleasesTarget(t *testing.T) {
	h := newHarness()
	surf := h.surface(t, groundSettings())

	if _, err := surf.Render(render.Context{}, nil, true, true); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	surf.SetEnabled(false)
	if surf.Target() != nil || h.allocator.Released != 1 {
		t.Error("disable did not release the target")
	}

	surf.SetEnabled(true)
	if _, err := surf.Render(render.Context{}, nil, true, true); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if h.allocator.Allocated != 2 {
		t.Errorf("allocations = %d, want 2", h.allocator.Allocated)
	}
}

func TestCloneOwnsResources(t *testing.T) {
	h := newHarness()
	base := h.surface(t, groundSettings())

	s := base.Settings()
	s.Shadows = !s.Shadows
	clone, err := base.Clone(s, "_PlanarGround#1")
	if err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	defer clone.Close()

	if _, err := base.Render(render.Context{}, nil, true, true); err != nil {
		t.Fatalf("base Render() error = %v", err)
	}
	if _, err := clone.Render(render.Context{}, nil, true, true); err != nil {
		t.Fatalf("clone Render() error = %v", err)
	}

	if base.Target() == clone.Target() {
		t.Error("clone shares the base target")
	}
	if base.Camera() == clone.Camera() {
		t.Error("clone shares the base virtual camera")
	}
	if clone.Owner() != base.Owner() || clone.Name() != "_PlanarGround#1" {
		t.Error("clone identity not set up")
	}
	if base.Settings().Shadows == clone.Settings().Shadows {
		t.Error("clone settings aliased to the base")
	}
}
