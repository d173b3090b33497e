// Package app implements the mirrorbox main loop: a room whose walls can
// be planar mirrors, viewed through an orbit camera.
package app

import (
	"fmt"
	gomath "math"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-mirror/internal/config"
	"github.com/Faultbox/midgard-mirror/internal/engine/audio"
	"github.com/Faultbox/midgard-mirror/internal/engine/camera"
	"github.com/Faultbox/midgard-mirror/internal/engine/debug"
	"github.com/Faultbox/midgard-mirror/internal/engine/framebuffer"
	"github.com/Faultbox/midgard-mirror/internal/engine/input"
	"github.com/Faultbox/midgard-mirror/internal/engine/picking"
	"github.com/Faultbox/midgard-mirror/internal/engine/render"
	"github.com/Faultbox/midgard-mirror/internal/engine/renderer"
	"github.com/Faultbox/midgard-mirror/internal/engine/window"
	"github.com/Faultbox/midgard-mirror/internal/jobs"
	"github.com/Faultbox/midgard-mirror/internal/logger"
	"github.com/Faultbox/midgard-mirror/internal/reflection"
	"github.com/Faultbox/midgard-mirror/pkg/mirror"
)

// Room dimensions in world units.
const (
	roomHalfWidth = 8
	roomHeight    = 5
	roomHalfDepth = 8
)

// presetKeys toggles a mirror preset.
var presetKeys = map[sdl.Scancode]reflection.Preset{
	sdl.SCANCODE_1: reflection.PresetGround,
	sdl.SCANCODE_2: reflection.PresetCeiling,
	sdl.SCANCODE_3: reflection.PresetRight,
	sdl.SCANCODE_4: reflection.PresetLeft,
	sdl.SCANCODE_5: reflection.PresetForward,
	sdl.SCANCODE_6: reflection.PresetBack,
}

// App is the main application instance.
type App struct {
	cfg     *config.Config
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input

	room     *renderer.Room
	main     *camera.Camera
	orbit    *camera.OrbitCamera
	notifier camera.Notifier

	cameras   *camera.Pool
	allocator *framebuffer.Allocator
	jobs      mirror.Executor
	mirrors   *Mirrors

	audio       *audio.Manager
	capture     *debug.Capture
	captureNext bool

	frame uint64
}

// New creates the window, renderer and mirrors described by cfg.
func New(cfg *config.Config) (*App, error) {
	g := cfg.Graphics
	logger.Info("initializing mirrorbox",
		zap.Int("width", g.Width),
		zap.Int("height", g.Height),
		zap.Int("surfaces", len(cfg.Reflections.Surfaces)),
	)

	a := &App{
		cfg:     cfg,
		room:    renderer.NewRoom(roomHalfWidth, roomHeight, roomHalfDepth),
		input:   input.New(),
		cameras: camera.NewPool(),
	}

	var err error
	a.window, err = window.New(window.Config{
		Title:      "Midgard Mirror",
		Width:      g.Width,
		Height:     g.Height,
		Fullscreen: g.Fullscreen,
		VSync:      g.VSync,
		Samples:    g.MSAASamples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	width, height := a.window.GetDrawableSize()
	rcfg := renderer.DefaultConfig(width, height)
	rcfg.VSync = g.VSync
	rcfg.RenderScale = g.RenderScale
	rcfg.MSAASamples = g.MSAASamples
	rcfg.Sun = g.Sun

	// Renderer must come after the window: it needs the GL context.
	a.renderer, err = renderer.New(rcfg, a.room, render.NewBindings())
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	a.allocator = framebuffer.NewAllocator(a.renderer.Bindings())

	if cfg.Audio.Enabled {
		a.audio = audio.New(cfg.Audio.Volume)
		if err := a.audio.Init(); err != nil {
			logger.Warn("audio disabled", zap.Error(err))
			a.audio = nil
		}
	}

	a.capture, err = debug.NewCapture(cfg.Capture.Dir, cfg.Capture.Format)
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Jobs.Workers > 0 {
		a.jobs = jobs.NewPool(cfg.Jobs.Workers, cfg.Jobs.QueueSize)
	} else {
		a.jobs = jobs.Inline{}
	}

	cc := cfg.Camera
	a.main = camera.NewPerspective("main", width, height, cc.FieldOfView*gomath.Pi/180, cc.Near, cc.Far)
	a.main.ClearFlags = camera.ClearSkybox
	a.main.RenderShadows = true
	a.main.AllowMSAA = a.window.Samples() > 1

	a.orbit = camera.NewOrbitCamera()
	a.orbit.Center = a.room.Center()
	a.orbit.MaxDistance = roomHalfWidth - 0.5
	a.orbit.Distance = min(cc.Distance, a.orbit.MaxDistance)
	a.orbit.MinPitch = -0.25
	a.orbit.MaxPitch = 0.35
	a.orbit.RotationX = min(a.orbit.RotationX, a.orbit.MaxPitch)

	if err := a.rebuildMirrors(); err != nil {
		a.Close()
		return nil, err
	}

	logger.Info("mirrorbox initialized")
	return a, nil
}

// adjust moves each configured plane onto the room wall it faces. The
// configured offset becomes a bias into the room.
func (a *App) adjust(s reflection.Settings) reflection.Settings {
	s.ClipPlaneOffset += a.room.PlaneDistance(s.Direction)
	return s
}

func (a *App) rebuildMirrors() error {
	if a.mirrors != nil {
		a.mirrors.Close()
		a.mirrors = nil
	}

	refl := &a.cfg.Reflections
	deps := reflection.Deps{
		Pipeline:  a.renderer,
		Allocator: a.allocator,
		Cameras:   a.cameras,
		Jobs:      a.jobs,
	}
	m, err := BuildMirrors(&refl.Registry, refl.Recursion, a.main, deps, a.adjust)
	if err != nil {
		return fmt.Errorf("building mirrors: %w", err)
	}
	m.Subscribe(&a.notifier)
	a.mirrors = m

	a.room.ClearMirrors()
	for _, s := range m.Surfaces() {
		settings := s.Settings()
		if !a.room.SetMirror(settings.Direction, settings.ShaderProperty) {
			logger.Warn("mirror faces no wall", zap.String("surface", s.Name()))
		}
	}

	recursive := 0
	if sched := m.Scheduler(); sched != nil {
		recursive = sched.Len()
	}
	logger.Info("mirrors ready",
		zap.Int("surfaces", len(m.Surfaces())),
		zap.Int("recursive", recursive),
		zap.Int("levels", refl.Recursion.Levels),
	)
	return nil
}

// Run starts the main loop.
func (a *App) Run() error {
	a.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting main loop")

	for a.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		// 1. Process input
		if a.input.Update() {
			a.running = false
			break
		}
		if err := a.handleEvents(); err != nil {
			return err
		}

		// 2. Update camera
		dx, dy := a.input.Drag(sdl.BUTTON_LEFT)
		a.orbit.HandleDrag(float32(dx), float32(dy))
		a.orbit.HandleZoom(a.input.Wheel())
		a.orbit.Apply(a.main)

		// 3. Render reflections, then the main view
		a.render()

		// 4. Present
		if a.captureNext {
			a.captureNext = false
			a.saveCapture()
		}
		a.window.SwapBuffers()
		a.mirrors.Tick()
		a.frame++

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			logger.Debug("fps",
				zap.Int("count", frameCount),
				zap.String("dt", fmt.Sprintf("%.2fms", dt*1000)),
				zap.Int("draws", a.renderer.DrawCalls()),
				zap.Int("targets", a.allocator.Live()),
			)
			a.window.SetTitle(fmt.Sprintf("Midgard Mirror - %d fps, %d mirrors", frameCount, len(a.mirrors.Surfaces())))
			frameCount = 0
			fpsTimer = time.Now()
		}

		if limit := a.cfg.Graphics.FPSLimit; limit > 0 {
			if wait := time.Second/time.Duration(limit) - time.Since(now); wait > 0 {
				time.Sleep(wait)
			}
		}
	}

	return nil
}

func (a *App) handleEvents() error {
	for _, event := range a.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			width, height := a.window.GetDrawableSize()
			a.renderer.Resize(width, height)
			a.main.Resize(width, height)
		case input.EventKeyDown:
			if event.Key == sdl.SCANCODE_ESCAPE {
				a.running = false
				continue
			}
			if event.Key == sdl.SCANCODE_F11 {
				if err := a.window.ToggleFullscreen(); err != nil {
					logger.Warn("fullscreen toggle failed", zap.Error(err))
				}
				continue
			}
			if event.Key == sdl.SCANCODE_F12 {
				a.captureNext = true
				continue
			}
			if event.Key == sdl.SCANCODE_F {
				a.renderer.SetFog(!a.renderer.Fog())
				logger.Info("fog toggled", zap.Bool("enabled", a.renderer.Fog()))
				continue
			}
			if p, ok := presetKeys[event.Key]; ok {
				if err := a.toggle(p); err != nil {
					return err
				}
			}
		case input.EventMouseDown:
			if event.Button != sdl.BUTTON_RIGHT {
				continue
			}
			if p, ok := a.pick(event.MouseX, event.MouseY); ok {
				if err := a.toggle(p); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// pick casts a ray from the main camera through a window position.
func (a *App) pick(x, y int) (reflection.Preset, bool) {
	inv, ok := a.main.ViewProjection().Inverse()
	if !ok {
		return 0, false
	}
	w, h := a.window.GetSize()
	if w <= 0 || h <= 0 {
		return 0, false
	}
	ray := picking.ScreenToRay(float32(x), float32(y), float32(w), float32(h), inv)
	return pickPreset(a.room, ray)
}

func (a *App) toggle(p reflection.Preset) error {
	enabled := a.cfg.Reflections.Toggle(p)
	logger.Info("mirror toggled", zap.Stringer("preset", p), zap.Bool("enabled", enabled))
	if enabled {
		a.cue(audio.CueMirrorOn)
	} else {
		a.cue(audio.CueMirrorOff)
	}
	return a.rebuildMirrors()
}

func (a *App) render() {
	ctx := render.Context{Frame: a.frame}
	a.renderer.Begin()

	a.notifier.BeginCamera(ctx, a.main)
	if err := a.renderer.RenderCameraNow(ctx, a.main); err != nil {
		logger.Error("main view failed", zap.Error(err))
	}
}

// saveCapture writes the back buffer and every reflection target.
func (a *App) saveCapture() {
	shot, err := a.capture.Begin()
	if err != nil {
		logger.Error("capture failed", zap.Error(err))
		return
	}

	width, height := a.window.GetDrawableSize()
	if _, err := shot.SavePixels("main", framebuffer.ReadScreen(width, height), width, height); err != nil {
		logger.Error("capture failed", zap.String("target", "main"), zap.Error(err))
	}
	for _, nt := range a.mirrors.Targets() {
		fb, ok := nt.Target.(*framebuffer.Framebuffer)
		if !ok {
			continue
		}
		if _, err := shot.SavePixels(nt.Name, fb.ReadPixels(), fb.Width(), fb.Height()); err != nil {
			logger.Error("capture failed", zap.String("target", nt.Name), zap.Error(err))
		}
	}
	logger.Info("capture saved", zap.String("dir", shot.Dir()))
	a.cue(audio.CueCapture)
}

func (a *App) cue(c audio.Cue) {
	if a.audio == nil {
		return
	}
	if err := a.audio.Play(c); err != nil {
		logger.Debug("cue not played", zap.Stringer("cue", c), zap.Error(err))
	}
}

// Close releases every resource in reverse creation order.
func (a *App) Close() {
	logger.Info("closing mirrorbox")

	if a.mirrors != nil {
		a.mirrors.Close()
	}
	if pool, ok := a.jobs.(*jobs.Pool); ok {
		pool.Close()
	}
	if a.allocator != nil {
		a.allocator.Close()
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.audio != nil {
		a.audio.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
