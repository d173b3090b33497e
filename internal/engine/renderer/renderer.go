// Package renderer provides OpenGL rendering functionality.
package renderer

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-mirror/internal/engine/camera"
	"github.com/Faultbox/midgard-mirror/internal/engine/framebuffer"
	"github.com/Faultbox/midgard-mirror/internal/engine/lighting"
	"github.com/Faultbox/midgard-mirror/internal/engine/render"
	"github.com/Faultbox/midgard-mirror/internal/engine/shader"
	"github.com/Faultbox/midgard-mirror/internal/engine/shadow"
	"github.com/Faultbox/midgard-mirror/internal/logger"
	"github.com/Faultbox/midgard-mirror/pkg/math"
)

// ErrForeignTarget is returned when a camera targets something that is not
// a framebuffer owned by this renderer's context.
var ErrForeignTarget = errors.New("renderer: unsupported render target")

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
	VSync  bool

	// RenderScale scales reflection targets relative to the viewer.
	RenderScale float32
	// MSAASamples is the multisample count reflection targets request.
	MSAASamples int

	Fog        bool
	FogDensity float32

	// ShadowResolution sizes the shadow map; zero disables shadows.
	ShadowResolution int32
	Sun              lighting.Sun

	// Reflectivity blends mirror walls between their color and the
	// reflected image.
	Reflectivity float32
}

// DefaultConfig returns the renderer defaults for a window size.
func DefaultConfig(width, height int) Config {
	return Config{
		Width:        width,
		Height:       height,
		VSync:        true,
		RenderScale:  1,
		MSAASamples:  1,
		Fog:          true,
		FogDensity:   0.04,
		Reflectivity: 0.75,

		ShadowResolution: shadow.DefaultResolution,
		Sun:              lighting.DefaultSun,
	}
}

var skyColor = math.Vec3{X: 0.45, Y: 0.6, Z: 0.8}

// Renderer draws a Room from any camera into the screen or a framebuffer.
// It implements the pipeline interface reflection passes render through.
type Renderer struct {
	config Config

	program *shader.Program
	depth   *shader.Program
	quad    *mesh
	cube    *mesh

	lightDir   math.Vec3
	shadows    *shadow.Map
	lightSpace math.Mat4
	shadowBias float32

	room     *Room
	bindings *render.Bindings

	fog           bool
	invertCulling bool
	drawCalls     int
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config, room *Room, bindings *render.Bindings) (*Renderer, error) {
	if bindings == nil {
		bindings = render.NewBindings()
	}
	r := &Renderer{
		config:   cfg,
		room:     room,
		bindings: bindings,
		fog:      cfg.Fog,
		lightDir: cfg.Sun.LightDirection(),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)

	program, err := shader.NewProgram(sceneVertexShader, sceneFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}
	r.program = program
	r.quad = newMesh(quadVertices())
	r.cube = newMesh(cubeVertices())

	if cfg.ShadowResolution > 0 {
		if err := r.initShadows(cfg.ShadowResolution); err != nil {
			logger.Warn("shadows disabled", zap.Error(err))
		}
	}

	logger.Debug("renderer ready",
		zap.Int("objects", len(room.Objects)),
		zap.Float32("render_scale", cfg.RenderScale),
		zap.Int("msaa", cfg.MSAASamples),
	)
	return r, nil
}

func (r *Renderer) initShadows(resolution int32) error {
	depth, err := shader.NewProgram(depthVertexShader, depthFragmentShader)
	if err != nil {
		return fmt.Errorf("depth program: %w", err)
	}
	sm, err := shadow.NewMap(resolution)
	if err != nil {
		depth.Delete()
		return err
	}

	bounds := r.room.Bounds()
	r.depth = depth
	r.shadows = sm
	r.lightSpace = shadow.LightMatrix(r.lightDir, bounds)
	r.shadowBias = shadow.TexelSize(bounds, resolution) / bounds.Radius()
	return nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	r.quad.delete()
	r.cube.delete()
	r.program.Delete()
	if r.shadows != nil {
		r.shadows.Destroy()
		r.depth.Delete()
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Room returns the scene being drawn.
func (r *Renderer) Room() *Room { return r.room }

// Bindings returns the global texture table mirrors sample from.
func (r *Renderer) Bindings() *render.Bindings { return r.bindings }

// DrawCalls returns the number of objects drawn since the last Begin.
func (r *Renderer) DrawCalls() int { return r.drawCalls }

// Begin starts a new frame and renders the shadow map. Only props cast
// shadows; the room encloses the light.
func (r *Renderer) Begin() {
	r.drawCalls = 0
	if r.shadows == nil {
		return
	}

	restore := r.shadows.Bind()
	r.depth.Use()
	r.depth.SetMat4("u_lightSpace", r.lightSpace)
	for i := range r.room.Objects {
		o := &r.room.Objects[i]
		if o.Layer != LayerProps {
			continue
		}
		r.depth.SetMat4("u_model", o.Model)
		r.meshFor(o.Shape).draw()
	}
	gl.BindVertexArray(0)
	restore()
}

func (r *Renderer) meshFor(shape Shape) *mesh {
	if shape == ShapeCube {
		return r.cube
	}
	return r.quad
}

// RenderCameraNow draws the room from cam into cam.Target, or into the
// screen when the target is nil.
func (r *Renderer) RenderCameraNow(_ render.Context, cam *camera.Camera) error {
	width, height := r.config.Width, r.config.Height
	var fb *framebuffer.Framebuffer
	if cam.Target != nil {
		var ok bool
		if fb, ok = cam.Target.(*framebuffer.Framebuffer); !ok {
			return fmt.Errorf("%w: %T", ErrForeignTarget, cam.Target)
		}
		restore := fb.BindWithViewport()
		defer restore()
		width, height = fb.Width(), fb.Height()
	} else {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.Viewport(0, 0, int32(width), int32(height))
	}

	r.clear(cam)

	if r.invertCulling {
		gl.FrontFace(gl.CW)
	} else {
		gl.FrontFace(gl.CCW)
	}
	defer gl.FrontFace(gl.CCW)

	if cam.AllowMSAA {
		gl.Enable(gl.MULTISAMPLE)
	} else {
		gl.Disable(gl.MULTISAMPLE)
	}

	p := r.program
	p.Use()
	p.SetMat4("u_view", cam.WorldToCamera)
	p.SetMat4("u_projection", cam.Projection)
	p.SetVec3("u_lightDir", r.lightDir)
	p.SetBool("u_fog", r.fog)
	p.SetVec3("u_fogColor", skyColor)
	p.SetFloat("u_fogDensity", r.config.FogDensity)
	p.SetFloat("u_reflectivity", r.config.Reflectivity)
	p.SetInt("u_reflection", 0)
	p.SetInt("u_shadowMap", 1)
	gl.Uniform2f(p.Uniform("u_viewport"), float32(width), float32(height))

	shadows := cam.RenderShadows && r.shadows != nil
	p.SetBool("u_shadows", shadows)
	if shadows {
		p.SetMat4("u_lightSpace", r.lightSpace)
		p.SetFloat("u_shadowBias", r.shadowBias)
		r.shadows.BindTexture(gl.TEXTURE1)
	}

	for i := range r.room.Objects {
		o := &r.room.Objects[i]
		if !cam.CullingMask.Contains(o.Layer) {
			continue
		}
		r.drawObject(o, fb)
	}
	gl.BindVertexArray(0)

	if fb != nil {
		fb.Resolve()
	}

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("drawing %s: gl error 0x%x", cam.Name, code)
	}
	return nil
}

func (r *Renderer) clear(cam *camera.Camera) {
	switch cam.ClearFlags {
	case camera.ClearSkybox:
		gl.ClearColor(skyColor.X, skyColor.Y, skyColor.Z, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	case camera.ClearColor:
		bg := cam.Background
		gl.ClearColor(bg.R, bg.G, bg.B, bg.A)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	case camera.ClearDepth:
		gl.Clear(gl.DEPTH_BUFFER_BIT)
	case camera.ClearNothing:
	}
}

// drawObject draws o. A mirror whose reflection is the target being drawn
// into, or is not bound yet, is drawn as a plain wall.
func (r *Renderer) drawObject(o *Object, target *framebuffer.Framebuffer) {
	p := r.program
	p.SetMat4("u_model", o.Model)
	p.SetVec3("u_color", o.Color)

	mirror := false
	if o.Mirror != "" {
		if bound, ok := r.bindings.Get(o.Mirror); ok {
			if fb, ok := bound.(*framebuffer.Framebuffer); ok && fb != target {
				gl.ActiveTexture(gl.TEXTURE0)
				gl.BindTexture(gl.TEXTURE_2D, fb.ColorTexture())
				mirror = true
			}
		}
	}
	p.SetBool("u_mirror", mirror)

	r.meshFor(o.Shape).draw()
	r.drawCalls++
}

// SetGlobalTexture binds t under name for mirror materials.
func (r *Renderer) SetGlobalTexture(name string, t render.Target) {
	r.bindings.Set(name, t)
}

func (r *Renderer) RenderScale() float32 {
	if r.config.RenderScale <= 0 {
		return 1
	}
	return r.config.RenderScale
}

func (r *Renderer) MSAASamples() int {
	return max(r.config.MSAASamples, 1)
}

func (r *Renderer) Fog() bool           { return r.fog }
func (r *Renderer) SetFog(enabled bool) { r.fog = enabled }

func (r *Renderer) InvertCulling() bool            { return r.invertCulling }
func (r *Renderer) SetInvertCulling(inverted bool) { r.invertCulling = inverted }
