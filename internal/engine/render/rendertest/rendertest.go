// Package rendertest provides recording fakes of the host render
// contracts for tests and offline schedule planning.
package rendertest

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-mirror/internal/engine/camera"
	"github.com/Faultbox/midgard-mirror/internal/engine/render"
)

// Target is an in-memory render target.
type Target struct {
	ID   int
	Desc render.TargetDesc
}

func (t *Target) Width() int   { return t.Desc.Width }
func (t *Target) Height() int  { return t.Desc.Height }
func (t *Target) HDR() bool    { return t.Desc.HDR }
func (t *Target) Samples() int { return t.Desc.Samples }

func (t *Target) String() string {
	return fmt.Sprintf("target#%d(%s)", t.ID, t.Desc)
}

// ErrAllocation is returned by Allocator while Fail is set.
var ErrAllocation = errors.New("rendertest: allocation refused")

// Allocator hands out Targets and counts allocations and releases.
type Allocator struct {
	Fail bool // refuse every allocation while set

	Allocated int
	Released  int
	Live      map[*Target]bool
	Descs     []render.TargetDesc
}

// NewAllocator creates an allocator with no live targets.
func NewAllocator() *Allocator {
	return &Allocator{Live: make(map[*Target]bool)}
}

func (a *Allocator) Allocate(desc render.TargetDesc) (render.Target, error) {
	if a.Fail {
		return nil, ErrAllocation
	}
	a.Allocated++
	a.Descs = append(a.Descs, desc)
	t := &Target{ID: a.Allocated, Desc: desc}
	a.Live[t] = true
	return t, nil
}

func (a *Allocator) Release(t render.Target) {
	ft, ok := t.(*Target)
	if !ok || !a.Live[ft] {
		return
	}
	delete(a.Live, ft)
	a.Released++
}

// Draw records one RenderCameraNow call.
type Draw struct {
	Frame    uint64
	View     camera.Camera // snapshot of the camera at draw time
	Fog      bool
	Inverted bool
}

// Pipeline records draws and bindings.
type Pipeline struct {
	Scale   float32
	Samples int
	// FailOn, when set, is consulted before each draw; a non-nil error
	// fails the draw.
	FailOn func(cam *camera.Camera) error

	Bindings  *render.Bindings
	Draws     []Draw
	Publishes []string

	fog      bool
	inverted bool
}

// NewPipeline creates a pipeline at render scale 1 with fog enabled.
func NewPipeline() *Pipeline {
	return &Pipeline{
		Scale:    1,
		Samples:  1,
		Bindings: render.NewBindings(),
		fog:      true,
	}
}

func (p *Pipeline) RenderCameraNow(ctx render.Context, cam *camera.Camera) error {
	if p.FailOn != nil {
		if err := p.FailOn(cam); err != nil {
			return err
		}
	}
	p.Draws = append(p.Draws, Draw{
		Frame:    ctx.Frame,
		View:     *cam,
		Fog:      p.fog,
		Inverted: p.inverted,
	})
	return nil
}

func (p *Pipeline) SetGlobalTexture(name string, t render.Target) {
	p.Publishes = append(p.Publishes, name)
	p.Bindings.Set(name, t)
}

func (p *Pipeline) RenderScale() float32 { return p.Scale }
func (p *Pipeline) MSAASamples() int     { return p.Samples }

func (p *Pipeline) Fog() bool                      { return p.fog }
func (p *Pipeline) SetFog(enabled bool)            { p.fog = enabled }
func (p *Pipeline) InvertCulling() bool            { return p.inverted }
func (p *Pipeline) SetInvertCulling(inverted bool) { p.inverted = inverted }

// DrawnTargets returns the target of every recorded draw in order.
func (p *Pipeline) DrawnTargets() []render.Target {
	targets := make([]render.Target, len(p.Draws))
	for i, d := range p.Draws {
		targets[i] = d.View.Target
	}
	return targets
}

// Reset forgets recorded draws and publishes.
func (p *Pipeline) Reset() {
	p.Draws = p.Draws[:0]
	p.Publishes = p.Publishes[:0]
}
