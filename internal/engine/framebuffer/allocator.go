package framebuffer

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-mirror/internal/engine/render"
	"github.com/Faultbox/midgard-mirror/internal/logger"
)

// Allocator creates Framebuffers on demand and tracks the live ones. It
// must be used on the thread that owns the GL context.
type Allocator struct {
	bindings *render.Bindings
	live     map[*Framebuffer]struct{}
	create   func(render.TargetDesc) (*Framebuffer, error)
}

// NewAllocator creates an allocator. Released targets are removed from
// bindings, which may be nil.
func NewAllocator(bindings *render.Bindings) *Allocator {
	return &Allocator{
		bindings: bindings,
		live:     make(map[*Framebuffer]struct{}),
		create:   New,
	}
}

// Allocate creates a framebuffer for desc.
func (a *Allocator) Allocate(desc render.TargetDesc) (render.Target, error) {
	fb, err := a.create(desc)
	if err != nil {
		logger.Warn("framebuffer allocation failed", zap.Stringer("desc", desc), zap.Error(err))
		return nil, err
	}
	a.live[fb] = struct{}{}
	return fb, nil
}

// Release destroys t. Targets this allocator did not create are ignored.
func (a *Allocator) Release(t render.Target) {
	fb, ok := t.(*Framebuffer)
	if !ok {
		return
	}
	if _, live := a.live[fb]; !live {
		return
	}
	delete(a.live, fb)
	if a.bindings != nil {
		a.bindings.Unbind(fb)
	}
	fb.Destroy()
}

// Live returns the number of framebuffers not yet released.
func (a *Allocator) Live() int {
	return len(a.live)
}

// Close destroys every live framebuffer.
func (a *Allocator) Close() {
	for fb := range a.live {
		a.Release(fb)
	}
}
