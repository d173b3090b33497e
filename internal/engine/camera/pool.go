package camera

import (
	"fmt"
	"slices"

	"github.com/Faultbox/midgard-mirror/pkg/math"
)

// Pool hands out reusable virtual cameras so reflection passes never
// allocate cameras per frame. It is not safe for concurrent use; cameras
// are acquired and released on the render thread.
type Pool struct {
	all  []*Camera
	free []*Camera
}

// NewPool creates an empty pool. Cameras are created on demand.
func NewPool() *Pool {
	return &Pool{}
}

// AcquireVirtualCamera returns an available camera, creating one when
// every existing camera is in use.
func (p *Pool) AcquireVirtualCamera() *Camera {
	if n := len(p.free); n > 0 {
		c := p.free[n-1]
		p.free = p.free[:n-1]
		return c
	}

	c := &Camera{
		Name:          fmt.Sprintf("virtual-%d", len(p.all)),
		Kind:          KindVirtual,
		Rotation:      math.QuatIdentity(),
		WorldToCamera: math.Identity(),
		Projection:    math.Identity(),
	}
	p.all = append(p.all, c)
	return c
}

// ReleaseVirtualCamera returns c to the pool. Cameras that did not come
// from this pool, or are already free, are ignored.
func (p *Pool) ReleaseVirtualCamera(c *Camera) {
	if c == nil || !slices.Contains(p.all, c) || slices.Contains(p.free, c) {
		return
	}
	c.Target = nil
	p.free = append(p.free, c)
}

// Len returns the number of cameras the pool has created.
func (p *Pool) Len() int {
	return len(p.all)
}

// InUse returns the number of cameras currently acquired.
func (p *Pool) InUse() int {
	return len(p.all) - len(p.free)
}

// Each calls fn for every pool member, acquired or not.
func (p *Pool) Each(fn func(*Camera)) {
	for _, c := range p.all {
		fn(c)
	}
}
