// Package render defines the host-side rendering contracts the reflection
// passes consume: render targets, their allocator, layer masks, the
// per-frame context and the global shader texture bindings.
package render

import "fmt"

// Context is the per-frame value handed from the host to every pass.
type Context struct {
	Frame uint64
}

// LayerMask is a visibility filter; bit i selects layer i.
type LayerMask int32

// AllLayers selects every layer.
const AllLayers LayerMask = -1

// Contains reports whether layer is visible through the mask.
func (m LayerMask) Contains(layer int) bool {
	if layer < 0 || layer > 31 {
		return false
	}
	return m&(1<<uint(layer)) != 0
}

// Target is an offscreen color+depth render target.
type Target interface {
	Width() int
	Height() int
	HDR() bool
	Samples() int
}

// TargetDesc describes a render target to allocate.
type TargetDesc struct {
	Width     int
	Height    int
	DepthBits int
	HDR       bool
	Samples   int
}

func (d TargetDesc) String() string {
	return fmt.Sprintf("%dx%d depth=%d hdr=%t samples=%d", d.Width, d.Height, d.DepthBits, d.HDR, d.Samples)
}

// Allocator creates and releases render targets. Implementations are only
// used from the thread that owns the rendering context.
type Allocator interface {
	Allocate(desc TargetDesc) (Target, error)
	Release(t Target)
}
