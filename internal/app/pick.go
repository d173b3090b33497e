package app

import (
	"github.com/Faultbox/midgard-mirror/internal/engine/picking"
	"github.com/Faultbox/midgard-mirror/internal/engine/renderer"
	"github.com/Faultbox/midgard-mirror/internal/reflection"
	"github.com/Faultbox/midgard-mirror/pkg/math"
)

// pickPreset returns the preset whose wall the ray hits first. A prop in
// front of the wall blocks the pick.
func pickPreset(room *renderer.Room, ray picking.Ray) (reflection.Preset, bool) {
	presets := reflection.Presets()
	planes := make([]math.Vec4, len(presets))
	for i, p := range presets {
		n := p.Direction()
		planes[i] = math.PlaneFrom(n, -room.PlaneDistance(n))
	}

	idx, wall, ok := ray.NearestPlane(planes)
	if !ok {
		return 0, false
	}
	for _, box := range room.PropBounds() {
		if t, hit := ray.IntersectAABB(box); hit && t < wall {
			return 0, false
		}
	}
	return presets[idx], true
}
