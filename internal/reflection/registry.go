package reflection

import (
	"fmt"
	"strings"

	"github.com/Faultbox/midgard-mirror/internal/engine/render"
	"github.com/Faultbox/midgard-mirror/pkg/math"
)

// Preset is one of the six axis-aligned mirror placements of a box room.
type Preset int

const (
	PresetGround Preset = iota
	PresetCeiling
	PresetRight
	PresetLeft
	PresetForward
	PresetBack
)

type presetInfo struct {
	name      string
	direction math.Vec3
	property  string
}

var presets = [...]presetInfo{
	PresetGround:  {"ground", math.Vec3{X: 0, Y: 1, Z: 0}, "_PlanarGround"},
	PresetCeiling: {"ceiling", math.Vec3{X: 0, Y: -1, Z: 0}, "_PlanarCeiling"},
	PresetRight:   {"right", math.Vec3{X: 1, Y: 0, Z: 0}, "_PlanarRight"},
	PresetLeft:    {"left", math.Vec3{X: -1, Y: 0, Z: 0}, "_PlanarLeft"},
	PresetForward: {"forward", math.Vec3{X: 0, Y: 0, Z: 1}, "_PlanarForward"},
	PresetBack:    {"back", math.Vec3{X: 0, Y: 0, Z: -1}, "_PlanarBack"},
}

// Presets returns every preset in declaration order.
func Presets() []Preset {
	return []Preset{PresetGround, PresetCeiling, PresetRight, PresetLeft, PresetForward, PresetBack}
}

func (p Preset) String() string {
	if p < 0 || int(p) >= len(presets) {
		return fmt.Sprintf("Preset(%d)", int(p))
	}
	return presets[p].name
}

// Direction returns the preset's plane normal.
func (p Preset) Direction() math.Vec3 { return presets[p].direction }

// ShaderProperty returns the global texture name the preset publishes to.
func (p Preset) ShaderProperty() string { return presets[p].property }

// ParsePreset resolves a preset by name.
func ParsePreset(name string) (Preset, error) {
	for i, info := range presets {
		if strings.EqualFold(name, info.name) {
			return Preset(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mirror preset %q", name)
}

// Defaults are group-wide values new surfaces are built from. FrameSkip
// is also inherited by surfaces that leave theirs at zero.
type Defaults struct {
	ClipPlaneOffset float32          `yaml:"clip_plane_offset"`
	Shadows         bool             `yaml:"shadows"`
	Occlusion       bool             `yaml:"occlusion"`
	MSAA            bool             `yaml:"msaa"`
	HDR             bool             `yaml:"hdr"`
	Layers          render.LayerMask `yaml:"layers"`
	Resolution      Resolution       `yaml:"resolution"`
	BlackBackground bool             `yaml:"black_background"`
	FrameSkip       int              `yaml:"frame_skip"`
	Recursive       bool             `yaml:"recursive"`
	RecursiveGroup  int              `yaml:"recursive_group"`
}

// DefaultDefaults returns the stock group defaults.
func DefaultDefaults() Defaults {
	return Defaults{
		ClipPlaneOffset: DefaultClipPlaneOffset,
		Shadows:         true,
		Occlusion:       true,
		MSAA:            true,
		HDR:             true,
		Layers:          render.AllLayers,
		Resolution:      ResolutionFull,
		FrameSkip:       1,
		RecursiveGroup:  1,
	}
}

// Settings builds surface settings for a direction from the defaults.
func (d Defaults) Settings(direction math.Vec3, property string) Settings {
	return Settings{
		Direction:       direction,
		ClipPlaneOffset: d.ClipPlaneOffset,
		ShaderProperty:  property,
		Resolution:      d.Resolution,
		FrameSkip:       d.FrameSkip,
		Layers:          d.Layers,
		Shadows:         d.Shadows,
		MSAA:            d.MSAA,
		HDR:             d.HDR,
		Occlusion:       d.Occlusion,
		BlackBackground: d.BlackBackground,
		Recursive:       d.Recursive,
		RecursiveGroup:  d.RecursiveGroup,
	}
}

// Registry is the authored, ordered list of reflecting surfaces.
type Registry struct {
	Defaults Defaults   `yaml:"defaults"`
	Surfaces []Settings `yaml:"surfaces"`
}

// NewRegistry creates an empty registry with stock defaults.
func NewRegistry() *Registry {
	return &Registry{Defaults: DefaultDefaults()}
}

func (r *Registry) indexOf(property string) int {
	for i, s := range r.Surfaces {
		if s.ShaderProperty == property {
			return i
		}
	}
	return -1
}

// Enabled reports whether the preset's surface is in the list.
func (r *Registry) Enabled(p Preset) bool {
	return r.indexOf(p.ShaderProperty()) >= 0
}

// Toggle adds the preset surface built from the defaults, or removes it
// when already present. It returns whether the preset is now enabled.
func (r *Registry) Toggle(p Preset) bool {
	if i := r.indexOf(p.ShaderProperty()); i >= 0 {
		r.Surfaces = append(r.Surfaces[:i], r.Surfaces[i+1:]...)
		return false
	}
	r.Surfaces = append(r.Surfaces, r.Defaults.Settings(p.Direction(), p.ShaderProperty()))
	return true
}

// Resolve returns surface i with inherited values applied.
func (r *Registry) Resolve(i int) Settings {
	s := r.Surfaces[i]
	if s.FrameSkip == 0 {
		s.FrameSkip = r.Defaults.FrameSkip
	}
	return s.normalized()
}

// Group returns the indices of recursive surfaces in group id, in
// authoring order.
func (r *Registry) Group(id int) []int {
	var members []int
	for i, s := range r.Surfaces {
		if s.Recursive && s.RecursiveGroup == id {
			members = append(members, i)
		}
	}
	return members
}

// Validate checks every surface and rejects duplicate shader properties.
func (r *Registry) Validate() error {
	seen := make(map[string]bool, len(r.Surfaces))
	for i, s := range r.Surfaces {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("surface %d: %w", i, err)
		}
		if seen[s.ShaderProperty] {
			return fmt.Errorf("%w: surface %d reuses shader property %q", ErrInvalidSettings, i, s.ShaderProperty)
		}
		seen[s.ShaderProperty] = true
	}
	return nil
}
