// Package reflection renders planar reflections: each Surface mirrors a
// source camera across one plane, draws the scene from the mirrored
// viewpoint into its own render target and publishes the result under a
// global shader texture name.
package reflection

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-mirror/internal/engine/render"
	"github.com/Faultbox/midgard-mirror/pkg/math"
)

// ErrInvalidSettings is returned for settings that cannot be rendered.
var ErrInvalidSettings = errors.New("invalid reflection settings")

// Resolution scales a reflection target relative to its viewer.
type Resolution int

const (
	ResolutionFull Resolution = iota
	ResolutionHalf
	ResolutionThird
	ResolutionQuarter
)

var resolutionNames = map[Resolution]string{
	ResolutionFull:    "full",
	ResolutionHalf:    "half",
	ResolutionThird:   "third",
	ResolutionQuarter: "quarter",
}

// Scale returns the size multiplier. Unknown values fall back to half.
func (r Resolution) Scale() float32 {
	switch r {
	case ResolutionFull:
		return 1
	case ResolutionHalf:
		return 0.5
	case ResolutionThird:
		return 0.33
	case ResolutionQuarter:
		return 0.25
	default:
		return 0.5
	}
}

func (r Resolution) String() string {
	if name, ok := resolutionNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Resolution(%d)", int(r))
}

// ParseResolution parses "full", "half", "third" or "quarter".
func ParseResolution(s string) (Resolution, error) {
	for r, name := range resolutionNames {
		if strings.EqualFold(s, name) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown resolution %q", s)
}

// MarshalYAML writes the resolution by name.
func (r Resolution) MarshalYAML() (interface{}, error) {
	return r.String(), nil
}

// UnmarshalYAML accepts a resolution name.
func (r *Resolution) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseResolution(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Settings configures one reflecting plane.
type Settings struct {
	Direction       math.Vec3        `yaml:"direction"`         // plane normal, normalized before use
	ClipPlaneOffset float32          `yaml:"clip_plane_offset"` // signed distance along Direction
	ShaderProperty  string           `yaml:"shader_property"`   // global texture name
	Resolution      Resolution       `yaml:"resolution"`
	FrameSkip       int              `yaml:"frame_skip"` // render every Nth frame; 0 inherits the default
	Layers          render.LayerMask `yaml:"layers"`

	Shadows         bool `yaml:"shadows"`
	MSAA            bool `yaml:"msaa"`
	HDR             bool `yaml:"hdr"`
	Occlusion       bool `yaml:"occlusion"`
	BlackBackground bool `yaml:"black_background"`

	Recursive      bool `yaml:"recursive"`
	RecursiveGroup int  `yaml:"recursive_group"`
}

// DefaultClipPlaneOffset keeps the clip plane slightly off the mirror
// surface to avoid z-fighting with the mirror geometry.
const DefaultClipPlaneOffset = 0.07

// DefaultSettings returns settings with every field at its default.
func DefaultSettings() Settings {
	return Settings{
		ClipPlaneOffset: DefaultClipPlaneOffset,
		Resolution:      ResolutionFull,
		FrameSkip:       1,
		Layers:          render.AllLayers,
		RecursiveGroup:  1,
	}
}

// UnmarshalYAML decodes settings on top of DefaultSettings. An omitted
// frame_skip stays zero so the surface inherits the group default.
func (s *Settings) UnmarshalYAML(value *yaml.Node) error {
	type plain Settings
	p := plain(DefaultSettings())
	p.FrameSkip = 0
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = Settings(p)
	return nil
}

// Validate reports settings that can never produce a reflection.
func (s Settings) Validate() error {
	if s.Direction.Length() == 0 {
		return fmt.Errorf("%w: direction must be non-zero", ErrInvalidSettings)
	}
	if s.ShaderProperty == "" {
		return fmt.Errorf("%w: shader property is required", ErrInvalidSettings)
	}
	if s.FrameSkip < 0 {
		return fmt.Errorf("%w: frame skip %d is negative", ErrInvalidSettings, s.FrameSkip)
	}
	return nil
}

// normalized returns a copy with a unit direction and a frame skip of at
// least one.
func (s Settings) normalized() Settings {
	s.Direction = s.Direction.Normalize()
	if s.FrameSkip < 1 {
		s.FrameSkip = 1
	}
	return s
}
