// Package lighting provides the directional light the room is lit by.
package lighting

import (
	gomath "math"

	"github.com/Faultbox/midgard-mirror/pkg/math"
)

// Sun is a directional light placed by angles in degrees. Azimuth is the
// rotation around Y measured from +Z toward +X, elevation is the height
// above the horizon (0-90).
type Sun struct {
	Azimuth   float32 `yaml:"azimuth"`
	Elevation float32 `yaml:"elevation"`
}

// DefaultSun lights the room from above, slightly off the +X+Z diagonal.
var DefaultSun = Sun{Azimuth: 53, Elevation: 63}

// Direction returns the normalized vector pointing towards the sun.
func (s Sun) Direction() math.Vec3 {
	az := float64(s.Azimuth) * gomath.Pi / 180.0
	el := float64(s.Elevation) * gomath.Pi / 180.0

	return math.Vec3{
		X: float32(gomath.Cos(el) * gomath.Sin(az)),
		Y: float32(gomath.Sin(el)),
		Z: float32(gomath.Cos(el) * gomath.Cos(az)),
	}
}

// LightDirection returns the direction light travels in.
func (s Sun) LightDirection() math.Vec3 {
	return s.Direction().Negate()
}
