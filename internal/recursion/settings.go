package recursion

import (
	"errors"
	"fmt"
)

// ErrInvalidGroup is returned for group settings outside their ranges.
var ErrInvalidGroup = errors.New("recursion: invalid group settings")

// Limits of GroupSettings.
const (
	MaxLevels       = 5
	MaxShadowLevels = 10
	MaxMSAACutoff   = 10
)

// GroupSettings configures one recursive reflection group.
type GroupSettings struct {
	Levels       int `yaml:"levels"`        // recursion depth D
	ShadowLevels int `yaml:"shadow_levels"` // depths below this keep shadows
	MSAACutoff   int `yaml:"msaa_cutoff"`   // depths below this keep MSAA
	Group        int `yaml:"group"`
}

// DefaultGroupSettings returns a single-bounce group 1.
func DefaultGroupSettings() GroupSettings {
	return GroupSettings{
		Levels:       1,
		ShadowLevels: 1,
		MSAACutoff:   1,
		Group:        1,
	}
}

// Validate checks every field against its range.
func (g GroupSettings) Validate() error {
	if g.Levels < 1 || g.Levels > MaxLevels {
		return fmt.Errorf("%w: levels %d not in [1, %d]", ErrInvalidGroup, g.Levels, MaxLevels)
	}
	if g.ShadowLevels < 1 || g.ShadowLevels > MaxShadowLevels {
		return fmt.Errorf("%w: shadow levels %d not in [1, %d]", ErrInvalidGroup, g.ShadowLevels, MaxShadowLevels)
	}
	if g.MSAACutoff < 1 || g.MSAACutoff > MaxMSAACutoff {
		return fmt.Errorf("%w: msaa cutoff %d not in [1, %d]", ErrInvalidGroup, g.MSAACutoff, MaxMSAACutoff)
	}
	return nil
}
