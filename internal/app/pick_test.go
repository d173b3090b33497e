package app

import (
	"testing"

	"github.com/Faultbox/midgard-mirror/internal/engine/picking"
	"github.com/Faultbox/midgard-mirror/internal/engine/renderer"
	"github.com/Faultbox/midgard-mirror/internal/reflection"
	"github.com/Faultbox/midgard-mirror/pkg/math"
)

func TestPickPreset(t *testing.T) {
	room := renderer.NewRoom(8, 5, 8)
	eye := math.Vec3{X: 0, Y: 4, Z: -6}

	tests := []struct {
		name string
		dir  math.Vec3
		want reflection.Preset
	}{
		{"floor", math.Vec3{Y: -1}, reflection.PresetGround},
		{"ceiling", math.Vec3{Y: 1}, reflection.PresetCeiling},
		// The wall at x = -8 faces +X.
		{"left wall", math.Vec3{X: -1}, reflection.PresetRight},
		{"right wall", math.Vec3{X: 1}, reflection.PresetLeft},
		{"back wall", math.Vec3{Z: -1}, reflection.PresetForward},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pickPreset(room, picking.Ray{Origin: eye, Direction: tt.dir})
			if !ok || got != tt.want {
				t.Errorf("pickPreset = (%s, %t), want %s", got, ok, tt.want)
			}
		})
	}
}

func TestPickPresetBlockedByProp(t *testing.T) {
	room := renderer.NewRoom(8, 5, 8)

	// Straight down onto the crate at (-1.5, 0.5, -1).
	ray := picking.Ray{Origin: math.Vec3{X: -1.5, Y: 4, Z: -1}, Direction: math.Vec3{Y: -1}}
	if p, ok := pickPreset(room, ray); ok {
		t.Errorf("pick through the crate returned %s", p)
	}
}
