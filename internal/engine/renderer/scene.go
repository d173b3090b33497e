package renderer

import (
	gomath "math"

	"github.com/Faultbox/midgard-mirror/pkg/math"
)

// Scene layers.
const (
	LayerRoom  = 0
	LayerProps = 1
)

// Shape selects the mesh an object is drawn with.
type Shape int

const (
	ShapeQuad Shape = iota
	ShapeCube
)

// Object is one drawable in the scene.
type Object struct {
	Name  string
	Shape Shape
	Model math.Mat4
	Color math.Vec3
	Layer int

	// Mirror is the global texture name the object samples its
	// reflection from; empty for plain surfaces.
	Mirror string
	// Normal is the inward facing normal of a wall, zero for props.
	Normal math.Vec3
}

// Room is an axis-aligned box with the floor at y = 0, viewed from inside.
type Room struct {
	HalfWidth float32 // along X
	HalfDepth float32 // along Z
	Height    float32

	Objects []Object
}

// NewRoom builds a room with six walls and a few props.
func NewRoom(halfWidth, height, halfDepth float32) *Room {
	r := &Room{HalfWidth: halfWidth, HalfDepth: halfDepth, Height: height}

	w, h, d := halfWidth, height, halfDepth
	walls := []struct {
		name   string
		normal math.Vec3
		model  math.Mat4
		color  math.Vec3
	}{
		{"floor", math.Vec3{Y: 1},
			math.Translate(0, 0, 0).Mul(rotateX(-90)).Mul(math.Scale(2*w, 2*d, 1)),
			math.Vec3{X: 0.55, Y: 0.5, Z: 0.45}},
		{"ceiling", math.Vec3{Y: -1},
			math.Translate(0, h, 0).Mul(rotateX(90)).Mul(math.Scale(2*w, 2*d, 1)),
			math.Vec3{X: 0.8, Y: 0.8, Z: 0.8}},
		{"wall-left", math.Vec3{X: 1},
			math.Translate(-w, h/2, 0).Mul(rotateY(90)).Mul(math.Scale(2*d, h, 1)),
			math.Vec3{X: 0.7, Y: 0.35, Z: 0.3}},
		{"wall-right", math.Vec3{X: -1},
			math.Translate(w, h/2, 0).Mul(rotateY(-90)).Mul(math.Scale(2*d, h, 1)),
			math.Vec3{X: 0.3, Y: 0.5, Z: 0.7}},
		{"wall-back", math.Vec3{Z: 1},
			math.Translate(0, h/2, -d).Mul(math.Scale(2*w, h, 1)),
			math.Vec3{X: 0.4, Y: 0.65, Z: 0.4}},
		{"wall-front", math.Vec3{Z: -1},
			math.Translate(0, h/2, d).Mul(rotateY(180)).Mul(math.Scale(2*w, h, 1)),
			math.Vec3{X: 0.65, Y: 0.6, Z: 0.35}},
	}
	for _, wall := range walls {
		r.Objects = append(r.Objects, Object{
			Name:   wall.name,
			Shape:  ShapeQuad,
			Model:  wall.model,
			Color:  wall.color,
			Layer:  LayerRoom,
			Normal: wall.normal,
		})
	}

	props := []struct {
		name  string
		pos   math.Vec3
		size  float32
		color math.Vec3
	}{
		{"crate", math.Vec3{X: -1.5, Y: 0.5, Z: -1}, 1, math.Vec3{X: 0.8, Y: 0.55, Z: 0.25}},
		{"pillar", math.Vec3{X: 1.8, Y: 1.0, Z: 0.8}, 2, math.Vec3{X: 0.85, Y: 0.85, Z: 0.9}},
		{"cube", math.Vec3{X: 0.2, Y: 0.3, Z: 1.6}, 0.6, math.Vec3{X: 0.9, Y: 0.2, Z: 0.3}},
	}
	for _, p := range props {
		model := math.Translate(p.pos.X, p.pos.Y, p.pos.Z)
		if p.name == "pillar" {
			model = model.Mul(math.Scale(0.5, p.size, 0.5))
		} else {
			model = model.Mul(math.Scale(p.size, p.size, p.size))
		}
		r.Objects = append(r.Objects, Object{
			Name:  p.name,
			Shape: ShapeCube,
			Model: model,
			Color: p.color,
			Layer: LayerProps,
		})
	}
	return r
}

// PlaneDistance returns the signed distance d of the wall facing normal,
// so that the wall is the plane normal · x = d. Directions that match no
// wall return 0.
func (r *Room) PlaneDistance(normal math.Vec3) float32 {
	switch {
	case normal.ApproxEqual(math.Vec3{Y: 1}, 1e-4):
		return 0
	case normal.ApproxEqual(math.Vec3{Y: -1}, 1e-4):
		return -r.Height
	case normal.ApproxEqual(math.Vec3{X: 1}, 1e-4), normal.ApproxEqual(math.Vec3{X: -1}, 1e-4):
		return -r.HalfWidth
	case normal.ApproxEqual(math.Vec3{Z: 1}, 1e-4), normal.ApproxEqual(math.Vec3{Z: -1}, 1e-4):
		return -r.HalfDepth
	}
	return 0
}

// SetMirror marks the wall facing normal as a mirror sampling the global
// texture name. It reports whether a wall matched.
func (r *Room) SetMirror(normal math.Vec3, name string) bool {
	for i := range r.Objects {
		o := &r.Objects[i]
		if o.Shape == ShapeQuad && o.Normal.ApproxEqual(normal, 1e-4) {
			o.Mirror = name
			return true
		}
	}
	return false
}

// ClearMirrors turns every wall back into a plain surface.
func (r *Room) ClearMirrors() {
	for i := range r.Objects {
		r.Objects[i].Mirror = ""
	}
}

// Bounds returns the box enclosed by the walls.
func (r *Room) Bounds() math.AABB {
	return math.NewAABB(
		math.Vec3{X: -r.HalfWidth, Y: 0, Z: -r.HalfDepth},
		math.Vec3{X: r.HalfWidth, Y: r.Height, Z: r.HalfDepth},
	)
}

// PropBounds returns the world bounds of every prop, in object order.
func (r *Room) PropBounds() []math.AABB {
	unit := math.NewAABB(math.Vec3{X: -0.5, Y: -0.5, Z: -0.5}, math.Vec3{X: 0.5, Y: 0.5, Z: 0.5})
	var boxes []math.AABB
	for _, o := range r.Objects {
		if o.Shape == ShapeCube {
			boxes = append(boxes, unit.Transform(o.Model))
		}
	}
	return boxes
}

// Center returns the point the default camera orbits.
func (r *Room) Center() math.Vec3 {
	return math.Vec3{Y: r.Height * 0.4}
}

func rotateX(deg float32) math.Mat4 {
	return math.QuatFromAxisAngle(math.Vec3{X: 1}, radians(deg)).Mat4()
}

func rotateY(deg float32) math.Mat4 {
	return math.QuatFromAxisAngle(math.Vec3{Y: 1}, radians(deg)).Mat4()
}

func radians(deg float32) float32 {
	return deg * gomath.Pi / 180
}
