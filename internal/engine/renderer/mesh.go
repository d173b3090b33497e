package renderer

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-mirror/pkg/math"
)

// floatsPerVertex is position (3) + normal (3).
const floatsPerVertex = 6

// quadVertices returns a unit quad in the XY plane facing +Z, wound
// counter-clockwise.
func quadVertices() []float32 {
	return []float32{
		-0.5, -0.5, 0, 0, 0, 1,
		0.5, -0.5, 0, 0, 0, 1,
		0.5, 0.5, 0, 0, 0, 1,
		-0.5, -0.5, 0, 0, 0, 1,
		0.5, 0.5, 0, 0, 0, 1,
		-0.5, 0.5, 0, 0, 0, 1,
	}
}

// cubeVertices returns a unit cube centered on the origin with outward
// normals, wound counter-clockwise.
func cubeVertices() []float32 {
	faces := []struct {
		normal, u, v math.Vec3
	}{
		{math.Vec3{X: 1}, math.Vec3{Z: -1}, math.Vec3{Y: 1}},
		{math.Vec3{X: -1}, math.Vec3{Z: 1}, math.Vec3{Y: 1}},
		{math.Vec3{Y: 1}, math.Vec3{X: 1}, math.Vec3{Z: -1}},
		{math.Vec3{Y: -1}, math.Vec3{X: 1}, math.Vec3{Z: 1}},
		{math.Vec3{Z: 1}, math.Vec3{X: 1}, math.Vec3{Y: 1}},
		{math.Vec3{Z: -1}, math.Vec3{X: -1}, math.Vec3{Y: 1}},
	}

	verts := make([]float32, 0, 36*floatsPerVertex)
	for _, f := range faces {
		center := f.normal.Scale(0.5)
		corner := func(su, sv float32) math.Vec3 {
			return center.Add(f.u.Scale(su * 0.5)).Add(f.v.Scale(sv * 0.5))
		}
		quad := []math.Vec3{
			corner(-1, -1), corner(1, -1), corner(1, 1),
			corner(-1, -1), corner(1, 1), corner(-1, 1),
		}
		for _, p := range quad {
			verts = append(verts, p.X, p.Y, p.Z, f.normal.X, f.normal.Y, f.normal.Z)
		}
	}
	return verts
}

// mesh is an uploaded non-indexed triangle list.
type mesh struct {
	vao, vbo uint32
	count    int32
}

func newMesh(vertices []float32) *mesh {
	m := &mesh{count: int32(len(vertices) / floatsPerVertex)}
	gl.GenVertexArrays(1, &m.vao)
	gl.GenBuffers(1, &m.vbo)

	gl.BindVertexArray(m.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	stride := int32(floatsPerVertex * 4)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, gl.PtrOffset(3*4))
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
	return m
}

func (m *mesh) draw() {
	gl.BindVertexArray(m.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, m.count)
}

func (m *mesh) delete() {
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
	}
	if m.vbo != 0 {
		gl.DeleteBuffers(1, &m.vbo)
	}
}
