package tessera

import (
	"github.com/ungerik/go3d/float64/vec2"
	"github.com/ungerik/go3d/float64/vec3"
)

// Tri references three mesh vertices forming a triangle.
type Tri [3]int

// Line references two mesh vertices forming a line-strip segment.
type Line [2]int

// Mesh is the renderable output of tessellation: parallel vertex
// attribute arrays plus an index list. Surface tessellation fills
// Faces; curve tessellation fills Lines. A Mesh is created fresh by
// every Tessellate call and owned by the caller.
type Mesh struct {
	Faces   []Tri
	Lines   []Line
	Points  []vec3.T
	Normals []vec3.T
	UVs     []vec2.T
}

func newMesh() *Mesh {
	return &Mesh{}
}

// addVertex appends one vertex worth of parallel attributes and
// returns its index.
func (m *Mesh) addVertex(pt, normal *vec3.T, uv vec2.T) int {
	m.Points = append(m.Points, *pt)
	m.Normals = append(m.Normals, *normal)
	m.UVs = append(m.UVs, uv)
	return len(m.Points) - 1
}

// VertexCount returns the number of vertices in the mesh.
func (m *Mesh) VertexCount() int {
	return len(m.Points)
}

// PositionBuffer flattens vertex positions into a contiguous buffer,
// three values per vertex, in the layout the rendering subsystem
// uploads directly.
func (m *Mesh) PositionBuffer() []float32 {
	return flatten3(m.Points)
}

// NormalBuffer flattens unit normals, three values per vertex.
func (m *Mesh) NormalBuffer() []float32 {
	return flatten3(m.Normals)
}

// UVBuffer flattens texture coordinates, two values per vertex.
func (m *Mesh) UVBuffer() []float32 {
	buf := make([]float32, 0, 2*len(m.UVs))
	for i := range m.UVs {
		buf = append(buf, float32(m.UVs[i][0]), float32(m.UVs[i][1]))
	}
	return buf
}

// IndexBuffer16 returns the triangle (or line) indices as uint16 when
// the vertex count permits. ok is false when 32-bit indices are
// required; use IndexBuffer32 then.
func (m *Mesh) IndexBuffer16() (indices []uint16, ok bool) {
	if m.VertexCount() > 1<<16 {
		return nil, false
	}
	buf := make([]uint16, 0, 3*len(m.Faces)+2*len(m.Lines))
	for _, f := range m.Faces {
		buf = append(buf, uint16(f[0]), uint16(f[1]), uint16(f[2]))
	}
	for _, l := range m.Lines {
		buf = append(buf, uint16(l[0]), uint16(l[1]))
	}
	return buf, true
}

// IndexBuffer32 returns the triangle (or line) indices as uint32.
func (m *Mesh) IndexBuffer32() []uint32 {
	buf := make([]uint32, 0, 3*len(m.Faces)+2*len(m.Lines))
	for _, f := range m.Faces {
		buf = append(buf, uint32(f[0]), uint32(f[1]), uint32(f[2]))
	}
	for _, l := range m.Lines {
		buf = append(buf, uint32(l[0]), uint32(l[1]))
	}
	return buf
}

// Validate checks the mesh invariants: parallel attribute lengths and
// every index referencing an existing vertex.
func (m *Mesh) Validate() error {
	n := len(m.Points)
	if len(m.Normals) != n {
		return structural("mesh: %d normals for %d points", len(m.Normals), n)
	}
	if len(m.UVs) != n {
		return structural("mesh: %d uvs for %d points", len(m.UVs), n)
	}
	for _, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= n {
				return structural("mesh: face index %d out of range [0, %d)", idx, n)
			}
		}
	}
	for _, l := range m.Lines {
		for _, idx := range l {
			if idx < 0 || idx >= n {
				return structural("mesh: line index %d out of range [0, %d)", idx, n)
			}
		}
	}
	return nil
}

// addQuad emits the two triangles of one grid cell given the four
// corner indices in counter-clockwise order.
func (m *Mesh) addQuad(a, b, c, d int) {
	m.Faces = append(m.Faces, Tri{a, b, c}, Tri{a, c, d})
}

func flatten3(vs []vec3.T) []float32 {
	buf := make([]float32, 0, 3*len(vs))
	for i := range vs {
		buf = append(buf, float32(vs[i][0]), float32(vs[i][1]), float32(vs[i][2]))
	}
	return buf
}
