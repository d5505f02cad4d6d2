package meshing

import (
	"GopherTerrain/internal/logger"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Mesh is an unwelded triangle soup: every triangle corner owns its vertex, so
// Indices is simply 0..n-1 and len(Positions) == 3*len(Indices).
type Mesh struct {
	Positions []float32 // xyz
	Colors    []float32 // rgba, parallel to Positions
	Indices   []uint32
	Normals   []float32 // xyz, filled by RecalculateNormals
}

func (m *Mesh) appendVertex(p mgl32.Vec3, c mgl32.Vec4) {
	m.Indices = append(m.Indices, uint32(len(m.Positions)/3))
	m.Positions = append(m.Positions, p[0], p[1], p[2])
	m.Colors = append(m.Colors, c[0], c[1], c[2], c[3])
}

func (m *Mesh) VertexCount() int {
	return len(m.Positions) / 3
}

func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

func (m *Mesh) Empty() bool {
	return m == nil || len(m.Indices) == 0
}

func (m *Mesh) Vertex(i int) mgl32.Vec3 {
	return mgl32.Vec3{m.Positions[i*3], m.Positions[i*3+1], m.Positions[i*3+2]}
}

// Clone deep-copies the buffers.
func (m *Mesh) Clone() *Mesh {
	if m == nil {
		return nil
	}
	return &Mesh{
		Positions: append([]float32(nil), m.Positions...),
		Colors:    append([]float32(nil), m.Colors...),
		Indices:   append([]uint32(nil), m.Indices...),
		Normals:   append([]float32(nil), m.Normals...),
	}
}

// RecalculateNormals accumulates face normals per vertex and normalises them.
// Degenerate triangles contribute nothing.
func RecalculateNormals(positions []float32, indices []uint32) []float32 {
	if len(positions) == 0 || len(indices) == 0 {
		return nil
	}
	normals := make([]float32, len(positions))

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := int(indices[i])*3, int(indices[i+1])*3, int(indices[i+2])*3
		if i0+2 >= len(positions) || i1+2 >= len(positions) || i2+2 >= len(positions) {
			logger.Log.Warn("Triangle index out of bounds",
				zap.Int("triangle", i/3),
				zap.Int("vertices", len(positions)/3))
			continue
		}

		v0 := mgl32.Vec3{positions[i0], positions[i0+1], positions[i0+2]}
		v1 := mgl32.Vec3{positions[i1], positions[i1+1], positions[i1+2]}
		v2 := mgl32.Vec3{positions[i2], positions[i2+1], positions[i2+2]}

		n := v1.Sub(v0).Cross(v2.Sub(v0))
		if n.Len() == 0 {
			continue
		}
		n = n.Normalize()
		for j := 0; j < 3; j++ {
			normals[i0+j] += n[j]
			normals[i1+j] += n[j]
			normals[i2+j] += n[j]
		}
	}

	for i := 0; i+2 < len(normals); i += 3 {
		n := mgl32.Vec3{normals[i], normals[i+1], normals[i+2]}
		if n.Len() == 0 {
			continue
		}
		n = n.Normalize()
		normals[i], normals[i+1], normals[i+2] = n[0], n[1], n[2]
	}
	return normals
}
