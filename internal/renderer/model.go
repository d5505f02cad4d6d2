package renderer

import (
	"math"

	"GopherTerrain/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
)

// Layer tags a model for ray queries so terrain edits never target
// decorations.
type Layer uint8

const (
	DefaultLayer Layer = iota
	TerrainLayer
	DecorationLayer
)

func (l Layer) String() string {
	switch l {
	case TerrainLayer:
		return "terrain"
	case DecorationLayer:
		return "decoration"
	}
	return "default"
}

type Model struct {
	// HOT DATA - read by culling and ray queries
	ModelMatrix          mgl32.Mat4
	Position             mgl32.Vec3
	Scale                mgl32.Vec3
	Rotation             mgl32.Quat
	BoundingSphereCenter mgl32.Vec3
	BoundingSphereRadius float32
	Layer                Layer

	// COLD DATA - geometry, rebuilt on commit
	Name     string
	Vertices []float32 // xyz, model space
	Colors   []float32 // rgba per vertex
	Indices  []uint32
	Normals  []float32
	Metadata map[string]interface{}
}

// NewModelFromMesh copies mesh buffers into a model placed at position.
// Normals are recomputed when the mesh carries none.
func NewModelFromMesh(name string, mesh *meshing.Mesh, position mgl32.Vec3, layer Layer) *Model {
	m := &Model{
		Name:     name,
		Position: position,
		Scale:    mgl32.Vec3{1, 1, 1},
		Rotation: mgl32.QuatIdent(),
		Layer:    layer,
		Metadata: map[string]interface{}{},
	}
	if mesh != nil {
		buf := mesh.Clone()
		m.Vertices, m.Colors, m.Indices = buf.Positions, buf.Colors, buf.Indices
		m.Normals = buf.Normals
		if len(m.Normals) != len(m.Vertices) {
			m.Normals = meshing.RecalculateNormals(m.Vertices, m.Indices)
		}
	}
	m.updateModelMatrix()
	return m
}

func (m *Model) SetScale(x, y, z float32) {
	m.Scale = mgl32.Vec3{x, y, z}
	m.updateModelMatrix()
}

func (m *Model) Rotate(angleX, angleY, angleZ float32) {
	if m.Rotation == (mgl32.Quat{}) {
		m.Rotation = mgl32.QuatIdent()
	}
	rotationX := mgl32.QuatRotate(mgl32.DegToRad(angleX), mgl32.Vec3{1, 0, 0})
	rotationY := mgl32.QuatRotate(mgl32.DegToRad(angleY), mgl32.Vec3{0, 1, 0})
	rotationZ := mgl32.QuatRotate(mgl32.DegToRad(angleZ), mgl32.Vec3{0, 0, 1})
	m.Rotation = m.Rotation.Mul(rotationX).Mul(rotationY).Mul(rotationZ)
	m.updateModelMatrix()
}

// WorldVertex returns vertex i after the model transform.
func (m *Model) WorldVertex(i int) mgl32.Vec3 {
	v := mgl32.Vec3{m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2]}
	return ApplyModelTransformation(v, m.Position, m.Scale, m.Rotation)
}

func (m *Model) CalculateBoundingSphere() {
	numVertices := len(m.Vertices) / 3
	if numVertices == 0 {
		m.BoundingSphereCenter = m.Position
		m.BoundingSphereRadius = 0
		return
	}

	var center mgl32.Vec3
	for i := 0; i < numVertices; i++ {
		center = center.Add(m.WorldVertex(i))
	}
	center = center.Mul(1.0 / float32(numVertices))

	var maxDistanceSq float32
	for i := 0; i < numVertices; i++ {
		if d := m.WorldVertex(i).Sub(center).LenSqr(); d > maxDistanceSq {
			maxDistanceSq = d
		}
	}

	m.BoundingSphereCenter = center
	m.BoundingSphereRadius = float32(math.Sqrt(float64(maxDistanceSq)))
}

// Raycast tests the bounding sphere first, then every triangle.
func (m *Model) Raycast(ray Ray) (bool, float32, mgl32.Vec3) {
	if hit, _, _ := RayIntersectModel(ray, m); !hit {
		// A ray starting inside the sphere always reports a hit, so a miss
		// here is final.
		return false, 0, mgl32.Vec3{}
	}

	hit := false
	var best float32
	var point mgl32.Vec3
	for i := 0; i+2 < len(m.Indices); i += 3 {
		v0 := m.WorldVertex(int(m.Indices[i]))
		v1 := m.WorldVertex(int(m.Indices[i+1]))
		v2 := m.WorldVertex(int(m.Indices[i+2]))
		if ok, t, p := RayIntersectTriangle(ray, v0, v1, v2); ok && (!hit || t < best) {
			hit, best, point = true, t, p
		}
	}
	return hit, best, point
}

func (m *Model) updateModelMatrix() {
	// Translation * Rotation * Scale
	scaleMatrix := mgl32.Scale3D(m.Scale[0], m.Scale[1], m.Scale[2])
	rotationMatrix := m.Rotation.Mat4()
	translationMatrix := mgl32.Translate3D(m.Position[0], m.Position[1], m.Position[2])
	m.ModelMatrix = translationMatrix.Mul4(rotationMatrix).Mul4(scaleMatrix)
	m.CalculateBoundingSphere()
}

func ApplyModelTransformation(vertex, position, scale mgl32.Vec3, rotation mgl32.Quat) mgl32.Vec3 {
	scaledVertex := mgl32.Vec3{vertex[0] * scale[0], vertex[1] * scale[1], vertex[2] * scale[2]}
	rotatedVertex := rotation.Rotate(scaledVertex)
	return rotatedVertex.Add(position)
}
