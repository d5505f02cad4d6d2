package renderer

import (
	"fmt"
	"math"
	"sort"

	"GopherTerrain/internal/logger"
	"GopherTerrain/internal/meshing"
	"GopherTerrain/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Scene is the headless stand-in for a GPU renderer. It keeps one terrain
// model per committed chunk plus that chunk's decorations. It is not safe for
// concurrent use; the terrain manager only calls it from its owning goroutine.
type Scene struct {
	terrain     map[voxel.Coord]*Model
	decorations map[voxel.Coord][]*Model
	uploads     int
}

func NewScene() *Scene {
	return &Scene{
		terrain:     make(map[voxel.Coord]*Model),
		decorations: make(map[voxel.Coord][]*Model),
	}
}

// Commit replaces the terrain model for coord.
func (s *Scene) Commit(coord voxel.Coord, origin mgl32.Vec3, mesh *meshing.Mesh) {
	model := NewModelFromMesh(fmt.Sprintf("chunk %s", coord), mesh, origin, TerrainLayer)
	model.Metadata["coord"] = coord
	s.terrain[coord] = model
	s.uploads++

	logger.Log.Debug("Terrain mesh uploaded",
		zap.Stringer("coord", coord),
		zap.Stringer("layer", model.Layer),
		zap.Int("triangles", len(model.Indices)/3))
}

// Decorate attaches one tree marker per position to coord.
func (s *Scene) Decorate(coord voxel.Coord, positions []mgl32.Vec3) {
	for _, p := range positions {
		tree := newTreeModel(p)
		tree.Metadata["coord"] = coord
		s.decorations[coord] = append(s.decorations[coord], tree)
	}
}

// Release drops the terrain model and decorations of coord.
func (s *Scene) Release(coord voxel.Coord) {
	delete(s.terrain, coord)
	delete(s.decorations, coord)
}

// Uploads counts every Commit since the scene was created.
func (s *Scene) Uploads() int {
	return s.uploads
}

// Models lists every model in a stable order: terrain by coordinate, then
// decorations by coordinate.
func (s *Scene) Models() []*Model {
	coords := make([]voxel.Coord, 0, len(s.terrain))
	for c := range s.terrain {
		coords = append(coords, c)
	}
	sortCoords(coords)

	models := make([]*Model, 0, len(s.terrain))
	for _, c := range coords {
		models = append(models, s.terrain[c])
	}

	coords = coords[:0]
	for c := range s.decorations {
		coords = append(coords, c)
	}
	sortCoords(coords)
	for _, c := range coords {
		models = append(models, s.decorations[c]...)
	}
	return models
}

// VisibleModels filters Models by bounding sphere against f. A nil frustum
// keeps everything.
func (s *Scene) VisibleModels(f *Frustum) []*Model {
	all := s.Models()
	if f == nil {
		return all
	}
	visible := all[:0]
	for _, m := range all {
		if f.IntersectsSphere(m.BoundingSphereCenter, m.BoundingSphereRadius) {
			visible = append(visible, m)
		}
	}
	return visible
}

// Raycast returns the nearest hit among models on layer.
func (s *Scene) Raycast(ray Ray, layer Layer) (*Model, float32, mgl32.Vec3, bool) {
	var (
		best     *Model
		bestDist float32
		bestHit  mgl32.Vec3
	)
	for _, m := range s.Models() {
		if m.Layer != layer {
			continue
		}
		if ok, t, p := m.Raycast(ray); ok && (best == nil || t < bestDist) {
			best, bestDist, bestHit = m, t, p
		}
	}
	return best, bestDist, bestHit, best != nil
}

func sortCoords(coords []voxel.Coord) {
	sort.Slice(coords, func(i, j int) bool {
		a, b := coords[i], coords[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
}

var treeColor = mgl32.Vec4{0.18, 0.42, 0.16, 1}

// newTreeModel builds a square pyramid marker standing on base.
func newTreeModel(base mgl32.Vec3) *Model {
	const w, h = 0.6, 3.0
	corners := []mgl32.Vec3{
		{-w, 0, -w}, {w, 0, -w}, {w, 0, w}, {-w, 0, w}, {0, h, 0},
	}
	faces := [][3]int{{1, 0, 4}, {2, 1, 4}, {3, 2, 4}, {0, 3, 4}, {0, 1, 2}, {0, 2, 3}}

	mesh := &meshing.Mesh{}
	for _, f := range faces {
		for _, i := range f {
			c := corners[i]
			mesh.Indices = append(mesh.Indices, uint32(len(mesh.Positions)/3))
			mesh.Positions = append(mesh.Positions, c[0], c[1], c[2])
			mesh.Colors = append(mesh.Colors, treeColor[0], treeColor[1], treeColor[2], treeColor[3])
		}
	}
	tree := NewModelFromMesh("tree", mesh, base, DecorationLayer)

	// Vary each marker by where it stands so neighbouring trees differ but a
	// replanted chunk looks the same.
	th := treeHash(base)
	size := 0.8 + 0.4*th
	tree.SetScale(size, size, size)
	tree.Rotate(0, 90*th, 0)
	return tree
}

// treeHash maps a position to [0, 1].
func treeHash(p mgl32.Vec3) float32 {
	v := math.Sin(float64(p[0])*12.9898+float64(p[1])*4.1414+float64(p[2])*78.233) * 43758.5453
	return float32(v - math.Floor(v))
}
