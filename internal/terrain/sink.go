package terrain

import (
	"GopherTerrain/internal/meshing"
	"GopherTerrain/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
)

// MeshSink receives committed geometry. It is only ever called from the
// goroutine that drives Manager.Tick. renderer.Scene implements it.
type MeshSink interface {
	// Commit replaces the geometry of coord. mesh positions are relative to
	// origin and carry normals.
	Commit(coord voxel.Coord, origin mgl32.Vec3, mesh *meshing.Mesh)
	// Decorate attaches decoration anchors (world space) to coord.
	Decorate(coord voxel.Coord, positions []mgl32.Vec3)
	// Release drops everything attached to coord.
	Release(coord voxel.Coord)
}

// Sampler is the density source a manager fills grids from. *density.Field
// implements it.
type Sampler interface {
	Voxel(x, y, z float64) voxel.Voxel
}

type nopSink struct{}

func (nopSink) Commit(voxel.Coord, mgl32.Vec3, *meshing.Mesh) {}
func (nopSink) Decorate(voxel.Coord, []mgl32.Vec3)            {}
func (nopSink) Release(voxel.Coord)                           {}
