// Package meshing turns voxel density grids into triangle soups with Marching
// Cubes.
package meshing

import (
	"GopherTerrain/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
)

// Placeholder is the uniform vertex colour used when no ColorFunc is set.
var Placeholder = mgl32.Vec4{0.42, 0.58, 0.31, 1}

// ColorFunc picks a vertex colour from the solid voxel a triangle was cut from.
type ColorFunc func(v voxel.Voxel) mgl32.Vec4

// Options positions the output mesh. A grid voxel (x, y, z) ends up at
// ((x, y, z) + Offset) * Scale.
type Options struct {
	Scale  float32
	Offset mgl32.Vec3
	Color  ColorFunc
}

// Extract runs Marching Cubes over every unit cube of the grid. It only reads
// the grid, so it is safe to call from a worker goroutine while the grid is
// not being written.
func Extract(grid *voxel.Grid, opts Options) *Mesh {
	if opts.Scale == 0 {
		opts.Scale = 1
	}
	mesh := &Mesh{}
	n := grid.Size
	if n < 2 {
		return mesh
	}

	var corners [8]voxel.Voxel
	for z := 0; z < n-1; z++ {
		for y := 0; y < n-1; y++ {
			for x := 0; x < n-1; x++ {
				config := uint8(0)
				for i, off := range cornerOffsets {
					corners[i] = grid.At(x+off[0], y+off[1], z+off[2])
					if corners[i].Density < 0 {
						config |= 1 << uint(i)
					}
				}
				if config == 0 || config == 0xFF {
					continue
				}
				polygonise(mesh, &corners, config, x, y, z, &opts)
			}
		}
	}
	return mesh
}

func polygonise(mesh *Mesh, corners *[8]voxel.Voxel, config uint8, x, y, z int, opts *Options) {
	row := &triangulation[config]
	base := mgl32.Vec3{float32(x), float32(y), float32(z)}

	for i := 0; row[i] >= 0; i += 3 {
		color := Placeholder
		if opts.Color != nil {
			color = opts.Color(solidCorner(corners, int(row[i])))
		}
		for k := 0; k < 3; k++ {
			p := edgeVertex(corners, int(row[i+k]))
			p = base.Add(p).Add(opts.Offset).Mul(opts.Scale)
			mesh.appendVertex(p, color)
		}
	}
}

// edgeVertex places the zero crossing on edge e in cube-local space.
func edgeVertex(corners *[8]voxel.Voxel, e int) mgl32.Vec3 {
	a, b := edgeCornerA[e], edgeCornerB[e]
	t := crossing(corners[a].Density, corners[b].Density)
	pa, pb := cornerOffsets[a], cornerOffsets[b]
	return mgl32.Vec3{
		float32(pa[0]) + t*float32(pb[0]-pa[0]),
		float32(pa[1]) + t*float32(pb[1]-pa[1]),
		float32(pa[2]) + t*float32(pb[2]-pa[2]),
	}
}

// crossing returns where the density crosses zero between d0 (t=0) and d1
// (t=1). Equal densities fall back to the midpoint and anything outside the
// edge is clamped onto it.
func crossing(d0, d1 float32) float32 {
	den := d1 - d0
	if den == 0 {
		return 0.5
	}
	t := -d0 / den
	if t != t {
		return 0.5
	}
	return mgl32.Clamp(t, 0, 1)
}

func solidCorner(corners *[8]voxel.Voxel, e int) voxel.Voxel {
	a, b := edgeCornerA[e], edgeCornerB[e]
	if corners[a].Solid() {
		return corners[a]
	}
	return corners[b]
}

// MaterialColor maps the built-in materials to flat debug colours.
func MaterialColor(v voxel.Voxel) mgl32.Vec4 {
	switch v.Material {
	case voxel.Grass:
		return mgl32.Vec4{0.33, 0.6, 0.22, 1}
	case voxel.Dirt:
		return mgl32.Vec4{0.45, 0.32, 0.2, 1}
	case voxel.Stone:
		return mgl32.Vec4{0.5, 0.5, 0.52, 1}
	case voxel.Sand:
		return mgl32.Vec4{0.86, 0.8, 0.56, 1}
	case voxel.Snow:
		return mgl32.Vec4{0.95, 0.96, 0.98, 1}
	}
	return Placeholder
}
