package voxel

import "fmt"

// Material tags a voxel for colouring and edit targeting. Zero is open air.
type Material uint8

const (
	Air Material = iota
	Grass
	Dirt
	Stone
	Sand
	Snow
)

func (m Material) String() string {
	switch m {
	case Air:
		return "air"
	case Grass:
		return "grass"
	case Dirt:
		return "dirt"
	case Stone:
		return "stone"
	case Sand:
		return "sand"
	case Snow:
		return "snow"
	}
	return fmt.Sprintf("material(%d)", uint8(m))
}

// Voxel is one density sample. Negative density is solid, zero and above is open.
type Voxel struct {
	Density  float32
	Material Material
}

// Solid reports whether the sample lies inside the surface.
func (v Voxel) Solid() bool {
	return v.Density < 0
}

// Coord identifies a chunk in chunk-grid units.
type Coord struct {
	X, Y, Z int
}

func (c Coord) Add(o Coord) Coord {
	return Coord{c.X + o.X, c.Y + o.Y, c.Z + o.Z}
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

// LocalCoord addresses a voxel inside one chunk grid.
type LocalCoord struct {
	X, Y, Z int
}

// Clamp pins each axis into [0, size-1]. Out-of-range requests land on the
// nearest boundary voxel instead of being dropped.
func (l LocalCoord) Clamp(size int) LocalCoord {
	return LocalCoord{clampInt(l.X, 0, size-1), clampInt(l.Y, 0, size-1), clampInt(l.Z, 0, size-1)}
}

// InBounds reports whether every axis already lies in [0, size-1].
func (l LocalCoord) InBounds(size int) bool {
	return l.X >= 0 && l.X < size && l.Y >= 0 && l.Y < size && l.Z >= 0 && l.Z < size
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
