package voxel

// Grid is a dense cube of Size³ samples stored flat as z·size² + y·size + x.
type Grid struct {
	Size   int
	Voxels []Voxel
}

func NewGrid(size int) *Grid {
	return &Grid{
		Size:   size,
		Voxels: make([]Voxel, size*size*size),
	}
}

func (g *Grid) Index(x, y, z int) int {
	return z*g.Size*g.Size + y*g.Size + x
}

func (g *Grid) At(x, y, z int) Voxel {
	return g.Voxels[g.Index(x, y, z)]
}

func (g *Grid) Set(x, y, z int, v Voxel) {
	g.Voxels[g.Index(x, y, z)] = v
}

// Fill evaluates fn for every voxel of the grid.
func (g *Grid) Fill(fn func(x, y, z int) Voxel) {
	i := 0
	for z := 0; z < g.Size; z++ {
		for y := 0; y < g.Size; y++ {
			for x := 0; x < g.Size; x++ {
				g.Voxels[i] = fn(x, y, z)
				i++
			}
		}
	}
}

// Clone returns an independent copy safe to hand to a worker.
func (g *Grid) Clone() *Grid {
	c := &Grid{Size: g.Size, Voxels: make([]Voxel, len(g.Voxels))}
	copy(c.Voxels, g.Voxels)
	return c
}

// Apply writes every overlay entry into the grid.
func (g *Grid) Apply(o *Overlay) {
	o.Range(func(c LocalCoord, v Voxel) {
		if c.InBounds(g.Size) {
			g.Set(c.X, c.Y, c.Z, v)
		}
	})
}
